package geyser

import (
	"errors"
	"log"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"
)

// PlatformConfig configures the optional Vulkan bootstrap. Everything has a
// usable zero value; a nil Window means a headless (compute/transfer only)
// platform.
type PlatformConfig struct {
	// AppName is reported in VkApplicationInfo.
	AppName string
	// APIVersion defaults to Vulkan 1.1; the timeline-semaphore extension is
	// requested either way.
	APIVersion uint32
	// Debug registers a debug report callback mirroring driver messages to
	// the log.
	Debug bool
	// Window, when set, contributes its required instance extensions and a
	// presentation surface. The window must have been created with
	// glfw.ClientAPI set to glfw.NoAPI.
	Window *glfw.Window
	// InstanceExtensions and DeviceExtensions are appended to the sharing
	// sets.
	InstanceExtensions []string
	DeviceExtensions   []string
}

// Platform owns a Vulkan instance and device created with the sharing
// extension sets enabled. It exists for callers that do not already carry a
// Vulkan context; engines that do should hand their handles straight to
// NewVulkanShareManager.
type Platform struct {
	instance vk.Instance
	gpu      vk.PhysicalDevice
	device   vk.Device
	queue    vk.Queue

	graphicsQueueIndex uint32
	surface            vk.Surface
	debugCallback      vk.DebugReportCallback

	gpuProperties    vk.PhysicalDeviceProperties
	memoryProperties vk.PhysicalDeviceMemoryProperties
}

// NewPlatform initializes the Vulkan loader, creates an instance and picks
// the first GPU exposing a graphics queue family. Missing sharing extensions
// are logged and skipped rather than failing init.
func NewPlatform(config PlatformConfig) (p *Platform, err error) {
	defer checkErr(&err)

	if config.Window != nil {
		vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	} else if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
		return nil, &InitializationError{Backend: BackendVulkan, Reason: "load vulkan loader", Err: err}
	}
	if err := vk.Init(); err != nil {
		return nil, &InitializationError{Backend: BackendVulkan, Reason: "init vulkan binding", Err: err}
	}

	p = &Platform{}

	// Select instance extensions
	requiredInstanceExtensions := SharingInstanceExtensions()
	if config.Window != nil {
		requiredInstanceExtensions = append(requiredInstanceExtensions, config.Window.GetRequiredInstanceExtensions()...)
	}
	if config.Debug {
		requiredInstanceExtensions = append(requiredInstanceExtensions, "VK_EXT_debug_report")
	}
	requiredInstanceExtensions = safeStrings(append(requiredInstanceExtensions, config.InstanceExtensions...))
	actualInstanceExtensions, err := InstanceExtensions()
	orPanic(err)
	instanceExtensions, missing := checkExisting(actualInstanceExtensions, requiredInstanceExtensions)
	if missing > 0 {
		log.Println("vulkan warning: missing", missing, "required instance extensions during init")
	}

	apiVersion := config.APIVersion
	if apiVersion == 0 {
		apiVersion = uint32(vk.ApiVersion11)
	}

	// Create instance
	var instance vk.Instance
	ret := vk.CreateInstance(&vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:            vk.StructureTypeApplicationInfo,
			ApiVersion:       apiVersion,
			PApplicationName: safeString(config.AppName),
			PEngineName:      "geyser\x00",
		},
		EnabledExtensionCount:   uint32(len(instanceExtensions)),
		PpEnabledExtensionNames: instanceExtensions,
	}, nil, &instance)
	orPanic(newError("vkCreateInstance", ret))
	p.instance = instance
	vk.InitInstance(instance)

	if config.Debug {
		ret := vk.CreateDebugReportCallback(instance, &vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit),
			PfnCallback: dbgCallbackFunc,
		}, nil, &p.debugCallback)
		orPanic(newError("vkCreateDebugReportCallback", ret))
	}

	// Find a suitable GPU
	var gpuCount uint32
	ret = vk.EnumeratePhysicalDevices(p.instance, &gpuCount, nil)
	orPanic(newError("vkEnumeratePhysicalDevices", ret))
	if gpuCount == 0 {
		p.Destroy()
		return nil, errors.New("vulkan error: no GPU devices found")
	}
	gpus := make([]vk.PhysicalDevice, gpuCount)
	ret = vk.EnumeratePhysicalDevices(p.instance, &gpuCount, gpus)
	orPanic(newError("vkEnumeratePhysicalDevices", ret))
	// get the first one, multiple GPUs not supported yet
	p.gpu = gpus[0]
	vk.GetPhysicalDeviceProperties(p.gpu, &p.gpuProperties)
	p.gpuProperties.Deref()
	vk.GetPhysicalDeviceMemoryProperties(p.gpu, &p.memoryProperties)
	p.memoryProperties.Deref()

	// Select device extensions
	requiredDeviceExtensions := safeStrings(append(SharingDeviceExtensions(), config.DeviceExtensions...))
	actualDeviceExtensions, err := DeviceExtensions(p.gpu)
	orPanic(err)
	deviceExtensions, missing := checkExisting(actualDeviceExtensions, requiredDeviceExtensions)
	if missing > 0 {
		log.Println("vulkan warning: missing", missing, "required device extensions during init")
	}

	if config.Window != nil {
		surfPtr, err := config.Window.CreateWindowSurface(instance, nil)
		if err != nil {
			p.Destroy()
			return nil, &InitializationError{Backend: BackendVulkan, Reason: "create window surface", Err: err}
		}
		p.surface = vk.SurfaceFromPointer(surfPtr)
	}

	// Find a graphics queue family
	var queueCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(p.gpu, &queueCount, nil)
	queueProperties := make([]vk.QueueFamilyProperties, queueCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(p.gpu, &queueCount, queueProperties)
	if queueCount == 0 {
		p.Destroy()
		return nil, errors.New("vulkan error: no queue families found on GPU 0")
	}
	var graphicsFound bool
	for i := uint32(0); i < queueCount; i++ {
		queueProperties[i].Deref()
		if queueProperties[i].QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
			p.graphicsQueueIndex = i
			graphicsFound = true
			break
		}
	}
	if !graphicsFound {
		p.Destroy()
		return nil, errors.New("vulkan error: could not find a graphics queue family")
	}

	// Create a Vulkan device
	var device vk.Device
	ret = vk.CreateDevice(p.gpu, &vk.DeviceCreateInfo{
		SType: vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount: 1,
		PQueueCreateInfos: []vk.DeviceQueueCreateInfo{{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: p.graphicsQueueIndex,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}},
		EnabledExtensionCount:   uint32(len(deviceExtensions)),
		PpEnabledExtensionNames: deviceExtensions,
	}, nil, &device)
	orPanic(newError("vkCreateDevice", ret))
	p.device = device

	var queue vk.Queue
	vk.GetDeviceQueue(p.device, p.graphicsQueueIndex, 0, &queue)
	p.queue = queue
	return p, nil
}

func (p *Platform) MemoryProperties() vk.PhysicalDeviceMemoryProperties {
	return p.memoryProperties
}

func (p *Platform) PhysicalDeviceProperties() vk.PhysicalDeviceProperties {
	return p.gpuProperties
}

func (p *Platform) GraphicsQueueFamilyIndex() uint32 {
	return p.graphicsQueueIndex
}

func (p *Platform) GraphicsQueue() vk.Queue {
	return p.queue
}

func (p *Platform) Instance() vk.Instance {
	return p.instance
}

func (p *Platform) Device() vk.Device {
	return p.device
}

func (p *Platform) PhysicalDevice() vk.PhysicalDevice {
	return p.gpu
}

func (p *Platform) Surface() vk.Surface {
	return p.surface
}

// ShareManager binds a VulkanShareManager to this platform's device.
func (p *Platform) ShareManager() (*VulkanShareManager, error) {
	return NewVulkanShareManager(p.instance, p.gpu, p.device, p.graphicsQueueIndex)
}

// Destroy tears the platform down in reverse creation order.
func (p *Platform) Destroy() {
	if p.device != nil {
		vk.DeviceWaitIdle(p.device)
	}
	if p.surface != vk.NullSurface {
		vk.DestroySurface(p.instance, p.surface, nil)
		p.surface = vk.NullSurface
	}
	if p.device != nil {
		vk.DestroyDevice(p.device, nil)
		p.device = nil
	}
	if p.debugCallback != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(p.instance, p.debugCallback, nil)
		p.debugCallback = vk.NullDebugReportCallback
	}
	if p.instance != nil {
		vk.DestroyInstance(p.instance, nil)
		p.instance = nil
	}
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
	object uint64, location uint, messageCode int32, pLayerPrefix string,
	pMessage string, pUserData unsafe.Pointer) vk.Bool32 {

	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		log.Printf("vulkan error: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		log.Printf("vulkan warning: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		log.Printf("vulkan: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
