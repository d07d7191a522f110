package geyser

import (
	"unsafe"

	"github.com/ebitengine/purego"
	vk "github.com/vulkan-go/vulkan"
)

// vulkanProcs holds device-level commands resolved at runtime through
// vkGetDeviceProcAddr. The binding's generated surface stops at the 1.1
// header, so the handle export/import commands and the timeline-semaphore
// commands (core in 1.2, KHR before that) are bound here instead. A nil field
// means the driver did not expose the command; callers translate that into
// ErrOperationNotSupported.
type vulkanProcs struct {
	getDeviceProcAddr func(device uintptr, name string) uintptr

	// VK_KHR_external_memory_fd / _win32 (one set per platform build).
	getMemoryFd          func(device uintptr, info unsafe.Pointer, fd unsafe.Pointer) int32
	getMemoryWin32Handle func(device uintptr, info unsafe.Pointer, handle unsafe.Pointer) int32

	// VK_KHR_external_semaphore_fd / _win32.
	getSemaphoreFd             func(device uintptr, info unsafe.Pointer, fd unsafe.Pointer) int32
	importSemaphoreFd          func(device uintptr, info unsafe.Pointer) int32
	getSemaphoreWin32Handle    func(device uintptr, info unsafe.Pointer, handle unsafe.Pointer) int32
	importSemaphoreWin32Handle func(device uintptr, info unsafe.Pointer) int32

	// VK_KHR_external_fence_fd / _win32.
	getFenceFd          func(device uintptr, info unsafe.Pointer, fd unsafe.Pointer) int32
	importFenceFd       func(device uintptr, info unsafe.Pointer) int32
	getFenceWin32Handle func(device uintptr, info unsafe.Pointer, handle unsafe.Pointer) int32
	importFenceWin32Handle func(device uintptr, info unsafe.Pointer) int32

	// Timeline semaphores (Vulkan 1.2 / VK_KHR_timeline_semaphore).
	getSemaphoreCounterValue func(device uintptr, semaphore uint64, value unsafe.Pointer) int32
	waitSemaphores           func(device uintptr, info unsafe.Pointer, timeout uint64) int32
	signalSemaphore          func(device uintptr, info unsafe.Pointer) int32
}

// loadVulkanProcs binds the extension commands for device. The loader library
// is opened per platform (libvulkan.so.1, vulkan-1.dll, libvulkan.dylib).
func loadVulkanProcs(device vk.Device) (*vulkanProcs, error) {
	lib, err := openVulkanLoader()
	if err != nil {
		return nil, &InitializationError{Backend: BackendVulkan, Reason: "open vulkan loader", Err: err}
	}

	p := &vulkanProcs{}
	purego.RegisterLibFunc(&p.getDeviceProcAddr, lib, "vkGetDeviceProcAddr")

	dev := dispatchableAddr(device)
	resolve := func(name, alias string) uintptr {
		if addr := p.getDeviceProcAddr(dev, name); addr != 0 {
			return addr
		}
		if alias != "" {
			return p.getDeviceProcAddr(dev, alias)
		}
		return 0
	}

	registerPlatformHandleProcs(p, resolve)

	if addr := resolve("vkGetSemaphoreCounterValue", "vkGetSemaphoreCounterValueKHR"); addr != 0 {
		purego.RegisterFunc(&p.getSemaphoreCounterValue, addr)
	}
	if addr := resolve("vkWaitSemaphores", "vkWaitSemaphoresKHR"); addr != 0 {
		purego.RegisterFunc(&p.waitSemaphores, addr)
	}
	if addr := resolve("vkSignalSemaphore", "vkSignalSemaphoreKHR"); addr != 0 {
		purego.RegisterFunc(&p.signalSemaphore, addr)
	}
	return p, nil
}

func (p *vulkanProcs) hasTimeline() bool {
	return p != nil && p.getSemaphoreCounterValue != nil &&
		p.waitSemaphores != nil && p.signalSemaphore != nil
}
