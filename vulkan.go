package geyser

import (
	"log"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// VulkanShareManager implements TextureShareManager over an existing Vulkan
// device. The caller supplies the instance, physical device, logical device
// and a queue family index; acquiring those is outside this package (see
// Platform for an optional bootstrap). The manager keeps created, exported
// and imported native resources alive in registries keyed by raw handle
// value until they are released or the manager is destroyed.
//
// The manager is safe for concurrent use; only the registries are shared
// mutable state. It performs no queue submissions, so no external queue
// serialization is required on its behalf.
type VulkanShareManager struct {
	instance         vk.Instance
	gpu              vk.PhysicalDevice
	device           vk.Device
	queueFamilyIndex uint32
	memoryProperties vk.PhysicalDeviceMemoryProperties
	procs            *vulkanProcs

	memory     *handleRegistry[vk.DeviceMemory]
	semaphores *handleRegistry[vk.Semaphore]
	fences     *handleRegistry[vk.Fence]
}

var _ TextureShareManager = (*VulkanShareManager)(nil)

// NewVulkanShareManager binds a manager to a pre-constructed device context.
// The device must have been created with the external-memory/-semaphore/
// -fence extensions (and VK_KHR_timeline_semaphore for the timeline
// operations); Platform enables all of them.
func NewVulkanShareManager(instance vk.Instance, gpu vk.PhysicalDevice, device vk.Device, queueFamilyIndex uint32) (*VulkanShareManager, error) {
	if instance == nil || gpu == nil || device == nil {
		return nil, &InitializationError{Backend: BackendVulkan, Reason: "nil instance, physical device or device"}
	}
	procs, err := loadVulkanProcs(device)
	if err != nil {
		return nil, err
	}
	m := &VulkanShareManager{
		instance:         instance,
		gpu:              gpu,
		device:           device,
		queueFamilyIndex: queueFamilyIndex,
		procs:            procs,
		memory:           newHandleRegistry[vk.DeviceMemory](),
		semaphores:       newHandleRegistry[vk.Semaphore](),
		fences:           newHandleRegistry[vk.Fence](),
	}
	vk.GetPhysicalDeviceMemoryProperties(gpu, &m.memoryProperties)
	m.memoryProperties.Deref()
	return m, nil
}

func (m *VulkanShareManager) Instance() vk.Instance             { return m.instance }
func (m *VulkanShareManager) PhysicalDevice() vk.PhysicalDevice { return m.gpu }
func (m *VulkanShareManager) Device() vk.Device                 { return m.device }
func (m *VulkanShareManager) QueueFamilyIndex() uint32          { return m.queueFamilyIndex }

// CreateShareableTexture allocates an image tagged at creation time as
// externally shareable and binds it to a dedicated allocation. The external
// tag cannot be added after image creation, and non-dedicated external
// allocations are not portably importable, so both are unconditional here.
// The allocation is registered under its own raw value immediately so that
// manager teardown reclaims it even if the texture is never exported; export
// rekeys the entry under the platform handle.
func (m *VulkanShareManager) CreateShareableTexture(desc TextureDescriptor) (SharedTexture, error) {
	if err := desc.validate(BackendVulkan); err != nil {
		return nil, err
	}
	image, err := m.createImage(desc, externalHandleKind())
	if err != nil {
		return nil, err
	}

	var memReqs vk.MemoryRequirements
	vk.GetImageMemoryRequirements(m.device, image, &memReqs)
	memReqs.Deref()

	exportInfo := exportMemoryAllocateInfo{
		sType:       sTypeExportMemoryAllocateInfo,
		handleTypes: uint32(externalHandleKind()),
	}
	dedicated := memoryDedicatedAllocateInfo{
		sType: sTypeMemoryDedicatedAllocateInfo,
		image: rawHandle(image),
	}
	if externalHandleKind() != 0 {
		dedicated.pNext = unsafe.Pointer(&exportInfo)
	}

	var memory vk.DeviceMemory
	ret := vk.AllocateMemory(m.device, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		PNext:           unsafe.Pointer(&dedicated),
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: m.allocMemoryType(memReqs.MemoryTypeBits),
	}, nil, &memory)
	if isError(ret) {
		vk.DestroyImage(m.device, image, nil)
		return nil, newError("vkAllocateMemory", ret)
	}

	ret = vk.BindImageMemory(m.device, image, memory, 0)
	if isError(ret) {
		vk.FreeMemory(m.device, memory, nil)
		vk.DestroyImage(m.device, image, nil)
		return nil, newError("vkBindImageMemory", ret)
	}

	m.memory.insert(rawHandle(memory), memory)
	return &VulkanSharedTexture{
		device:   m.device,
		image:    image,
		memory:   memory,
		owned:    true,
		desc:     desc,
		registry: m.memory,
	}, nil
}

// ExportTexture extracts the platform handle for the texture's backing
// memory and rekeys the memory's registry entry under the handle value so it
// outlives the texture wrapper. A texture exports at most once: a second
// export would mint a second platform handle aliasing the same allocation,
// and releasing both would free it twice, so it reports ErrResourceInUse.
// The memory-type index recorded in the handle is the first compatible bit
// of the image's requirement mask; with a physically different importer GPU
// that index is not guaranteed to resolve, which the importer surfaces as an
// APIError.
func (m *VulkanShareManager) ExportTexture(texture SharedTexture) (TextureHandle, error) {
	vt, ok := texture.(*VulkanSharedTexture)
	if !ok {
		return nil, ErrInvalidTextureHandle
	}
	if !vt.owned || vt.imported != nil {
		return nil, ErrNoExportableAllocation
	}
	if vt.exported {
		return nil, ErrResourceInUse
	}
	if vt.memory == vk.NullDeviceMemory {
		return nil, ErrNoExportableAllocation
	}

	raw, kind, err := m.exportMemoryHandle(vt.memory)
	if err != nil {
		return nil, err
	}

	var memReqs vk.MemoryRequirements
	vk.GetImageMemoryRequirements(m.device, vt.image, &memReqs)
	memReqs.Deref()

	handle := VulkanTextureHandle{
		RawHandle:           raw,
		MemoryTypeIndex:     firstCompatibleMemoryType(memReqs.MemoryTypeBits),
		Size:                uint64(memReqs.Size),
		HandleKind:          kind,
		DedicatedAllocation: true,
	}
	m.memory.remove(rawHandle(vt.memory))
	m.memory.insert(handle.RawHandle, vt.memory)
	vt.exported = true
	return handle, nil
}

// ImportTexture rebuilds a texture over externally allocated memory. The
// image is created first, tagged with the handle's kind, then memory is
// allocated through the import path with the dedicated hint naming that
// image, matching the export side's dedicated allocation. Importing the same
// handle value twice is allowed: each import owns its image, the registry
// keeps one entry per raw value and release stays idempotent.
func (m *VulkanShareManager) ImportTexture(handle TextureHandle, desc TextureDescriptor) (SharedTexture, error) {
	vh, ok := handle.(VulkanTextureHandle)
	if !ok {
		return nil, ErrInvalidTextureHandle
	}
	if err := desc.validate(BackendVulkan); err != nil {
		return nil, err
	}

	image, err := m.createImage(desc, vh.HandleKind)
	if err != nil {
		return nil, err
	}
	memory, err := m.importMemoryForImage(vh, image)
	if err != nil {
		vk.DestroyImage(m.device, image, nil)
		return nil, err
	}
	ret := vk.BindImageMemory(m.device, image, memory, 0)
	if isError(ret) {
		vk.FreeMemory(m.device, memory, nil)
		vk.DestroyImage(m.device, image, nil)
		return nil, newError("vkBindImageMemory", ret)
	}

	m.memory.insert(vh.RawHandle, memory)
	imported := vh
	return &VulkanSharedTexture{
		device:   m.device,
		image:    image,
		memory:   memory,
		desc:     desc,
		imported: &imported,
	}, nil
}

// ReleaseTextureHandle frees the backing memory registered under the handle.
// An absent entry is not an error: release may be called from either side of
// a sharing pair, before any export, or twice.
func (m *VulkanShareManager) ReleaseTextureHandle(handle TextureHandle) error {
	vh, ok := handle.(VulkanTextureHandle)
	if !ok {
		return ErrInvalidTextureHandle
	}
	if memory, ok := m.memory.remove(vh.RawHandle); ok {
		vk.FreeMemory(m.device, memory, nil)
	}
	return nil
}

// Destroy drains the registries and frees every native resource still
// registered. Entries found here were never released and are logged as leaks.
func (m *VulkanShareManager) Destroy() {
	if leaked := m.memory.drain(); len(leaked) > 0 {
		log.Printf("vulkan warning: %d texture handles never released", len(leaked))
		for _, memory := range leaked {
			vk.FreeMemory(m.device, memory, nil)
		}
	}
	if leaked := m.semaphores.drain(); len(leaked) > 0 {
		log.Printf("vulkan warning: %d semaphore handles never released", len(leaked))
		for _, sem := range leaked {
			vk.DestroySemaphore(m.device, sem, nil)
		}
	}
	if leaked := m.fences.drain(); len(leaked) > 0 {
		log.Printf("vulkan warning: %d fence handles never released", len(leaked))
		for _, fence := range leaked {
			vk.DestroyFence(m.device, fence, nil)
		}
	}
}

// createImage creates a 2D single-mip image. A non-zero kind links a
// VkExternalMemoryImageCreateInfo into the chain; the external tag must be
// declared at creation time or the image cannot be bound to shared memory.
func (m *VulkanShareManager) createImage(desc TextureDescriptor, kind ExternalHandleKind) (vk.Image, error) {
	format, err := vkFormat(desc.Format)
	if err != nil {
		return vk.NullImage, err
	}
	usage, err := vkImageUsage(desc.Usage, desc.Format)
	if err != nil {
		return vk.NullImage, err
	}

	var pNext unsafe.Pointer
	var extInfo externalMemoryImageCreateInfo
	if kind != 0 {
		extInfo = externalMemoryImageCreateInfo{
			sType:       sTypeExternalMemoryImageCreateInfo,
			handleTypes: uint32(kind),
		}
		pNext = unsafe.Pointer(&extInfo)
	}

	var image vk.Image
	ret := vk.CreateImage(m.device, &vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		PNext:     pNext,
		ImageType: vk.ImageType2d,
		Format:    format,
		Extent: vk.Extent3D{
			Width:  desc.Width,
			Height: desc.Height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         usage,
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}, nil, &image)
	if isError(ret) {
		return vk.NullImage, newError("vkCreateImage", ret)
	}
	return image, nil
}

// allocMemoryType prefers a device-local type among the compatible bits and
// falls back to the first compatible one.
func (m *VulkanShareManager) allocMemoryType(typeBits uint32) uint32 {
	for i := uint32(0); i < vk.MaxMemoryTypes; i++ {
		if typeBits&(1<<i) == 0 {
			continue
		}
		m.memoryProperties.MemoryTypes[i].Deref()
		flags := m.memoryProperties.MemoryTypes[i].PropertyFlags
		if flags&vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit) != 0 {
			return i
		}
	}
	return firstCompatibleMemoryType(typeBits)
}

// firstCompatibleMemoryType is the lowest index whose bit is set. This is the
// documented export policy: all compatible heaps are assumed interchangeable
// on the exporting device.
func firstCompatibleMemoryType(typeBits uint32) uint32 {
	for i := uint32(0); i < vk.MaxMemoryTypes; i++ {
		if typeBits&(1<<i) != 0 {
			return i
		}
	}
	return 0
}

// VulkanSharedTexture is a live texture bound to a Vulkan device. Destroy
// frees the image and view, plus the backing memory when it was allocated
// here and never exported; exported and imported memory is owned by the
// manager registry until ReleaseTextureHandle.
type VulkanSharedTexture struct {
	device   vk.Device
	image    vk.Image
	view     vk.ImageView
	memory   vk.DeviceMemory
	owned    bool
	exported bool
	desc     TextureDescriptor
	imported *VulkanTextureHandle
	registry *handleRegistry[vk.DeviceMemory]
}

var _ SharedTexture = (*VulkanSharedTexture)(nil)

func (t *VulkanSharedTexture) Width() uint32         { return t.desc.Width }
func (t *VulkanSharedTexture) Height() uint32        { return t.desc.Height }
func (t *VulkanSharedTexture) Format() TextureFormat { return t.desc.Format }
func (t *VulkanSharedTexture) Usage() TextureUsage   { return t.desc.Usage }
func (t *VulkanSharedTexture) Label() string         { return t.desc.Label }

// Image exposes the native image for engines that bind it through their own
// resource-import path.
func (t *VulkanSharedTexture) Image() vk.Image { return t.image }

// View returns the image view, vk.NullImageView until CreateView is called.
func (t *VulkanSharedTexture) View() vk.ImageView { return t.view }

// ImportedHandle returns the handle this texture was imported under, if any.
func (t *VulkanSharedTexture) ImportedHandle() (VulkanTextureHandle, bool) {
	if t.imported == nil {
		return VulkanTextureHandle{}, false
	}
	return *t.imported, true
}

// CreateView creates a 2D view over the whole image. Calling it again is a
// no-op.
func (t *VulkanSharedTexture) CreateView() error {
	if t.view != vk.NullImageView {
		return nil
	}
	format, err := vkFormat(t.desc.Format)
	if err != nil {
		return err
	}
	var view vk.ImageView
	ret := vk.CreateImageView(t.device, &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    t.image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleR,
			G: vk.ComponentSwizzleG,
			B: vk.ComponentSwizzleB,
			A: vk.ComponentSwizzleA,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vkAspect(t.desc.Format),
			LevelCount: 1,
			LayerCount: 1,
		},
	}, nil, &view)
	if isError(ret) {
		return newError("vkCreateImageView", ret)
	}
	t.view = view
	return nil
}

// Destroy releases the view and image. Memory allocated at creation and
// never exported is reclaimed here too; exported or imported memory is left
// alone, since another context may still alias it and the registry entry
// decides its lifetime.
func (t *VulkanSharedTexture) Destroy() {
	if t.view != vk.NullImageView {
		vk.DestroyImageView(t.device, t.view, nil)
		t.view = vk.NullImageView
	}
	if t.image != vk.NullImage {
		vk.DestroyImage(t.device, t.image, nil)
		t.image = vk.NullImage
	}
	if t.owned && !t.exported && t.registry != nil && t.memory != vk.NullDeviceMemory {
		if memory, ok := t.registry.remove(rawHandle(t.memory)); ok {
			vk.FreeMemory(t.device, memory, nil)
		}
		t.memory = vk.NullDeviceMemory
	}
}
