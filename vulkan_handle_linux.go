//go:build linux

package geyser

import (
	"unsafe"

	"github.com/ebitengine/purego"
	vk "github.com/vulkan-go/vulkan"
)

// POSIX builds share memory and sync objects as opaque file descriptors.
// The exported fd is owned by the receiver of the handle; the driver takes
// ownership back on a successful import.

func registerPlatformHandleProcs(p *vulkanProcs, resolve func(name, alias string) uintptr) {
	if addr := resolve("vkGetMemoryFdKHR", ""); addr != 0 {
		purego.RegisterFunc(&p.getMemoryFd, addr)
	}
	if addr := resolve("vkGetSemaphoreFdKHR", ""); addr != 0 {
		purego.RegisterFunc(&p.getSemaphoreFd, addr)
	}
	if addr := resolve("vkImportSemaphoreFdKHR", ""); addr != 0 {
		purego.RegisterFunc(&p.importSemaphoreFd, addr)
	}
	if addr := resolve("vkGetFenceFdKHR", ""); addr != 0 {
		purego.RegisterFunc(&p.getFenceFd, addr)
	}
	if addr := resolve("vkImportFenceFdKHR", ""); addr != 0 {
		purego.RegisterFunc(&p.importFenceFd, addr)
	}
}

// externalHandleKind is the handle type declared at creation time for
// images, memory and sync objects on this platform.
func externalHandleKind() ExternalHandleKind {
	return HandleKindOpaqueFD
}

func (m *VulkanShareManager) exportMemoryHandle(memory vk.DeviceMemory) (uint64, ExternalHandleKind, error) {
	if m.procs == nil || m.procs.getMemoryFd == nil {
		return 0, 0, ErrOperationNotSupported
	}
	info := memoryGetFdInfo{
		sType:      sTypeMemoryGetFdInfo,
		memory:     rawHandle(memory),
		handleType: uint32(HandleKindOpaqueFD),
	}
	var fd int32
	ret := vk.Result(m.procs.getMemoryFd(dispatchableAddr(m.device), unsafe.Pointer(&info), unsafe.Pointer(&fd)))
	if isError(ret) {
		return 0, 0, newError("vkGetMemoryFdKHR", ret)
	}
	return uint64(fd), HandleKindOpaqueFD, nil
}

func (m *VulkanShareManager) importMemoryForImage(handle VulkanTextureHandle, image vk.Image) (vk.DeviceMemory, error) {
	if handle.HandleKind != HandleKindOpaqueFD {
		return vk.NullDeviceMemory, ErrOperationNotSupported
	}
	importInfo := importMemoryFdInfo{
		sType:      sTypeImportMemoryFdInfo,
		handleType: uint32(handle.HandleKind),
		fd:         int32(handle.RawHandle),
	}
	chain := unsafe.Pointer(&importInfo)
	var dedicated memoryDedicatedAllocateInfo
	if handle.DedicatedAllocation {
		// The exporter used a dedicated allocation, so the import must carry
		// the matching dedicated hint naming the image it will be bound to.
		dedicated = memoryDedicatedAllocateInfo{
			sType: sTypeMemoryDedicatedAllocateInfo,
			pNext: chain,
			image: rawHandle(image),
		}
		chain = unsafe.Pointer(&dedicated)
	}
	var memory vk.DeviceMemory
	ret := vk.AllocateMemory(m.device, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		PNext:           chain,
		AllocationSize:  vk.DeviceSize(handle.Size),
		MemoryTypeIndex: handle.MemoryTypeIndex,
	}, nil, &memory)
	if isError(ret) {
		return vk.NullDeviceMemory, newError("vkAllocateMemory(import fd)", ret)
	}
	return memory, nil
}

func (m *VulkanShareManager) exportSemaphoreHandle(sem vk.Semaphore) (uint64, ExternalHandleKind, error) {
	if m.procs == nil || m.procs.getSemaphoreFd == nil {
		return 0, 0, ErrOperationNotSupported
	}
	info := semaphoreGetFdInfo{
		sType:      sTypeSemaphoreGetFdInfo,
		semaphore:  rawHandle(sem),
		handleType: uint32(HandleKindOpaqueFD),
	}
	var fd int32
	ret := vk.Result(m.procs.getSemaphoreFd(dispatchableAddr(m.device), unsafe.Pointer(&info), unsafe.Pointer(&fd)))
	if isError(ret) {
		return 0, 0, newError("vkGetSemaphoreFdKHR", ret)
	}
	return uint64(fd), HandleKindOpaqueFD, nil
}

func (m *VulkanShareManager) importSemaphoreHandle(sem vk.Semaphore, handle VulkanSemaphoreHandle) error {
	if m.procs == nil || m.procs.importSemaphoreFd == nil {
		return ErrOperationNotSupported
	}
	if handle.HandleKind != HandleKindOpaqueFD {
		return ErrOperationNotSupported
	}
	info := importSemaphoreFdInfo{
		sType:      sTypeImportSemaphoreFdInfo,
		semaphore:  rawHandle(sem),
		handleType: uint32(handle.HandleKind),
		fd:         int32(handle.RawHandle),
	}
	ret := vk.Result(m.procs.importSemaphoreFd(dispatchableAddr(m.device), unsafe.Pointer(&info)))
	return newError("vkImportSemaphoreFdKHR", ret)
}

func (m *VulkanShareManager) exportFenceHandle(fence vk.Fence) (uint64, ExternalHandleKind, error) {
	if m.procs == nil || m.procs.getFenceFd == nil {
		return 0, 0, ErrOperationNotSupported
	}
	info := fenceGetFdInfo{
		sType:      sTypeFenceGetFdInfo,
		fence:      rawHandle(fence),
		handleType: uint32(HandleKindOpaqueFD),
	}
	var fd int32
	ret := vk.Result(m.procs.getFenceFd(dispatchableAddr(m.device), unsafe.Pointer(&info), unsafe.Pointer(&fd)))
	if isError(ret) {
		return 0, 0, newError("vkGetFenceFdKHR", ret)
	}
	return uint64(fd), HandleKindOpaqueFD, nil
}

func (m *VulkanShareManager) importFenceHandle(fence vk.Fence, handle VulkanFenceHandle) error {
	if m.procs == nil || m.procs.importFenceFd == nil {
		return ErrOperationNotSupported
	}
	if handle.HandleKind != HandleKindOpaqueFD {
		return ErrOperationNotSupported
	}
	info := importFenceFdInfo{
		sType:      sTypeImportFenceFdInfo,
		fence:      rawHandle(fence),
		handleType: uint32(handle.HandleKind),
		fd:         int32(handle.RawHandle),
	}
	ret := vk.Result(m.procs.importFenceFd(dispatchableAddr(m.device), unsafe.Pointer(&info)))
	return newError("vkImportFenceFdKHR", ret)
}
