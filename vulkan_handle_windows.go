//go:build windows

package geyser

import (
	"unsafe"

	"github.com/ebitengine/purego"
	vk "github.com/vulkan-go/vulkan"
)

// Windows builds share memory and sync objects as opaque NT handles. The
// numeric handle value is only meaningful to the receiving process after
// OS-level duplication (DuplicateHandle); the caller's transport owns that.

func registerPlatformHandleProcs(p *vulkanProcs, resolve func(name, alias string) uintptr) {
	if addr := resolve("vkGetMemoryWin32HandleKHR", ""); addr != 0 {
		purego.RegisterFunc(&p.getMemoryWin32Handle, addr)
	}
	if addr := resolve("vkGetSemaphoreWin32HandleKHR", ""); addr != 0 {
		purego.RegisterFunc(&p.getSemaphoreWin32Handle, addr)
	}
	if addr := resolve("vkImportSemaphoreWin32HandleKHR", ""); addr != 0 {
		purego.RegisterFunc(&p.importSemaphoreWin32Handle, addr)
	}
	if addr := resolve("vkGetFenceWin32HandleKHR", ""); addr != 0 {
		purego.RegisterFunc(&p.getFenceWin32Handle, addr)
	}
	if addr := resolve("vkImportFenceWin32HandleKHR", ""); addr != 0 {
		purego.RegisterFunc(&p.importFenceWin32Handle, addr)
	}
}

func externalHandleKind() ExternalHandleKind {
	return HandleKindOpaqueWin32
}

func (m *VulkanShareManager) exportMemoryHandle(memory vk.DeviceMemory) (uint64, ExternalHandleKind, error) {
	if m.procs == nil || m.procs.getMemoryWin32Handle == nil {
		return 0, 0, ErrOperationNotSupported
	}
	info := memoryGetWin32HandleInfo{
		sType:      sTypeMemoryGetWin32HandleInfo,
		memory:     rawHandle(memory),
		handleType: uint32(HandleKindOpaqueWin32),
	}
	var handle uintptr
	ret := vk.Result(m.procs.getMemoryWin32Handle(dispatchableAddr(m.device), unsafe.Pointer(&info), unsafe.Pointer(&handle)))
	if isError(ret) {
		return 0, 0, newError("vkGetMemoryWin32HandleKHR", ret)
	}
	return uint64(handle), HandleKindOpaqueWin32, nil
}

func (m *VulkanShareManager) importMemoryForImage(handle VulkanTextureHandle, image vk.Image) (vk.DeviceMemory, error) {
	if handle.HandleKind != HandleKindOpaqueWin32 {
		return vk.NullDeviceMemory, ErrOperationNotSupported
	}
	importInfo := importMemoryWin32HandleInfo{
		sType:      sTypeImportMemoryWin32HandleInfo,
		handleType: uint32(handle.HandleKind),
		handle:     uintptr(handle.RawHandle),
	}
	chain := unsafe.Pointer(&importInfo)
	var dedicated memoryDedicatedAllocateInfo
	if handle.DedicatedAllocation {
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
		return vk.NullDeviceMemory, newError("vkAllocateMemory(import win32)", ret)
	}
	return memory, nil
}

func (m *VulkanShareManager) exportSemaphoreHandle(sem vk.Semaphore) (uint64, ExternalHandleKind, error) {
	if m.procs == nil || m.procs.getSemaphoreWin32Handle == nil {
		return 0, 0, ErrOperationNotSupported
	}
	info := semaphoreGetWin32HandleInfo{
		sType:      sTypeSemaphoreGetWin32HandleInfo,
		semaphore:  rawHandle(sem),
		handleType: uint32(HandleKindOpaqueWin32),
	}
	var handle uintptr
	ret := vk.Result(m.procs.getSemaphoreWin32Handle(dispatchableAddr(m.device), unsafe.Pointer(&info), unsafe.Pointer(&handle)))
	if isError(ret) {
		return 0, 0, newError("vkGetSemaphoreWin32HandleKHR", ret)
	}
	return uint64(handle), HandleKindOpaqueWin32, nil
}

func (m *VulkanShareManager) importSemaphoreHandle(sem vk.Semaphore, handle VulkanSemaphoreHandle) error {
	if m.procs == nil || m.procs.importSemaphoreWin32Handle == nil {
		return ErrOperationNotSupported
	}
	if handle.HandleKind != HandleKindOpaqueWin32 {
		return ErrOperationNotSupported
	}
	info := importSemaphoreWin32HandleInfo{
		sType:      sTypeImportSemaphoreWin32HandleInfo,
		semaphore:  rawHandle(sem),
		handleType: uint32(handle.HandleKind),
		handle:     uintptr(handle.RawHandle),
	}
	ret := vk.Result(m.procs.importSemaphoreWin32Handle(dispatchableAddr(m.device), unsafe.Pointer(&info)))
	return newError("vkImportSemaphoreWin32HandleKHR", ret)
}

func (m *VulkanShareManager) exportFenceHandle(fence vk.Fence) (uint64, ExternalHandleKind, error) {
	if m.procs == nil || m.procs.getFenceWin32Handle == nil {
		return 0, 0, ErrOperationNotSupported
	}
	info := fenceGetWin32HandleInfo{
		sType:      sTypeFenceGetWin32HandleInfo,
		fence:      rawHandle(fence),
		handleType: uint32(HandleKindOpaqueWin32),
	}
	var handle uintptr
	ret := vk.Result(m.procs.getFenceWin32Handle(dispatchableAddr(m.device), unsafe.Pointer(&info), unsafe.Pointer(&handle)))
	if isError(ret) {
		return 0, 0, newError("vkGetFenceWin32HandleKHR", ret)
	}
	return uint64(handle), HandleKindOpaqueWin32, nil
}

func (m *VulkanShareManager) importFenceHandle(fence vk.Fence, handle VulkanFenceHandle) error {
	if m.procs == nil || m.procs.importFenceWin32Handle == nil {
		return ErrOperationNotSupported
	}
	if handle.HandleKind != HandleKindOpaqueWin32 {
		return ErrOperationNotSupported
	}
	info := importFenceWin32HandleInfo{
		sType:      sTypeImportFenceWin32HandleInfo,
		fence:      rawHandle(fence),
		handleType: uint32(handle.HandleKind),
		handle:     uintptr(handle.RawHandle),
	}
	ret := vk.Result(m.procs.importFenceWin32Handle(dispatchableAddr(m.device), unsafe.Pointer(&info)))
	return newError("vkImportFenceWin32HandleKHR", ret)
}
