//go:build !linux && !windows

package geyser

import vk "github.com/vulkan-go/vulkan"

// No external-handle export path exists on this platform build. Creation
// still works (images are simply not tagged shareable), export and import
// report ErrOperationNotSupported.

func registerPlatformHandleProcs(p *vulkanProcs, resolve func(name, alias string) uintptr) {}

func externalHandleKind() ExternalHandleKind {
	return 0
}

func (m *VulkanShareManager) exportMemoryHandle(memory vk.DeviceMemory) (uint64, ExternalHandleKind, error) {
	return 0, 0, ErrOperationNotSupported
}

func (m *VulkanShareManager) importMemoryForImage(handle VulkanTextureHandle, image vk.Image) (vk.DeviceMemory, error) {
	return vk.NullDeviceMemory, ErrOperationNotSupported
}

func (m *VulkanShareManager) exportSemaphoreHandle(sem vk.Semaphore) (uint64, ExternalHandleKind, error) {
	return 0, 0, ErrOperationNotSupported
}

func (m *VulkanShareManager) importSemaphoreHandle(sem vk.Semaphore, handle VulkanSemaphoreHandle) error {
	return ErrOperationNotSupported
}

func (m *VulkanShareManager) exportFenceHandle(fence vk.Fence) (uint64, ExternalHandleKind, error) {
	return 0, 0, ErrOperationNotSupported
}

func (m *VulkanShareManager) importFenceHandle(fence vk.Fence, handle VulkanFenceHandle) error {
	return ErrOperationNotSupported
}
