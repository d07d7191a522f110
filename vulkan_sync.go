package geyser

import (
	"time"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// Synchronization sharing. Binary semaphores and fences use the same
// export/import protocol as memory: tag at creation, extract the platform
// handle, recreate-then-import on the other side. Timeline semaphores add
// host-side signal/wait/query on top and survive export with their counter
// intact.

// CreateExportableSemaphore creates a binary semaphore tagged for external
// sharing. The semaphore is not registered until exported; callers that never
// export it destroy it with DestroySemaphore.
func (m *VulkanShareManager) CreateExportableSemaphore() (vk.Semaphore, error) {
	return m.createSemaphore(semaphoreTypeBinary, 0)
}

// CreateExportableTimelineSemaphore creates a timeline semaphore starting at
// initial, tagged for external sharing.
func (m *VulkanShareManager) CreateExportableTimelineSemaphore(initial uint64) (vk.Semaphore, error) {
	if !m.procs.hasTimeline() {
		return vk.NullSemaphore, ErrOperationNotSupported
	}
	return m.createSemaphore(semaphoreTypeTimeline, initial)
}

func (m *VulkanShareManager) createSemaphore(semType uint32, initial uint64) (vk.Semaphore, error) {
	exportInfo := exportSemaphoreCreateInfo{
		sType:       sTypeExportSemaphoreCreateInfo,
		handleTypes: uint32(externalHandleKind()),
	}
	chain := unsafe.Pointer(&exportInfo)
	var typeInfo semaphoreTypeCreateInfo
	if semType == semaphoreTypeTimeline {
		typeInfo = semaphoreTypeCreateInfo{
			sType:         sTypeSemaphoreTypeCreateInfo,
			pNext:         chain,
			semaphoreType: semaphoreTypeTimeline,
			initialValue:  initial,
		}
		chain = unsafe.Pointer(&typeInfo)
	}
	var sem vk.Semaphore
	ret := vk.CreateSemaphore(m.device, &vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
		PNext: chain,
	}, nil, &sem)
	if isError(ret) {
		return vk.NullSemaphore, newError("vkCreateSemaphore", ret)
	}
	return sem, nil
}

// ExportSemaphore extracts the platform handle for a binary semaphore and
// registers the semaphore under the handle value.
func (m *VulkanShareManager) ExportSemaphore(sem vk.Semaphore) (SyncHandle, error) {
	return m.exportSemaphore(sem, false)
}

// ExportTimelineSemaphore is ExportSemaphore for timeline semaphores. The
// handle records the timeline type so the importer recreates the semaphore
// with the matching type; the counter value travels with the payload, not
// the handle.
func (m *VulkanShareManager) ExportTimelineSemaphore(sem vk.Semaphore) (SyncHandle, error) {
	return m.exportSemaphore(sem, true)
}

func (m *VulkanShareManager) exportSemaphore(sem vk.Semaphore, timeline bool) (SyncHandle, error) {
	raw, kind, err := m.exportSemaphoreHandle(sem)
	if err != nil {
		return nil, err
	}
	m.semaphores.insert(raw, sem)
	return VulkanSemaphoreHandle{RawHandle: raw, HandleKind: kind, Timeline: timeline}, nil
}

// ImportSemaphore recreates a semaphore from an exported handle. The payload
// cannot be imported into nothing: a semaphore of the recorded type is
// created first, then the import call replaces its payload.
func (m *VulkanShareManager) ImportSemaphore(handle SyncHandle) (vk.Semaphore, error) {
	vh, ok := handle.(VulkanSemaphoreHandle)
	if !ok {
		return vk.NullSemaphore, ErrInvalidSyncHandle
	}
	semType := uint32(semaphoreTypeBinary)
	if vh.Timeline {
		if !m.procs.hasTimeline() {
			return vk.NullSemaphore, ErrOperationNotSupported
		}
		semType = semaphoreTypeTimeline
	}
	sem, err := m.createSemaphore(semType, 0)
	if err != nil {
		return vk.NullSemaphore, err
	}
	if err := m.importSemaphoreHandle(sem, vh); err != nil {
		vk.DestroySemaphore(m.device, sem, nil)
		return vk.NullSemaphore, err
	}
	m.semaphores.insert(vh.RawHandle, sem)
	return sem, nil
}

// CreateExportableFence creates an unsignaled fence tagged for external
// sharing.
func (m *VulkanShareManager) CreateExportableFence() (vk.Fence, error) {
	exportInfo := exportFenceCreateInfo{
		sType:       sTypeExportFenceCreateInfo,
		handleTypes: uint32(externalHandleKind()),
	}
	var fence vk.Fence
	ret := vk.CreateFence(m.device, &vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		PNext: unsafe.Pointer(&exportInfo),
	}, nil, &fence)
	if isError(ret) {
		return vk.NullFence, newError("vkCreateFence", ret)
	}
	return fence, nil
}

// ExportFence extracts the platform handle for a fence and registers the
// fence under the handle value.
func (m *VulkanShareManager) ExportFence(fence vk.Fence) (SyncHandle, error) {
	raw, kind, err := m.exportFenceHandle(fence)
	if err != nil {
		return nil, err
	}
	m.fences.insert(raw, fence)
	return VulkanFenceHandle{RawHandle: raw, HandleKind: kind}, nil
}

// ImportFence recreates a fence from an exported handle.
func (m *VulkanShareManager) ImportFence(handle SyncHandle) (vk.Fence, error) {
	vh, ok := handle.(VulkanFenceHandle)
	if !ok {
		return vk.NullFence, ErrInvalidSyncHandle
	}
	fence, err := m.CreateExportableFence()
	if err != nil {
		return vk.NullFence, err
	}
	if err := m.importFenceHandle(fence, vh); err != nil {
		vk.DestroyFence(m.device, fence, nil)
		return vk.NullFence, err
	}
	m.fences.insert(vh.RawHandle, fence)
	return fence, nil
}

// CreateSyncPrimitives creates and exports a binary semaphore and a fence as
// one unit, the usual pairing for a frame handoff. On any failure nothing is
// registered and both objects are destroyed.
func (m *VulkanShareManager) CreateSyncPrimitives() (SyncPrimitives, error) {
	sem, err := m.CreateExportableSemaphore()
	if err != nil {
		return SyncPrimitives{}, err
	}
	fence, err := m.CreateExportableFence()
	if err != nil {
		vk.DestroySemaphore(m.device, sem, nil)
		return SyncPrimitives{}, err
	}
	semHandle, err := m.ExportSemaphore(sem)
	if err != nil {
		vk.DestroyFence(m.device, fence, nil)
		vk.DestroySemaphore(m.device, sem, nil)
		return SyncPrimitives{}, err
	}
	fenceHandle, err := m.ExportFence(fence)
	if err != nil {
		m.ReleaseSyncHandle(semHandle)
		vk.DestroyFence(m.device, fence, nil)
		return SyncPrimitives{}, err
	}
	return SyncPrimitives{Semaphore: semHandle, Fence: fenceHandle}, nil
}

// ReleaseSyncHandle destroys the native object registered under a sync
// handle. Like texture release it is idempotent; an absent entry is a no-op.
func (m *VulkanShareManager) ReleaseSyncHandle(handle SyncHandle) error {
	switch h := handle.(type) {
	case VulkanSemaphoreHandle:
		if sem, ok := m.semaphores.remove(h.RawHandle); ok {
			vk.DestroySemaphore(m.device, sem, nil)
		}
		return nil
	case VulkanFenceHandle:
		if fence, ok := m.fences.remove(h.RawHandle); ok {
			vk.DestroyFence(m.device, fence, nil)
		}
		return nil
	default:
		return ErrInvalidSyncHandle
	}
}

// DestroySemaphore destroys a semaphore that was never exported or imported.
// Registered semaphores go through ReleaseSyncHandle instead.
func (m *VulkanShareManager) DestroySemaphore(sem vk.Semaphore) {
	if sem != vk.NullSemaphore {
		vk.DestroySemaphore(m.device, sem, nil)
	}
}

// DestroyFence destroys a fence that was never exported or imported.
func (m *VulkanShareManager) DestroyFence(fence vk.Fence) {
	if fence != vk.NullFence {
		vk.DestroyFence(m.device, fence, nil)
	}
}

// SignalTimelineSemaphore sets the timeline counter from the host. Values
// must be monotonically increasing; the driver rejects regressions.
func (m *VulkanShareManager) SignalTimelineSemaphore(sem vk.Semaphore, value uint64) error {
	if !m.procs.hasTimeline() {
		return ErrOperationNotSupported
	}
	info := semaphoreSignalInfo{
		sType:     sTypeSemaphoreSignalInfo,
		semaphore: rawHandle(sem),
		value:     value,
	}
	ret := vk.Result(m.procs.signalSemaphore(dispatchableAddr(m.device), unsafe.Pointer(&info)))
	return newError("vkSignalSemaphore", ret)
}

// WaitTimelineSemaphore blocks until the counter reaches value or timeout
// elapses. A negative timeout waits forever. Timeout is reported as
// ErrTimeout, distinct from driver failures.
func (m *VulkanShareManager) WaitTimelineSemaphore(sem vk.Semaphore, value uint64, timeout time.Duration) error {
	if !m.procs.hasTimeline() {
		return ErrOperationNotSupported
	}
	raw := rawHandle(sem)
	info := semaphoreWaitInfo{
		sType:          sTypeSemaphoreWaitInfo,
		semaphoreCount: 1,
		pSemaphores:    &raw,
		pValues:        &value,
	}
	ns := uint64(vk.MaxUint64)
	if timeout >= 0 {
		ns = uint64(timeout.Nanoseconds())
	}
	ret := vk.Result(m.procs.waitSemaphores(dispatchableAddr(m.device), unsafe.Pointer(&info), ns))
	if ret == vk.Timeout {
		return ErrTimeout
	}
	return newError("vkWaitSemaphores", ret)
}

// GetTimelineSemaphoreValue reads the current counter without blocking.
func (m *VulkanShareManager) GetTimelineSemaphoreValue(sem vk.Semaphore) (uint64, error) {
	if !m.procs.hasTimeline() {
		return 0, ErrOperationNotSupported
	}
	var value uint64
	ret := vk.Result(m.procs.getSemaphoreCounterValue(dispatchableAddr(m.device), rawHandle(sem), unsafe.Pointer(&value)))
	if isError(ret) {
		return 0, newError("vkGetSemaphoreCounterValue", ret)
	}
	return value, nil
}
