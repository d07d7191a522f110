package geyser

import "unsafe"

// Hand-laid pNext chain structs for the external-memory, external-sync and
// timeline-semaphore protocol. The vulkan-go binding tracks the 1.1 header
// and its generated structs cannot be linked into a chain from outside the
// package, so the chain members are declared here with the exact C ABI layout
// for 64-bit targets (pointers and uint64 8-byte aligned, explicit padding
// after every lone uint32). The structs only live for the duration of the
// call that consumes them.

const (
	sTypeExternalMemoryImageCreateInfo     = 1000072001
	sTypeExportMemoryAllocateInfo          = 1000072002
	sTypeImportMemoryWin32HandleInfo       = 1000073000
	sTypeMemoryGetWin32HandleInfo          = 1000073003
	sTypeImportMemoryFdInfo                = 1000074000
	sTypeMemoryGetFdInfo                   = 1000074002
	sTypeExportSemaphoreCreateInfo         = 1000077000
	sTypeImportSemaphoreWin32HandleInfo    = 1000078000
	sTypeSemaphoreGetWin32HandleInfo       = 1000078003
	sTypeImportSemaphoreFdInfo             = 1000079000
	sTypeSemaphoreGetFdInfo                = 1000079001
	sTypeExportFenceCreateInfo             = 1000113000
	sTypeImportFenceWin32HandleInfo        = 1000114000
	sTypeFenceGetWin32HandleInfo           = 1000114002
	sTypeImportFenceFdInfo                 = 1000115000
	sTypeFenceGetFdInfo                    = 1000115001
	sTypeMemoryDedicatedAllocateInfo       = 1000127001
	sTypeSemaphoreTypeCreateInfo           = 1000207002
	sTypeSemaphoreWaitInfo                 = 1000207004
	sTypeSemaphoreSignalInfo               = 1000207005
)

// VkSemaphoreType values.
const (
	semaphoreTypeBinary   = 0
	semaphoreTypeTimeline = 1
)

type externalMemoryImageCreateInfo struct {
	sType       uint32
	_           uint32
	pNext       unsafe.Pointer
	handleTypes uint32
	_           uint32
}

type exportMemoryAllocateInfo struct {
	sType       uint32
	_           uint32
	pNext       unsafe.Pointer
	handleTypes uint32
	_           uint32
}

type memoryDedicatedAllocateInfo struct {
	sType  uint32
	_      uint32
	pNext  unsafe.Pointer
	image  uint64
	buffer uint64
}

type memoryGetFdInfo struct {
	sType      uint32
	_          uint32
	pNext      unsafe.Pointer
	memory     uint64
	handleType uint32
	_          uint32
}

type importMemoryFdInfo struct {
	sType      uint32
	_          uint32
	pNext      unsafe.Pointer
	handleType uint32
	fd         int32
}

type exportSemaphoreCreateInfo struct {
	sType       uint32
	_           uint32
	pNext       unsafe.Pointer
	handleTypes uint32
	_           uint32
}

type semaphoreTypeCreateInfo struct {
	sType         uint32
	_             uint32
	pNext         unsafe.Pointer
	semaphoreType uint32
	_             uint32
	initialValue  uint64
}

type semaphoreGetFdInfo struct {
	sType      uint32
	_          uint32
	pNext      unsafe.Pointer
	semaphore  uint64
	handleType uint32
	_          uint32
}

type importSemaphoreFdInfo struct {
	sType      uint32
	_          uint32
	pNext      unsafe.Pointer
	semaphore  uint64
	flags      uint32
	handleType uint32
	fd         int32
	_          int32
}

type exportFenceCreateInfo struct {
	sType       uint32
	_           uint32
	pNext       unsafe.Pointer
	handleTypes uint32
	_           uint32
}

type fenceGetFdInfo struct {
	sType      uint32
	_          uint32
	pNext      unsafe.Pointer
	fence      uint64
	handleType uint32
	_          uint32
}

type importFenceFdInfo struct {
	sType      uint32
	_          uint32
	pNext      unsafe.Pointer
	fence      uint64
	flags      uint32
	handleType uint32
	fd         int32
	_          int32
}

type semaphoreWaitInfo struct {
	sType          uint32
	_              uint32
	pNext          unsafe.Pointer
	flags          uint32
	semaphoreCount uint32
	pSemaphores    *uint64
	pValues        *uint64
}

type semaphoreSignalInfo struct {
	sType     uint32
	_         uint32
	pNext     unsafe.Pointer
	semaphore uint64
	value     uint64
}

type memoryGetWin32HandleInfo struct {
	sType      uint32
	_          uint32
	pNext      unsafe.Pointer
	memory     uint64
	handleType uint32
	_          uint32
}

type importMemoryWin32HandleInfo struct {
	sType      uint32
	_          uint32
	pNext      unsafe.Pointer
	handleType uint32
	_          uint32
	handle     uintptr
	name       uintptr
}

type semaphoreGetWin32HandleInfo struct {
	sType      uint32
	_          uint32
	pNext      unsafe.Pointer
	semaphore  uint64
	handleType uint32
	_          uint32
}

type importSemaphoreWin32HandleInfo struct {
	sType      uint32
	_          uint32
	pNext      unsafe.Pointer
	semaphore  uint64
	flags      uint32
	handleType uint32
	handle     uintptr
	name       uintptr
}

type fenceGetWin32HandleInfo struct {
	sType      uint32
	_          uint32
	pNext      unsafe.Pointer
	fence      uint64
	handleType uint32
	_          uint32
}

type importFenceWin32HandleInfo struct {
	sType      uint32
	_          uint32
	pNext      unsafe.Pointer
	fence      uint64
	flags      uint32
	handleType uint32
	handle     uintptr
	name       uintptr
}

// rawHandle reinterprets a Vulkan handle as its 64-bit value. The binding
// types non-dispatchable handles as pointers on 64-bit targets, which is the
// only class of target this package supports.
func rawHandle[H any](h H) uint64 {
	return *(*uint64)(unsafe.Pointer(&h))
}

// dispatchableAddr reinterprets a dispatchable handle (instance, device) as
// the address purego calls expect as their first argument.
func dispatchableAddr[H any](h H) uintptr {
	return *(*uintptr)(unsafe.Pointer(&h))
}
