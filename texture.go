package geyser

import "fmt"

// Backend identifies the graphics API a manager, texture or handle belongs to.
type Backend int32

const (
	BackendVulkan Backend = iota + 1
	BackendMetal
)

func (b Backend) String() string {
	switch b {
	case BackendVulkan:
		return "vulkan"
	case BackendMetal:
		return "metal"
	}
	return fmt.Sprintf("Backend(%d)", int32(b))
}

// TextureDescriptor describes a shareable texture. It is a value type: every
// operation receives its own copy and never mutates it. Two descriptors with
// identical fields are interchangeable; Label is diagnostic only but does
// participate in structural equality, so descriptors used as map keys compare
// labels too.
type TextureDescriptor struct {
	Width  uint32
	Height uint32
	Format TextureFormat
	Usage  TextureUsage
	Label  string
}

func (d TextureDescriptor) validate(backend Backend) error {
	if d.Width == 0 || d.Height == 0 {
		return fmt.Errorf("%w: extent %dx%d", ErrInvalidDescriptor, d.Width, d.Height)
	}
	if !d.Format.Valid() {
		return &UnsupportedFormatError{Format: d.Format, Backend: backend}
	}
	if !d.Usage.Valid() {
		return &UnsupportedUsageError{Usage: d.Usage, Backend: backend}
	}
	return nil
}

// label returns the diagnostic name, with a default for unlabeled textures.
func (d TextureDescriptor) label() string {
	if d.Label == "" {
		return "geyser-shared-texture"
	}
	return d.Label
}

// SharedTexture is a live, backend-bound texture wrapper. Exactly one owner
// (the manager that created or imported it) manages its native sub-objects.
// Destroy frees the native image and view only; backing memory is owned by
// the manager registry and survives until ReleaseTextureHandle.
type SharedTexture interface {
	Width() uint32
	Height() uint32
	Format() TextureFormat
	Usage() TextureUsage
	Label() string

	// Destroy releases the native image and view. It never frees backing
	// memory that another context may still reference.
	Destroy()
}

// ExternalHandleKind tags how a raw handle value is to be interpreted. The
// numeric values mirror the Vulkan external-handle type bits so the tag
// survives serialization unchanged.
type ExternalHandleKind uint32

const (
	HandleKindOpaqueFD    ExternalHandleKind = 0x1
	HandleKindOpaqueWin32 ExternalHandleKind = 0x2
)

func (k ExternalHandleKind) String() string {
	switch k {
	case HandleKindOpaqueFD:
		return "opaque-fd"
	case HandleKindOpaqueWin32:
		return "opaque-win32"
	}
	return fmt.Sprintf("ExternalHandleKind(0x%x)", uint32(k))
}

// TextureHandle is the serializable identity of exported backing memory.
// It is a tagged union with one variant per backend. The raw handle value is
// only a registry key between export/import and release; reusing a stale
// value is a protocol violation by the cooperating processes.
type TextureHandle interface {
	Backend() Backend

	// rawKey is the registry key identifying the native resource kept alive
	// for this handle.
	rawKey() uint64
}

// VulkanTextureHandle carries what VK_KHR_external_memory needs to rebuild an
// allocation in another context. RawHandle is platform-defined: a file
// descriptor on POSIX, a kernel HANDLE on Windows. MemoryTypeIndex is a bit
// position in the exporting device's memory-type table and is not guaranteed
// to resolve on a physically different importer GPU.
type VulkanTextureHandle struct {
	RawHandle           uint64
	MemoryTypeIndex     uint32
	Size                uint64
	HandleKind          ExternalHandleKind
	DedicatedAllocation bool
}

func (VulkanTextureHandle) Backend() Backend { return BackendVulkan }

func (h VulkanTextureHandle) rawKey() uint64 { return h.RawHandle }

// MetalTextureHandle carries a global IOSurface identifier. The ID is valid
// in any process without OS-level handle duplication; the surface is looked
// up by value on import.
type MetalTextureHandle struct {
	SurfaceID uint32
}

func (MetalTextureHandle) Backend() Backend { return BackendMetal }

func (h MetalTextureHandle) rawKey() uint64 { return uint64(h.SurfaceID) }

// SyncHandle is the serializable identity of an exported synchronization
// primitive, a tagged union like TextureHandle.
type SyncHandle interface {
	Backend() Backend
	syncKey() uint64
}

// VulkanSemaphoreHandle identifies an exported semaphore. Timeline marks a
// timeline semaphore, whose state is a monotonically increasing 64-bit
// counter rather than a binary signal.
type VulkanSemaphoreHandle struct {
	RawHandle  uint64
	HandleKind ExternalHandleKind
	Timeline   bool
}

func (VulkanSemaphoreHandle) Backend() Backend { return BackendVulkan }

func (h VulkanSemaphoreHandle) syncKey() uint64 { return h.RawHandle }

// VulkanFenceHandle identifies an exported fence.
type VulkanFenceHandle struct {
	RawHandle  uint64
	HandleKind ExternalHandleKind
}

func (VulkanFenceHandle) Backend() Backend { return BackendVulkan }

func (h VulkanFenceHandle) syncKey() uint64 { return h.RawHandle }

// MetalEventHandle identifies an exported MTLSharedEvent.
type MetalEventHandle struct {
	EventID uint64
}

func (MetalEventHandle) Backend() Backend { return BackendMetal }

func (h MetalEventHandle) syncKey() uint64 { return h.EventID }

// SyncPrimitives bundles the optional primitives coordinating access to one
// shared texture.
type SyncPrimitives struct {
	// Semaphore signals GPU-side completion.
	Semaphore SyncHandle
	// Fence signals CPU-side completion.
	Fence SyncHandle
}
