package geyser

import (
	"errors"
	"testing"
	"time"

	vk "github.com/vulkan-go/vulkan"
)

// newBareManager builds a manager with live registries but no device, for
// the validation paths that run before any native call.
func newBareManager() *VulkanShareManager {
	return &VulkanShareManager{
		memory:     newHandleRegistry[vk.DeviceMemory](),
		semaphores: newHandleRegistry[vk.Semaphore](),
		fences:     newHandleRegistry[vk.Fence](),
	}
}

type stubTexture struct{}

func (stubTexture) Width() uint32         { return 1 }
func (stubTexture) Height() uint32        { return 1 }
func (stubTexture) Format() TextureFormat { return FormatRgba8Unorm }
func (stubTexture) Usage() TextureUsage   { return UsageCopySrc }
func (stubTexture) Label() string         { return "" }
func (stubTexture) Destroy()              {}

type stubTextureHandle struct{}

func (stubTextureHandle) Backend() Backend { return Backend(0) }
func (stubTextureHandle) rawKey() uint64   { return 0 }

type stubSyncHandle struct{}

func (stubSyncHandle) Backend() Backend { return Backend(0) }
func (stubSyncHandle) syncKey() uint64  { return 0 }

func TestNewVulkanShareManagerNilDevice(t *testing.T) {
	var ie *InitializationError
	if _, err := NewVulkanShareManager(nil, nil, nil, 0); !errors.As(err, &ie) {
		t.Fatalf("got %v, want InitializationError", err)
	}
}

func TestExportRejectsForeignTexture(t *testing.T) {
	m := newBareManager()
	if _, err := m.ExportTexture(stubTexture{}); !errors.Is(err, ErrInvalidTextureHandle) {
		t.Fatalf("got %v, want ErrInvalidTextureHandle", err)
	}
}

func TestExportRejectsNonOwnedTexture(t *testing.T) {
	m := newBareManager()

	imported := &VulkanSharedTexture{imported: &VulkanTextureHandle{RawHandle: 5}}
	if _, err := m.ExportTexture(imported); !errors.Is(err, ErrNoExportableAllocation) {
		t.Errorf("imported texture: got %v, want ErrNoExportableAllocation", err)
	}

	// owned but without an allocation, e.g. already destroyed
	hollow := &VulkanSharedTexture{owned: true}
	if _, err := m.ExportTexture(hollow); !errors.Is(err, ErrNoExportableAllocation) {
		t.Errorf("hollow texture: got %v, want ErrNoExportableAllocation", err)
	}
}

func TestExportRejectsRepeatedExport(t *testing.T) {
	m := newBareManager()
	// a second export would alias one allocation under two handles
	done := &VulkanSharedTexture{owned: true, exported: true}
	if _, err := m.ExportTexture(done); !errors.Is(err, ErrResourceInUse) {
		t.Fatalf("got %v, want ErrResourceInUse", err)
	}
}

func TestImportRejectsForeignHandle(t *testing.T) {
	m := newBareManager()
	desc := TextureDescriptor{Width: 64, Height: 64, Format: FormatRgba8Unorm, Usage: UsageTextureBinding}
	if _, err := m.ImportTexture(stubTextureHandle{}, desc); !errors.Is(err, ErrInvalidTextureHandle) {
		t.Fatalf("got %v, want ErrInvalidTextureHandle", err)
	}
}

func TestImportValidatesDescriptor(t *testing.T) {
	m := newBareManager()
	handle := VulkanTextureHandle{RawHandle: 3, HandleKind: HandleKindOpaqueFD, Size: 1 << 20}

	zero := TextureDescriptor{Width: 0, Height: 64, Format: FormatRgba8Unorm, Usage: UsageTextureBinding}
	if _, err := m.ImportTexture(handle, zero); !errors.Is(err, ErrInvalidDescriptor) {
		t.Errorf("zero extent: got %v, want ErrInvalidDescriptor", err)
	}

	var ufe *UnsupportedFormatError
	bad := TextureDescriptor{Width: 64, Height: 64, Format: formatCount, Usage: UsageTextureBinding}
	if _, err := m.ImportTexture(handle, bad); !errors.As(err, &ufe) {
		t.Errorf("unknown format: got %v, want UnsupportedFormatError", err)
	}
}

func TestReleaseTextureHandle(t *testing.T) {
	m := newBareManager()
	if err := m.ReleaseTextureHandle(stubTextureHandle{}); !errors.Is(err, ErrInvalidTextureHandle) {
		t.Errorf("foreign handle: got %v, want ErrInvalidTextureHandle", err)
	}
	// release of an unregistered handle is a no-op, not an error
	if err := m.ReleaseTextureHandle(VulkanTextureHandle{RawHandle: 1234}); err != nil {
		t.Errorf("absent handle: got %v, want nil", err)
	}
	if err := m.ReleaseTextureHandle(VulkanTextureHandle{RawHandle: 1234}); err != nil {
		t.Errorf("repeated release: got %v, want nil", err)
	}
}

func TestReleaseSyncHandle(t *testing.T) {
	m := newBareManager()
	if err := m.ReleaseSyncHandle(stubSyncHandle{}); !errors.Is(err, ErrInvalidSyncHandle) {
		t.Errorf("foreign handle: got %v, want ErrInvalidSyncHandle", err)
	}
	if err := m.ReleaseSyncHandle(VulkanSemaphoreHandle{RawHandle: 8}); err != nil {
		t.Errorf("absent semaphore: got %v, want nil", err)
	}
	if err := m.ReleaseSyncHandle(VulkanFenceHandle{RawHandle: 8}); err != nil {
		t.Errorf("absent fence: got %v, want nil", err)
	}
}

func TestImportSemaphoreRejectsWrongVariant(t *testing.T) {
	m := newBareManager()
	if _, err := m.ImportSemaphore(VulkanFenceHandle{RawHandle: 1}); !errors.Is(err, ErrInvalidSyncHandle) {
		t.Errorf("fence into semaphore import: got %v", err)
	}
	if _, err := m.ImportFence(VulkanSemaphoreHandle{RawHandle: 1}); !errors.Is(err, ErrInvalidSyncHandle) {
		t.Errorf("semaphore into fence import: got %v", err)
	}
}

func TestTimelineOpsWithoutSupport(t *testing.T) {
	m := newBareManager()
	if _, err := m.CreateExportableTimelineSemaphore(0); !errors.Is(err, ErrOperationNotSupported) {
		t.Errorf("create: got %v", err)
	}
	if err := m.SignalTimelineSemaphore(vk.NullSemaphore, 1); !errors.Is(err, ErrOperationNotSupported) {
		t.Errorf("signal: got %v", err)
	}
	if err := m.WaitTimelineSemaphore(vk.NullSemaphore, 1, time.Second); !errors.Is(err, ErrOperationNotSupported) {
		t.Errorf("wait: got %v", err)
	}
	if _, err := m.GetTimelineSemaphoreValue(vk.NullSemaphore); !errors.Is(err, ErrOperationNotSupported) {
		t.Errorf("value: got %v", err)
	}
	timeline := VulkanSemaphoreHandle{RawHandle: 2, HandleKind: HandleKindOpaqueFD, Timeline: true}
	if _, err := m.ImportSemaphore(timeline); !errors.Is(err, ErrOperationNotSupported) {
		t.Errorf("import timeline: got %v", err)
	}
}

func TestDestroyEmptyManager(t *testing.T) {
	m := newBareManager()
	m.Destroy() // nothing registered, nothing to free
	if m.memory.len() != 0 || m.semaphores.len() != 0 || m.fences.len() != 0 {
		t.Fatal("registries not empty")
	}
}

// newScenarioManager boots a real device; tests that need one skip when the
// host has no Vulkan runtime.
func newScenarioManager(t *testing.T) (*Platform, *VulkanShareManager) {
	t.Helper()
	platform, err := NewPlatform(PlatformConfig{AppName: "geyser-test"})
	if err != nil {
		t.Skipf("vulkan unavailable: %v", err)
	}
	m, err := platform.ShareManager()
	if err != nil {
		platform.Destroy()
		t.Skipf("share manager unavailable: %v", err)
	}
	return platform, m
}

func TestSharingRoundTrip(t *testing.T) {
	platform, m := newScenarioManager(t)
	defer platform.Destroy()
	defer m.Destroy()

	desc := TextureDescriptor{
		Width:  512,
		Height: 512,
		Format: FormatRgba8Unorm,
		Usage:  UsageCopySrc | UsageCopyDst | UsageTextureBinding,
		Label:  "roundtrip",
	}
	texture, err := m.CreateShareableTexture(desc)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer texture.Destroy()
	if texture.Width() != 512 || texture.Height() != 512 {
		t.Fatalf("extent %dx%d", texture.Width(), texture.Height())
	}

	handle, err := m.ExportTexture(texture)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	vh := handle.(VulkanTextureHandle)
	if vh.Size == 0 {
		t.Fatal("exported handle carries no allocation size")
	}
	if !vh.DedicatedAllocation {
		t.Fatal("export should use a dedicated allocation")
	}
	if _, err := m.ExportTexture(texture); !errors.Is(err, ErrResourceInUse) {
		t.Errorf("second export: got %v, want ErrResourceInUse", err)
	}

	mirror, err := m.ImportTexture(handle, desc)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	defer mirror.Destroy()
	if _, err := m.ExportTexture(mirror); !errors.Is(err, ErrNoExportableAllocation) {
		t.Errorf("re-export of import: got %v, want ErrNoExportableAllocation", err)
	}

	if err := m.ReleaseTextureHandle(handle); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := m.ReleaseTextureHandle(handle); err != nil {
		t.Fatalf("second release: %v", err)
	}
}

func TestUnexportedMemoryReclaimed(t *testing.T) {
	platform, m := newScenarioManager(t)
	defer platform.Destroy()
	defer m.Destroy()

	desc := TextureDescriptor{Width: 64, Height: 64, Format: FormatRgba8Unorm, Usage: UsageCopyDst}
	texture, err := m.CreateShareableTexture(desc)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if m.memory.len() != 1 {
		t.Fatalf("registry holds %d entries after create, want 1", m.memory.len())
	}
	// never exported: the wrapper reclaims the allocation on Destroy
	texture.Destroy()
	if m.memory.len() != 0 {
		t.Fatalf("registry holds %d entries after destroy, want 0", m.memory.len())
	}

	// an undestroyed wrapper stays registered, so manager Destroy frees it
	if _, err := m.CreateShareableTexture(desc); err != nil {
		t.Fatalf("second create: %v", err)
	}
	if m.memory.len() != 1 {
		t.Fatalf("registry holds %d entries, want 1", m.memory.len())
	}
}

func TestTwoManagerSharing(t *testing.T) {
	platform, producer := newScenarioManager(t)
	defer platform.Destroy()
	defer producer.Destroy()

	consumer, err := platform.ShareManager()
	if err != nil {
		t.Fatalf("consumer manager: %v", err)
	}
	defer consumer.Destroy()

	desc := TextureDescriptor{
		Width:  256,
		Height: 256,
		Format: FormatRgba8Unorm,
		Usage:  UsageCopySrc | UsageTextureBinding,
		Label:  "cross-manager",
	}
	texture, err := producer.CreateShareableTexture(desc)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer texture.Destroy()

	handle, err := producer.ExportTexture(texture)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	mirror, err := consumer.ImportTexture(handle, desc)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	defer mirror.Destroy()
	if mirror.Width() != desc.Width || mirror.Format() != desc.Format {
		t.Fatalf("mirror %dx%d %s", mirror.Width(), mirror.Height(), mirror.Format())
	}
	if _, err := consumer.ExportTexture(mirror); !errors.Is(err, ErrNoExportableAllocation) {
		t.Errorf("re-export on consumer: got %v, want ErrNoExportableAllocation", err)
	}

	// each manager releases its own registry entry for the shared value
	if err := consumer.ReleaseTextureHandle(handle); err != nil {
		t.Fatalf("consumer release: %v", err)
	}
	if err := consumer.ReleaseTextureHandle(handle); err != nil {
		t.Fatalf("repeated consumer release: %v", err)
	}
	if err := producer.ReleaseTextureHandle(handle); err != nil {
		t.Fatalf("producer release: %v", err)
	}
}

func TestTimelineSemaphoreCounter(t *testing.T) {
	platform, m := newScenarioManager(t)
	defer platform.Destroy()
	defer m.Destroy()

	sem, err := m.CreateExportableTimelineSemaphore(5)
	if errors.Is(err, ErrOperationNotSupported) {
		t.Skip("timeline semaphores unavailable")
	}
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer m.DestroySemaphore(sem)

	if v, err := m.GetTimelineSemaphoreValue(sem); err != nil || v != 5 {
		t.Fatalf("initial value = %d, %v", v, err)
	}
	if err := m.SignalTimelineSemaphore(sem, 7); err != nil {
		t.Fatalf("signal: %v", err)
	}
	if v, _ := m.GetTimelineSemaphoreValue(sem); v != 7 {
		t.Fatalf("value after signal = %d", v)
	}
	if err := m.WaitTimelineSemaphore(sem, 7, time.Second); err != nil {
		t.Fatalf("wait for reached value: %v", err)
	}
	if err := m.WaitTimelineSemaphore(sem, 9, 50*time.Millisecond); !errors.Is(err, ErrTimeout) {
		t.Fatalf("wait past counter: got %v, want ErrTimeout", err)
	}
}

func TestCreateViewOnDevice(t *testing.T) {
	platform, m := newScenarioManager(t)
	defer platform.Destroy()
	defer m.Destroy()

	desc := TextureDescriptor{Width: 128, Height: 128, Format: FormatBgra8Unorm, Usage: UsageRenderAttachment}
	texture, err := m.CreateShareableTexture(desc)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer texture.Destroy()

	vt := texture.(*VulkanSharedTexture)
	if err := vt.CreateView(); err != nil {
		t.Fatalf("view: %v", err)
	}
	if vt.View() == vk.NullImageView {
		t.Fatal("view not set")
	}
	if err := vt.CreateView(); err != nil {
		t.Fatalf("second view call: %v", err)
	}
}
