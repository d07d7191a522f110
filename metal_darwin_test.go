//go:build darwin

package geyser

import (
	"errors"
	"testing"
	"time"

	"github.com/ebitengine/purego/objc"
)

func newBareMetalManager() *MetalShareManager {
	return &MetalShareManager{
		surfaces: newHandleRegistry[uintptr](),
		events:   newHandleRegistry[objc.ID](),
	}
}

func TestMetalExportRejectsForeignTexture(t *testing.T) {
	m := newBareMetalManager()
	if _, err := m.ExportTexture(stubTexture{}); !errors.Is(err, ErrInvalidTextureHandle) {
		t.Fatalf("got %v, want ErrInvalidTextureHandle", err)
	}
}

func TestMetalExportRejectsNonOwnedTexture(t *testing.T) {
	m := newBareMetalManager()
	imported := &MetalSharedTexture{imported: &MetalTextureHandle{SurfaceID: 4}}
	if _, err := m.ExportTexture(imported); !errors.Is(err, ErrNoExportableAllocation) {
		t.Fatalf("got %v, want ErrNoExportableAllocation", err)
	}
}

func TestMetalImportRejectsForeignHandle(t *testing.T) {
	m := newBareMetalManager()
	desc := TextureDescriptor{Width: 16, Height: 16, Format: FormatRgba8Unorm, Usage: UsageTextureBinding}
	if _, err := m.ImportTexture(stubTextureHandle{}, desc); !errors.Is(err, ErrInvalidTextureHandle) {
		t.Fatalf("got %v, want ErrInvalidTextureHandle", err)
	}
}

func TestMetalFormatDepth24(t *testing.T) {
	var ufe *UnsupportedFormatError
	if _, err := mtlFormat(FormatDepth24Plus); !errors.As(err, &ufe) {
		t.Errorf("Depth24Plus: got %v", err)
	}
	// the stencil variant widens rather than being rejected
	nf, err := mtlFormat(FormatDepth24PlusStencil8)
	if err != nil {
		t.Fatalf("Depth24PlusStencil8: %v", err)
	}
	if nf != mtlPixelFormatDepth32FloatStencil8 {
		t.Errorf("Depth24PlusStencil8 maps to %d", nf)
	}
}

func TestMetalFormatRoundTrip(t *testing.T) {
	for _, f := range allFormats() {
		nf, err := mtlFormat(f)
		if err != nil {
			continue // Depth24Plus, rejected by design
		}
		back, ok := formatFromMtl(nf)
		if !ok || back != f {
			t.Errorf("%s: round-trips to %s (ok=%v)", f, back, ok)
		}
	}
}

func TestMetalUsageMapping(t *testing.T) {
	u, err := mtlUsage(UsageStorageBinding)
	if err != nil {
		t.Fatal(err)
	}
	if u&mtlTextureUsageShaderWrite == 0 || u&mtlTextureUsageShaderRead == 0 {
		t.Errorf("storage usage = %#x", u)
	}
	u, err = mtlUsage(UsageCopySrc | UsageCopyDst)
	if err != nil {
		t.Fatal(err)
	}
	if u != 0 {
		t.Errorf("copy-only usage = %#x, want 0", u)
	}
}

func TestMetalReleaseAbsentHandle(t *testing.T) {
	m := newBareMetalManager()
	if err := m.ReleaseTextureHandle(MetalTextureHandle{SurfaceID: 99}); err != nil {
		t.Fatalf("got %v, want nil", err)
	}
	if err := m.ReleaseSyncHandle(stubSyncHandle{}); !errors.Is(err, ErrInvalidSyncHandle) {
		t.Fatalf("got %v, want ErrInvalidSyncHandle", err)
	}
}

func newScenarioMetalManager(t *testing.T) *MetalShareManager {
	t.Helper()
	m, err := NewMetalShareManager()
	if err != nil {
		t.Skipf("metal unavailable: %v", err)
	}
	return m
}

func TestMetalSharingRoundTrip(t *testing.T) {
	producer := newScenarioMetalManager(t)
	defer producer.Destroy()
	consumer := newScenarioMetalManager(t)
	defer consumer.Destroy()

	desc := TextureDescriptor{
		Width:  256,
		Height: 256,
		Format: FormatBgra8Unorm,
		Usage:  UsageTextureBinding | UsageRenderAttachment,
		Label:  "roundtrip",
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
	mh := handle.(MetalTextureHandle)
	if mh.SurfaceID == 0 {
		t.Fatal("exported zero surface id")
	}

	mirror, err := consumer.ImportTexture(handle, desc)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if mirror.(*MetalSharedTexture).SurfaceID() != mh.SurfaceID {
		t.Fatal("import resolved a different surface")
	}
	// the import side holds its own registry retain until release
	if _, ok := consumer.surfaces.get(uint64(mh.SurfaceID)); !ok {
		t.Fatal("imported surface not registered")
	}
	mirror.Destroy()
	if _, ok := consumer.surfaces.get(uint64(mh.SurfaceID)); !ok {
		t.Fatal("registry retain should survive the wrapper")
	}
	if _, err := consumer.ExportTexture(mirror); !errors.Is(err, ErrNoExportableAllocation) {
		t.Errorf("re-export of import: got %v", err)
	}

	for _, m := range []*MetalShareManager{producer, consumer} {
		if err := m.ReleaseTextureHandle(handle); err != nil {
			t.Fatalf("release: %v", err)
		}
		if err := m.ReleaseTextureHandle(handle); err != nil {
			t.Fatalf("second release: %v", err)
		}
		if _, ok := m.surfaces.get(uint64(mh.SurfaceID)); ok {
			t.Fatal("surface still registered after release")
		}
	}
}

func TestMetalSharedEvent(t *testing.T) {
	m := newScenarioMetalManager(t)
	defer m.Destroy()

	event, err := m.NewSharedEvent()
	if err != nil {
		t.Fatalf("new event: %v", err)
	}
	if err := m.SignalSharedEvent(event, 3); err != nil {
		t.Fatalf("signal: %v", err)
	}
	if v, _ := m.SharedEventValue(event); v != 3 {
		t.Fatalf("value = %d, want 3", v)
	}
	if err := m.WaitSharedEvent(event, 3, time.Second); err != nil {
		t.Fatalf("wait for reached value: %v", err)
	}
	if err := m.WaitSharedEvent(event, 5, 50*time.Millisecond); !errors.Is(err, ErrTimeout) {
		t.Fatalf("wait past counter: got %v, want ErrTimeout", err)
	}

	handle, err := m.ExportSharedEvent(event)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	same, err := m.ImportSharedEvent(handle)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if same != event {
		t.Fatal("import resolved a different event")
	}
	if _, err := m.ImportSharedEvent(MetalEventHandle{EventID: 1 << 40}); !errors.Is(err, ErrOperationNotSupported) {
		t.Fatalf("unknown id: got %v, want ErrOperationNotSupported", err)
	}
	if err := m.ReleaseSyncHandle(handle); err != nil {
		t.Fatalf("release: %v", err)
	}
}
