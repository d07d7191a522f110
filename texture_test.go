package geyser

import (
	"errors"
	"testing"
)

func TestDescriptorValidate(t *testing.T) {
	good := TextureDescriptor{Width: 512, Height: 512, Format: FormatRgba8Unorm, Usage: UsageTextureBinding}
	if err := good.validate(BackendVulkan); err != nil {
		t.Fatalf("valid descriptor rejected: %v", err)
	}

	zero := good
	zero.Width = 0
	if err := zero.validate(BackendVulkan); !errors.Is(err, ErrInvalidDescriptor) {
		t.Errorf("zero width: got %v, want ErrInvalidDescriptor", err)
	}

	badFormat := good
	badFormat.Format = formatCount
	var ufe *UnsupportedFormatError
	if err := badFormat.validate(BackendVulkan); !errors.As(err, &ufe) {
		t.Errorf("unknown format: got %v, want UnsupportedFormatError", err)
	}

	badUsage := good
	badUsage.Usage = 0
	var uue *UnsupportedUsageError
	if err := badUsage.validate(BackendVulkan); !errors.As(err, &uue) {
		t.Errorf("empty usage: got %v, want UnsupportedUsageError", err)
	}
}

func TestDescriptorLabelDefault(t *testing.T) {
	d := TextureDescriptor{Width: 1, Height: 1, Format: FormatR8Unorm, Usage: UsageCopySrc}
	if d.label() != "geyser-shared-texture" {
		t.Errorf("default label = %q", d.label())
	}
	d.Label = "frame-0"
	if d.label() != "frame-0" {
		t.Errorf("label = %q", d.label())
	}
}

// Descriptors are value types, so two structurally equal ones must be
// interchangeable as map keys while a differing label keeps them distinct.
func TestDescriptorAsMapKey(t *testing.T) {
	a := TextureDescriptor{Width: 64, Height: 64, Format: FormatBgra8Unorm, Usage: UsageRenderAttachment, Label: "a"}
	b := a
	c := a
	c.Label = "c"

	m := map[TextureDescriptor]int{a: 1}
	if m[b] != 1 {
		t.Error("equal descriptors should share a key")
	}
	if _, ok := m[c]; ok {
		t.Error("label must participate in equality")
	}
}

func TestHandleBackendTags(t *testing.T) {
	cases := []struct {
		backend Backend
		got     Backend
	}{
		{BackendVulkan, VulkanTextureHandle{}.Backend()},
		{BackendMetal, MetalTextureHandle{}.Backend()},
		{BackendVulkan, VulkanSemaphoreHandle{}.Backend()},
		{BackendVulkan, VulkanFenceHandle{}.Backend()},
		{BackendMetal, MetalEventHandle{}.Backend()},
	}
	for i, c := range cases {
		if c.got != c.backend {
			t.Errorf("case %d: backend = %v, want %v", i, c.got, c.backend)
		}
	}
}

func TestHandleKeys(t *testing.T) {
	if k := (VulkanTextureHandle{RawHandle: 42}).rawKey(); k != 42 {
		t.Errorf("rawKey = %d", k)
	}
	if k := (MetalTextureHandle{SurfaceID: 7}).rawKey(); k != 7 {
		t.Errorf("rawKey = %d", k)
	}
	if k := (VulkanSemaphoreHandle{RawHandle: 3}).syncKey(); k != 3 {
		t.Errorf("syncKey = %d", k)
	}
	if k := (MetalEventHandle{EventID: 9}).syncKey(); k != 9 {
		t.Errorf("syncKey = %d", k)
	}
}

func TestBackendString(t *testing.T) {
	if BackendVulkan.String() != "vulkan" || BackendMetal.String() != "metal" {
		t.Error("backend names changed")
	}
}

func TestHandleKindString(t *testing.T) {
	if HandleKindOpaqueFD.String() != "opaque-fd" {
		t.Errorf("String = %q", HandleKindOpaqueFD.String())
	}
	if HandleKindOpaqueWin32.String() != "opaque-win32" {
		t.Errorf("String = %q", HandleKindOpaqueWin32.String())
	}
}
