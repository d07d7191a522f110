package geyser

import (
	"strings"
	"testing"
)

func allFormats() []TextureFormat {
	formats := make([]TextureFormat, 0, int(formatCount))
	for f := TextureFormat(0); f < formatCount; f++ {
		formats = append(formats, f)
	}
	return formats
}

func TestFormatNamesComplete(t *testing.T) {
	for _, f := range allFormats() {
		if !f.Valid() {
			t.Errorf("%d: expected valid", int32(f))
		}
		if strings.HasPrefix(f.String(), "TextureFormat(") {
			t.Errorf("%d: missing name", int32(f))
		}
	}
	if TextureFormat(-1).Valid() || formatCount.Valid() {
		t.Error("out-of-range formats reported valid")
	}
}

func TestBytesPerPixel(t *testing.T) {
	cases := map[TextureFormat]int{
		FormatR8Unorm:             1,
		FormatRg8Unorm:            2,
		FormatRgba8Unorm:          4,
		FormatBgra8Srgb:           4,
		FormatR16Float:            2,
		FormatRg16Float:           4,
		FormatRgba16Float:         8,
		FormatR32Uint:             4,
		FormatRg32Float:           8,
		FormatRgba32Float:         16,
		FormatDepth32Float:        4,
		FormatDepth24Plus:         4,
		FormatDepth24PlusStencil8: 8,
		FormatRgb10a2Unorm:        4,
		FormatRg11b10Float:        4,
	}
	for f, want := range cases {
		if got := f.BytesPerPixel(); got != want {
			t.Errorf("%s: BytesPerPixel = %d, want %d", f, got, want)
		}
	}
	for _, f := range allFormats() {
		if f.BytesPerPixel() <= 0 {
			t.Errorf("%s: no element size", f)
		}
	}
}

func TestIsDepthStencil(t *testing.T) {
	for _, f := range allFormats() {
		want := f == FormatDepth32Float || f == FormatDepth24Plus || f == FormatDepth24PlusStencil8
		if got := f.IsDepthStencil(); got != want {
			t.Errorf("%s: IsDepthStencil = %v, want %v", f, got, want)
		}
	}
}

func TestUsageFlags(t *testing.T) {
	u := UsageCopySrc | UsageTextureBinding
	if !u.Has(UsageCopySrc) || !u.Has(UsageTextureBinding) {
		t.Error("Has should report each set flag")
	}
	if u.Has(UsageRenderAttachment) {
		t.Error("Has reported an unset flag")
	}
	if !u.Has(UsageCopySrc | UsageTextureBinding) {
		t.Error("Has should report a fully covered set")
	}
	if u.Has(UsageCopySrc | UsageCopyDst) {
		t.Error("Has should require every flag in the query")
	}
}

func TestUsageValid(t *testing.T) {
	if TextureUsage(0).Valid() {
		t.Error("empty usage reported valid")
	}
	if !usageAll.Valid() {
		t.Error("full usage reported invalid")
	}
	if (UsageStorageBinding | 1<<13).Valid() {
		t.Error("unknown bit reported valid")
	}
}

func TestUsageString(t *testing.T) {
	u := UsageCopyDst | UsageRenderAttachment
	s := u.String()
	if !strings.Contains(s, "CopyDst") || !strings.Contains(s, "RenderAttachment") {
		t.Errorf("String() = %q", s)
	}
	if got := TextureUsage(0).String(); got != "UsageNone" {
		t.Errorf("String() = %q, want UsageNone", got)
	}
}

func BenchmarkDescriptorValidate(b *testing.B) {
	desc := TextureDescriptor{
		Width:  1920,
		Height: 1080,
		Format: FormatBgra8Unorm,
		Usage:  UsageTextureBinding | UsageRenderAttachment,
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if err := desc.validate(BackendVulkan); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkUsageString(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = usageAll.String()
	}
}
