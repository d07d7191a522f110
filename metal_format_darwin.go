//go:build darwin

package geyser

// MTLPixelFormat values (subset used by the sharing vocabulary).
const (
	mtlPixelFormatInvalid              uint = 0
	mtlPixelFormatR8Unorm              uint = 10
	mtlPixelFormatR16Uint              uint = 23
	mtlPixelFormatR16Sint              uint = 24
	mtlPixelFormatR16Float             uint = 25
	mtlPixelFormatRG8Unorm             uint = 30
	mtlPixelFormatR32Uint              uint = 53
	mtlPixelFormatR32Sint              uint = 54
	mtlPixelFormatR32Float             uint = 55
	mtlPixelFormatRG16Float            uint = 65
	mtlPixelFormatRGBA8Unorm           uint = 70
	mtlPixelFormatRGBA8UnormSRGB       uint = 71
	mtlPixelFormatBGRA8Unorm           uint = 80
	mtlPixelFormatBGRA8UnormSRGB       uint = 81
	mtlPixelFormatRGB10A2Unorm         uint = 90
	mtlPixelFormatRG11B10Float         uint = 92
	mtlPixelFormatRG32Float            uint = 105
	mtlPixelFormatRGBA16Float          uint = 115
	mtlPixelFormatRGBA32Float          uint = 125
	mtlPixelFormatDepth32Float         uint = 252
	mtlPixelFormatDepth32FloatStencil8 uint = 260
)

// MTLTextureUsage bits.
const (
	mtlTextureUsageShaderRead   uint = 1 << 0
	mtlTextureUsageShaderWrite  uint = 1 << 1
	mtlTextureUsageRenderTarget uint = 1 << 2
)

// MTLStorageMode / MTLTextureType values used here.
const (
	mtlStorageModeShared uint = 0
	mtlTextureType2D     uint = 2
)

// FormatDepth24Plus has no entry: modern Metal devices expose no 24-bit
// depth buffer, and aliasing it onto Depth32Float would collide with that
// format's own entry and break round-tripping through this table. It is
// rejected instead. FormatDepth24PlusStencil8 widens to
// Depth32Float_Stencil8, which no other format maps to.
var mtlFormats = map[TextureFormat]uint{
	FormatRgba8Unorm:          mtlPixelFormatRGBA8Unorm,
	FormatBgra8Unorm:          mtlPixelFormatBGRA8Unorm,
	FormatRgba8Srgb:           mtlPixelFormatRGBA8UnormSRGB,
	FormatBgra8Srgb:           mtlPixelFormatBGRA8UnormSRGB,
	FormatR8Unorm:             mtlPixelFormatR8Unorm,
	FormatRg8Unorm:            mtlPixelFormatRG8Unorm,
	FormatR16Float:            mtlPixelFormatR16Float,
	FormatRg16Float:           mtlPixelFormatRG16Float,
	FormatRgba16Float:         mtlPixelFormatRGBA16Float,
	FormatR16Uint:             mtlPixelFormatR16Uint,
	FormatR16Sint:             mtlPixelFormatR16Sint,
	FormatR32Float:            mtlPixelFormatR32Float,
	FormatRg32Float:           mtlPixelFormatRG32Float,
	FormatRgba32Float:         mtlPixelFormatRGBA32Float,
	FormatR32Uint:             mtlPixelFormatR32Uint,
	FormatR32Sint:             mtlPixelFormatR32Sint,
	FormatDepth32Float:        mtlPixelFormatDepth32Float,
	FormatDepth24PlusStencil8: mtlPixelFormatDepth32FloatStencil8,
	FormatRgb10a2Unorm:        mtlPixelFormatRGB10A2Unorm,
	FormatRg11b10Float:        mtlPixelFormatRG11B10Float,
}

var mtlFormatsInverse = make(map[uint]TextureFormat, len(mtlFormats))

func init() {
	for f, nf := range mtlFormats {
		mtlFormatsInverse[nf] = f
	}
}

func mtlFormat(f TextureFormat) (uint, error) {
	if nf, ok := mtlFormats[f]; ok {
		return nf, nil
	}
	return mtlPixelFormatInvalid, &UnsupportedFormatError{Format: f, Backend: BackendMetal}
}

func formatFromMtl(nf uint) (TextureFormat, bool) {
	f, ok := mtlFormatsInverse[nf]
	return f, ok
}

// mtlUsage folds the abstract usage set into MTLTextureUsage bits. Copy
// usages need no texture usage bits on Metal: blit access is always allowed.
func mtlUsage(usage TextureUsage) (uint, error) {
	if !usage.Valid() {
		return 0, &UnsupportedUsageError{Usage: usage, Backend: BackendMetal}
	}
	var u uint
	if usage.Has(UsageTextureBinding) {
		u |= mtlTextureUsageShaderRead
	}
	if usage.Has(UsageStorageBinding) {
		u |= mtlTextureUsageShaderRead | mtlTextureUsageShaderWrite
	}
	if usage.Has(UsageRenderAttachment) {
		u |= mtlTextureUsageRenderTarget
	}
	return u, nil
}
