package geyser

import "fmt"

// TextureFormat is the abstract pixel format vocabulary shared by all
// backends. Each backend translates it to its native enumeration; formats a
// backend cannot express are rejected with UnsupportedFormatError.
type TextureFormat int32

const (
	// 8-bit formats.
	FormatRgba8Unorm TextureFormat = iota
	FormatBgra8Unorm
	FormatRgba8Srgb
	FormatBgra8Srgb
	FormatR8Unorm
	FormatRg8Unorm

	// 16-bit formats.
	FormatR16Float
	FormatRg16Float
	FormatRgba16Float
	FormatR16Uint
	FormatR16Sint

	// 32-bit formats.
	FormatR32Float
	FormatRg32Float
	FormatRgba32Float
	FormatR32Uint
	FormatR32Sint

	// Depth/stencil formats.
	FormatDepth32Float
	FormatDepth24Plus
	FormatDepth24PlusStencil8

	// HDR packed formats.
	FormatRgb10a2Unorm
	FormatRg11b10Float

	formatCount // sentinel, keep last
)

var formatNames = [...]string{
	FormatRgba8Unorm:          "Rgba8Unorm",
	FormatBgra8Unorm:          "Bgra8Unorm",
	FormatRgba8Srgb:           "Rgba8Srgb",
	FormatBgra8Srgb:           "Bgra8Srgb",
	FormatR8Unorm:             "R8Unorm",
	FormatRg8Unorm:            "Rg8Unorm",
	FormatR16Float:            "R16Float",
	FormatRg16Float:           "Rg16Float",
	FormatRgba16Float:         "Rgba16Float",
	FormatR16Uint:             "R16Uint",
	FormatR16Sint:             "R16Sint",
	FormatR32Float:            "R32Float",
	FormatRg32Float:           "Rg32Float",
	FormatRgba32Float:         "Rgba32Float",
	FormatR32Uint:             "R32Uint",
	FormatR32Sint:             "R32Sint",
	FormatDepth32Float:        "Depth32Float",
	FormatDepth24Plus:         "Depth24Plus",
	FormatDepth24PlusStencil8: "Depth24PlusStencil8",
	FormatRgb10a2Unorm:        "Rgb10a2Unorm",
	FormatRg11b10Float:        "Rg11b10Float",
}

func (f TextureFormat) String() string {
	if f >= 0 && f < formatCount {
		return formatNames[f]
	}
	return fmt.Sprintf("TextureFormat(%d)", int32(f))
}

// Valid reports whether f is one of the enumerated formats.
func (f TextureFormat) Valid() bool {
	return f >= 0 && f < formatCount
}

// IsDepthStencil reports whether f carries a depth or stencil aspect.
func (f TextureFormat) IsDepthStencil() bool {
	switch f {
	case FormatDepth32Float, FormatDepth24Plus, FormatDepth24PlusStencil8:
		return true
	}
	return false
}

// BytesPerPixel is the per-element byte size used for allocation sizing.
// The IOSurface backend derives its buffer geometry from this, so it must
// agree with the native computation; an undersized value here produces an
// undersized allocation, not a cosmetic mismatch.
func (f TextureFormat) BytesPerPixel() int {
	switch f {
	case FormatR8Unorm:
		return 1
	case FormatRg8Unorm:
		return 2
	case FormatRgba8Unorm, FormatBgra8Unorm, FormatRgba8Srgb, FormatBgra8Srgb:
		return 4
	case FormatR16Float, FormatR16Uint, FormatR16Sint:
		return 2
	case FormatRg16Float:
		return 4
	case FormatRgba16Float:
		return 8
	case FormatR32Float, FormatR32Uint, FormatR32Sint:
		return 4
	case FormatRg32Float:
		return 8
	case FormatRgba32Float:
		return 16
	case FormatDepth32Float, FormatDepth24Plus:
		return 4
	case FormatDepth24PlusStencil8:
		return 8
	case FormatRgb10a2Unorm, FormatRg11b10Float:
		return 4
	}
	return 0
}

// TextureUsage is a set of usage flags. Flags combine with bitwise OR; the
// set is order-free and non-exclusive.
type TextureUsage uint32

const (
	// UsageCopySrc marks the texture as a transfer source.
	UsageCopySrc TextureUsage = 1 << iota
	// UsageCopyDst marks the texture as a transfer destination.
	UsageCopyDst
	// UsageTextureBinding allows sampling from shaders.
	UsageTextureBinding
	// UsageRenderAttachment allows use as a render target.
	UsageRenderAttachment
	// UsageStorageBinding allows storage (read/write) access from shaders.
	UsageStorageBinding

	usageAll = UsageCopySrc | UsageCopyDst | UsageTextureBinding |
		UsageRenderAttachment | UsageStorageBinding
)

// Has reports whether every flag in u is also set in t.
func (t TextureUsage) Has(u TextureUsage) bool {
	return t&u == u
}

// Valid reports whether t is non-empty and contains only enumerated flags.
func (t TextureUsage) Valid() bool {
	return t != 0 && t&^usageAll == 0
}

func (t TextureUsage) String() string {
	if t == 0 {
		return "UsageNone"
	}
	var s string
	appendFlag := func(flag TextureUsage, name string) {
		if t&flag == 0 {
			return
		}
		if s != "" {
			s += "|"
		}
		s += name
	}
	appendFlag(UsageCopySrc, "CopySrc")
	appendFlag(UsageCopyDst, "CopyDst")
	appendFlag(UsageTextureBinding, "TextureBinding")
	appendFlag(UsageRenderAttachment, "RenderAttachment")
	appendFlag(UsageStorageBinding, "StorageBinding")
	if rest := t &^ usageAll; rest != 0 {
		if s != "" {
			s += "|"
		}
		s += fmt.Sprintf("0x%x", uint32(rest))
	}
	return s
}
