package geyser

import vk "github.com/vulkan-go/vulkan"

// Format translation between the abstract vocabulary and vk.Format. The
// mapping is bijective over the supported set so formatFromVk(vkFormat(f))
// round-trips for every f: Depth24Plus maps to X8_D24_UNORM_PACK32 and
// Depth24PlusStencil8 to D24_UNORM_S8_UINT, keeping the two distinct.
var vkFormats = map[TextureFormat]vk.Format{
	FormatRgba8Unorm:          vk.FormatR8g8b8a8Unorm,
	FormatBgra8Unorm:          vk.FormatB8g8r8a8Unorm,
	FormatRgba8Srgb:           vk.FormatR8g8b8a8Srgb,
	FormatBgra8Srgb:           vk.FormatB8g8r8a8Srgb,
	FormatR8Unorm:             vk.FormatR8Unorm,
	FormatRg8Unorm:            vk.FormatR8g8Unorm,
	FormatR16Float:            vk.FormatR16Sfloat,
	FormatRg16Float:           vk.FormatR16g16Sfloat,
	FormatRgba16Float:         vk.FormatR16g16b16a16Sfloat,
	FormatR16Uint:             vk.FormatR16Uint,
	FormatR16Sint:             vk.FormatR16Sint,
	FormatR32Float:            vk.FormatR32Sfloat,
	FormatRg32Float:           vk.FormatR32g32Sfloat,
	FormatRgba32Float:         vk.FormatR32g32b32a32Sfloat,
	FormatR32Uint:             vk.FormatR32Uint,
	FormatR32Sint:             vk.FormatR32Sint,
	FormatDepth32Float:        vk.FormatD32Sfloat,
	FormatDepth24Plus:         vk.FormatX8D24UnormPack32,
	FormatDepth24PlusStencil8: vk.FormatD24UnormS8Uint,
	FormatRgb10a2Unorm:        vk.FormatA2r10g10b10UnormPack32,
	FormatRg11b10Float:        vk.FormatB10g11r11UfloatPack32,
}

var vkFormatsInverse = func() map[vk.Format]TextureFormat {
	m := make(map[vk.Format]TextureFormat, len(vkFormats))
	for f, nf := range vkFormats {
		m[nf] = f
	}
	return m
}()

// vkFormat maps an abstract format to its Vulkan enumeration.
func vkFormat(f TextureFormat) (vk.Format, error) {
	if nf, ok := vkFormats[f]; ok {
		return nf, nil
	}
	return vk.FormatUndefined, &UnsupportedFormatError{Format: f, Backend: BackendVulkan}
}

// formatFromVk is the inverse of vkFormat over the supported set.
func formatFromVk(nf vk.Format) (TextureFormat, bool) {
	f, ok := vkFormatsInverse[nf]
	return f, ok
}

// vkImageUsage maps a usage set to Vulkan image usage bits. RenderAttachment
// resolves against the format: depth/stencil formats attach as depth/stencil,
// everything else as color. Unknown bits are an error, never dropped.
func vkImageUsage(usage TextureUsage, format TextureFormat) (vk.ImageUsageFlags, error) {
	if !usage.Valid() {
		return 0, &UnsupportedUsageError{Usage: usage, Backend: BackendVulkan}
	}
	var flags vk.ImageUsageFlags
	if usage.Has(UsageCopySrc) {
		flags |= vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit)
	}
	if usage.Has(UsageCopyDst) {
		flags |= vk.ImageUsageFlags(vk.ImageUsageTransferDstBit)
	}
	if usage.Has(UsageTextureBinding) {
		flags |= vk.ImageUsageFlags(vk.ImageUsageSampledBit)
	}
	if usage.Has(UsageRenderAttachment) {
		if format.IsDepthStencil() {
			flags |= vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit)
		} else {
			flags |= vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit)
		}
	}
	if usage.Has(UsageStorageBinding) {
		flags |= vk.ImageUsageFlags(vk.ImageUsageStorageBit)
	}
	return flags, nil
}

// vkAspect returns the image aspect for view creation.
func vkAspect(format TextureFormat) vk.ImageAspectFlags {
	switch format {
	case FormatDepth32Float, FormatDepth24Plus:
		return vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	case FormatDepth24PlusStencil8:
		return vk.ImageAspectFlags(vk.ImageAspectDepthBit | vk.ImageAspectStencilBit)
	}
	return vk.ImageAspectFlags(vk.ImageAspectColorBit)
}
