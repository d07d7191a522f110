package geyser

import (
	"errors"
	"testing"

	vk "github.com/vulkan-go/vulkan"
)

func TestVkFormatRoundTrip(t *testing.T) {
	for _, f := range allFormats() {
		nf, err := vkFormat(f)
		if err != nil {
			t.Errorf("%s: %v", f, err)
			continue
		}
		back, ok := formatFromVk(nf)
		if !ok {
			t.Errorf("%s: no inverse for %d", f, nf)
			continue
		}
		if back != f {
			t.Errorf("%s: round-trips to %s", f, back)
		}
	}
}

func TestVkFormatUnknown(t *testing.T) {
	var ufe *UnsupportedFormatError
	if _, err := vkFormat(formatCount); !errors.As(err, &ufe) {
		t.Fatalf("got %v, want UnsupportedFormatError", err)
	}
	if _, ok := formatFromVk(vk.FormatUndefined); ok {
		t.Fatal("FormatUndefined should have no mapping")
	}
}

func TestVkImageUsage(t *testing.T) {
	flags, err := vkImageUsage(UsageCopySrc|UsageCopyDst|UsageTextureBinding|UsageStorageBinding, FormatRgba8Unorm)
	if err != nil {
		t.Fatal(err)
	}
	want := vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit) |
		vk.ImageUsageFlags(vk.ImageUsageTransferDstBit) |
		vk.ImageUsageFlags(vk.ImageUsageSampledBit) |
		vk.ImageUsageFlags(vk.ImageUsageStorageBit)
	if flags != want {
		t.Errorf("flags = %#x, want %#x", flags, want)
	}
}

func TestVkImageUsageAttachmentByFormat(t *testing.T) {
	color, err := vkImageUsage(UsageRenderAttachment, FormatBgra8Unorm)
	if err != nil {
		t.Fatal(err)
	}
	if color != vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit) {
		t.Errorf("color attachment flags = %#x", color)
	}
	depth, err := vkImageUsage(UsageRenderAttachment, FormatDepth32Float)
	if err != nil {
		t.Fatal(err)
	}
	if depth != vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit) {
		t.Errorf("depth attachment flags = %#x", depth)
	}
}

func TestVkImageUsageInvalid(t *testing.T) {
	var uue *UnsupportedUsageError
	if _, err := vkImageUsage(0, FormatRgba8Unorm); !errors.As(err, &uue) {
		t.Errorf("empty usage: got %v", err)
	}
	if _, err := vkImageUsage(usageAll|1<<9, FormatRgba8Unorm); !errors.As(err, &uue) {
		t.Errorf("unknown bit: got %v", err)
	}
}

func TestVkAspect(t *testing.T) {
	if vkAspect(FormatRgba8Unorm) != vk.ImageAspectFlags(vk.ImageAspectColorBit) {
		t.Error("color aspect wrong")
	}
	if vkAspect(FormatDepth32Float) != vk.ImageAspectFlags(vk.ImageAspectDepthBit) {
		t.Error("depth aspect wrong")
	}
	want := vk.ImageAspectFlags(vk.ImageAspectDepthBit | vk.ImageAspectStencilBit)
	if vkAspect(FormatDepth24PlusStencil8) != want {
		t.Error("depth-stencil aspect wrong")
	}
}

func TestFirstCompatibleMemoryType(t *testing.T) {
	if got := firstCompatibleMemoryType(0b1000); got != 3 {
		t.Errorf("got %d, want 3", got)
	}
	if got := firstCompatibleMemoryType(0b0110); got != 1 {
		t.Errorf("got %d, want 1", got)
	}
	if got := firstCompatibleMemoryType(0); got != 0 {
		t.Errorf("got %d, want 0", got)
	}
}

func BenchmarkVkFormat(b *testing.B) {
	for i := 0; i < b.N; i++ {
		if _, err := vkFormat(FormatBgra8Unorm); err != nil {
			b.Fatal(err)
		}
	}
}
