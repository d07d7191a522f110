//go:build darwin

package geyser

import (
	"sync"

	"github.com/ebitengine/purego"
	"github.com/ebitengine/purego/objc"
)

// CGO-free Metal bindings via purego + the Objective-C runtime, loaded once
// on first use.

var (
	metalOnce sync.Once
	metalErr  error

	mtlCreateSystemDefaultDevice func() objc.ID

	selAlloc   objc.SEL
	selInit    objc.SEL
	selRelease objc.SEL

	// MTLTextureDescriptor.
	selSetTextureType  objc.SEL
	selSetPixelFormat  objc.SEL
	selSetWidth        objc.SEL
	selSetHeight       objc.SEL
	selSetUsage        objc.SEL
	selSetStorageMode  objc.SEL

	// MTLDevice.
	selNewTextureWithDescriptorIOSurfacePlane objc.SEL
	selNewSharedEvent                         objc.SEL

	// MTLTexture.
	selSetLabel objc.SEL

	// NSString.
	selStringWithUTF8String objc.SEL

	// MTLSharedEvent.
	selSetSignaledValue              objc.SEL
	selSignaledValue                 objc.SEL
	selWaitUntilSignaledValueTimeout objc.SEL
)

func ensureMetal() error {
	metalOnce.Do(func() {
		if _, err := purego.Dlopen("/usr/lib/libobjc.A.dylib", purego.RTLD_GLOBAL); err != nil {
			metalErr = err
			return
		}
		lib, err := purego.Dlopen("/System/Library/Frameworks/Metal.framework/Metal", purego.RTLD_GLOBAL)
		if err != nil {
			metalErr = err
			return
		}
		purego.RegisterLibFunc(&mtlCreateSystemDefaultDevice, lib, "MTLCreateSystemDefaultDevice")

		selAlloc = objc.RegisterName("alloc")
		selInit = objc.RegisterName("init")
		selRelease = objc.RegisterName("release")

		selSetTextureType = objc.RegisterName("setTextureType:")
		selSetPixelFormat = objc.RegisterName("setPixelFormat:")
		selSetWidth = objc.RegisterName("setWidth:")
		selSetHeight = objc.RegisterName("setHeight:")
		selSetUsage = objc.RegisterName("setUsage:")
		selSetStorageMode = objc.RegisterName("setStorageMode:")

		selNewTextureWithDescriptorIOSurfacePlane = objc.RegisterName("newTextureWithDescriptor:iosurface:plane:")
		selNewSharedEvent = objc.RegisterName("newSharedEvent")

		selSetLabel = objc.RegisterName("setLabel:")
		selStringWithUTF8String = objc.RegisterName("stringWithUTF8String:")

		selSetSignaledValue = objc.RegisterName("setSignaledValue:")
		selSignaledValue = objc.RegisterName("signaledValue")
		selWaitUntilSignaledValueTimeout = objc.RegisterName("waitUntilSignaledValue:timeoutMS:")
	})
	return metalErr
}

// newMetalTexture wraps an IOSurface in an MTLTexture. The surface keeps its
// own reference; the returned texture must be released by the caller.
func newMetalTexture(device objc.ID, pixelFormat uint, width, height uint32, usage uint, surface uintptr, label string) objc.ID {
	desc := objc.ID(objc.GetClass("MTLTextureDescriptor")).Send(selAlloc).Send(selInit)
	defer desc.Send(selRelease)

	desc.Send(selSetTextureType, mtlTextureType2D)
	desc.Send(selSetPixelFormat, pixelFormat)
	desc.Send(selSetWidth, uint(width))
	desc.Send(selSetHeight, uint(height))
	desc.Send(selSetUsage, usage)
	// IOSurface-backed textures must use shared storage.
	desc.Send(selSetStorageMode, mtlStorageModeShared)

	texture := device.Send(selNewTextureWithDescriptorIOSurfacePlane, desc, surface, uint(0))
	if texture != 0 && label != "" {
		name := objc.ID(objc.GetClass("NSString")).Send(selStringWithUTF8String, label)
		texture.Send(selSetLabel, name)
	}
	return texture
}
