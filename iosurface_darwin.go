//go:build darwin

package geyser

import (
	"errors"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

// IOSurface and the few CoreFoundation calls needed to build its creation
// dictionary. IOSurfaceCreate and IOSurfaceLookup both return a +1 reference;
// releaseIOSurface balances either.

const kCFNumberSInt32Type = 3

var (
	ioSurfaceOnce sync.Once
	ioSurfaceErr  error

	ioSurfaceCreate func(properties uintptr) uintptr
	ioSurfaceLookup func(id uint32) uintptr
	ioSurfaceGetID  func(surface uintptr) uint32

	cfRetain           func(ref uintptr) uintptr
	cfRelease          func(ref uintptr)
	cfNumberCreate     func(allocator uintptr, numberType int, valuePtr unsafe.Pointer) uintptr
	cfDictionaryCreate func(allocator uintptr, keys unsafe.Pointer, values unsafe.Pointer, count int, keyCallbacks, valueCallbacks uintptr) uintptr

	// CFStringRef key constants, dereferenced from their exported symbols.
	kIOSurfaceWidth           uintptr
	kIOSurfaceHeight          uintptr
	kIOSurfaceBytesPerElement uintptr

	// Addresses of the standard dictionary callback structs.
	kCFTypeDictionaryKeyCallBacks   uintptr
	kCFTypeDictionaryValueCallBacks uintptr
)

func ensureIOSurface() error {
	ioSurfaceOnce.Do(func() {
		lib, err := purego.Dlopen("/System/Library/Frameworks/IOSurface.framework/IOSurface", purego.RTLD_GLOBAL)
		if err != nil {
			ioSurfaceErr = err
			return
		}
		cf, err := purego.Dlopen("/System/Library/Frameworks/CoreFoundation.framework/CoreFoundation", purego.RTLD_GLOBAL)
		if err != nil {
			ioSurfaceErr = err
			return
		}

		purego.RegisterLibFunc(&ioSurfaceCreate, lib, "IOSurfaceCreate")
		purego.RegisterLibFunc(&ioSurfaceLookup, lib, "IOSurfaceLookupFromID")
		purego.RegisterLibFunc(&ioSurfaceGetID, lib, "IOSurfaceGetID")

		purego.RegisterLibFunc(&cfRetain, cf, "CFRetain")
		purego.RegisterLibFunc(&cfRelease, cf, "CFRelease")
		purego.RegisterLibFunc(&cfNumberCreate, cf, "CFNumberCreate")
		purego.RegisterLibFunc(&cfDictionaryCreate, cf, "CFDictionaryCreate")

		kIOSurfaceWidth, err = derefSymbol(lib, "kIOSurfaceWidth")
		if err == nil {
			kIOSurfaceHeight, err = derefSymbol(lib, "kIOSurfaceHeight")
		}
		if err == nil {
			kIOSurfaceBytesPerElement, err = derefSymbol(lib, "kIOSurfaceBytesPerElement")
		}
		if err != nil {
			ioSurfaceErr = err
			return
		}

		kCFTypeDictionaryKeyCallBacks, err = purego.Dlsym(cf, "kCFTypeDictionaryKeyCallBacks")
		if err == nil {
			kCFTypeDictionaryValueCallBacks, err = purego.Dlsym(cf, "kCFTypeDictionaryValueCallBacks")
		}
		if err != nil {
			ioSurfaceErr = err
		}
	})
	return ioSurfaceErr
}

// derefSymbol reads a CFStringRef exported as a data symbol.
func derefSymbol(lib uintptr, name string) (uintptr, error) {
	addr, err := purego.Dlsym(lib, name)
	if err != nil {
		return 0, err
	}
	return *(*uintptr)(unsafe.Pointer(addr)), nil
}

// createIOSurface allocates a surface sized for a single plane of
// width x height elements. The element size must match what the pixel format
// reads per texel or the surface comes out undersized.
func createIOSurface(width, height uint32, bytesPerElement int) (uintptr, error) {
	w, h, bpe := int32(width), int32(height), int32(bytesPerElement)
	values := []uintptr{
		cfNumberCreate(0, kCFNumberSInt32Type, unsafe.Pointer(&w)),
		cfNumberCreate(0, kCFNumberSInt32Type, unsafe.Pointer(&h)),
		cfNumberCreate(0, kCFNumberSInt32Type, unsafe.Pointer(&bpe)),
	}
	keys := []uintptr{kIOSurfaceWidth, kIOSurfaceHeight, kIOSurfaceBytesPerElement}

	dict := cfDictionaryCreate(0,
		unsafe.Pointer(&keys[0]), unsafe.Pointer(&values[0]), len(keys),
		kCFTypeDictionaryKeyCallBacks, kCFTypeDictionaryValueCallBacks)
	for _, v := range values {
		cfRelease(v)
	}
	if dict == 0 {
		return 0, errors.New("geyser: CFDictionaryCreate failed")
	}
	surface := ioSurfaceCreate(dict)
	cfRelease(dict)
	if surface == 0 {
		return 0, errors.New("geyser: IOSurfaceCreate failed")
	}
	return surface, nil
}

// lookupIOSurface resolves a surface id from the kernel registry. The id is
// valid machine-wide, so this is the cross-process import path.
func lookupIOSurface(id uint32) uintptr {
	return ioSurfaceLookup(id)
}

func retainIOSurface(surface uintptr)  { cfRetain(surface) }
func releaseIOSurface(surface uintptr) { cfRelease(surface) }
