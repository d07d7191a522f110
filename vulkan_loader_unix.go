//go:build linux || freebsd || darwin

package geyser

import (
	"fmt"
	"runtime"

	"github.com/ebitengine/purego"
)

func vulkanLoaderCandidates() []string {
	if runtime.GOOS == "darwin" {
		return []string{"libvulkan.1.dylib", "libvulkan.dylib", "libMoltenVK.dylib"}
	}
	return []string{"libvulkan.so.1", "libvulkan.so"}
}

func openVulkanLoader() (uintptr, error) {
	var lastErr error
	for _, name := range vulkanLoaderCandidates() {
		lib, err := purego.Dlopen(name, purego.RTLD_LAZY|purego.RTLD_GLOBAL)
		if err == nil {
			return lib, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no vulkan loader candidates")
	}
	return 0, lastErr
}
