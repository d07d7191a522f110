//go:build windows

package geyser

import "golang.org/x/sys/windows"

func openVulkanLoader() (uintptr, error) {
	handle, err := windows.LoadLibrary("vulkan-1.dll")
	if err != nil {
		return 0, err
	}
	return uintptr(handle), nil
}
