package geyser

import "runtime"

// Extension sets required by the sharing protocol. The capability queries
// live on the instance, the handle traffic on the device. Names are matched
// against the platform's actual extension lists at init and missing ones are
// logged, not fatal: a driver that promoted an extension to core keeps
// working, one that truly lacks it fails at the first export with a
// descriptive APIError instead.

// SharingInstanceExtensions are the instance extensions the sharing protocol
// relies on.
func SharingInstanceExtensions() []string {
	return []string{
		"VK_KHR_get_physical_device_properties2",
		"VK_KHR_external_memory_capabilities",
		"VK_KHR_external_semaphore_capabilities",
		"VK_KHR_external_fence_capabilities",
	}
}

// SharingDeviceExtensions are the device extensions the sharing protocol
// relies on, including the platform's handle-transport variants.
func SharingDeviceExtensions() []string {
	names := []string{
		"VK_KHR_external_memory",
		"VK_KHR_external_semaphore",
		"VK_KHR_external_fence",
		"VK_KHR_get_memory_requirements2",
		"VK_KHR_dedicated_allocation",
		"VK_KHR_timeline_semaphore",
	}
	switch runtime.GOOS {
	case "windows":
		names = append(names,
			"VK_KHR_external_memory_win32",
			"VK_KHR_external_semaphore_win32",
			"VK_KHR_external_fence_win32",
		)
	default:
		names = append(names,
			"VK_KHR_external_memory_fd",
			"VK_KHR_external_semaphore_fd",
			"VK_KHR_external_fence_fd",
		)
	}
	return names
}
