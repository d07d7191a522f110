// Package geyser shares GPU textures between independent device contexts,
// possibly living in different processes, without a CPU copy.
//
// A TextureShareManager bound to an existing native device creates textures
// whose backing memory is flagged as externally shareable, exports a platform
// handle (an opaque file descriptor, a Win32 handle, or an IOSurface ID) that
// identifies the memory outside the owning process, and imports such a handle
// into a new texture aliasing the same physical memory. Synchronization
// primitives (binary semaphores, fences, timeline semaphores, Metal shared
// events) follow the same export/import discipline on the concrete manager
// types.
//
// The package does not render, does not submit GPU work, and does not move
// handles between processes; callers own the transport. Note that opaque file
// descriptors and Win32 handles must be carried by an OS mechanism capable of
// transferring them (socket ancillary data, DuplicateHandle), while IOSurface
// IDs are plain integers valid in any process.
package geyser
