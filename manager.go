package geyser

// TextureShareManager is the uniform texture-sharing surface every backend
// implements. Calling code can be written against this interface and bound to
// a concrete backend at construction time; no backend-specific behavior leaks
// through these signatures.
//
// Synchronization operations are deliberately not part of the interface:
// their handle-export mechanisms are too platform-specific to unify without
// losing precision. Callers needing semaphores, fences or shared events use
// the concrete manager type directly.
//
// Managers are safe for concurrent use. Every operation is synchronous on the
// calling goroutine; the manager runs no background work.
type TextureShareManager interface {
	// CreateShareableTexture allocates a texture whose backing memory is
	// flagged as externally shareable at creation time, using a dedicated
	// allocation. The new texture is untracked by the manager registry until
	// exported.
	CreateShareableTexture(desc TextureDescriptor) (SharedTexture, error)

	// ExportTexture extracts a platform handle for the texture's backing
	// memory and registers the memory so it stays alive until
	// ReleaseTextureHandle. The texture must have been produced by
	// CreateShareableTexture on this manager; imported textures are rejected
	// with ErrNoExportableAllocation.
	ExportTexture(texture SharedTexture) (TextureHandle, error)

	// ImportTexture reconstructs a texture over the memory identified by
	// handle. The handle's backend tag must match the manager, else
	// ErrInvalidTextureHandle. The descriptor should match the exporter's;
	// the import is all-or-nothing and rolls back partially created native
	// objects on failure.
	ImportTexture(handle TextureHandle, desc TextureDescriptor) (SharedTexture, error)

	// ReleaseTextureHandle frees the native resource registered under the
	// handle's identifying value. Releasing an unknown or already released
	// handle is a no-op, so either side of a sharing pair may release
	// unconditionally.
	ReleaseTextureHandle(handle TextureHandle) error
}
