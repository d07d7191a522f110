//go:build darwin

package geyser

import (
	"log"
	"sync/atomic"
	"time"

	"github.com/ebitengine/purego/objc"
)

// MetalShareManager implements TextureShareManager over IOSurface. An
// IOSurface id is valid machine-wide, so the exported MetalTextureHandle is
// directly usable by any process without OS-level handle duplication.
//
// Shared events are the one asymmetry: MTLSharedEvent only crosses process
// boundaries through an XPC-transported MTLSharedEventHandle, which has no
// plain-data representation. Event handles here resolve within the exporting
// process only; ImportSharedEvent of an id from another process reports
// ErrOperationNotSupported.
type MetalShareManager struct {
	device objc.ID

	surfaces *handleRegistry[uintptr]
	events   *handleRegistry[objc.ID]
	eventSeq atomic.Uint64
}

var _ TextureShareManager = (*MetalShareManager)(nil)

// NewMetalShareManager binds a manager to the system default Metal device.
func NewMetalShareManager() (*MetalShareManager, error) {
	if err := ensureMetal(); err != nil {
		return nil, &InitializationError{Backend: BackendMetal, Reason: "load Metal framework", Err: err}
	}
	if err := ensureIOSurface(); err != nil {
		return nil, &InitializationError{Backend: BackendMetal, Reason: "load IOSurface framework", Err: err}
	}
	device := mtlCreateSystemDefaultDevice()
	if device == 0 {
		return nil, &InitializationError{Backend: BackendMetal, Reason: "no Metal device available"}
	}
	return &MetalShareManager{
		device:   device,
		surfaces: newHandleRegistry[uintptr](),
		events:   newHandleRegistry[objc.ID](),
	}, nil
}

// CreateShareableTexture allocates an IOSurface sized from the descriptor and
// wraps it in a texture. Every texture from this manager is IOSurface-backed;
// there is no non-shareable fast path to fall back to.
func (m *MetalShareManager) CreateShareableTexture(desc TextureDescriptor) (SharedTexture, error) {
	if err := desc.validate(BackendMetal); err != nil {
		return nil, err
	}
	pixelFormat, err := mtlFormat(desc.Format)
	if err != nil {
		return nil, err
	}
	usage, err := mtlUsage(desc.Usage)
	if err != nil {
		return nil, err
	}
	surface, err := createIOSurface(desc.Width, desc.Height, desc.Format.BytesPerPixel())
	if err != nil {
		return nil, &APIError{Backend: BackendMetal, Op: "IOSurfaceCreate", Msg: err.Error()}
	}
	texture := newMetalTexture(m.device, pixelFormat, desc.Width, desc.Height, usage, surface, desc.label())
	if texture == 0 {
		releaseIOSurface(surface)
		return nil, &APIError{Backend: BackendMetal, Op: "newTextureWithDescriptor", Msg: "texture creation returned nil"}
	}
	return &MetalSharedTexture{
		texture: texture,
		surface: surface,
		owned:   true,
		desc:    desc,
	}, nil
}

// ExportTexture publishes the texture's IOSurface id. The surface gets an
// extra retain held in the registry so the id stays resolvable after the
// texture wrapper is destroyed, until ReleaseTextureHandle.
func (m *MetalShareManager) ExportTexture(texture SharedTexture) (TextureHandle, error) {
	mt, ok := texture.(*MetalSharedTexture)
	if !ok {
		return nil, ErrInvalidTextureHandle
	}
	if !mt.owned || mt.surface == 0 {
		return nil, ErrNoExportableAllocation
	}
	id := ioSurfaceGetID(mt.surface)
	if _, registered := m.surfaces.get(uint64(id)); !registered {
		retainIOSurface(mt.surface)
		m.surfaces.insert(uint64(id), mt.surface)
	}
	return MetalTextureHandle{SurfaceID: id}, nil
}

// ImportTexture looks the surface id up in the kernel registry and wraps it
// in a new texture. The surface also gets a registry retain under its id, so
// on the importing side its lifetime runs until ReleaseTextureHandle rather
// than ending with the wrapper. The descriptor must repeat the exporter's
// geometry; IOSurface carries no pixel-format metadata to validate against.
func (m *MetalShareManager) ImportTexture(handle TextureHandle, desc TextureDescriptor) (SharedTexture, error) {
	mh, ok := handle.(MetalTextureHandle)
	if !ok {
		return nil, ErrInvalidTextureHandle
	}
	if err := desc.validate(BackendMetal); err != nil {
		return nil, err
	}
	pixelFormat, err := mtlFormat(desc.Format)
	if err != nil {
		return nil, err
	}
	usage, err := mtlUsage(desc.Usage)
	if err != nil {
		return nil, err
	}
	surface := lookupIOSurface(mh.SurfaceID)
	if surface == 0 {
		return nil, &APIError{Backend: BackendMetal, Op: "IOSurfaceLookupFromID", Msg: "surface id not found"}
	}
	texture := newMetalTexture(m.device, pixelFormat, desc.Width, desc.Height, usage, surface, desc.label())
	if texture == 0 {
		releaseIOSurface(surface)
		return nil, &APIError{Backend: BackendMetal, Op: "newTextureWithDescriptor", Msg: "texture creation returned nil"}
	}
	if _, registered := m.surfaces.get(uint64(mh.SurfaceID)); !registered {
		retainIOSurface(surface)
		m.surfaces.insert(uint64(mh.SurfaceID), surface)
	}
	imported := mh
	return &MetalSharedTexture{
		texture:  texture,
		surface:  surface,
		desc:     desc,
		imported: &imported,
	}, nil
}

// ReleaseTextureHandle drops the registry retain for the surface id. Absent
// entries are a no-op so both sides of a share may call it.
func (m *MetalShareManager) ReleaseTextureHandle(handle TextureHandle) error {
	mh, ok := handle.(MetalTextureHandle)
	if !ok {
		return ErrInvalidTextureHandle
	}
	if surface, ok := m.surfaces.remove(uint64(mh.SurfaceID)); ok {
		releaseIOSurface(surface)
	}
	return nil
}

// NewSharedEvent creates a shareable timeline event starting at zero.
func (m *MetalShareManager) NewSharedEvent() (objc.ID, error) {
	event := m.device.Send(selNewSharedEvent)
	if event == 0 {
		return 0, &APIError{Backend: BackendMetal, Op: "newSharedEvent", Msg: "event creation returned nil"}
	}
	return event, nil
}

// ExportSharedEvent registers the event and returns a handle resolvable
// within this process.
func (m *MetalShareManager) ExportSharedEvent(event objc.ID) (SyncHandle, error) {
	id := m.eventSeq.Add(1)
	m.events.insert(id, event)
	return MetalEventHandle{EventID: id}, nil
}

// ImportSharedEvent resolves a handle from ExportSharedEvent. Ids minted by
// another process cannot be resolved here.
func (m *MetalShareManager) ImportSharedEvent(handle SyncHandle) (objc.ID, error) {
	mh, ok := handle.(MetalEventHandle)
	if !ok {
		return 0, ErrInvalidSyncHandle
	}
	event, ok := m.events.get(mh.EventID)
	if !ok {
		return 0, ErrOperationNotSupported
	}
	return event, nil
}

// ReleaseSyncHandle drops the registry reference for an exported event.
func (m *MetalShareManager) ReleaseSyncHandle(handle SyncHandle) error {
	mh, ok := handle.(MetalEventHandle)
	if !ok {
		return ErrInvalidSyncHandle
	}
	if event, ok := m.events.remove(mh.EventID); ok {
		event.Send(selRelease)
	}
	return nil
}

// SignalSharedEvent sets the event's counter from the host.
func (m *MetalShareManager) SignalSharedEvent(event objc.ID, value uint64) error {
	event.Send(selSetSignaledValue, value)
	return nil
}

// SharedEventValue reads the current counter.
func (m *MetalShareManager) SharedEventValue(event objc.ID) (uint64, error) {
	return objc.Send[uint64](event, selSignaledValue), nil
}

// WaitSharedEvent blocks until the counter reaches value or timeout elapses.
// A negative timeout waits forever.
func (m *MetalShareManager) WaitSharedEvent(event objc.ID, value uint64, timeout time.Duration) error {
	ms := ^uint64(0)
	if timeout >= 0 {
		ms = uint64(timeout.Milliseconds())
	}
	if objc.Send[bool](event, selWaitUntilSignaledValueTimeout, value, ms) {
		return nil
	}
	return ErrTimeout
}

// Destroy drains the registries and releases every surface and event still
// registered, logging what was leaked.
func (m *MetalShareManager) Destroy() {
	if leaked := m.surfaces.drain(); len(leaked) > 0 {
		log.Printf("metal warning: %d texture handles never released", len(leaked))
		for _, surface := range leaked {
			releaseIOSurface(surface)
		}
	}
	if leaked := m.events.drain(); len(leaked) > 0 {
		log.Printf("metal warning: %d event handles never released", len(leaked))
		for _, event := range leaked {
			event.Send(selRelease)
		}
	}
}

// MetalSharedTexture is a live IOSurface-backed texture.
type MetalSharedTexture struct {
	texture  objc.ID
	surface  uintptr
	owned    bool
	desc     TextureDescriptor
	imported *MetalTextureHandle
}

var _ SharedTexture = (*MetalSharedTexture)(nil)

func (t *MetalSharedTexture) Width() uint32         { return t.desc.Width }
func (t *MetalSharedTexture) Height() uint32        { return t.desc.Height }
func (t *MetalSharedTexture) Format() TextureFormat { return t.desc.Format }
func (t *MetalSharedTexture) Usage() TextureUsage   { return t.desc.Usage }
func (t *MetalSharedTexture) Label() string         { return t.desc.Label }

// Texture exposes the native MTLTexture id.
func (t *MetalSharedTexture) Texture() objc.ID { return t.texture }

// SurfaceID returns the machine-wide IOSurface id backing this texture.
func (t *MetalSharedTexture) SurfaceID() uint32 {
	if t.surface == 0 {
		return 0
	}
	return ioSurfaceGetID(t.surface)
}

// ImportedHandle returns the handle this texture was imported under, if any.
func (t *MetalSharedTexture) ImportedHandle() (MetalTextureHandle, bool) {
	if t.imported == nil {
		return MetalTextureHandle{}, false
	}
	return *t.imported, true
}

// Destroy releases the texture and this wrapper's surface reference. A
// registry retain from ExportTexture keeps the surface id resolvable after
// this returns.
func (t *MetalSharedTexture) Destroy() {
	if t.texture != 0 {
		t.texture.Send(selRelease)
		t.texture = 0
	}
	if t.surface != 0 {
		releaseIOSurface(t.surface)
		t.surface = 0
	}
}
