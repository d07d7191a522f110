package geyser

import (
	"errors"
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// Sentinel errors for conditions detected before any native call is made.
// All of them are comparable with errors.Is.
var (
	// ErrInvalidTextureHandle reports a handle or texture whose backend tag
	// does not match the manager it was given to.
	ErrInvalidTextureHandle = errors.New("geyser: handle does not belong to this backend")

	// ErrInvalidSyncHandle reports a sync handle whose variant does not match
	// the operation (e.g. a fence handle passed to a semaphore import).
	ErrInvalidSyncHandle = errors.New("geyser: sync handle kind does not match operation")

	// ErrNoExportableAllocation reports an export attempt on a texture that
	// does not own its backing memory, such as a texture obtained through
	// ImportTexture. Re-exporting imported memory is rejected, never aliased
	// under a fresh handle.
	ErrNoExportableAllocation = errors.New("geyser: texture does not own an exportable allocation")

	// ErrInvalidDescriptor reports a descriptor with zero extent.
	ErrInvalidDescriptor = errors.New("geyser: invalid texture descriptor")

	// ErrResourceInUse reports an operation that would alias a live native
	// resource under a second handle, such as exporting a texture twice.
	ErrResourceInUse = errors.New("geyser: resource already in use")

	// ErrNotImplemented reports a stubbed feature such as cross-API bridging.
	ErrNotImplemented = errors.New("geyser: not implemented")

	// ErrOperationNotSupported reports an export/import path that does not
	// exist on the current platform build.
	ErrOperationNotSupported = errors.New("geyser: operation not supported on this platform")

	// ErrTimeout reports an elapsed wait deadline. It is a distinct outcome,
	// never folded into other failures.
	ErrTimeout = errors.New("geyser: wait timed out")
)

// APIError wraps a failure code returned by a native driver call.
type APIError struct {
	Backend Backend
	Op      string
	Ret     vk.Result // vk.Success when Backend is not Vulkan
	Msg     string    // non-Vulkan diagnostic
}

func (e *APIError) Error() string {
	if e.Backend == BackendVulkan {
		return fmt.Sprintf("geyser: %s: vulkan error: %s (%d)", e.Op, vk.Error(e.Ret).Error(), e.Ret)
	}
	return fmt.Sprintf("geyser: %s: %s error: %s", e.Op, e.Backend, e.Msg)
}

// InitializationError reports a failed native context setup.
type InitializationError struct {
	Backend Backend
	Reason  string
	Err     error
}

func (e *InitializationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("geyser: %s initialization: %s: %v", e.Backend, e.Reason, e.Err)
	}
	return fmt.Sprintf("geyser: %s initialization: %s", e.Backend, e.Reason)
}

func (e *InitializationError) Unwrap() error { return e.Err }

// UnsupportedFormatError reports a format with no native mapping on the
// requested backend. Unsupported formats always fail; no operation falls back
// to a default format.
type UnsupportedFormatError struct {
	Format  TextureFormat
	Backend Backend
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("geyser: format %s has no %s mapping", e.Format, e.Backend)
}

// UnsupportedUsageError reports usage bits with no native mapping.
type UnsupportedUsageError struct {
	Usage   TextureUsage
	Backend Backend
}

func (e *UnsupportedUsageError) Error() string {
	return fmt.Sprintf("geyser: usage %s has no %s mapping", e.Usage, e.Backend)
}

func isError(ret vk.Result) bool {
	return ret != vk.Success
}

// newError converts a Vulkan result into an APIError, nil on success.
// Every fallible native call is checked at its call site through this.
func newError(op string, ret vk.Result) error {
	if ret != vk.Success {
		return &APIError{Backend: BackendVulkan, Op: op, Ret: ret}
	}
	return nil
}
