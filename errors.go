package vkframe

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

var (
	// ErrConstruction marks failures while building a GraphicsContext.
	ErrConstruction = errors.New("vkframe: construction failure")
	// ErrNoSuitableDevice is returned when no physical device passes selection.
	ErrNoSuitableDevice = errors.New("vkframe: no suitable device")
	// ErrRuntime marks driver failures while rendering frames.
	ErrRuntime = errors.New("vkframe: runtime failure")
	// ErrInvalidWindow is returned for a null native handle or an empty window.
	ErrInvalidWindow = errors.New("vkframe: invalid window")
	// ErrDestroyed is returned when a destroyed context is used.
	ErrDestroyed = errors.New("vkframe: context destroyed")
)

// failure ties a taxonomy sentinel to the operation that failed and its cause.
type failure struct {
	kind  error
	op    string
	cause error
}

func (f *failure) Error() string {
	if f.cause == nil {
		return f.kind.Error() + ": " + f.op
	}
	return f.kind.Error() + ": " + f.op + ": " + f.cause.Error()
}

func (f *failure) Unwrap() []error {
	if f.cause == nil {
		return []error{f.kind}
	}
	return []error{f.kind, f.cause}
}

func constructErr(op string, cause error) error {
	return errors.WithStack(&failure{kind: ErrConstruction, op: op, cause: cause})
}

func runtimeErr(op string, cause error) error {
	return errors.WithStack(&failure{kind: ErrRuntime, op: op, cause: cause})
}

func isError(ret vk.Result) bool {
	return ret != vk.Success
}

// NewError converts a Vulkan result into an error carrying a stack trace.
// Success yields nil.
func NewError(ret vk.Result) error {
	if !isError(ret) {
		return nil
	}
	return errors.WithStack(vk.Error(ret))
}

// Status is the binary outcome reported across the host boundary.
type Status int32

const (
	StatusSuccess Status = 0
	StatusFailure Status = 1
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	}
	return "unknown"
}

// StatusOf collapses any error into the boundary status.
func StatusOf(err error) Status {
	if err != nil {
		return StatusFailure
	}
	return StatusSuccess
}
