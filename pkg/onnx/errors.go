package onnx

import (
	"errors"
	"fmt"
)

// ErrUnsupportedBackend indicates that a requested inference backend is not in
// the fixed supported set. It is a configuration error and is never retried.
var ErrUnsupportedBackend = errors.New("backend not supported for ONNX models")

// ErrRegistryMismatch indicates that a stored record was saved by a different
// framework adapter and cannot be loaded by this one. It is always fatal and
// never silently coerced.
var ErrRegistryMismatch = errors.New("model was saved by an incompatible module")

// ErrBatchNotConfigured indicates that Runner.Run was invoked without a batch
// execution hook having been configured.
var ErrBatchNotConfigured = errors.New("batch execution hook not configured")

// ErrRunnerClosed indicates that a Runner was used after Close.
var ErrRunnerClosed = errors.New("runner is closed")

// UnrecognizedProviderError indicates that a requested execution provider is
// not part of the runtime's registered provider catalogue.
type UnrecognizedProviderError struct {
	// Provider is the offending provider name, verbatim.
	Provider string
}

// Error implements error.Error.
func (e *UnrecognizedProviderError) Error() string {
	return fmt.Sprintf("provider %q is not recognized by the runtime", e.Provider)
}

// MalformedProviderSpecError indicates a structurally invalid provider entry.
type MalformedProviderSpecError struct {
	// Spec is the offending entry, verbatim.
	Spec any
}

// Error implements error.Error.
func (e *MalformedProviderSpecError) Error() string {
	return fmt.Sprintf("malformed provider specification: %v (%T)", e.Spec, e.Spec)
}

// SessionLoadError indicates an I/O or runtime-level failure while
// constructing an inference session. It is fatal to the activation attempt
// that produced it and is surfaced whole to the caller.
type SessionLoadError struct {
	// Location describes the artifact that failed to load.
	Location string
	// Err is the underlying runtime error.
	Err error
}

// Error implements error.Error.
func (e *SessionLoadError) Error() string {
	return fmt.Sprintf("unable to load session from %s: %v", e.Location, e.Err)
}

// Unwrap supports errors.Is / errors.As against the underlying cause.
func (e *SessionLoadError) Unwrap() error {
	return e.Err
}
