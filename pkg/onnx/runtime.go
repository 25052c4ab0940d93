package onnx

import (
	"context"
)

// NodeInfo describes one input or output node of a model graph.
type NodeInfo struct {
	// Name is the node name.
	Name string `json:"name"`
	// DType is the node's element type, as reported by the runtime.
	DType string `json:"dtype,omitempty"`
}

// Signature is a loaded session's reported input/output interface.
type Signature struct {
	// Inputs are the graph's input nodes.
	Inputs []NodeInfo `json:"inputs"`
	// Outputs are the graph's output nodes.
	Outputs []NodeInfo `json:"outputs"`
}

// SessionOptions is the opaque configuration bag passed through, unchanged,
// to the underlying runtime when a session is constructed.
type SessionOptions struct {
	// IntraOpThreads is the per-operator parallelism degree. Zero lets the
	// runtime decide.
	IntraOpThreads int
	// InterOpThreads is the cross-operator parallelism degree. Zero lets the
	// runtime decide.
	InterOpThreads int
	// GraphOptimizationLevel selects the runtime's graph optimization level.
	// Zero is the runtime default.
	GraphOptimizationLevel int
	// Flags are additional runtime-specific flags passed through verbatim.
	Flags []string
}

// Session is a ready-to-use inference session produced by a Runtime.
type Session interface {
	// Signature returns the session's reported input/output interface.
	Signature() Signature
	// Run executes the model graph against the named input tensors.
	// Concurrent calls are permitted only if the underlying runtime
	// guarantees thread-safe inference execution.
	Run(ctx context.Context, inputs map[string]*Tensor) (map[string]*Tensor, error)
	// Close releases the session's resources. It is safe to call more than
	// once.
	Close() error
}

// Runtime is the inference runtime capability contract consumed by the
// provisioning core.
type Runtime interface {
	// AvailableProviders returns the execution providers installed and usable
	// on this host right now.
	AvailableProviders() []string
	// AllProviders returns the runtime's full registered provider catalogue,
	// which may include providers not installed on this host.
	AllProviders() []string
	// OpenSessionFromPath constructs a session by reading a model file.
	OpenSessionFromPath(ctx context.Context, path string, opts *SessionOptions, providers []string) (Session, error)
	// OpenSessionFromBytes constructs a session directly from a serialized
	// model.
	OpenSessionFromBytes(ctx context.Context, model []byte, opts *SessionOptions, providers []string) (Session, error)
}

// LoadSession resolves an artifact location into a live session. Both
// branches pass the session options and the validated provider list through
// to the runtime unchanged. Failures are wrapped in *SessionLoadError and are
// fatal to this activation attempt; retry policy belongs to the caller.
func LoadSession(ctx context.Context, rt Runtime, location ArtifactLocation, opts *SessionOptions, providers []string) (Session, error) {
	var session Session
	var err error
	switch location.Kind() {
	case ArtifactInMemory:
		session, err = rt.OpenSessionFromBytes(ctx, location.Bytes(), opts, providers)
	case ArtifactFile:
		session, err = rt.OpenSessionFromPath(ctx, location.Path(), opts, providers)
	}
	if err != nil {
		return nil, &SessionLoadError{Location: location.String(), Err: err}
	}
	return session, nil
}
