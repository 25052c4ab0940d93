// Package ort implements the inference runtime capability contract on top of
// the onnxruntime-purego binding to the ONNX Runtime shared library.
package ort

import (
	"context"
	"fmt"
	"os"
	"slices"

	ortapi "github.com/shota3506/onnxruntime-purego/onnxruntime"

	"github.com/modelyard/onnx-runner/pkg/logging"
	"github.com/modelyard/onnx-runner/pkg/onnx"
)

// defaultAPIVersion is the ORT C API version requested from the shared
// library when none is configured.
const defaultAPIVersion = 23

// Config configures the runtime binding.
type Config struct {
	// LibraryPath is the ONNX Runtime shared library path. Empty triggers
	// detection via ORT_LIBRARY_PATH and well-known install locations.
	LibraryPath string
	// APIVersion is the requested ORT C API version. Zero selects the
	// default.
	APIVersion uint32
}

// Runtime is an onnx.Runtime backed by the ONNX Runtime shared library.
type Runtime struct {
	// log is the associated logger.
	log logging.Logger
	// info is the detected library info.
	info Info
	// rt is the loaded ORT binding.
	rt *ortapi.Runtime
	// env is the process-wide ORT environment.
	env *ortapi.Env
	// available is the provider set probed at construction.
	available []string
}

// NewRuntime loads the ONNX Runtime shared library and probes host provider
// availability. It performs the missing-dependency check up front: a host
// without the library fails here, once, rather than on first session load.
func NewRuntime(log logging.Logger, cfg Config) (*Runtime, error) {
	info, err := Detect(cfg.LibraryPath)
	if err != nil {
		return nil, err
	}

	apiVersion := cfg.APIVersion
	if apiVersion == 0 {
		apiVersion = defaultAPIVersion
	}
	rt, err := ortapi.NewRuntime(info.LibraryPath, apiVersion)
	if err != nil {
		return nil, fmt.Errorf("unable to load onnxruntime library %s: %w", info.LibraryPath, err)
	}
	env, err := rt.NewEnv("onnx-runner", ortapi.LoggingLevelWarning)
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("unable to create onnxruntime environment: %w", err)
	}

	log.Infof("Loaded ONNX Runtime %s from %s", info.Version, info.LibraryPath)
	return &Runtime{
		log:       log,
		info:      info,
		rt:        rt,
		env:       env,
		available: probeAvailableProviders(log),
	}, nil
}

// Info returns the detected library info.
func (r *Runtime) Info() Info {
	return r.info
}

// AvailableProviders implements onnx.Runtime.AvailableProviders.
func (r *Runtime) AvailableProviders() []string {
	return append([]string(nil), r.available...)
}

// AllProviders implements onnx.Runtime.AllProviders.
func (r *Runtime) AllProviders() []string {
	return append([]string(nil), allProviders...)
}

// OpenSessionFromPath implements onnx.Runtime.OpenSessionFromPath.
func (r *Runtime) OpenSessionFromPath(ctx context.Context, path string, opts *onnx.SessionOptions, providers []string) (onnx.Session, error) {
	if err := r.checkProviders(providers); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Session options beyond library defaults are not exposed by the purego
	// binding; thread counts and graph optimization are left to the library.
	if opts != nil && (opts.IntraOpThreads != 0 || opts.InterOpThreads != 0) {
		r.log.Debugf("Session thread options requested (intra=%d inter=%d); library defaults apply",
			opts.IntraOpThreads, opts.InterOpThreads,
		)
	}
	session, err := r.rt.NewSession(r.env, path, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to open session from %s: %w", path, err)
	}
	return &ortSession{rt: r.rt, session: session}, nil
}

// OpenSessionFromBytes implements onnx.Runtime.OpenSessionFromBytes. The
// binding only constructs sessions from files, so the serialized model is
// staged through a temporary file for the duration of session construction.
func (r *Runtime) OpenSessionFromBytes(ctx context.Context, model []byte, opts *onnx.SessionOptions, providers []string) (onnx.Session, error) {
	staged, err := os.CreateTemp("", "onnx-runner-*.onnx")
	if err != nil {
		return nil, fmt.Errorf("unable to stage in-memory model: %w", err)
	}
	defer os.Remove(staged.Name())
	if _, err := staged.Write(model); err != nil {
		staged.Close()
		return nil, fmt.Errorf("unable to stage in-memory model: %w", err)
	}
	if err := staged.Close(); err != nil {
		return nil, fmt.Errorf("unable to stage in-memory model: %w", err)
	}
	return r.OpenSessionFromPath(ctx, staged.Name(), opts, providers)
}

// checkProviders rejects providers that are not usable on this host. The
// provider list is expected to be pre-validated against the catalogue; this
// check catches requests for catalogued-but-absent accelerators.
func (r *Runtime) checkProviders(providers []string) error {
	for _, provider := range providers {
		if !slices.Contains(r.available, provider) {
			return fmt.Errorf("provider %s is not available on this host", provider)
		}
	}
	return nil
}

// Close releases the ORT environment and library binding.
func (r *Runtime) Close() error {
	if r.env != nil {
		r.env.Close()
		r.env = nil
	}
	if r.rt != nil {
		err := r.rt.Close()
		r.rt = nil
		return err
	}
	return nil
}

// ortSession adapts an ORT session to the onnx.Session contract.
type ortSession struct {
	rt      *ortapi.Runtime
	session *ortapi.Session
}

// Signature implements onnx.Session.Signature. The purego binding does not
// expose graph introspection, so the signature is discovered from the first
// Run call's shapes; until then it is empty.
func (s *ortSession) Signature() onnx.Signature {
	return onnx.Signature{}
}

// Run implements onnx.Session.Run.
func (s *ortSession) Run(ctx context.Context, inputs map[string]*onnx.Tensor) (map[string]*onnx.Tensor, error) {
	ortInputs := make(map[string]*ortapi.Value, len(inputs))
	defer closeValues(ortInputs)
	for name, tensor := range inputs {
		value, err := tensorToValue(s.rt, tensor)
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", name, err)
		}
		ortInputs[name] = value
	}

	ortOutputs, err := s.session.Run(ctx, ortInputs)
	if err != nil {
		return nil, err
	}
	defer closeValues(ortOutputs)

	outputs := make(map[string]*onnx.Tensor, len(ortOutputs))
	for name, value := range ortOutputs {
		tensor, err := valueToTensor(value)
		if err != nil {
			return nil, fmt.Errorf("output %q: %w", name, err)
		}
		outputs[name] = tensor
	}
	return outputs, nil
}

// Close implements onnx.Session.Close.
func (s *ortSession) Close() error {
	if s.session != nil {
		s.session.Close()
		s.session = nil
	}
	return nil
}

func tensorToValue(rt *ortapi.Runtime, t *onnx.Tensor) (*ortapi.Value, error) {
	switch data := t.Data().(type) {
	case []float32:
		return ortapi.NewTensorValue(rt, data, t.Shape())
	case []int64:
		return ortapi.NewTensorValue(rt, data, t.Shape())
	default:
		return nil, fmt.Errorf("unsupported tensor dtype %T", data)
	}
}

func valueToTensor(value *ortapi.Value) (*onnx.Tensor, error) {
	elemType, err := value.GetTensorElementType()
	if err != nil {
		return nil, fmt.Errorf("get element type: %w", err)
	}
	switch elemType {
	case ortapi.ONNXTensorElementDataTypeFloat:
		data, shape, err := ortapi.GetTensorData[float32](value)
		if err != nil {
			return nil, err
		}
		return onnx.NewTensor(data, shape)
	case ortapi.ONNXTensorElementDataTypeInt64:
		data, shape, err := ortapi.GetTensorData[int64](value)
		if err != nil {
			return nil, err
		}
		return onnx.NewTensor(data, shape)
	default:
		return nil, fmt.Errorf("unsupported ORT element type %d", elemType)
	}
}

func closeValues(values map[string]*ortapi.Value) {
	for _, value := range values {
		if value != nil {
			value.Close()
		}
	}
}
