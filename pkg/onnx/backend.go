package onnx

import (
	"fmt"
)

const (
	// BackendONNXRuntime is the CPU build of the ONNX Runtime backend.
	BackendONNXRuntime = "onnxruntime"
	// BackendONNXRuntimeGPU is the GPU-accelerated build of the ONNX Runtime
	// backend.
	BackendONNXRuntimeGPU = "onnxruntime-gpu"
)

// supportedBackends is the fixed set of inference backends this adapter can
// provision.
var supportedBackends = map[string]bool{
	BackendONNXRuntime:    true,
	BackendONNXRuntimeGPU: true,
}

// SupportedBackends returns the fixed supported backend set.
func SupportedBackends() []string {
	return []string{BackendONNXRuntime, BackendONNXRuntimeGPU}
}

// ValidateBackend checks a requested backend name against the fixed supported
// set.
func ValidateBackend(backend string) error {
	if !supportedBackends[backend] {
		return fmt.Errorf("%w: %q", ErrUnsupportedBackend, backend)
	}
	return nil
}

// Provider selects an execution provider by name with provider-specific
// options attached.
type Provider struct {
	// Name is the provider name, e.g. "CUDAExecutionProvider".
	Name string
	// Options are provider-specific options passed through to the runtime.
	Options map[string]any
}

// ProviderSpec is one entry in a requested provider list as it arrives from a
// decoded configuration document. Accepted forms are a bare provider name
// (string), a Provider value, a list of names ([]string), or a []any holding
// any of these forms, where a two-element []any whose second element is an
// options map is treated as a name/options pair. Any other form is a
// malformed entry.
type ProviderSpec = any

// NormalizeProviders flattens a heterogeneous provider spec list into a plain
// name list and validates it. An empty or nil spec list defaults to the
// providers currently available on the host, never to the full catalogue, so
// a runner cannot unintentionally request a provider absent on the executing
// machine. A non-empty list is validated against allKnown, the runtime's full
// registered catalogue. The function is pure; duplicate names collapse and
// first-appearance order is preserved.
func NormalizeProviders(specs []ProviderSpec, available, allKnown []string) ([]string, error) {
	if len(specs) == 0 {
		return append([]string(nil), available...), nil
	}

	var names []string
	for _, spec := range specs {
		if err := flattenProvider(spec, &names); err != nil {
			return nil, err
		}
	}

	known := make(map[string]bool, len(allKnown))
	for _, name := range allKnown {
		known[name] = true
	}

	seen := make(map[string]bool, len(names))
	normalized := make([]string, 0, len(names))
	for _, name := range names {
		if !known[name] {
			return nil, &UnrecognizedProviderError{Provider: name}
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		normalized = append(normalized, name)
	}
	return normalized, nil
}

// flattenProvider appends the provider name(s) selected by a single spec
// entry to names.
func flattenProvider(spec ProviderSpec, names *[]string) error {
	switch v := spec.(type) {
	case string:
		*names = append(*names, v)
	case Provider:
		*names = append(*names, v.Name)
	case *Provider:
		*names = append(*names, v.Name)
	case []string:
		*names = append(*names, v...)
	case []any:
		// A two-element list whose second element is an options map is the
		// decoded form of a name/options pair.
		if len(v) == 2 {
			if name, ok := v[0].(string); ok {
				if _, isOptions := v[1].(map[string]any); isOptions {
					*names = append(*names, name)
					return nil
				}
			}
		}
		for _, element := range v {
			if err := flattenProvider(element, names); err != nil {
				return err
			}
		}
	default:
		return &MalformedProviderSpecError{Spec: spec}
	}
	return nil
}
