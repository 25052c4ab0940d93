package onnx

import (
	"errors"
	"reflect"
	"testing"
)

func TestValidateBackend(t *testing.T) {
	tests := []struct {
		backend string
		wantErr bool
	}{
		{BackendONNXRuntime, false},
		{BackendONNXRuntimeGPU, false},
		{"onnx", true},
		{"tensorrt", true},
		{"", true},
		{"ONNXRUNTIME", true},
	}
	for _, tc := range tests {
		err := ValidateBackend(tc.backend)
		if tc.wantErr {
			if !errors.Is(err, ErrUnsupportedBackend) {
				t.Errorf("ValidateBackend(%q) = %v, want ErrUnsupportedBackend", tc.backend, err)
			}
		} else if err != nil {
			t.Errorf("ValidateBackend(%q) = %v, want nil", tc.backend, err)
		}
	}
}

func TestNormalizeProvidersDefaultsToAvailable(t *testing.T) {
	available := []string{"CPUExecutionProvider", "CUDAExecutionProvider"}
	allKnown := []string{"CPUExecutionProvider", "CUDAExecutionProvider", "TensorrtExecutionProvider"}

	got, err := NormalizeProviders(nil, available, allKnown)
	if err != nil {
		t.Fatalf("NormalizeProviders() error: %v", err)
	}
	if !reflect.DeepEqual(got, available) {
		t.Errorf("NormalizeProviders(nil) = %v, want available providers %v", got, available)
	}

	// The default must be a copy, not an alias of the available slice.
	got[0] = "mutated"
	if available[0] != "CPUExecutionProvider" {
		t.Error("default provider list aliases the available slice")
	}
}

func TestNormalizeProvidersFlattening(t *testing.T) {
	available := []string{"a", "b", "c", "d"}
	allKnown := available

	tests := []struct {
		name  string
		specs []ProviderSpec
		want  []string
	}{
		{
			name:  "bare strings",
			specs: []ProviderSpec{"a", "b"},
			want:  []string{"a", "b"},
		},
		{
			name:  "provider with options",
			specs: []ProviderSpec{Provider{Name: "a", Options: map[string]any{"device_id": 0}}},
			want:  []string{"a"},
		},
		{
			name:  "name and options pair",
			specs: []ProviderSpec{[]any{"a", map[string]any{"device_id": 0}}},
			want:  []string{"a"},
		},
		{
			name:  "mixed nesting flattens in order",
			specs: []ProviderSpec{[]string{"a", "b"}, []any{"c", map[string]any{"opt": 1}}, "d"},
			want:  []string{"a", "b", "c", "d"},
		},
		{
			name:  "duplicates keep first appearance order",
			specs: []ProviderSpec{"b", []string{"a", "b"}, "a"},
			want:  []string{"b", "a"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeProviders(tc.specs, available, allKnown)
			if err != nil {
				t.Fatalf("NormalizeProviders() error: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("NormalizeProviders() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNormalizeProvidersUnrecognized(t *testing.T) {
	_, err := NormalizeProviders(
		[]ProviderSpec{"CPUExecutionProvider", "BogusExecutionProvider"},
		[]string{"CPUExecutionProvider"},
		[]string{"CPUExecutionProvider", "CUDAExecutionProvider"},
	)
	var unrecognized *UnrecognizedProviderError
	if !errors.As(err, &unrecognized) {
		t.Fatalf("NormalizeProviders() = %v, want UnrecognizedProviderError", err)
	}
	if unrecognized.Provider != "BogusExecutionProvider" {
		t.Errorf("unrecognized provider = %q, want %q", unrecognized.Provider, "BogusExecutionProvider")
	}
}

func TestNormalizeProvidersMalformed(t *testing.T) {
	malformed := []ProviderSpec{
		42,
		map[string]any{"name": "a"},
		[]any{"a", "b", "c", map[string]any{}},
	}
	for _, spec := range malformed {
		_, err := NormalizeProviders([]ProviderSpec{spec}, []string{"a", "b", "c"}, []string{"a", "b", "c"})
		var malformedErr *MalformedProviderSpecError
		if !errors.As(err, &malformedErr) {
			t.Errorf("NormalizeProviders(%v) = %v, want MalformedProviderSpecError", spec, err)
		}
	}
}
