package onnx

import (
	"fmt"
)

// DType identifies a tensor element type.
type DType string

const (
	// DTypeFloat32 is a 32-bit floating point element type.
	DTypeFloat32 DType = "float32"
	// DTypeInt64 is a 64-bit signed integer element type.
	DTypeInt64 DType = "int64"
)

// Tensor is a dense typed array exchanged with an inference session.
type Tensor struct {
	dtype DType
	shape []int64
	data  any
}

// NewTensor builds a tensor from a flat data slice and a shape. The shape's
// element count must match the data length.
func NewTensor[T float32 | int64](data []T, shape []int64) (*Tensor, error) {
	count := int64(1)
	for _, dim := range shape {
		if dim < 0 {
			return nil, fmt.Errorf("negative dimension %d in shape %v", dim, shape)
		}
		count *= dim
	}
	if count != int64(len(data)) {
		return nil, fmt.Errorf("shape %v requires %d elements, have %d", shape, count, len(data))
	}

	t := &Tensor{shape: append([]int64(nil), shape...)}
	switch any(data).(type) {
	case []float32:
		t.dtype = DTypeFloat32
	case []int64:
		t.dtype = DTypeInt64
	}
	t.data = append([]T(nil), data...)
	return t, nil
}

// DType returns the tensor's element type.
func (t *Tensor) DType() DType {
	return t.dtype
}

// Shape returns the tensor's shape. The returned slice must not be mutated.
func (t *Tensor) Shape() []int64 {
	return t.shape
}

// Data returns the flat backing slice, either []float32 or []int64.
func (t *Tensor) Data() any {
	return t.data
}
