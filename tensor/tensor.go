// Package tensor provides the minimal typed n-dim buffer the kernel
// package needs. It stands in for the device tensor abstraction that a
// full implementation would obtain from a GPU tensor library; the kernels
// only ever touch a Tensor through its typed slice accessors, so swapping
// in a real device-backed tensor means reimplementing this package, not
// the kernels.
package tensor

import "fmt"

// DType identifies the element type stored in a Tensor.
type DType uint8

const (
	Float32 DType = iota
	Int32
	Int64
	Bool
)

func (d DType) String() string {
	switch d {
	case Float32:
		return "float32"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Bool:
		return "bool"
	default:
		return "unknown"
	}
}

// Tensor is a contiguous, row-major, typed n-dim buffer of any rank (the
// block pool and mesh structure are 5-D). Only one of the typed slices is
// populated, selected by DType.
type Tensor struct {
	Shape []int
	DType DType

	f32 []float32
	i32 []int32
	i64 []int64
	b   []bool
}

// NumElements returns the product of Shape.
func (t *Tensor) NumElements() int {
	n := 1
	for _, s := range t.Shape {
		n *= s
	}
	return n
}

// NewFloat32 allocates a zeroed float32 tensor of the given shape.
func NewFloat32(shape ...int) *Tensor {
	t := &Tensor{Shape: append([]int(nil), shape...), DType: Float32}
	t.f32 = make([]float32, t.NumElements())
	return t
}

// NewInt32 allocates an int32 tensor of the given shape, filled with fill.
func NewInt32(fill int32, shape ...int) *Tensor {
	t := &Tensor{Shape: append([]int(nil), shape...), DType: Int32}
	t.i32 = make([]int32, t.NumElements())
	if fill != 0 {
		for i := range t.i32 {
			t.i32[i] = fill
		}
	}
	return t
}

// NewInt64 allocates a zeroed int64 tensor of the given shape.
func NewInt64(shape ...int) *Tensor {
	t := &Tensor{Shape: append([]int(nil), shape...), DType: Int64}
	t.i64 = make([]int64, t.NumElements())
	return t
}

// NewBool allocates a zeroed bool tensor of the given shape.
func NewBool(shape ...int) *Tensor {
	t := &Tensor{Shape: append([]int(nil), shape...), DType: Bool}
	t.b = make([]bool, t.NumElements())
	return t
}

// FromFloat32 wraps an existing float32 slice as a Tensor without copying.
func FromFloat32(data []float32, shape ...int) *Tensor {
	return &Tensor{Shape: append([]int(nil), shape...), DType: Float32, f32: data}
}

// FromInt64 wraps an existing int64 slice as a Tensor without copying.
func FromInt64(data []int64, shape ...int) *Tensor {
	return &Tensor{Shape: append([]int(nil), shape...), DType: Int64, i64: data}
}

// FromInt32 wraps an existing int32 slice as a Tensor without copying.
func FromInt32(data []int32, shape ...int) *Tensor {
	return &Tensor{Shape: append([]int(nil), shape...), DType: Int32, i32: data}
}

// FromBool wraps an existing bool slice as a Tensor without copying.
func FromBool(data []bool, shape ...int) *Tensor {
	return &Tensor{Shape: append([]int(nil), shape...), DType: Bool, b: data}
}

// F32 returns the backing float32 slice. Panics if DType != Float32.
func (t *Tensor) F32() []float32 {
	if t.DType != Float32 {
		panic(fmt.Sprintf("tensor: F32 called on %s tensor", t.DType))
	}
	return t.f32
}

// I32 returns the backing int32 slice. Panics if DType != Int32.
func (t *Tensor) I32() []int32 {
	if t.DType != Int32 {
		panic(fmt.Sprintf("tensor: I32 called on %s tensor", t.DType))
	}
	return t.i32
}

// I64 returns the backing int64 slice. Panics if DType != Int64.
func (t *Tensor) I64() []int64 {
	if t.DType != Int64 {
		panic(fmt.Sprintf("tensor: I64 called on %s tensor", t.DType))
	}
	return t.i64
}

// Bools returns the backing bool slice. Panics if DType != Bool.
func (t *Tensor) Bools() []bool {
	if t.DType != Bool {
		panic(fmt.Sprintf("tensor: Bools called on %s tensor", t.DType))
	}
	return t.b
}

// ScalarFloat32 reads a 0-D (or single-element) float32 tensor.
func (t *Tensor) ScalarFloat32() float32 {
	return t.F32()[0]
}

// ScalarInt64 reads a 0-D (or single-element) int64 tensor.
func (t *Tensor) ScalarInt64() int64 {
	return t.I64()[0]
}

// Slice3 returns rows [0:n] of a tensor shaped [..., 3] as a fresh copy,
// used to truncate output buffers to their realized count on completion.
func (t *Tensor) Slice3(n int) *Tensor {
	switch t.DType {
	case Float32:
		out := make([]float32, n*3)
		copy(out, t.f32[:n*3])
		return FromFloat32(out, n, 3)
	case Int64:
		out := make([]int64, n*3)
		copy(out, t.i64[:n*3])
		return FromInt64(out, n, 3)
	default:
		panic(fmt.Sprintf("tensor: Slice3 unsupported for %s", t.DType))
	}
}
