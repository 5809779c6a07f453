// Package cpu implements the pure Go compute backend.
package cpu

import (
	"fmt"

	"github.com/patchwork-ml/patchwork/internal/parallel"
	"github.com/patchwork-ml/patchwork/internal/tensor"
)

// CPUBackend implements tensor operations on CPU.
type CPUBackend struct {
	par parallel.Config
}

// New creates a new CPU backend that spreads batch-level work over all CPUs.
func New() *CPUBackend {
	return &CPUBackend{
		par: parallel.Coarse(0),
	}
}

// NewWithConfig creates a CPU backend with an explicit parallelism config.
func NewWithConfig(cfg parallel.Config) *CPUBackend {
	return &CPUBackend{par: cfg}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Add performs element-wise addition.
// b may match a's shape or be broadcast along a's trailing dimension.
func (cpu *CPUBackend) Add(a, b *tensor.Tensor) *tensor.Tensor {
	return binary("add", a, b, func(x, y float32) float32 { return x + y })
}

// Sub performs element-wise subtraction with the same broadcasting as Add.
func (cpu *CPUBackend) Sub(a, b *tensor.Tensor) *tensor.Tensor {
	return binary("sub", a, b, func(x, y float32) float32 { return x - y })
}

// Mul performs element-wise multiplication with the same broadcasting as Add.
func (cpu *CPUBackend) Mul(a, b *tensor.Tensor) *tensor.Tensor {
	return binary("mul", a, b, func(x, y float32) float32 { return x * y })
}

// MulScalar multiplies every element by scalar.
func (cpu *CPUBackend) MulScalar(x *tensor.Tensor, scalar float32) *tensor.Tensor {
	out := tensor.Zeros(x.Shape())
	dst := out.Data()
	for i, v := range x.Data() {
		dst[i] = v * scalar
	}
	return out
}

// Reshape returns a copy of x with a new shape.
func (cpu *CPUBackend) Reshape(x *tensor.Tensor, shape tensor.Shape) *tensor.Tensor {
	if shape.NumElements() != x.NumElements() {
		panic(fmt.Sprintf("reshape: cannot reshape %v into %v", x.Shape(), shape))
	}
	return x.Clone().Reshape(shape...)
}

// Transpose swaps the two axes of a matrix.
func (cpu *CPUBackend) Transpose(x *tensor.Tensor) *tensor.Tensor {
	shape := x.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("transpose: expected 2D tensor, got shape %v", shape))
	}
	rows, cols := shape[0], shape[1]
	out := tensor.Zeros(tensor.Shape{cols, rows})
	src, dst := x.Data(), out.Data()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			dst[j*rows+i] = src[i*cols+j]
		}
	}
	return out
}

// ReLU computes max(0, x) element-wise.
func (cpu *CPUBackend) ReLU(x *tensor.Tensor) *tensor.Tensor {
	out := tensor.Zeros(x.Shape())
	dst := out.Data()
	for i, v := range x.Data() {
		if v > 0 {
			dst[i] = v
		}
	}
	return out
}

// binary applies f element-wise. When b is smaller than a, b must hold
// exactly a's innermost dimension and is repeated over every row.
func binary(name string, a, b *tensor.Tensor, f func(x, y float32) float32) *tensor.Tensor {
	out := tensor.Zeros(a.Shape())
	dst, av, bv := out.Data(), a.Data(), b.Data()

	switch {
	case a.Shape().Equal(b.Shape()):
		for i := range dst {
			dst[i] = f(av[i], bv[i])
		}
	case IsRowBroadcast(a.Shape(), b.Shape()):
		n := len(bv)
		for i := range dst {
			dst[i] = f(av[i], bv[i%n])
		}
	default:
		panic(fmt.Sprintf("%s: incompatible shapes %v and %v", name, a.Shape(), b.Shape()))
	}
	return out
}

// IsRowBroadcast reports whether b can be repeated along the leading axes of a:
// b is [n] or [1, n] where n is a's innermost dimension.
func IsRowBroadcast(a, b tensor.Shape) bool {
	n := a.Last()
	switch len(b) {
	case 1:
		return b[0] == n
	case 2:
		return b[0] == 1 && b[1] == n
	default:
		return false
	}
}
