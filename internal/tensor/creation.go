package tensor

import (
	"math/rand"
)

// Zeros creates a tensor filled with zeros.
//
// Example:
//
//	t := tensor.Zeros(tensor.Shape{3, 4})
func Zeros(shape Shape) *Tensor {
	if err := shape.Validate(); err != nil {
		panic(err)
	}
	return New(make([]float32, shape.NumElements()), shape)
}

// Ones creates a tensor filled with ones.
func Ones(shape Shape) *Tensor {
	return Full(shape, 1)
}

// Full creates a tensor filled with a specific value.
func Full(shape Shape, value float32) *Tensor {
	t := Zeros(shape)
	for i := range t.data {
		t.data[i] = value
	}
	return t
}

// Randn creates a tensor with values drawn from N(0, 1).
// A nil rng uses the global source.
func Randn(shape Shape, rng *rand.Rand) *Tensor {
	t := Zeros(shape)
	for i := range t.data {
		if rng != nil {
			t.data[i] = float32(rng.NormFloat64())
		} else {
			//nolint:gosec // weight initialization, not security-critical
			t.data[i] = float32(rand.NormFloat64())
		}
	}
	return t
}

// Uniform creates a tensor with values drawn from U(low, high).
// A nil rng uses the global source.
func Uniform(shape Shape, low, high float32, rng *rand.Rand) *Tensor {
	t := Zeros(shape)
	span := float64(high - low)
	for i := range t.data {
		var u float64
		if rng != nil {
			u = rng.Float64()
		} else {
			//nolint:gosec // weight initialization, not security-critical
			u = rand.Float64()
		}
		t.data[i] = low + float32(u*span)
	}
	return t
}

// Stack concatenates equally-shaped tensors along a new leading axis.
func Stack(items []*Tensor) *Tensor {
	if len(items) == 0 {
		panic("tensor.Stack: no tensors")
	}
	inner := items[0].Shape()
	n := inner.NumElements()
	shape := append(Shape{len(items)}, inner...)
	out := Zeros(shape)
	for i, item := range items {
		if !item.Shape().Equal(inner) {
			panic("tensor.Stack: shape mismatch: " + item.String() + " vs " + items[0].String())
		}
		copy(out.data[i*n:(i+1)*n], item.data)
	}
	return out
}
