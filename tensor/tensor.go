// Copyright 2025 The patchwork Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"math/rand"

	"github.com/patchwork-ml/patchwork/internal/tensor"
)

// Tensor is a dense, row-major float32 array.
type Tensor = tensor.Tensor

// Shape lists the size of every dimension.
type Shape = tensor.Shape

// Backend is implemented by every compute backend.
type Backend = tensor.Backend

// New wraps data without copying. Panics if the length does not match shape.
func New(data []float32, shape Shape) *Tensor {
	return tensor.New(data, shape)
}

// FromSlice copies data into a new tensor of the given shape.
func FromSlice(data []float32, shape Shape) (*Tensor, error) {
	return tensor.FromSlice(data, shape)
}

// Zeros creates a zero-filled tensor.
func Zeros(shape Shape) *Tensor {
	return tensor.Zeros(shape)
}

// Ones creates a tensor filled with ones.
func Ones(shape Shape) *Tensor {
	return tensor.Ones(shape)
}

// Full creates a tensor filled with value.
func Full(shape Shape, value float32) *Tensor {
	return tensor.Full(shape, value)
}

// Randn draws from the standard normal distribution. A nil rng uses the
// global source.
func Randn(shape Shape, rng *rand.Rand) *Tensor {
	return tensor.Randn(shape, rng)
}

// Uniform draws from U(low, high). A nil rng uses the global source.
func Uniform(shape Shape, low, high float32, rng *rand.Rand) *Tensor {
	return tensor.Uniform(shape, low, high, rng)
}

// Stack joins equally shaped tensors along a new leading axis.
func Stack(items []*Tensor) *Tensor {
	return tensor.Stack(items)
}
