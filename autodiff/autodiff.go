// Copyright 2025 The patchwork Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff records operations on a gradient tape and computes
// gradients in reverse mode.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	loss := backend.CrossEntropy(logits, targets)
//	grads := autodiff.Backward(loss, backend)
package autodiff

import (
	"github.com/patchwork-ml/patchwork/internal/autodiff"
	"github.com/patchwork-ml/patchwork/tensor"
)

// Backend wraps another backend and records every operation.
type Backend[B tensor.Backend] = autodiff.AutodiffBackend[B]

// GradientTape holds the recorded operations.
type GradientTape = autodiff.GradientTape

// BackwardCapable is any backend that can run Backward.
type BackwardCapable = autodiff.BackwardCapable

// New wraps backend with gradient recording.
func New[B tensor.Backend](backend B) *Backend[B] {
	return autodiff.New(backend)
}

// Backward returns the gradient of t with respect to every tensor that
// reached it through recorded operations.
func Backward(t *tensor.Tensor, backend BackwardCapable) map[*tensor.Tensor]*tensor.Tensor {
	return autodiff.Backward(t, backend)
}
