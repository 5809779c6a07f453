// Copyright 2025 The patchwork Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go compute backend.
//
// Batch-level work (convolutions, pooling, matrix rows) is spread across
// all CPUs. Wrap the backend with autodiff.New to record gradients:
//
//	backend := autodiff.New(cpu.New())
package cpu

import (
	internalcpu "github.com/patchwork-ml/patchwork/internal/backend/cpu"
	"github.com/patchwork-ml/patchwork/tensor"
)

// Backend is the CPU backend implementation.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new CPU backend.
func New() *Backend {
	return internalcpu.New()
}
