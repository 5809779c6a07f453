// Copyright 2025 The patchwork Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package autodiff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patchwork-ml/patchwork/autodiff"
	"github.com/patchwork-ml/patchwork/backend/cpu"
	"github.com/patchwork-ml/patchwork/tensor"
)

func TestBackward(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x, err := tensor.FromSlice([]float32{1, -2, 3}, tensor.Shape{1, 3})
	require.NoError(t, err)
	y := backend.MulScalar(backend.ReLU(x), 3)
	w := tensor.Ones(tensor.Shape{3, 1})
	grads := autodiff.Backward(backend.MatMul(y, w), backend)

	assert.Equal(t, []float32{3, 0, 3}, grads[x].Data())
	assert.Equal(t, "Autodiff(CPU)", backend.Name())
}
