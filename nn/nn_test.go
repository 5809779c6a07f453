// Copyright 2025 The patchwork Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patchwork-ml/patchwork/backend/cpu"
	"github.com/patchwork-ml/patchwork/nn"
	"github.com/patchwork-ml/patchwork/tensor"
)

func TestSequentialPipeline(t *testing.T) {
	backend := cpu.New()
	net := nn.NewSequential(
		nn.NewConv2D(3, 4, 3, 1, 1, true, backend),
		nn.NewReLU(backend),
		nn.NewMaxPool2D(2, 2, backend),
		nn.NewGlobalAvgPool2D(backend),
		nn.NewLinear(4, 2, backend),
	)

	out := net.Forward(tensor.Ones(tensor.Shape{3, 8, 8, 3}))
	assert.Equal(t, tensor.Shape{3, 2}, out.Shape())
	assert.Len(t, net.Parameters(), 4)

	copyNet := nn.NewSequential(
		nn.NewConv2D(3, 4, 3, 1, 1, true, backend),
		nn.NewReLU(backend),
		nn.NewMaxPool2D(2, 2, backend),
		nn.NewGlobalAvgPool2D(backend),
		nn.NewLinear(4, 2, backend),
	)
	require.NoError(t, copyNet.LoadStateDict(net.StateDict()))
	assert.Equal(t, out.Data(), copyNet.Forward(tensor.Ones(tensor.Shape{3, 8, 8, 3})).Data())
}
