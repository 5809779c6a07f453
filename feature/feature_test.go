// Copyright 2025 The patchwork Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package feature_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patchwork-ml/patchwork/autodiff"
	"github.com/patchwork-ml/patchwork/backend/cpu"
	"github.com/patchwork-ml/patchwork/feature"
	"github.com/patchwork-ml/patchwork/optim"
	"github.com/patchwork-ml/patchwork/tensor"
)

func TestBuildAndStep(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backbone, err := feature.NewConvBackbone(3, []int{4}, 3, 2, backend)
	require.NoError(t, err)
	m, err := feature.BuildEmbeddingModel(backbone, [2]int{8, 8}, 3, 6, 5, backend)
	require.NoError(t, err)
	assert.Len(t, m.Layers(), 5)
	assert.Equal(t, 5, m.OutputDim())

	opt := optim.NewAdam(m.Parameters(), optim.AdamConfig{})
	step := feature.BuildTrainingStep(m, opt, 0.5)
	loss, err := step(tensor.Uniform(tensor.Shape{4, 8, 8, 3}, 0, 1, nil), feature.PairLabels(4))
	require.NoError(t, err)
	assert.Greater(t, loss, float32(0))
}

func TestShannonEntropy(t *testing.T) {
	h := feature.ShannonEntropy([][]float32{{0.5, 0.5}, {1, 0}})
	assert.InDelta(t, 1, h[0], 1e-5)
	assert.InDelta(t, 0, h[1], 1e-5)
}
