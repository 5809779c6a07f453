package model

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patchwork-ml/patchwork/internal/backend/cpu"
	"github.com/patchwork-ml/patchwork/internal/nn"
	"github.com/patchwork-ml/patchwork/internal/tensor"
)

func buildTestModel(t *testing.T, output int) *EmbeddingModel {
	t.Helper()
	backend := cpu.New()
	backbone, err := NewConvBackbone(3, []int{4, 6}, 3, 2, backend)
	require.NoError(t, err)
	m, err := BuildEmbeddingModel(backbone, [2]int{16, 12}, 3, 10, output, backend)
	require.NoError(t, err)
	return m
}

func TestBuildEmbeddingModel_Layers(t *testing.T) {
	for _, dim := range []int{5, 17} {
		m := buildTestModel(t, dim)

		layers := m.Layers()
		require.Len(t, layers, 5)
		last := layers[len(layers)-1].OutputShape
		assert.Equal(t, dim, last[len(last)-1])
		assert.Equal(t, dim, m.OutputDim())
		assert.Equal(t, 10, m.HiddenDim())
		assert.Equal(t, 6, m.FeatureDim())
		assert.Equal(t, []int{-1, 16, 12, 3}, layers[0].OutputShape)
	}
}

func TestEmbeddingModel_Forward(t *testing.T) {
	m := buildTestModel(t, 8)
	x := tensor.Uniform(tensor.Shape{2, 16, 12, 3}, 0, 1, nil)

	assert.Equal(t, tensor.Shape{2, 8}, m.Forward(x).Shape())
	assert.Equal(t, tensor.Shape{2, 10}, m.Embed(x).Shape())
	assert.Equal(t, tensor.Shape{2, 6}, m.Features(x).Shape())

	assert.Panics(t, func() { m.Forward(tensor.Zeros(tensor.Shape{2, 8, 8, 3})) })
}

func TestEmbeddingModel_Parameters(t *testing.T) {
	m := buildTestModel(t, 8)
	// two conv blocks (weight+bias) and two dense layers (weight+bias)
	assert.Len(t, m.Parameters(), 8)
	assert.Len(t, m.StateDict(), 8)
	assert.Contains(t, m.StateDict(), "backbone.0.weight")
	assert.Contains(t, m.StateDict(), "output.bias")
}

func TestBuildEmbeddingModel_Errors(t *testing.T) {
	backend := cpu.New()
	backbone, err := NewConvBackbone(3, []int{4}, 3, 2, backend)
	require.NoError(t, err)

	_, err = BuildEmbeddingModel(backbone, [2]int{0, 8}, 3, 4, 4, backend)
	assert.Error(t, err)

	_, err = BuildEmbeddingModel(backbone, [2]int{8, 8}, 3, 0, 4, backend)
	assert.Error(t, err)

	// The backbone expects 3 channels.
	_, err = BuildEmbeddingModel(backbone, [2]int{8, 8}, 1, 4, 4, backend)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backbone rejected input")

	// A backbone that already pools is not an NHWC feature map.
	pooled := nn.NewSequential(backbone, nn.NewGlobalAvgPool2D(backend))
	_, err = BuildEmbeddingModel(pooled, [2]int{8, 8}, 3, 4, 4, backend)
	assert.Error(t, err)
}

func TestNewConvBackbone_Errors(t *testing.T) {
	backend := cpu.New()
	_, err := NewConvBackbone(3, nil, 3, 2, backend)
	assert.Error(t, err)
	_, err = NewConvBackbone(3, []int{4}, 2, 2, backend)
	assert.Error(t, err)
	_, err = NewConvBackbone(3, []int{4, 0}, 3, 2, backend)
	assert.Error(t, err)

	seq, err := NewConvBackbone(3, []int{4, 8, 8}, 3, 2, backend)
	require.NoError(t, err)
	assert.Equal(t, 8, seq.Len(), "3 conv+relu blocks and 2 pools")
}

func TestEmbeddingModel_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.safetensors")
	src := buildTestModel(t, 8)
	require.NoError(t, src.Save(path))

	dst := buildTestModel(t, 8)
	require.NoError(t, dst.Load(path))

	x := tensor.Uniform(tensor.Shape{1, 16, 12, 3}, 0, 1, nil)
	assert.Equal(t, src.Forward(x).Data(), dst.Forward(x).Data())

	other := buildTestModel(t, 9)
	err := other.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output_dim")
}

func TestEmbeddingModel_LoadStateDictIsAtomic(t *testing.T) {
	src := buildTestModel(t, 9)
	dst := buildTestModel(t, 8)
	before := dst.StateDict()["backbone.0.weight"].Clone()

	err := dst.LoadStateDict(src.StateDict())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output.")
	assert.Equal(t, before.Data(), dst.StateDict()["backbone.0.weight"].Data(), "backbone overwritten by a failed load")

	sd := buildTestModel(t, 8).StateDict()
	delete(sd, "hidden.bias")
	before = dst.StateDict()["backbone.0.weight"].Clone()
	err = dst.LoadStateDict(sd)
	assert.ErrorContains(t, err, "missing hidden.bias")
	assert.Equal(t, before.Data(), dst.StateDict()["backbone.0.weight"].Data())
}
