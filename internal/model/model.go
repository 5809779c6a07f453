// Package model builds the embedding network used for contrastive
// pretraining and for producing image features.
package model

import (
	"fmt"
	"maps"

	"github.com/patchwork-ml/patchwork/internal/nn"
	"github.com/patchwork-ml/patchwork/internal/tensor"
)

// LayerInfo describes one layer of an EmbeddingModel. The batch dimension
// of OutputShape is -1.
type LayerInfo struct {
	Name        string
	OutputShape []int
}

// EmbeddingModel pools a convolutional backbone and projects the pooled
// features through two dense layers:
//
//	input -> backbone -> global average pool -> dense(hidden)+ReLU -> dense(output)
//
// The hidden layer is the task embedding; the output layer feeds the
// contrastive loss.
type EmbeddingModel struct {
	backbone nn.Module
	pool     *nn.GlobalAvgPool2D
	hidden   *nn.Linear
	relu     *nn.ReLU
	output   *nn.Linear

	shape    [2]int
	channels int
	features int
	backend  tensor.Backend
}

// BuildEmbeddingModel wraps backbone with pooling and two projections.
//
// The backbone is probed once with a zero batch of the given shape to
// learn its output channel count, so it must accept [N, shape[0], shape[1],
// channels] NHWC input and return an NHWC feature map.
func BuildEmbeddingModel(backbone nn.Module, shape [2]int, channels, hidden, output int, backend tensor.Backend) (*EmbeddingModel, error) {
	if shape[0] <= 0 || shape[1] <= 0 {
		return nil, fmt.Errorf("invalid input shape %v", shape)
	}
	if channels <= 0 || hidden <= 0 || output <= 0 {
		return nil, fmt.Errorf("channels, hidden and output must be positive, got %d, %d, %d", channels, hidden, output)
	}

	probe, err := probeBackbone(backbone, tensor.Zeros(tensor.Shape{1, shape[0], shape[1], channels}))
	if err != nil {
		return nil, err
	}
	if len(probe) != 4 {
		return nil, fmt.Errorf("backbone must return an NHWC feature map, got shape %v", probe)
	}
	features := probe[3]

	return &EmbeddingModel{
		backbone: backbone,
		pool:     nn.NewGlobalAvgPool2D(backend),
		hidden:   nn.NewLinear(features, hidden, backend),
		relu:     nn.NewReLU(backend),
		output:   nn.NewLinear(hidden, output, backend),
		shape:    shape,
		channels: channels,
		features: features,
		backend:  backend,
	}, nil
}

// probeBackbone runs one forward pass and reports its output shape.
// Shape panics inside the backbone are returned as errors.
func probeBackbone(backbone nn.Module, x *tensor.Tensor) (shape tensor.Shape, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("backbone rejected input %v: %v", x.Shape(), r)
		}
	}()
	return backbone.Forward(x).Shape().Clone(), nil
}

// Forward maps [N, H, W, C] images to [N, output] projections.
func (m *EmbeddingModel) Forward(x *tensor.Tensor) *tensor.Tensor {
	return m.output.Forward(m.Embed(x))
}

// Embed returns the hidden-layer embedding, [N, hidden].
func (m *EmbeddingModel) Embed(x *tensor.Tensor) *tensor.Tensor {
	return m.relu.Forward(m.hidden.Forward(m.Features(x)))
}

// Features returns the pooled backbone output, [N, features].
func (m *EmbeddingModel) Features(x *tensor.Tensor) *tensor.Tensor {
	s := x.Shape()
	if len(s) != 4 || s[1] != m.shape[0] || s[2] != m.shape[1] || s[3] != m.channels {
		panic(fmt.Sprintf("EmbeddingModel: expected input [N, %d, %d, %d], got %v", m.shape[0], m.shape[1], m.channels, s))
	}
	return m.pool.Forward(m.backbone.Forward(x))
}

// Layers describes the model: input, backbone, pooling, and the two
// dense projections.
func (m *EmbeddingModel) Layers() []LayerInfo {
	return []LayerInfo{
		{Name: "input", OutputShape: []int{-1, m.shape[0], m.shape[1], m.channels}},
		{Name: "backbone", OutputShape: []int{-1, -1, -1, m.features}},
		{Name: "global_average_pooling", OutputShape: []int{-1, m.features}},
		{Name: "dense", OutputShape: []int{-1, m.hidden.OutFeatures()}},
		{Name: "dense_1", OutputShape: []int{-1, m.output.OutFeatures()}},
	}
}

// OutputDim returns the size of the final projection.
func (m *EmbeddingModel) OutputDim() int {
	return m.output.OutFeatures()
}

// HiddenDim returns the size of the task embedding.
func (m *EmbeddingModel) HiddenDim() int {
	return m.hidden.OutFeatures()
}

// FeatureDim returns the number of backbone channels.
func (m *EmbeddingModel) FeatureDim() int {
	return m.features
}

// InputShape returns the expected (height, width) and channel count.
func (m *EmbeddingModel) InputShape() ([2]int, int) {
	return m.shape, m.channels
}

// Backend returns the backend the model computes with.
func (m *EmbeddingModel) Backend() tensor.Backend {
	return m.backend
}

// Parameters returns every trainable parameter, backbone first.
func (m *EmbeddingModel) Parameters() []*nn.Parameter {
	params := append([]*nn.Parameter{}, m.backbone.Parameters()...)
	params = append(params, m.hidden.Parameters()...)
	return append(params, m.output.Parameters()...)
}

// StateDict returns all weights keyed "backbone.*", "hidden.*" and "output.*".
func (m *EmbeddingModel) StateDict() map[string]*tensor.Tensor {
	sd := nn.PrefixStateDict("backbone.", m.backbone.StateDict())
	maps.Copy(sd, nn.PrefixStateDict("hidden.", m.hidden.StateDict()))
	maps.Copy(sd, nn.PrefixStateDict("output.", m.output.StateDict()))
	return sd
}

// LoadStateDict restores weights produced by StateDict. Every tensor is
// checked before any weight is overwritten, so a failed load leaves the
// model unchanged.
func (m *EmbeddingModel) LoadStateDict(stateDict map[string]*tensor.Tensor) error {
	for name, dst := range m.StateDict() {
		src, ok := stateDict[name]
		if !ok {
			return fmt.Errorf("missing %s in state dict", name)
		}
		if !src.Shape().Equal(dst.Shape()) {
			return fmt.Errorf("%s shape mismatch: expected %v, got %v", name, dst.Shape(), src.Shape())
		}
	}

	parts := []struct {
		prefix string
		module nn.Module
	}{
		{"backbone.", m.backbone},
		{"hidden.", m.hidden},
		{"output.", m.output},
	}
	for _, p := range parts {
		if err := p.module.LoadStateDict(nn.SubStateDict(p.prefix, stateDict)); err != nil {
			return fmt.Errorf("loading %s: %w", p.prefix[:len(p.prefix)-1], err)
		}
	}
	return nil
}
