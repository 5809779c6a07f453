// Copyright 2025 The patchwork Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/patchwork-ml/patchwork/internal/nn"
	"github.com/patchwork-ml/patchwork/tensor"
)

// Module is the common interface of all layers.
type Module = nn.Module

// Parameter is a named trainable tensor.
type Parameter = nn.Parameter

// NewParameter creates a parameter.
func NewParameter(name string, t *tensor.Tensor) *Parameter {
	return nn.NewParameter(name, t)
}

// CollectGrads copies gradients from a backward pass onto params.
func CollectGrads(params []*Parameter, grads map[*tensor.Tensor]*tensor.Tensor) {
	nn.CollectGrads(params, grads)
}

// Layers

// Linear is a fully connected layer, y = x @ W.T + b.
type Linear = nn.Linear

// NewLinear creates a linear layer with Xavier initialization.
func NewLinear(inFeatures, outFeatures int, backend tensor.Backend) *Linear {
	return nn.NewLinear(inFeatures, outFeatures, backend)
}

// Conv2D is a square-kernel NHWC convolution.
type Conv2D = nn.Conv2D

// NewConv2D creates a convolution layer.
//
//	conv := nn.NewConv2D(3, 32, 3, 1, 1, true, backend) // 3x3, same padding
func NewConv2D(inChannels, outChannels, kernelSize, stride, padding int, useBias bool, backend tensor.Backend) *Conv2D {
	return nn.NewConv2D(inChannels, outChannels, kernelSize, stride, padding, useBias, backend)
}

// MaxPool2D is a max pooling layer.
type MaxPool2D = nn.MaxPool2D

// NewMaxPool2D creates a max pooling layer.
func NewMaxPool2D(kernelSize, stride int, backend tensor.Backend) *MaxPool2D {
	return nn.NewMaxPool2D(kernelSize, stride, backend)
}

// GlobalAvgPool2D averages every channel over height and width.
type GlobalAvgPool2D = nn.GlobalAvgPool2D

// NewGlobalAvgPool2D creates a global average pooling layer.
func NewGlobalAvgPool2D(backend tensor.Backend) *GlobalAvgPool2D {
	return nn.NewGlobalAvgPool2D(backend)
}

// ReLU applies max(0, x).
type ReLU = nn.ReLU

// NewReLU creates a ReLU activation.
func NewReLU(backend tensor.Backend) *ReLU {
	return nn.NewReLU(backend)
}

// Sequential chains modules.
type Sequential = nn.Sequential

// NewSequential creates a chain of modules.
func NewSequential(modules ...Module) *Sequential {
	return nn.NewSequential(modules...)
}
