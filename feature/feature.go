// Copyright 2025 The patchwork Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package feature builds embedding models, pretrains them with SimCLR, and
// turns images into feature vectors.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	backbone, _ := feature.NewConvBackbone(3, []int{16, 32}, 3, 2, backend)
//	model, _ := feature.BuildEmbeddingModel(backbone, [2]int{64, 64}, 3, 128, 64, backend)
//
//	data, _, _ := feature.BuildDataset(paths, loaders.Config{Shape: [2]int{64, 64}, Channels: 3, BatchSize: 16})
//	opt := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 1e-3})
//	trainer := &feature.Trainer{Model: model, Step: feature.BuildTrainingStep(model, opt, 0.5), Data: data}
//	losses, err := trainer.Fit(ctx, 10)
package feature

import (
	"github.com/patchwork-ml/patchwork/internal/dataset"
	"github.com/patchwork-ml/patchwork/internal/imageio"
	"github.com/patchwork-ml/patchwork/internal/model"
	"github.com/patchwork-ml/patchwork/internal/simclr"
	"github.com/patchwork-ml/patchwork/nn"
	"github.com/patchwork-ml/patchwork/optim"
	"github.com/patchwork-ml/patchwork/tensor"
)

// EmbeddingModel is backbone -> global average pool -> dense+ReLU -> dense.
type EmbeddingModel = model.EmbeddingModel

// LayerInfo names one layer of an EmbeddingModel.
type LayerInfo = model.LayerInfo

// BuildEmbeddingModel wraps backbone with pooling and two projections.
func BuildEmbeddingModel(backbone nn.Module, shape [2]int, channels, hidden, output int, backend tensor.Backend) (*EmbeddingModel, error) {
	return model.BuildEmbeddingModel(backbone, shape, channels, hidden, output, backend)
}

// NewConvBackbone builds conv+ReLU blocks separated by max pooling.
func NewConvBackbone(channels int, filters []int, kernel, poolSize int, backend tensor.Backend) (*nn.Sequential, error) {
	return model.NewConvBackbone(channels, filters, kernel, poolSize, backend)
}

// Dataset yields SimCLR batches of paired augmented views.
type Dataset = simclr.Dataset

// StepFunc runs one contrastive update and returns the loss.
type StepFunc = simclr.StepFunc

// Trainer runs SimCLR pretraining epochs.
type Trainer = simclr.Trainer

// BuildDataset builds a SimCLR dataset over unlabeled images.
func BuildDataset(paths []string, cfg dataset.Config) (*Dataset, int, error) {
	return simclr.BuildDataset(paths, cfg)
}

// BuildTrainingStep returns the NT-Xent update for m.
func BuildTrainingStep(m *EmbeddingModel, opt optim.Optimizer, temperature float32) StepFunc {
	return simclr.BuildTrainingStep(m, opt, temperature)
}

// PairLabels returns [1, -1, 1, -1, ...] of length n.
func PairLabels(n int) []int {
	return simclr.PairLabels(n)
}

// ShannonEntropy returns the base-2 entropy of every probability row.
func ShannonEntropy(probs [][]float32) []float32 {
	return imageio.ShannonEntropy(probs)
}
