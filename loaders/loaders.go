// Copyright 2025 The patchwork Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package loaders

import (
	"github.com/patchwork-ml/patchwork/internal/augment"
	"github.com/patchwork-ml/patchwork/internal/dataset"
	"github.com/patchwork-ml/patchwork/internal/imageio"
)

// DefaultNorm is the divisor applied to 8-bit sources.
const DefaultNorm = imageio.DefaultNorm

// Errors returned by the loaders.
var (
	ErrChannels      = imageio.ErrChannels
	ErrEmpty         = dataset.ErrEmpty
	ErrBatchTooLarge = dataset.ErrBatchTooLarge
	ErrLabelMismatch = dataset.ErrLabelMismatch
)

// Image is an HWC float32 raster.
type Image = imageio.Image

// Size is a target (height, width).
type Size = imageio.Size

// Options control how a file is decoded.
type Options = imageio.Options

// Load reads one image file.
func Load(path string, opts Options) (*Image, error) {
	return imageio.Load(path, opts)
}

// Resize rescales every band of src with nearest-neighbour sampling.
func Resize(src *Image, height, width int) (*Image, error) {
	return imageio.Resize(src, height, width)
}

// IsGeoTIFF reports whether path is routed through the TIFF decoder.
func IsGeoTIFF(path string) bool {
	return imageio.IsGeoTIFF(path)
}

// ListImages returns every supported image under root, sorted.
func ListImages(root string) ([]string, error) {
	return dataset.ListImages(root)
}

// Augment holds augmentation toggles and magnitudes.
type Augment = augment.Params

// DefaultAugment returns the augmentation used for contrastive pretraining.
func DefaultAugment() Augment {
	return augment.Default()
}

// AugmentFromMap builds augmentation settings from named toggles.
func AugmentFromMap(m map[string]any) (Augment, error) {
	return augment.FromMap(m)
}

// Dataset is a batched image pipeline.
type Dataset = dataset.Dataset

// Config describes how records become batches.
type Config = dataset.Config

// Batch is one step of data.
type Batch = dataset.Batch

// Iterator yields the batches of one epoch.
type Iterator = dataset.Iterator

// Unlabeled builds a dataset of images only.
func Unlabeled(paths []string, cfg Config) (*Dataset, int, error) {
	return dataset.Unlabeled(paths, cfg)
}

// Labeled builds a dataset of images with integer labels.
func Labeled(paths []string, labels []int, cfg Config) (*Dataset, int, error) {
	return dataset.Labeled(paths, labels, cfg)
}

// Paired zips a labeled (or unlabeled, if labels is nil) stream with a
// cycling unlabeled stream.
func Paired(paths []string, labels []int, unlabeledPaths []string, cfg Config) (*Dataset, int, error) {
	return dataset.Paired(paths, labels, unlabeledPaths, cfg)
}

// Stratified oversamples per-class streams so every batch holds an equal
// share of each class.
func Stratified(paths []string, labels []int, mult int, cfg Config) (*Dataset, int, error) {
	return dataset.Stratified(paths, labels, mult, cfg)
}
