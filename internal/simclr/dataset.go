// Package simclr implements SimCLR contrastive pretraining: a dataset of
// paired augmented views, the NT-Xent training step, and an epoch loop.
package simclr

import (
	"context"

	"github.com/patchwork-ml/patchwork/internal/augment"
	"github.com/patchwork-ml/patchwork/internal/dataset"
)

// Dataset yields batches of 2*BatchSize images: two augmented views of
// each file, interleaved, with pairing labels [1, -1, 1, -1, ...].
type Dataset struct {
	inner *dataset.Dataset
}

// BuildDataset builds a contrastive dataset over unlabeled images. If
// cfg.Augment is the identity, the default augmentation is used instead.
// Returns the dataset and its steps per epoch.
func BuildDataset(paths []string, cfg dataset.Config) (*Dataset, int, error) {
	cfg.Views = 2
	if !cfg.Augment.Enabled() {
		cfg.Augment = augment.Default()
	}
	inner, steps, err := dataset.Unlabeled(paths, cfg)
	if err != nil {
		return nil, 0, err
	}
	return &Dataset{inner: inner}, steps, nil
}

// Steps returns the number of batches in one epoch.
func (d *Dataset) Steps() int {
	return d.inner.Steps()
}

// BatchSize returns the number of images per batch (twice the file count).
func (d *Dataset) BatchSize() int {
	return 2 * d.inner.Config().BatchSize
}

// Epoch starts a new pass. See dataset.Dataset.Epoch.
func (d *Dataset) Epoch(ctx context.Context) *Iterator {
	return &Iterator{it: d.inner.Epoch(ctx)}
}

// Iterator yields contrastive batches.
type Iterator struct {
	it *dataset.Iterator
}

// Next returns the next batch with pairing labels, or io.EOF.
func (it *Iterator) Next() (*dataset.Batch, error) {
	b, err := it.it.Next()
	if err != nil {
		return nil, err
	}
	b.Labels = PairLabels(b.Images.Shape()[0])
	return b, nil
}

// Close stops the underlying producer.
func (it *Iterator) Close() {
	it.it.Close()
}

// PairLabels returns [1, -1, 1, -1, ...] of length n: row i's positive
// partner is row i+label.
func PairLabels(n int) []int {
	y := make([]int, n)
	for i := range y {
		if i%2 == 0 {
			y[i] = 1
		} else {
			y[i] = -1
		}
	}
	return y
}
