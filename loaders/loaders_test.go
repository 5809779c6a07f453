// Copyright 2025 The patchwork Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package loaders_test

import (
	"context"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patchwork-ml/patchwork/loaders"
)

func writePNG(t *testing.T, path string, v uint8) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 6, 4))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func TestLoadAndBatch(t *testing.T) {
	dir := t.TempDir()
	for i, name := range []string{"a.png", "b.png", "c.png", "d.png"} {
		writePNG(t, filepath.Join(dir, name), uint8(i*50))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

	paths, err := loaders.ListImages(dir)
	require.NoError(t, err)
	require.Len(t, paths, 4)

	img, err := loaders.Load(paths[1], loaders.Options{Channels: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, img.Channels)
	assert.InDelta(t, 50.0/255, img.At(0, 0, 2), 1e-6)

	ds, steps, err := loaders.Labeled(paths, []int{0, 1, 0, 1}, loaders.Config{
		Shape:     [2]int{4, 6},
		Channels:  1,
		BatchSize: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, steps)

	it := ds.Epoch(context.Background())
	defer it.Close()
	b, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, b.Labels)
	_, err = it.Next()
	require.NoError(t, err)
	_, err = it.Next()
	assert.ErrorIs(t, err, io.EOF)

	_, _, err = loaders.Labeled(paths, []int{0}, loaders.Config{BatchSize: 1})
	assert.ErrorIs(t, err, loaders.ErrLabelMismatch)
}

func TestAugmentFromMap(t *testing.T) {
	p, err := loaders.AugmentFromMap(map[string]any{"up_down_flip": true})
	require.NoError(t, err)
	assert.True(t, p.UpDownFlip)
	assert.True(t, loaders.DefaultAugment().Enabled())
}
