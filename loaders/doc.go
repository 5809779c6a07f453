// Copyright 2025 The patchwork Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package loaders reads image files into normalized arrays and assembles
// them into batched datasets.
//
// # Images
//
// Load decodes PNG, JPEG, GIF, BMP, WebP and (Geo)TIFF files into HWC
// float32 arrays scaled by Options.Norm, selecting or broadcasting bands
// to the requested channel count and optionally resizing.
//
//	img, err := loaders.Load("tile.tif", loaders.Options{Channels: 3, Resize: &loaders.Size{Height: 64, Width: 64}})
//
// # Datasets
//
// The builders return a Dataset and its number of steps per epoch:
//
//	ds, steps, err := loaders.Labeled(paths, labels, loaders.Config{
//	    Shape:     [2]int{64, 64},
//	    Channels:  3,
//	    BatchSize: 32,
//	    Shuffle:   true,
//	})
//	it := ds.Epoch(ctx)
//	defer it.Close()
//	for {
//	    batch, err := it.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    ...
//	}
package loaders
