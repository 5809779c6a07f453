package dataset

import (
	"context"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/patchwork-ml/patchwork/internal/imageio"
	"github.com/patchwork-ml/patchwork/internal/parallel"
	"github.com/patchwork-ml/patchwork/internal/tensor"
)

// Load decodes the record's image with the given options.
func (r Record) Load(opts imageio.Options) (*imageio.Image, error) {
	return imageio.Load(r.Path, opts)
}

func (d *Dataset) loaderOptions() imageio.Options {
	opts := imageio.Options{Norm: d.cfg.Norm, Channels: d.cfg.Channels}
	if d.cfg.Shape[0] > 0 {
		opts.Resize = &imageio.Size{Height: d.cfg.Shape[0], Width: d.cfg.Shape[1]}
	}
	return opts
}

// image returns the decoded record, from the cache when enabled.
// Cached images are shared and must not be modified.
func (d *Dataset) image(r Record) (*imageio.Image, error) {
	if d.cache != nil {
		d.mu.Lock()
		img, ok := d.cache[r.Path]
		d.mu.Unlock()
		if ok {
			return img, nil
		}
	}
	img, err := r.Load(d.loaderOptions())
	if err != nil {
		return nil, err
	}
	if d.cache != nil {
		d.mu.Lock()
		d.cache[r.Path] = img
		d.mu.Unlock()
	}
	return img, nil
}

func (d *Dataset) loadStep(ctx context.Context, s step, seed int64) (*Batch, error) {
	views := d.cfg.Views
	images, paths, err := d.loadImages(ctx, s.primary, views, seed)
	if err != nil {
		return nil, err
	}
	batch := &Batch{Images: images, Paths: paths}

	if len(s.primary) > 0 && s.primary[0].HasLabel {
		batch.Labels = make([]int, 0, len(s.primary)*views)
		for _, r := range s.primary {
			for range views {
				batch.Labels = append(batch.Labels, r.Label)
			}
		}
	}

	if s.unlabeled != nil {
		unlabeled, _, err := d.loadImages(ctx, s.unlabeled, views, seed+int64(len(s.primary)*views))
		if err != nil {
			return nil, errors.WithMessage(err, "unlabeled batch")
		}
		batch.Unlabeled = unlabeled
	}
	return batch, nil
}

// loadImages decodes and augments records in parallel and stacks them into
// an NHWC tensor. Each record contributes views consecutive rows.
func (d *Dataset) loadImages(ctx context.Context, records []Record, views int, seed int64) (*tensor.Tensor, []string, error) {
	n := len(records) * views
	images := make([]*imageio.Image, n)
	paths := make([]string, n)

	err := parallel.ForErr(n, func(i int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		r := records[i/views]
		img, err := d.image(r)
		if err != nil {
			return err
		}
		//nolint:gosec // augmentation randomness
		rng := rand.New(rand.NewSource(seed + int64(i)))
		images[i] = d.cfg.Augment.Apply(img, rng)
		paths[i] = r.Path
		return nil
	}, parallel.Coarse(d.cfg.NumWorkers))
	if err != nil {
		return nil, nil, err
	}

	t, err := stack(images, paths)
	if err != nil {
		return nil, nil, err
	}
	return t, paths, nil
}

func stack(images []*imageio.Image, paths []string) (*tensor.Tensor, error) {
	first := images[0]
	size := len(first.Pix)
	out := tensor.Zeros(tensor.Shape{len(images), first.Height, first.Width, first.Channels})
	data := out.Data()
	for i, img := range images {
		if img.Height != first.Height || img.Width != first.Width || img.Channels != first.Channels {
			return nil, errors.Errorf("image %s is %dx%dx%d, batch expects %dx%dx%d (set a resize shape)",
				paths[i], img.Height, img.Width, img.Channels, first.Height, first.Width, first.Channels)
		}
		copy(data[i*size:(i+1)*size], img.Pix)
	}
	return out, nil
}
