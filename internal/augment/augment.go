// Package augment applies random, shape-preserving image augmentations
// configured by a set of named toggles.
package augment

import (
	"bytes"
	"math/rand"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/patchwork-ml/patchwork/internal/imageio"
)

// Params enables and sizes each augmentation. The zero value is the
// identity transform.
type Params struct {
	LeftRightFlip      bool    `yaml:"left_right_flip"`
	UpDownFlip         bool    `yaml:"up_down_flip"`
	Rot90              bool    `yaml:"rot90"`
	MaxBrightnessDelta float32 `yaml:"max_brightness_delta"`
	ContrastMin        float32 `yaml:"contrast_min"`
	ContrastMax        float32 `yaml:"contrast_max"`
	MaxSaturationDelta float32 `yaml:"max_saturation_delta"`
	ZoomScale          float32 `yaml:"zoom_scale"`
	GaussianNoise      float32 `yaml:"gaussian_noise"`
	// SelectProb is the chance each enabled photometric or zoom step
	// fires. Zero means always.
	SelectProb float32 `yaml:"select_prob"`
}

// Default returns the augmentation used for contrastive pretraining.
func Default() Params {
	return Params{
		LeftRightFlip:      true,
		UpDownFlip:         true,
		Rot90:              true,
		MaxBrightnessDelta: 0.2,
		ContrastMin:        0.4,
		ContrastMax:        1.4,
		MaxSaturationDelta: 0.5,
		ZoomScale:          0.3,
		GaussianNoise:      0.05,
		SelectProb:         0.5,
	}
}

// FromMap builds Params from named toggles such as {"rot90": false}.
// Missing keys stay off; unknown keys are an error.
func FromMap(m map[string]any) (Params, error) {
	var p Params
	if len(m) == 0 {
		return p, nil
	}
	raw, err := yaml.Marshal(m)
	if err != nil {
		return p, errors.Wrap(err, "encoding augmentation toggles")
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return p, errors.Wrap(err, "parsing augmentation toggles")
	}
	return p, p.Validate()
}

// Validate checks that every magnitude is in range.
func (p Params) Validate() error {
	switch {
	case p.MaxBrightnessDelta < 0 || p.MaxSaturationDelta < 0 || p.GaussianNoise < 0:
		return errors.New("augmentation magnitudes must be non-negative")
	case p.ContrastMin < 0 || p.ContrastMax < p.ContrastMin:
		return errors.Errorf("invalid contrast range [%g, %g]", p.ContrastMin, p.ContrastMax)
	case p.ZoomScale < 0 || p.ZoomScale >= 1:
		return errors.Errorf("zoom_scale %g must be in [0, 1)", p.ZoomScale)
	case p.SelectProb < 0 || p.SelectProb > 1:
		return errors.Errorf("select_prob %g must be in [0, 1]", p.SelectProb)
	}
	return nil
}

// Enabled reports whether any augmentation is switched on.
func (p Params) Enabled() bool {
	return p.LeftRightFlip || p.UpDownFlip || p.Rot90 ||
		p.MaxBrightnessDelta > 0 || p.ContrastMax > 0 ||
		p.MaxSaturationDelta > 0 || p.ZoomScale > 0 || p.GaussianNoise > 0
}

// Apply returns an augmented copy of img with the same shape.
// Values are clipped to [0, 1] when any photometric step ran.
func (p Params) Apply(img *imageio.Image, rng *rand.Rand) *imageio.Image {
	out := img.Clone()
	if !p.Enabled() {
		return out
	}

	if p.ZoomScale > 0 && p.fires(rng) {
		out = zoom(out, p.ZoomScale, rng)
	}
	if p.LeftRightFlip && rng.Intn(2) == 1 {
		flipLeftRight(out)
	}
	if p.UpDownFlip && rng.Intn(2) == 1 {
		flipUpDown(out)
	}
	if p.Rot90 {
		out = rotate(out, rng)
	}

	photometric := false
	if p.MaxBrightnessDelta > 0 && p.fires(rng) {
		brightness(out, uniform(rng, -p.MaxBrightnessDelta, p.MaxBrightnessDelta))
		photometric = true
	}
	if p.ContrastMax > 0 && p.fires(rng) {
		contrast(out, uniform(rng, p.ContrastMin, p.ContrastMax))
		photometric = true
	}
	if p.MaxSaturationDelta > 0 && out.Channels == 3 && p.fires(rng) {
		saturation(out, 1+uniform(rng, -p.MaxSaturationDelta, p.MaxSaturationDelta))
		photometric = true
	}
	if p.GaussianNoise > 0 && p.fires(rng) {
		for i := range out.Pix {
			out.Pix[i] += p.GaussianNoise * float32(rng.NormFloat64())
		}
		photometric = true
	}
	if photometric {
		clip(out)
	}
	return out
}

func (p Params) fires(rng *rand.Rand) bool {
	return p.SelectProb == 0 || rng.Float32() < p.SelectProb
}

func uniform(rng *rand.Rand, low, high float32) float32 {
	return low + rng.Float32()*(high-low)
}

func clip(img *imageio.Image) {
	for i, v := range img.Pix {
		img.Pix[i] = min(max(v, 0), 1)
	}
}
