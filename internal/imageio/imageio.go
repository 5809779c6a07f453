// Package imageio loads raster images and GeoTIFF files into normalized
// float32 arrays laid out height x width x channels.
package imageio

import (
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// DefaultNorm is the divisor applied to 8-bit sources.
const DefaultNorm = 255

// ErrChannels is returned when a multi-band source has fewer bands than
// the requested channel count.
var ErrChannels = errors.New("not enough bands for requested channels")

// Size is a target spatial size.
type Size struct {
	Height, Width int
}

// Options controls how an image file is turned into an array.
type Options struct {
	// Norm divides raw sample values. Zero means DefaultNorm.
	Norm float32
	// Channels is the number of channels in the result. Single-band sources
	// are repeated to fill it; extra bands are dropped. Zero or less keeps
	// every band of the source.
	Channels int
	// Resize, if set, resamples the image to this size.
	Resize *Size
}

// Image is a decoded image with interleaved float32 samples.
type Image struct {
	Height, Width, Channels int
	// Pix holds samples in row-major HWC order.
	Pix []float32
}

// NewImage allocates a zeroed image.
func NewImage(height, width, channels int) *Image {
	return &Image{
		Height:   height,
		Width:    width,
		Channels: channels,
		Pix:      make([]float32, height*width*channels),
	}
}

// At returns the sample at (y, x, c).
func (m *Image) At(y, x, c int) float32 {
	return m.Pix[(y*m.Width+x)*m.Channels+c]
}

// Set writes the sample at (y, x, c).
func (m *Image) Set(y, x, c int, v float32) {
	m.Pix[(y*m.Width+x)*m.Channels+c] = v
}

// Clone returns a deep copy.
func (m *Image) Clone() *Image {
	out := NewImage(m.Height, m.Width, m.Channels)
	copy(out.Pix, m.Pix)
	return out
}

// Load reads the file at path.
//
// Files whose name contains ".tif" go through the GeoTIFF path, which keeps
// every band at native bit depth. Everything else is decoded as an ordinary
// raster (PNG, JPEG, GIF, BMP, WebP).
func Load(path string, opts Options) (*Image, error) {
	norm := opts.Norm
	if norm == 0 {
		norm = DefaultNorm
	}

	//nolint:gosec // G304: loading caller-supplied image paths is the point
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening image %s", path)
	}
	defer f.Close()

	var bands *Image
	if IsGeoTIFF(path) {
		bands, err = decodeGeoTIFF(f)
	} else {
		bands, err = decodeRaster(f)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decoding image %s", path)
	}

	for i := range bands.Pix {
		bands.Pix[i] /= norm
	}

	img, err := selectChannels(bands, opts.Channels)
	if err != nil {
		return nil, errors.WithMessagef(err, "image %s", path)
	}

	if opts.Resize != nil && (opts.Resize.Height != img.Height || opts.Resize.Width != img.Width) {
		img, err = Resize(img, opts.Resize.Height, opts.Resize.Width)
		if err != nil {
			return nil, errors.WithMessagef(err, "resizing image %s", path)
		}
	}
	return img, nil
}

// IsGeoTIFF reports whether path is routed through the GeoTIFF loader.
func IsGeoTIFF(path string) bool {
	return strings.Contains(strings.ToLower(filepath.Base(path)), ".tif")
}

// selectChannels repeats a single band or truncates extra bands.
func selectChannels(src *Image, channels int) (*Image, error) {
	switch {
	case channels <= 0 || channels == src.Channels:
		return src, nil
	case src.Channels == 1:
		out := NewImage(src.Height, src.Width, channels)
		for i, v := range src.Pix {
			for c := 0; c < channels; c++ {
				out.Pix[i*channels+c] = v
			}
		}
		return out, nil
	case src.Channels < channels:
		return nil, errors.Wrapf(ErrChannels, "source has %d bands, want %d", src.Channels, channels)
	default:
		out := NewImage(src.Height, src.Width, channels)
		for i := 0; i < src.Height*src.Width; i++ {
			copy(out.Pix[i*channels:(i+1)*channels], src.Pix[i*src.Channels:])
		}
		return out, nil
	}
}

// decodeRaster decodes a standard raster format into 8-bit bands.
// Gray sources yield one band, opaque colour sources three, and sources
// with transparency four.
func decodeRaster(f *os.File) (*Image, error) {
	src, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return fromImage(src, 8), nil
}
