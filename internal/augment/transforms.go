package augment

import (
	"image"
	"image/color"
	"math/rand"

	"github.com/nfnt/resize"

	"github.com/patchwork-ml/patchwork/internal/imageio"
)

func flipLeftRight(img *imageio.Image) {
	c := img.Channels
	for y := 0; y < img.Height; y++ {
		row := img.Pix[y*img.Width*c : (y+1)*img.Width*c]
		for l, r := 0, img.Width-1; l < r; l, r = l+1, r-1 {
			for k := 0; k < c; k++ {
				row[l*c+k], row[r*c+k] = row[r*c+k], row[l*c+k]
			}
		}
	}
}

func flipUpDown(img *imageio.Image) {
	stride := img.Width * img.Channels
	for t, b := 0, img.Height-1; t < b; t, b = t+1, b-1 {
		top := img.Pix[t*stride : (t+1)*stride]
		bottom := img.Pix[b*stride : (b+1)*stride]
		for i := range top {
			top[i], bottom[i] = bottom[i], top[i]
		}
	}
}

// rotate turns square images by a random multiple of 90 degrees and other
// images by 0 or 180 degrees, so the output shape never changes.
func rotate(img *imageio.Image, rng *rand.Rand) *imageio.Image {
	if img.Height != img.Width {
		if rng.Intn(2) == 1 {
			flipLeftRight(img)
			flipUpDown(img)
		}
		return img
	}
	out := img
	for range rng.Intn(4) {
		out = rot90(out)
	}
	return out
}

// rot90 rotates a square image counter-clockwise.
func rot90(img *imageio.Image) *imageio.Image {
	n := img.Height
	out := imageio.NewImage(n, n, img.Channels)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			for c := 0; c < img.Channels; c++ {
				out.Set(n-1-x, y, c, img.At(y, x, c))
			}
		}
	}
	return out
}

func brightness(img *imageio.Image, delta float32) {
	for i := range img.Pix {
		img.Pix[i] += delta
	}
}

// contrast scales each channel around its mean.
func contrast(img *imageio.Image, factor float32) {
	c := img.Channels
	means := make([]float32, c)
	for i, v := range img.Pix {
		means[i%c] += v
	}
	n := float32(img.Height * img.Width)
	for k := range means {
		means[k] /= n
	}
	for i, v := range img.Pix {
		m := means[i%c]
		img.Pix[i] = m + (v-m)*factor
	}
}

// saturation blends an RGB image with its grayscale version.
func saturation(img *imageio.Image, factor float32) {
	for i := 0; i < len(img.Pix); i += 3 {
		r, g, b := img.Pix[i], img.Pix[i+1], img.Pix[i+2]
		gray := 0.299*r + 0.587*g + 0.114*b
		img.Pix[i] = gray + (r-gray)*factor
		img.Pix[i+1] = gray + (g-gray)*factor
		img.Pix[i+2] = gray + (b-gray)*factor
	}
}

// zoom crops a random window covering 1-scale to 1 of each side and
// resamples it back to the original size.
func zoom(img *imageio.Image, scale float32, rng *rand.Rand) *imageio.Image {
	frac := 1 - rng.Float32()*scale
	ch := max(1, int(float32(img.Height)*frac))
	cw := max(1, int(float32(img.Width)*frac))
	if ch == img.Height && cw == img.Width {
		return img
	}
	y0 := rng.Intn(img.Height - ch + 1)
	x0 := rng.Intn(img.Width - cw + 1)

	crop := imageio.NewImage(ch, cw, img.Channels)
	rowLen := cw * img.Channels
	for y := 0; y < ch; y++ {
		src := ((y0+y)*img.Width + x0) * img.Channels
		copy(crop.Pix[y*rowLen:(y+1)*rowLen], img.Pix[src:src+rowLen])
	}

	return upsample(crop, img.Height, img.Width)
}

// upsample resizes every band with bilinear interpolation at 16-bit
// precision. Samples are clamped to [0, 1].
func upsample(src *imageio.Image, height, width int) *imageio.Image {
	out := imageio.NewImage(height, width, src.Channels)
	band := image.NewGray16(image.Rect(0, 0, src.Width, src.Height))
	for c := 0; c < src.Channels; c++ {
		for i := 0; i < src.Width*src.Height; i++ {
			v := uint16(min(max(src.Pix[i*src.Channels+c], 0), 1) * 0xffff)
			band.Pix[2*i] = uint8(v >> 8)
			band.Pix[2*i+1] = uint8(v)
		}
		scaled := resize.Resize(uint(width), uint(height), band, resize.Bilinear)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				v := color.Gray16Model.Convert(scaled.At(x, y)).(color.Gray16).Y
				out.Set(y, x, c, float32(v)/0xffff)
			}
		}
	}
	return out
}
