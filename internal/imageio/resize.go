package imageio

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// Resize resamples a normalized image to height x width.
//
// Each band is quantized to 8 bits (values are truncated after scaling by
// 255), resampled by nearest-neighbour lookup at pixel centres, and scaled
// back to [0, 1]. Every output sample is a quantized source sample.
func Resize(src *Image, height, width int) (*Image, error) {
	if height <= 0 || width <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", height, width)
	}

	out := NewImage(height, width, src.Channels)
	band := image.NewGray(image.Rect(0, 0, src.Width, src.Height))
	gray := image.NewGray(image.Rect(0, 0, width, height))
	for c := 0; c < src.Channels; c++ {
		for i := range band.Pix {
			band.Pix[i] = quantize(src.Pix[i*src.Channels+c])
		}

		draw.NearestNeighbor.Scale(gray, gray.Bounds(), band, band.Bounds(), draw.Src, nil)
		for y := 0; y < height; y++ {
			row := gray.Pix[y*gray.Stride : y*gray.Stride+width]
			for x, v := range row {
				out.Pix[(y*width+x)*src.Channels+c] = float32(v) / 255
			}
		}
	}
	return out, nil
}

func quantize(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v * 255)
	}
}
