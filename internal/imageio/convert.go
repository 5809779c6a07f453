package imageio

import (
	"image"
	"image/color"
)

type opaquer interface {
	Opaque() bool
}

// fromImage converts a decoded image to raw band samples. depth is the
// sample bit depth the values are scaled to (8 or 16).
func fromImage(src image.Image, depth int) *Image {
	b := src.Bounds()
	h, w := b.Dy(), b.Dx()

	bands := 3
	switch src.(type) {
	case *image.Gray, *image.Gray16:
		bands = 1
	default:
		if o, ok := src.(opaquer); ok && !o.Opaque() {
			bands = 4
		}
	}

	shift := uint(16 - depth)
	out := NewImage(h, w, bands)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px := out.Pix[(y*w+x)*bands:]
			c := src.At(b.Min.X+x, b.Min.Y+y)
			if bands == 1 {
				g := color.Gray16Model.Convert(c).(color.Gray16)
				px[0] = float32(g.Y >> shift)
				continue
			}
			n := color.NRGBA64Model.Convert(c).(color.NRGBA64)
			px[0] = float32(n.R >> shift)
			px[1] = float32(n.G >> shift)
			px[2] = float32(n.B >> shift)
			if bands == 4 {
				px[3] = float32(n.A >> shift)
			}
		}
	}
	return out
}
