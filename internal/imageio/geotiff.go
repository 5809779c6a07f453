package imageio

import (
	"image"
	"io"

	"golang.org/x/image/tiff"
)

// decodeGeoTIFF reads a (Geo)TIFF raster. Samples keep the file's bit
// depth: 16-bit rasters come back in [0, 65535] and are expected to be
// paired with a matching Norm. Georeferencing tags are ignored.
func decodeGeoTIFF(r io.Reader) (*Image, error) {
	src, err := tiff.Decode(r)
	if err != nil {
		return nil, err
	}
	switch src.(type) {
	case *image.Gray16, *image.RGBA64, *image.NRGBA64:
		return fromImage(src, 16), nil
	default:
		return fromImage(src, 8), nil
	}
}
