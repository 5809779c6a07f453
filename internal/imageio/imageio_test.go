package imageio

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"
)

func writePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func writeTIFF(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, tiff.Encode(f, img, nil))
	return path
}

func rgbFixture(h, w int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(10 * x), G: uint8(10 * y), B: 255, A: 255})
		}
	}
	return img
}

func assertUnitRange(t *testing.T, img *Image) {
	t.Helper()
	for _, v := range img.Pix {
		require.GreaterOrEqual(t, v, float32(0))
		require.LessOrEqual(t, v, float32(1))
	}
}

func TestLoad_RGBPNG(t *testing.T) {
	path := writePNG(t, t.TempDir(), "a.png", rgbFixture(11, 17))

	img, err := Load(path, Options{Channels: 3})
	require.NoError(t, err)

	assert.Equal(t, 11, img.Height)
	assert.Equal(t, 17, img.Width)
	assert.Equal(t, 3, img.Channels)
	assert.Len(t, img.Pix, 11*17*3)
	assertUnitRange(t, img)

	assert.InDelta(t, 30.0/255, img.At(2, 3, 0), 1e-6)
	assert.InDelta(t, 20.0/255, img.At(2, 3, 1), 1e-6)
	assert.InDelta(t, 1, img.At(2, 3, 2), 1e-6)
}

func TestLoad_GrayBroadcast(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 4, 3))
	for i := range gray.Pix {
		gray.Pix[i] = uint8(i * 20)
	}
	path := writePNG(t, t.TempDir(), "g.png", gray)

	img, err := Load(path, Options{Channels: 3})
	require.NoError(t, err)
	require.Equal(t, 3, img.Channels)
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			want := float32((y*4+x)*20) / 255
			for c := 0; c < 3; c++ {
				assert.InDelta(t, want, img.At(y, x, c), 1e-6)
			}
		}
	}

	single, err := Load(path, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, single.Channels)
}

func TestLoad_Resize(t *testing.T) {
	path := writePNG(t, t.TempDir(), "a.png", rgbFixture(20, 30))

	img, err := Load(path, Options{Channels: 3, Resize: &Size{Height: 5, Width: 7}})
	require.NoError(t, err)

	assert.Equal(t, 5, img.Height)
	assert.Equal(t, 7, img.Width)
	assert.Equal(t, 3, img.Channels)
	assertUnitRange(t, img)
	// The blue band is constant, so every resampled pixel keeps it.
	for y := 0; y < 5; y++ {
		for x := 0; x < 7; x++ {
			assert.InDelta(t, 1, img.At(y, x, 2), 1e-6)
		}
	}
}

func TestResize_PicksSourceSamples(t *testing.T) {
	src := &Image{Height: 1, Width: 4, Channels: 1, Pix: []float32{0, 1, 0, 1}}

	down, err := Resize(src, 1, 2)
	require.NoError(t, err)
	for _, v := range down.Pix {
		assert.Contains(t, []float32{0, 1}, v)
	}
	assert.Equal(t, []float32{1, 1}, down.Pix)

	up, err := Resize(&Image{Height: 1, Width: 2, Channels: 2, Pix: []float32{0, 1, 1, 0}}, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1, 0, 1, 1, 0, 1, 0}, up.Pix)
}

func TestLoad_TooFewBands(t *testing.T) {
	path := writePNG(t, t.TempDir(), "a.png", rgbFixture(4, 4))

	_, err := Load(path, Options{Channels: 5})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrChannels), "got %v", err)
	assert.Contains(t, err.Error(), path)
}

func TestLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.png")
	_, err := Load(path, Options{Channels: 3})
	require.Error(t, err)
	assert.True(t, os.IsNotExist(errors.Cause(err)))
	assert.Contains(t, err.Error(), path)
}

func TestLoad_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.jpg")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o600))

	_, err := Load(path, Options{Channels: 3})
	assert.Error(t, err)
}

func TestLoad_GeoTIFFBandSubset(t *testing.T) {
	path := writeTIFF(t, t.TempDir(), "scene.tif", rgbFixture(6, 5))

	img, err := Load(path, Options{Channels: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, img.Channels)
	assert.InDelta(t, 40.0/255, img.At(1, 4, 0), 1e-6)

	all, err := Load(path, Options{Channels: -1})
	require.NoError(t, err)
	assert.Equal(t, 3, all.Channels)
}

func TestLoad_GeoTIFF16Bit(t *testing.T) {
	raster := image.NewGray16(image.Rect(0, 0, 3, 2))
	raster.SetGray16(1, 1, color.Gray16{Y: 40000})
	path := writeTIFF(t, t.TempDir(), "dem.tiff", raster)

	img, err := Load(path, Options{Norm: 65535, Channels: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, img.Channels)
	assert.InDelta(t, 40000.0/65535, img.At(1, 1, 0), 1e-6)
	assert.InDelta(t, 40000.0/65535, img.At(1, 1, 1), 1e-6)
	assert.Zero(t, img.At(0, 0, 0))
}

func TestIsGeoTIFF(t *testing.T) {
	tests := map[string]bool{
		"a.tif":          true,
		"b.TIFF":         true,
		"dir.tif/c.png":  false,
		"scene.tif.aux":  true,
		"photo.jpg":      false,
		"/data/x/y.webp": false,
	}
	for path, want := range tests {
		assert.Equal(t, want, IsGeoTIFF(path), path)
	}
}

func TestResize_InvalidSize(t *testing.T) {
	_, err := Resize(NewImage(2, 2, 1), 0, 3)
	assert.Error(t, err)
}

func TestShannonEntropy(t *testing.T) {
	h := ShannonEntropy([][]float32{{0.5, 0.5}, {1, 0}, {0.25, 0.25, 0.25, 0.25}})
	require.Len(t, h, 3)
	assert.InDelta(t, 1, h[0], 1e-6)
	assert.InDelta(t, 0, h[1], 1e-6)
	assert.InDelta(t, 2, h[2], 1e-6)
}
