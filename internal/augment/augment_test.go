package augment

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patchwork-ml/patchwork/internal/imageio"
)

func ramp(h, w, c int) *imageio.Image {
	img := imageio.NewImage(h, w, c)
	for i := range img.Pix {
		img.Pix[i] = float32(i%251) / 250
	}
	return img
}

func TestFromMap(t *testing.T) {
	p, err := FromMap(map[string]any{"rot90": false})
	require.NoError(t, err)
	assert.False(t, p.Enabled(), "a single disabled toggle is the identity")

	p, err = FromMap(map[string]any{"left_right_flip": true, "zoom_scale": 0.2, "contrast_min": 1, "contrast_max": 2})
	require.NoError(t, err)
	assert.True(t, p.LeftRightFlip)
	assert.InDelta(t, 0.2, p.ZoomScale, 1e-6)
	assert.InDelta(t, 2, p.ContrastMax, 1e-6)
	assert.True(t, p.Enabled())

	p, err = FromMap(nil)
	require.NoError(t, err)
	assert.Equal(t, Params{}, p)
}

func TestFromMap_Errors(t *testing.T) {
	_, err := FromMap(map[string]any{"hue_shift": 0.1})
	assert.Error(t, err, "unknown key")

	_, err = FromMap(map[string]any{"zoom_scale": 1.5})
	assert.Error(t, err)

	_, err = FromMap(map[string]any{"contrast_min": 2, "contrast_max": 1})
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	p := Default()
	assert.True(t, p.Enabled())
	assert.NoError(t, p.Validate())
}

func TestApply_IdentityReturnsCopy(t *testing.T) {
	img := ramp(4, 5, 3)
	out := Params{}.Apply(img, rand.New(rand.NewSource(1)))

	assert.Equal(t, img.Pix, out.Pix)
	out.Pix[0] = 42
	assert.NotEqual(t, float32(42), img.Pix[0], "Apply must not alias the input")
}

func TestApply_PreservesShapeAndRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, shape := range [][3]int{{8, 8, 3}, {6, 10, 3}, {5, 7, 1}, {9, 9, 4}} {
		img := ramp(shape[0], shape[1], shape[2])
		for range 20 {
			out := Default().Apply(img, rng)
			require.Equal(t, img.Height, out.Height)
			require.Equal(t, img.Width, out.Width)
			require.Equal(t, img.Channels, out.Channels)
			require.Len(t, out.Pix, len(img.Pix))
			for _, v := range out.Pix {
				require.GreaterOrEqual(t, v, float32(0))
				require.LessOrEqual(t, v, float32(1))
			}
		}
	}
}

func TestApply_Deterministic(t *testing.T) {
	img := ramp(8, 8, 3)
	a := Default().Apply(img, rand.New(rand.NewSource(3)))
	b := Default().Apply(img, rand.New(rand.NewSource(3)))
	assert.Equal(t, a.Pix, b.Pix)
}

func TestRot90(t *testing.T) {
	img := &imageio.Image{Height: 2, Width: 2, Channels: 1, Pix: []float32{1, 2, 3, 4}}
	assert.Equal(t, []float32{2, 4, 1, 3}, rot90(img).Pix)
	assert.Equal(t, []float32{1, 2, 3, 4}, rot90(rot90(rot90(rot90(img)))).Pix)
}

func TestFlips(t *testing.T) {
	img := &imageio.Image{Height: 2, Width: 3, Channels: 1, Pix: []float32{1, 2, 3, 4, 5, 6}}

	flipLeftRight(img)
	assert.Equal(t, []float32{3, 2, 1, 6, 5, 4}, img.Pix)

	flipUpDown(img)
	assert.Equal(t, []float32{6, 5, 4, 3, 2, 1}, img.Pix)
}

func TestContrastAndSaturation(t *testing.T) {
	img := &imageio.Image{Height: 1, Width: 2, Channels: 1, Pix: []float32{0.2, 0.6}}
	contrast(img, 2)
	assert.InDeltaSlice(t, []float32{0, 0.8}, img.Pix, 1e-6)

	rgb := &imageio.Image{Height: 1, Width: 1, Channels: 3, Pix: []float32{1, 0, 0}}
	saturation(rgb, 0)
	assert.InDelta(t, rgb.Pix[0], rgb.Pix[1], 1e-6)
	assert.InDelta(t, rgb.Pix[1], rgb.Pix[2], 1e-6)
}

func TestZoomKeepsSize(t *testing.T) {
	img := ramp(12, 9, 3)
	out := zoom(img, 0.5, rand.New(rand.NewSource(11)))
	assert.Equal(t, 12, out.Height)
	assert.Equal(t, 9, out.Width)
	assert.Equal(t, 3, out.Channels)
}

func TestZoomInterpolatesWithinRange(t *testing.T) {
	img := &imageio.Image{Height: 6, Width: 6, Channels: 1, Pix: make([]float32, 36)}
	for i := range img.Pix {
		img.Pix[i] = 0.25
	}
	out := zoom(img, 0.5, rand.New(rand.NewSource(5)))
	for _, v := range out.Pix {
		assert.InDelta(t, 0.25, v, 1e-3)
	}

	up := upsample(&imageio.Image{Height: 1, Width: 2, Channels: 1, Pix: []float32{0, 1}}, 1, 4)
	for _, v := range up.Pix {
		assert.GreaterOrEqual(t, v, float32(0))
		assert.LessOrEqual(t, v, float32(1))
	}
	assert.Less(t, up.Pix[0], up.Pix[3])
}
