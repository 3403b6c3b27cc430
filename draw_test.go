package segment

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrawMask(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	mask := image.NewGray(image.Rect(0, 0, 4, 2))
	mask.Pix[0] = 255
	mask.Pix[1] = 128

	out, err := DrawMask(img, mask, color.RGBA{R: 200, A: 255}, 0.5)
	require.NoError(t, err)

	assert.EqualValues(t, 100, out.Pix[0])
	assert.EqualValues(t, 50, out.Pix[4])
	assert.EqualValues(t, 0, out.Pix[8])
	// 原图不变
	assert.EqualValues(t, 0, img.Pix[0])
}

func TestDrawMask_SizeMismatch(t *testing.T) {
	_, err := DrawMask(image.NewRGBA(image.Rect(0, 0, 4, 4)), image.NewGray(image.Rect(0, 0, 2, 2)), Palette[0], 0.5)
	assert.Error(t, err)
}

func TestMaskBounds(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 10, 10))
	assert.True(t, MaskBounds(mask).Empty())

	mask.SetGray(2, 3, color.Gray{Y: 255})
	mask.SetGray(7, 5, color.Gray{Y: 10})
	assert.Equal(t, image.Rect(2, 3, 8, 6), MaskBounds(mask))
}

func TestPaletteColor(t *testing.T) {
	assert.Equal(t, Palette[0], PaletteColor(len(Palette)))
}

func TestParseDevice(t *testing.T) {
	d, err := ParseDevice("")
	require.NoError(t, err)
	assert.Equal(t, DeviceCPU, d)

	d, err = ParseDevice("cuda")
	require.NoError(t, err)
	assert.Equal(t, DeviceGPU, d)

	_, err = ParseDevice("tpu")
	assert.Error(t, err)
}

func TestNewTextDrawer_MissingFont(t *testing.T) {
	_, err := NewTextDrawer("./fonts/missing.ttf")
	assert.Error(t, err)
}
