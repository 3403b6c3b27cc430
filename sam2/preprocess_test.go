package sam2

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreprocess_NormalizesPlanarRGB(t *testing.T) {
	img := solidImage(40, 30, color.RGBA{R: 200, G: 100, B: 50, A: 255})
	size := Size{W: 16, H: 8}

	data, err := preprocess(img, size, 3)
	require.NoError(t, err)
	require.Len(t, data, 3*16*8)

	want := [3]float32{
		(200.0/255 - 0.485) / 0.229,
		(100.0/255 - 0.456) / 0.224,
		(50.0/255 - 0.406) / 0.225,
	}
	plane := size.W * size.H
	for c := 0; c < 3; c++ {
		for _, v := range data[c*plane : (c+1)*plane] {
			assert.InDelta(t, want[c], v, 0.02)
		}
	}
}

func TestPreprocess_DoesNotMutateInput(t *testing.T) {
	img := solidImage(20, 20, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	before := append([]uint8(nil), img.Pix...)

	_, err := preprocess(img, Size{W: 64, H: 64}, 2)
	require.NoError(t, err)
	assert.Equal(t, before, img.Pix)
}

func TestPreprocess_EmptyImage(t *testing.T) {
	_, err := preprocess(image.NewRGBA(image.Rect(0, 0, 0, 0)), Size{W: 8, H: 8}, 1)
	assert.ErrorIs(t, err, ErrEmptyImage)

	_, err = preprocess(nil, Size{W: 8, H: 8}, 1)
	assert.ErrorIs(t, err, ErrEmptyImage)
}

func TestNormalizeRGBA_ChannelPlanes(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	img.Set(1, 0, color.RGBA{B: 255, A: 255})

	data := normalizeRGBA(img, 1)
	// R 平面
	assert.InDelta(t, (1-0.485)/0.229, data[0], 1e-5)
	assert.InDelta(t, (0-0.485)/0.229, data[1], 1e-5)
	// B 平面
	assert.InDelta(t, (0-0.406)/0.225, data[4], 1e-5)
	assert.InDelta(t, (1-0.406)/0.225, data[5], 1e-5)
}

func TestPreprocess_TransparentPixelsKeepColor(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 200, 100, 50, 0
	}
	size := Size{W: 8, H: 8}

	data, err := preprocess(img, size, 2)
	require.NoError(t, err)

	plane := size.W * size.H
	assert.InDelta(t, (200.0/255-0.485)/0.229, data[0], 1e-4)
	assert.InDelta(t, (100.0/255-0.456)/0.224, data[plane], 1e-4)
	assert.InDelta(t, (50.0/255-0.406)/0.225, data[2*plane], 1e-4)
}

func TestDropAlpha_SubImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.SetNRGBA(2, 1, color.NRGBA{R: 9, G: 8, B: 7, A: 10})
	sub := img.SubImage(image.Rect(2, 1, 4, 3))

	out := dropAlpha(sub, 1)
	assert.Equal(t, image.Rect(0, 0, 2, 2), out.Rect)
	assert.Equal(t, []uint8{9, 8, 7, 255}, out.Pix[:4])

	gray := image.NewGray(image.Rect(0, 0, 1, 1))
	gray.Pix[0] = 77
	assert.Equal(t, []uint8{77, 77, 77, 255}, dropAlpha(gray, 1).Pix)
}
