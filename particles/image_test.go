package particles

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromImage_ConvertsToPackedRGBA(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	src.Set(2, 1, color.NRGBA{R: 255, G: 0, B: 0, A: 255})

	img := FromImage(src, Rect{Left: 5, Top: 6, Width: 3, Height: 2})

	assert.Equal(t, 3, img.Width)
	assert.Equal(t, 2, img.Height)
	assert.Len(t, img.Pix, img.ExpectedLen())
	assert.Equal(t, []byte{255, 0, 0, 255}, img.Pix[(1*3+2)*4:(1*3+2)*4+4])
	assert.Equal(t, Rect{Left: 5, Top: 6, Width: 3, Height: 2}, img.Bounds)
}

func TestFromImage_SubImageAndDefaultBounds(t *testing.T) {
	parent := image.NewRGBA(image.Rect(0, 0, 8, 8))
	parent.Set(4, 4, color.RGBA{G: 200, A: 255})
	sub := parent.SubImage(image.Rect(4, 4, 6, 7))

	img := FromImage(sub, Rect{})

	assert.Equal(t, 2, img.Width)
	assert.Equal(t, 3, img.Height)
	assert.Len(t, img.Pix, 2*3*4)
	assert.Equal(t, byte(200), img.Pix[1])
	assert.Equal(t, Rect{Width: 2, Height: 3}, img.Bounds)
}

func TestFromImage_SubImageAtOriginTrimsParentRows(t *testing.T) {
	parent := image.NewRGBA(image.Rect(0, 0, 8, 8))
	parent.Set(7, 3, color.RGBA{B: 90, A: 255})
	parent.Set(0, 4, color.RGBA{R: 255, A: 255})
	sub := parent.SubImage(image.Rect(0, 0, 8, 4))

	img := FromImage(sub, Rect{})

	assert.Equal(t, 8, img.Width)
	assert.Equal(t, 4, img.Height)
	assert.Len(t, img.Pix, img.ExpectedLen())
	assert.Equal(t, byte(90), img.Pix[(3*8+7)*4+2])
}

func TestCapturedImage_Release(t *testing.T) {
	img := CapturedImage{Pix: make([]byte, 4), Width: 1, Height: 1}
	img.Release()
	assert.Nil(t, img.Pix)
	assert.Equal(t, 0, CapturedImage{}.ExpectedLen())
}
