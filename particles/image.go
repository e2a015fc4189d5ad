package particles

import (
	"image"
	"image/draw"
)

// Rect is an on-screen rectangle in viewport-space pixels.
type Rect struct {
	Left   int
	Top    int
	Width  int
	Height int
}

func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// CapturedImage is a rasterized element: RGBA8 pixels plus where the element sits on screen.
// Pix is consumed once by the texture uploader and dropped with Release.
type CapturedImage struct {
	Pix    []byte
	Width  int
	Height int
	Bounds Rect
}

// FromImage converts img to tightly packed RGBA8 rows. The bounds default to the image size at
// the origin when zero.
func FromImage(img image.Image, bounds Rect) CapturedImage {
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != b.Dx()*4 || b.Min != (image.Point{}) || len(rgba.Pix) < b.Dx()*b.Dy()*4 {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	if bounds == (Rect{}) {
		bounds = Rect{Width: b.Dx(), Height: b.Dy()}
	}
	return CapturedImage{
		Pix:    rgba.Pix[:b.Dx()*b.Dy()*4],
		Width:  b.Dx(),
		Height: b.Dy(),
		Bounds: bounds,
	}
}

// ExpectedLen is the RGBA8 buffer size for the image dimensions.
func (c CapturedImage) ExpectedLen() int {
	if c.Width <= 0 || c.Height <= 0 {
		return 0
	}
	return c.Width * c.Height * 4
}

// Release drops the pixel buffer once it has been uploaded.
func (c *CapturedImage) Release() {
	c.Pix = nil
}
