package capture

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Card is a flat labelled rectangle, the stand-in UI element of the demo host.
type Card struct {
	Label      string
	Width      int
	Height     int
	Background color.Color
	Border     color.Color
	Foreground color.Color
}

var (
	defaultCardBackground = color.RGBA{R: 0x3b, G: 0x82, B: 0xf6, A: 0xff}
	defaultCardBorder     = color.RGBA{R: 0x1e, G: 0x40, B: 0xaf, A: 0xff}
)

// Render draws the card at layout size with the label centered in basicfont.Face7x13.
func (c Card) Render() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, max(c.Width, 0), max(c.Height, 0)))
	if img.Rect.Empty() {
		return img
	}

	bg, border, fg := c.Background, c.Border, c.Foreground
	if bg == nil {
		bg = defaultCardBackground
	}
	if border == nil {
		border = defaultCardBorder
	}
	if fg == nil {
		fg = color.White
	}

	draw.Draw(img, img.Rect, image.NewUniform(border), image.Point{}, draw.Src)
	if inner := img.Rect.Inset(2); !inner.Empty() {
		draw.Draw(img, inner, image.NewUniform(bg), image.Point{}, draw.Src)
	}

	if c.Label == "" {
		return img
	}
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fg),
		Face: face,
	}
	textW := d.MeasureString(c.Label)
	metrics := face.Metrics()
	textH := metrics.Ascent + metrics.Descent
	d.Dot = fixed.Point26_6{
		X: (fixed.I(c.Width) - textW) / 2,
		Y: (fixed.I(c.Height)-textH)/2 + metrics.Ascent,
	}
	d.DrawString(c.Label)
	return img
}
