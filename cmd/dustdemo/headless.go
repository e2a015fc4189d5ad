package main

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"os"
	"time"

	dust "github.com/gekko3d/dusteffect"
	"github.com/gekko3d/dusteffect/capture"
)

var backdrop = color.RGBA{R: 0xf3, G: 0xf4, B: 0xf6, A: 0xff}

// runHeadless dissolves every card in turn on the software device and writes the composited
// frames as an animated GIF.
func runHeadless(app *dust.App, layout *capture.ImageCapturer, out string) error {
	rd, _ := dust.Resource[dust.RenderDevice](app)
	effect, _ := dust.Resource[dust.Effect](app)
	clock, _ := dust.Resource[dust.Time](app)

	anim := &gif.GIF{}
	var last time.Duration
	rd.Soft.OnPresent = func(frame *image.RGBA) {
		var skip dust.ElementID
		if inv := effect.Current(); inv != nil {
			skip = inv.Element
		}
		anim.Image = append(anim.Image, composite(frame, layout, skip))
		anim.Delay = append(anim.Delay, int((clock.Elapsed-last)/(10*time.Millisecond)))
		last = clock.Elapsed
	}

	app.UseSystem(dust.System(func(effect *dust.Effect, cmd *dust.Commands) {
		if effect.Running() {
			return
		}
		remaining := layout.Elements()
		if len(remaining) == 0 {
			cmd.Quit()
			return
		}
		dissolve(effect, remaining[0].ID, app.Logger())
		if !effect.Running() {
			// the card could not be dissolved; drop it so the loop moves on
			layout.Remove(remaining[0].ID)
		}
	}))
	app.Run()

	file, err := os.Create(out)
	if err != nil {
		return err
	}
	defer file.Close()
	if err := gif.EncodeAll(file, anim); err != nil {
		return fmt.Errorf("encode %s: %w", out, err)
	}
	app.Logger().Infof("wrote %d frames to %s", len(anim.Image), out)
	return nil
}

// composite stacks backdrop, the cards still on screen except skip, and the dust frame.
func composite(frame *image.RGBA, layout *capture.ImageCapturer, skip dust.ElementID) *image.Paletted {
	bounds := frame.Bounds()
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, image.NewUniform(backdrop), image.Point{}, draw.Src)

	for _, el := range layout.Elements() {
		if el.ID == skip || el.Image == nil {
			continue
		}
		img, err := layout.Capture(context.Background(), el.ID)
		if err != nil || img.Width == 0 {
			continue
		}
		src := &image.RGBA{Pix: img.Pix, Stride: img.Width * 4, Rect: image.Rect(0, 0, img.Width, img.Height)}
		at := image.Rect(img.Bounds.Left, img.Bounds.Top, img.Bounds.Left+img.Width, img.Bounds.Top+img.Height)
		draw.Draw(canvas, at, src, image.Point{}, draw.Over)
	}
	draw.Draw(canvas, bounds, frame, bounds.Min, draw.Over)

	paletted := image.NewPaletted(bounds, palette.Plan9)
	draw.FloydSteinberg.Draw(paletted, bounds, canvas, bounds.Min)
	return paletted
}
