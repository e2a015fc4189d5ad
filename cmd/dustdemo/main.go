package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	dust "github.com/gekko3d/dusteffect"
	"github.com/gekko3d/dusteffect/capture"
	"github.com/gekko3d/dusteffect/particles"
	"github.com/gekko3d/dusteffect/shaders"
)

func init() {
	runtime.LockOSThread()
}

// The GPU devices draw the dust overlay only; a real host draws its UI beneath it.
const rendererUsage = "renderer: wgpu, gl or headless. wgpu and gl show only the dust layer " +
	"over the clear color, the cards themselves are not drawn; headless writes a GIF with the cards composited"

type flags struct {
	renderer     string
	config       string
	shaderDir    string
	shaderURL    string
	out          string
	duration     time.Duration
	particleSize int
	scale        float64
	width        int
	height       int
	debug        bool
}

func main() {
	var f flags
	flag.StringVar(&f.renderer, "renderer", "headless", rendererUsage)
	flag.StringVar(&f.config, "config", "", "YAML options file")
	flag.StringVar(&f.shaderDir, "shaders", "", "load particle shaders from this directory instead of the embedded ones")
	flag.StringVar(&f.shaderURL, "shader-url", "", "fetch particle shaders from this base URL")
	flag.StringVar(&f.out, "out", "dust.gif", "headless only: animated GIF output")
	flag.DurationVar(&f.duration, "duration", 0, "override the animation duration")
	flag.IntVar(&f.particleSize, "particle-size", 0, "override the particle size")
	flag.Float64Var(&f.scale, "scale", 1, "layout to drawable pixel scale")
	flag.IntVar(&f.width, "width", 640, "surface width")
	flag.IntVar(&f.height, "height", 240, "surface height")
	flag.BoolVar(&f.debug, "debug", false, "debug logging")
	flag.Parse()

	if err := run(f); err != nil {
		fmt.Fprintln(os.Stderr, "dustdemo:", err)
		os.Exit(1)
	}
}

func run(f flags) error {
	renderer, err := dust.ParseRendererName(f.renderer)
	if err != nil {
		return err
	}
	opts, err := loadOptions(f)
	if err != nil {
		return err
	}
	src, err := loadShaders(f, renderer)
	if err != nil {
		return err
	}

	layout := capture.NewImageCapturer(f.scale)
	resetLayout(layout)

	clock := dust.TimeModule{}
	if renderer == dust.RendererHeadless {
		clock.FixedStep = time.Second / 30
	}

	app := dust.NewAppBuilder().
		UseModule(dust.LoggingModule{Prefix: "dustdemo", Debug: f.debug}).
		UseModule(clock).
		Build()
	app.UseDustEffect(dust.DustEffectModule{
		Renderer: renderer,
		Width:    f.width,
		Height:   f.height,
		Title:    "Dust",
		Options:  opts,
		Shaders:  src,
		Capturer: layout,
		Remover:  layout,
	})

	if renderer == dust.RendererHeadless {
		return runHeadless(app, layout, f.out)
	}
	runWindowed(app, layout)
	return nil
}

func loadOptions(f flags) (dust.Options, error) {
	opts := dust.DefaultOptions()
	if f.config != "" {
		var err error
		if opts, err = dust.LoadOptions(f.config); err != nil {
			return opts, err
		}
	}
	if f.duration != 0 {
		opts.Duration = f.duration
	}
	if f.particleSize != 0 {
		opts.ParticleSize = f.particleSize
	}
	return opts, opts.Validate()
}

func loadShaders(f flags, renderer dust.RendererName) (*shaders.Sources, error) {
	dialect := shaders.GLSL
	if renderer == dust.RendererWGPU {
		dialect = shaders.WGSL
	}
	switch {
	case f.shaderURL != "":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		src, err := shaders.Fetch(ctx, nil, f.shaderURL, dialect)
		return &src, err
	case f.shaderDir != "":
		src, err := shaders.LoadFiles(f.shaderDir, dialect)
		return &src, err
	}
	return nil, nil
}

var cardLabels = []string{"Archive", "Delete", "Share"}

func resetLayout(layout *capture.ImageCapturer) {
	const w, h, gap = 160, 64, 40
	for i, label := range cardLabels {
		card := capture.Card{Label: label, Width: w, Height: h}
		layout.Add(dust.ElementID(label), card.Render(), particles.Rect{Left: gap + i*(w+gap), Top: 88, Width: w, Height: h})
	}
}

// runWindowed dissolves a card on click or Space, R restores the layout and Escape quits.
func runWindowed(app *dust.App, layout *capture.ImageCapturer) {
	app.Logger().Infof("window shows the dust layer only; cards sit at their layout positions undrawn")
	app.UseModules(dust.InputModule{})
	app.UseSystem(dust.System(func(effect *dust.Effect, input *dust.Input, cmd *dust.Commands) {
		logger := app.Logger()
		switch {
		case input.JustPressed[dust.KeyEscape]:
			cmd.Quit()
		case input.JustPressed[dust.KeyR] && !effect.Running():
			resetLayout(layout)
		case input.JustPressed[dust.MouseButtonLeft]:
			if id, ok := layout.Hit(input.MouseX, input.MouseY); ok {
				dissolve(effect, id, logger)
			}
		case input.JustPressed[dust.KeySpace]:
			if remaining := layout.Elements(); len(remaining) > 0 {
				dissolve(effect, remaining[0].ID, logger)
			}
		}
	}))
	app.Run()
}

func dissolve(effect *dust.Effect, id dust.ElementID, logger dust.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := effect.Dissolve(ctx, id); err != nil {
		logger.Warnf("cannot dissolve %s: %v", id, err)
	}
}
