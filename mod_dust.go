package dusteffect

import (
	"fmt"

	"github.com/gekko3d/dusteffect/gpu"
	"github.com/gekko3d/dusteffect/gpu/gldev"
	"github.com/gekko3d/dusteffect/gpu/wgpudev"
	"github.com/gekko3d/dusteffect/shaders"
)

// RenderDevice holds the device the dust overlay draws with.
type RenderDevice struct {
	Name   RendererName
	Device gpu.Device
	// Soft is set for the headless renderer.
	Soft *gpu.SoftDevice

	closed bool
}

// DustEffectModule creates the renderer device and the Effect, and drives Effect.Frame from the
// DustOverlay stage, right after Render, with the Time clock.
type DustEffectModule struct {
	Renderer RendererName
	// Window size for windowed renderers, surface size for headless.
	Width  int
	Height int
	Title  string

	Options  Options
	Shaders  *shaders.Sources
	Capturer Capturer
	Remover  Remover
}

func (m DustEffectModule) Install(app *App, cmd *Commands) {
	if m.Renderer == "" {
		m.Renderer = RendererHeadless
	}
	ensureSingleRenderer(app, m.Renderer)
	logger := app.Logger()

	rd, err := m.openDevice(app)
	if err != nil {
		logger.Errorf("renderer %s: %v", m.Renderer, err)
		panic(err)
	}

	src := shaders.Embedded(m.dialect())
	if m.Shaders != nil {
		src = *m.Shaders
	}
	effect, err := NewEffect(rd.Device, EffectConfig{
		Options:  m.Options,
		Shaders:  src,
		Capturer: m.Capturer,
		Remover:  m.Remover,
		Logger:   logger,
	})
	if err != nil {
		panic(err)
	}

	if _, ok := Resource[Time](app); !ok {
		TimeModule{}.Install(app, cmd)
	}
	cmd.AddResources(rd, effect)
	if !app.hasStage(DustOverlay) {
		app.UseStage(DustOverlay, AfterStage(Render))
	}
	cmd.UseSystem(System(dustRenderSystem).InStage(DustOverlay))
	cmd.UseSystem(System(dustShutdownSystem).InStage(PostRender))
	logger.Infof("Dust effect ready on %s (duration %s, particle size %d)", m.Renderer, effect.Options().Duration, effect.Options().ParticleSize)
}

func (m DustEffectModule) dialect() shaders.Dialect {
	if m.Renderer == RendererWGPU {
		return shaders.WGSL
	}
	return shaders.GLSL
}

func (m DustEffectModule) openDevice(app *App) (*RenderDevice, error) {
	rd := &RenderDevice{Name: m.Renderer}
	switch m.Renderer {
	case RendererHeadless:
		w, h := m.Width, m.Height
		if w <= 0 {
			w = defaultWindowWidth
		}
		if h <= 0 {
			h = defaultWindowHeight
		}
		rd.Soft = gpu.NewSoftDevice(w, h)
		rd.Device = rd.Soft
		return rd, nil
	case RendererGL, RendererWGPU:
		ensureWindowResource(app, m.Renderer, m.Width, m.Height, m.Title)
		ws, _ := Resource[WindowState](app)
		var err error
		if m.Renderer == RendererGL {
			rd.Device, err = gldev.New(ws.Glfw())
		} else {
			rd.Device, err = wgpudev.New(ws.Glfw())
		}
		if err != nil {
			return nil, err
		}
		return rd, nil
	}
	return nil, fmt.Errorf("unknown renderer %q", m.Renderer)
}

func dustRenderSystem(effect *Effect, t *Time) {
	effect.Frame(t.Elapsed)
}

func dustShutdownSystem(effect *Effect, rd *RenderDevice, cmd *Commands) {
	if !cmd.app.Quitting() || rd.closed {
		return
	}
	effect.Close()
	if c, ok := rd.Device.(interface{ Close() }); ok {
		c.Close()
	}
	rd.closed = true
}
