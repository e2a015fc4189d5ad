package dusteffect

import (
	"fmt"
)

// RendererName identifies the device backing the dust overlay.
// Keep names aligned with ensureSingleRenderer tags.
type RendererName string

const (
	RendererWGPU     RendererName = "wgpu"
	RendererGL       RendererName = "gl"
	RendererHeadless RendererName = "headless"
)

func ParseRendererName(s string) (RendererName, error) {
	switch name := RendererName(s); name {
	case RendererWGPU, RendererGL, RendererHeadless:
		return name, nil
	}
	return "", fmt.Errorf("unknown renderer %q (want wgpu, gl or headless)", s)
}

// NeedsWindow reports whether the renderer draws into a GLFW window.
func (n RendererName) NeedsWindow() bool {
	return n == RendererWGPU || n == RendererGL
}

// ensureWindowResource guarantees a single shared WindowState exists for windowed renderers.
func ensureWindowResource(app *App, name RendererName, width, height int, title string) {
	if !name.NeedsWindow() {
		return
	}
	if _, ok := Resource[WindowState](app); ok {
		return
	}
	WindowModule{Width: width, Height: height, Title: title, API: name}.Install(app, app.Commands())
	app.Logger().Infof("Created shared window (%dx%d) '%s'", width, height, title)
}

// UseRenderer installs exactly one renderer module and, for windowed renderers, makes sure a
// shared WindowState exists.
//
//	app.UseRenderer(RendererGL, DustEffectModule{...})
func (app *App) UseRenderer(name RendererName, mod Module) *App {
	return app.UseRendererWithWindow(name, mod, 0, 0, "")
}

// UseRendererWithWindow is UseRenderer with explicit window parameters.
func (app *App) UseRendererWithWindow(name RendererName, mod Module, width, height int, title string) *App {
	ensureSingleRenderer(app, name)
	ensureWindowResource(app, name, width, height, title)
	app.Logger().Infof("Renderer selected: %s", name)
	app.UseModules(mod)
	return app
}

// UseDustEffect selects the module's renderer and installs it.
func (app *App) UseDustEffect(mod DustEffectModule) *App {
	return app.UseRendererWithWindow(mod.Renderer, mod, mod.Width, mod.Height, mod.Title)
}
