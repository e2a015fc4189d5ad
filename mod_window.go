package dusteffect

import (
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
)

const (
	defaultWindowWidth  = 1280
	defaultWindowHeight = 720
	defaultWindowTitle  = "Dust"
)

// WindowState is the shared GLFW window the windowed renderers draw into.
type WindowState struct {
	windowGlfw   *glfw.Window
	WindowWidth  int
	WindowHeight int
	windowTitle  string
}

func (s *WindowState) Glfw() *glfw.Window { return s.windowGlfw }

// createWindowState opens a window whose client API suits the renderer: none for WebGPU, an
// OpenGL 4.1 core context for GL.
func createWindowState(width, height int, title string, api RendererName) (*WindowState, error) {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("glfw init: %w", err)
	}

	glfw.WindowHint(glfw.Resizable, glfw.True)
	switch api {
	case RendererGL:
		glfw.WindowHint(glfw.ContextVersionMajor, 4)
		glfw.WindowHint(glfw.ContextVersionMinor, 1)
		glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
		glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	default:
		glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	}

	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create window: %w", err)
	}

	return &WindowState{
		windowGlfw:   win,
		WindowWidth:  width,
		WindowHeight: height,
		windowTitle:  title,
	}, nil
}

// WindowModule provides the WindowState resource and quits the app when the window closes.
// Install is idempotent.
type WindowModule struct {
	Width  int
	Height int
	Title  string
	API    RendererName
}

func (m WindowModule) Install(app *App, cmd *Commands) {
	if _, ok := Resource[WindowState](app); ok {
		return
	}
	if m.Width <= 0 {
		m.Width = defaultWindowWidth
	}
	if m.Height <= 0 {
		m.Height = defaultWindowHeight
	}
	if m.Title == "" {
		m.Title = defaultWindowTitle
	}

	ws, err := createWindowState(m.Width, m.Height, m.Title, m.API)
	if err != nil {
		app.Logger().Errorf("%v", err)
		panic(err)
	}
	cmd.AddResources(ws)
	cmd.UseSystem(System(windowSystem).InStage(Prelude))
	cmd.UseSystem(System(windowTeardownSystem).InStage(Finale))
}

func windowSystem(s *WindowState, cmd *Commands) {
	glfw.PollEvents()
	s.WindowWidth, s.WindowHeight = s.windowGlfw.GetSize()
	if s.windowGlfw.ShouldClose() {
		cmd.Quit()
	}
}

func windowTeardownSystem(s *WindowState, cmd *Commands) {
	if !cmd.app.Quitting() || s.windowGlfw == nil {
		return
	}
	s.windowGlfw.Destroy()
	s.windowGlfw = nil
	glfw.Terminate()
}
