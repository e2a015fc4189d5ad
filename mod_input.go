package dusteffect

import (
	"github.com/go-gl/glfw/v3.3/glfw"
)

const (
	KeyEscape int = iota
	KeySpace
	KeyR
	MouseButtonLeft
	MouseButtonRight

	inputCount
)

type InputModule struct{}

// Input is the per-frame keyboard and mouse snapshot of the shared window.
type Input struct {
	Pressed [inputCount]bool

	JustPressed  [inputCount]bool
	JustReleased [inputCount]bool

	MouseX, MouseY float64
}

func (mod InputModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&Input{})
	cmd.UseSystem(System(inputSystem).InStage(PreUpdate))
}

func inputSystem(s *WindowState, input *Input) {
	if s.windowGlfw == nil {
		return
	}
	for key, glfwKey := range keyToGlfw {
		input.update(key, s.windowGlfw.GetKey(glfwKey))
	}
	input.update(MouseButtonLeft, s.windowGlfw.GetMouseButton(glfw.MouseButtonLeft))
	input.update(MouseButtonRight, s.windowGlfw.GetMouseButton(glfw.MouseButtonRight))

	input.MouseX, input.MouseY = s.windowGlfw.GetCursorPos()
}

func (input *Input) update(key int, action glfw.Action) {
	input.JustPressed[key] = false
	input.JustReleased[key] = false

	if glfw.Press == action {
		if !input.Pressed[key] {
			input.JustPressed[key] = true
		}
		input.Pressed[key] = true
	} else if glfw.Release == action {
		if input.Pressed[key] {
			input.JustReleased[key] = true
		}
		input.Pressed[key] = false
	}
}

var keyToGlfw = map[int]glfw.Key{
	KeyEscape: glfw.KeyEscape,
	KeySpace:  glfw.KeySpace,
	KeyR:      glfw.KeyR,
}
