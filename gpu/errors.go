package gpu

import (
	"errors"
	"fmt"
	"strings"
)

// CompileError carries the compiler diagnostics of a rejected shader.
type CompileError struct {
	Stage ShaderStage
	Log   string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s shader compilation failed: %s", e.Stage, strings.TrimSpace(e.Log))
}

// LinkError carries the linker diagnostics, or the uniforms a program failed to expose.
type LinkError struct {
	Log string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("shader program link failed: %s", strings.TrimSpace(e.Log))
}

// UploadError reports a pixel buffer the texture uploader could not use.
type UploadError struct {
	Width  int
	Height int
	Len    int
	Err    error
}

func (e *UploadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("texture upload %dx%d failed: %v", e.Width, e.Height, e.Err)
	}
	return fmt.Sprintf("texture upload %dx%d failed: pixel buffer holds %d bytes, want %d", e.Width, e.Height, e.Len, e.Width*e.Height*4)
}

func (e *UploadError) Unwrap() error { return e.Err }

var ErrInstanceRunning = errors.New("an animation instance is already running")
