// Package gldev implements gpu.Device on an OpenGL 4.1 core context owned by a GLFW window.
package gldev

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gekko3d/dusteffect/gpu"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

// particleAttrib matches layout(location = 0) of a_ParticleIndex in the vertex shader.
const particleAttrib = 0

type Device struct {
	window  *glfw.Window
	buffers map[gpu.BufferHandle]particleBuffer
	inFrame bool
}

type particleBuffer struct {
	vao, vbo uint32
}

// New makes the window's context current and prepares the fixed pipeline state: programmable
// point size for the particle quads and src-alpha blending.
func New(window *glfw.Window) (*Device, error) {
	window.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("gl init: %w", err)
	}

	gl.Enable(gl.PROGRAM_POINT_SIZE)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.Disable(gl.DEPTH_TEST)

	return &Device{
		window:  window,
		buffers: make(map[gpu.BufferHandle]particleBuffer),
	}, nil
}

func shaderType(stage gpu.ShaderStage) uint32 {
	if stage == gpu.StageFragment {
		return gl.FRAGMENT_SHADER
	}
	return gl.VERTEX_SHADER
}

func (d *Device) CompileShader(stage gpu.ShaderStage, source string) (gpu.ShaderHandle, bool, string) {
	shader := gl.CreateShader(shaderType(stage))
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		return gpu.ShaderHandle(shader), false, strings.TrimRight(log, "\x00")
	}
	return gpu.ShaderHandle(shader), true, ""
}

func (d *Device) DeleteShader(shader gpu.ShaderHandle) {
	gl.DeleteShader(uint32(shader))
}

func (d *Device) LinkProgram(vertex, fragment gpu.ShaderHandle) (gpu.ProgramHandle, bool, string) {
	program := gl.CreateProgram()
	gl.AttachShader(program, uint32(vertex))
	gl.AttachShader(program, uint32(fragment))
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		return gpu.ProgramHandle(program), false, strings.TrimRight(log, "\x00")
	}
	gl.DetachShader(program, uint32(vertex))
	gl.DetachShader(program, uint32(fragment))
	return gpu.ProgramHandle(program), true, ""
}

func (d *Device) DeleteProgram(program gpu.ProgramHandle) {
	gl.DeleteProgram(uint32(program))
}

// ActiveUniforms lists the float and sampler2D uniforms the linker kept.
func (d *Device) ActiveUniforms(program gpu.ProgramHandle) []gpu.UniformInfo {
	var count, maxLen int32
	gl.GetProgramiv(uint32(program), gl.ACTIVE_UNIFORMS, &count)
	gl.GetProgramiv(uint32(program), gl.ACTIVE_UNIFORM_MAX_LENGTH, &maxLen)
	if count == 0 {
		return nil
	}

	buf := make([]uint8, maxLen+1)
	out := make([]gpu.UniformInfo, 0, count)
	for i := uint32(0); i < uint32(count); i++ {
		var length, size int32
		var xtype uint32
		gl.GetActiveUniform(uint32(program), i, int32(len(buf)), &length, &size, &xtype, &buf[0])
		name := string(buf[:length])

		switch xtype {
		case gl.FLOAT:
			out = append(out, gpu.UniformInfo{Name: name, Type: gpu.UniformFloat})
		case gl.SAMPLER_2D:
			out = append(out, gpu.UniformInfo{Name: name, Type: gpu.UniformSampler2D})
		}
	}
	return out
}

func (d *Device) UniformLocation(program gpu.ProgramHandle, name string) gpu.UniformLocation {
	return gpu.UniformLocation(gl.GetUniformLocation(uint32(program), gl.Str(name+"\x00")))
}

func (d *Device) UseProgram(program gpu.ProgramHandle) {
	gl.UseProgram(uint32(program))
}

func (d *Device) Uniform1f(location gpu.UniformLocation, v float32) {
	gl.Uniform1f(int32(location), v)
}

func (d *Device) Uniform1i(location gpu.UniformLocation, v int32) {
	gl.Uniform1i(int32(location), v)
}

func (d *Device) CreateTexture() (gpu.TextureHandle, error) {
	var tex uint32
	gl.GenTextures(1, &tex)
	if tex == 0 {
		return 0, errors.New("glGenTextures returned no name")
	}
	return gpu.TextureHandle(tex), nil
}

func (d *Device) BindTexture(unit int, texture gpu.TextureHandle) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, uint32(texture))
}

// TexParameters applies to the texture bound on the active unit, so callers bind first.
func (d *Device) TexParameters(texture gpu.TextureHandle, params gpu.SamplerParams) {
	gl.BindTexture(gl.TEXTURE_2D, uint32(texture))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, filter(params.MinFilter))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, filter(params.MagFilter))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrap(params.WrapS))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrap(params.WrapT))
}

func (d *Device) TexImage2D(texture gpu.TextureHandle, width, height int, pix []byte) error {
	gl.BindTexture(gl.TEXTURE_2D, uint32(texture))
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pix))
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("glTexImage2D: error 0x%04x", code)
	}
	return nil
}

func (d *Device) DeleteTexture(texture gpu.TextureHandle) {
	tex := uint32(texture)
	gl.DeleteTextures(1, &tex)
}

func (d *Device) CreateParticleBuffer(indices []float32) (gpu.BufferHandle, error) {
	if len(indices) == 0 {
		return 0, errors.New("empty particle buffer")
	}
	var pb particleBuffer
	gl.GenVertexArrays(1, &pb.vao)
	gl.GenBuffers(1, &pb.vbo)

	gl.BindVertexArray(pb.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, pb.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(particleAttrib)
	gl.VertexAttribPointer(particleAttrib, 1, gl.FLOAT, false, 4, gl.PtrOffset(0))
	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	if code := gl.GetError(); code != gl.NO_ERROR {
		gl.DeleteVertexArrays(1, &pb.vao)
		gl.DeleteBuffers(1, &pb.vbo)
		return 0, fmt.Errorf("particle buffer: error 0x%04x", code)
	}
	h := gpu.BufferHandle(pb.vbo)
	d.buffers[h] = pb
	return h, nil
}

func (d *Device) DeleteBuffer(buffer gpu.BufferHandle) {
	pb, ok := d.buffers[buffer]
	if !ok {
		return
	}
	gl.DeleteVertexArrays(1, &pb.vao)
	gl.DeleteBuffers(1, &pb.vbo)
	delete(d.buffers, buffer)
}

func (d *Device) DrawableSize() (int, int) {
	return d.window.GetFramebufferSize()
}

func (d *Device) Viewport(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

func (d *Device) BeginFrame(clear mgl32.Vec4) error {
	if d.inFrame {
		return errors.New("BeginFrame called twice without EndFrame")
	}
	d.inFrame = true
	gl.ClearColor(clear[0], clear[1], clear[2], clear[3])
	gl.Clear(gl.COLOR_BUFFER_BIT)
	return nil
}

func (d *Device) DrawPoints(buffer gpu.BufferHandle, count int) {
	pb, ok := d.buffers[buffer]
	if !ok || count <= 0 {
		return
	}
	gl.BindVertexArray(pb.vao)
	gl.DrawArrays(gl.POINTS, 0, int32(count))
	gl.BindVertexArray(0)
}

func (d *Device) EndFrame() error {
	if !d.inFrame {
		return errors.New("EndFrame called without BeginFrame")
	}
	d.inFrame = false
	d.window.SwapBuffers()
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("frame: error 0x%04x", code)
	}
	return nil
}

// Close deletes the particle buffers still alive. Textures and programs belong to their owners.
func (d *Device) Close() {
	for h := range d.buffers {
		d.DeleteBuffer(h)
	}
}

func filter(f gpu.Filter) int32 {
	if f == gpu.FilterLinear {
		return gl.LINEAR
	}
	return gl.NEAREST
}

func wrap(w gpu.WrapMode) int32 {
	if w == gpu.WrapRepeat {
		return gl.REPEAT
	}
	return gl.CLAMP_TO_EDGE
}

var _ gpu.Device = (*Device)(nil)
