package gpu

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

type ShaderStage int

const (
	StageVertex ShaderStage = iota
	StageFragment
)

func (s ShaderStage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	default:
		return fmt.Sprintf("ShaderStage(%d)", int(s))
	}
}

type (
	ShaderHandle  uint32
	ProgramHandle uint32
	TextureHandle uint32
	BufferHandle  uint32
)

// UniformLocation addresses a uniform inside the current program. Negative means not found.
type UniformLocation int32

type UniformType int

const (
	UniformFloat UniformType = iota + 1
	UniformSampler2D
)

func (t UniformType) String() string {
	switch t {
	case UniformFloat:
		return "float"
	case UniformSampler2D:
		return "sampler2D"
	default:
		return fmt.Sprintf("UniformType(%d)", int(t))
	}
}

// UniformInfo describes an active uniform of a linked program. Names use the GLSL spelling
// (u_ElapsedTime); backends with other conventions translate.
type UniformInfo struct {
	Name string
	Type UniformType
}

type Filter int

const (
	FilterNearest Filter = iota
	FilterLinear
)

type WrapMode int

const (
	WrapClampToEdge WrapMode = iota
	WrapRepeat
)

type SamplerParams struct {
	MinFilter Filter
	MagFilter Filter
	WrapS     WrapMode
	WrapT     WrapMode
}

// Device is the slice of a GPU API the dust renderer needs. Calls follow OpenGL semantics:
// uniform writes and draws target the program set by UseProgram, and textures are sampled from
// whatever is bound to a unit. All methods must be called from the render thread.
type Device interface {
	CompileShader(stage ShaderStage, source string) (shader ShaderHandle, ok bool, log string)
	DeleteShader(shader ShaderHandle)
	LinkProgram(vertex, fragment ShaderHandle) (program ProgramHandle, ok bool, log string)
	DeleteProgram(program ProgramHandle)
	ActiveUniforms(program ProgramHandle) []UniformInfo
	UniformLocation(program ProgramHandle, name string) UniformLocation
	UseProgram(program ProgramHandle)

	Uniform1f(location UniformLocation, v float32)
	Uniform1i(location UniformLocation, v int32)

	CreateTexture() (TextureHandle, error)
	BindTexture(unit int, texture TextureHandle)
	TexParameters(texture TextureHandle, params SamplerParams)
	TexImage2D(texture TextureHandle, width, height int, pix []byte) error
	DeleteTexture(texture TextureHandle)

	CreateParticleBuffer(indices []float32) (BufferHandle, error)
	DeleteBuffer(buffer BufferHandle)

	DrawableSize() (width, height int)
	Viewport(width, height int)
	BeginFrame(clear mgl32.Vec4) error
	DrawPoints(buffer BufferHandle, count int)
	EndFrame() error
}
