package gpu

import (
	"fmt"
	"strings"
)

// Uniform is the closed set of parameters the particle shaders read.
type Uniform int

const (
	UniformAnimationDuration Uniform = iota
	UniformParticleSize
	UniformViewportWidth
	UniformViewportHeight
	UniformTextureWidth
	UniformTextureHeight
	UniformTextureLeft
	UniformTextureTop
	UniformElapsedTime
	UniformTexture

	uniformCount
)

var uniformSpecs = [uniformCount]UniformInfo{
	UniformAnimationDuration: {Name: "u_AnimationDuration", Type: UniformFloat},
	UniformParticleSize:      {Name: "u_ParticleSize", Type: UniformFloat},
	UniformViewportWidth:     {Name: "u_ViewportWidth", Type: UniformFloat},
	UniformViewportHeight:    {Name: "u_ViewportHeight", Type: UniformFloat},
	UniformTextureWidth:      {Name: "u_TextureWidth", Type: UniformFloat},
	UniformTextureHeight:     {Name: "u_TextureHeight", Type: UniformFloat},
	UniformTextureLeft:       {Name: "u_TextureLeft", Type: UniformFloat},
	UniformTextureTop:        {Name: "u_TextureTop", Type: UniformFloat},
	UniformElapsedTime:       {Name: "u_ElapsedTime", Type: UniformFloat},
	UniformTexture:           {Name: "u_Texture", Type: UniformSampler2D},
}

func (u Uniform) Name() string      { return uniformSpecs[u].Name }
func (u Uniform) Type() UniformType { return uniformSpecs[u].Type }
func (u Uniform) String() string    { return u.Name() }

// Uniforms lists every member of the closed set in declaration order.
func Uniforms() []Uniform {
	all := make([]Uniform, uniformCount)
	for i := range all {
		all[i] = Uniform(i)
	}
	return all
}

type uniformEntry struct {
	location UniformLocation
	bound    bool
	f        float32
	i        int32
}

// UniformTable resolves every Uniform against a linked program once and remembers the last value
// written to each. Writing the same value twice leaves the GPU state unchanged.
type UniformTable struct {
	dev     Device
	program ProgramHandle
	entries [uniformCount]uniformEntry
}

// NewUniformTable validates program against the closed uniform set. A uniform the program does
// not expose, or exposes with another type, is reported as a LinkError.
func NewUniformTable(dev Device, program ProgramHandle) (*UniformTable, error) {
	active := map[string]UniformType{}
	for _, info := range dev.ActiveUniforms(program) {
		active[info.Name] = info.Type
	}

	var problems []string
	for _, u := range Uniforms() {
		typ, ok := active[u.Name()]
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("missing active uniform %s", u.Name()))
		case typ != u.Type():
			problems = append(problems, fmt.Sprintf("uniform %s is %s, want %s", u.Name(), typ, u.Type()))
		}
	}
	if len(problems) > 0 {
		return nil, &LinkError{Log: strings.Join(problems, "; ")}
	}

	t := &UniformTable{dev: dev, program: program}
	for _, u := range Uniforms() {
		loc := dev.UniformLocation(program, u.Name())
		if loc < 0 {
			return nil, &LinkError{Log: fmt.Sprintf("no location for active uniform %s", u.Name())}
		}
		t.entries[u].location = loc
	}
	return t, nil
}

func (t *UniformTable) Program() ProgramHandle { return t.program }

// SetFloat writes a float uniform. The program must be current.
func (t *UniformTable) SetFloat(u Uniform, v float32) {
	if u.Type() != UniformFloat {
		panic(fmt.Sprintf("SetFloat on %s uniform %s", u.Type(), u.Name()))
	}
	e := &t.entries[u]
	t.dev.Uniform1f(e.location, v)
	e.f = v
	e.bound = true
}

// SetSampler points a sampler uniform at a texture unit. The program must be current.
func (t *UniformTable) SetSampler(u Uniform, unit int32) {
	if u.Type() != UniformSampler2D {
		panic(fmt.Sprintf("SetSampler on %s uniform %s", u.Type(), u.Name()))
	}
	e := &t.entries[u]
	t.dev.Uniform1i(e.location, unit)
	e.i = unit
	e.bound = true
}

// Float returns the last value written to a float uniform.
func (t *UniformTable) Float(u Uniform) (float32, bool) {
	e := t.entries[u]
	return e.f, e.bound
}

// Sampler returns the texture unit last written to a sampler uniform.
func (t *UniformTable) Sampler(u Uniform) (int32, bool) {
	e := t.entries[u]
	return e.i, e.bound
}
