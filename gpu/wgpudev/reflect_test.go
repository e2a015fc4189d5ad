package wgpudev

import (
	"testing"

	"github.com/gekko3d/dusteffect/gpu"
	"github.com/gekko3d/dusteffect/shaders"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReflect_ParticleShaderExposesEveryUniform(t *testing.T) {
	src := shaders.Embedded(shaders.WGSL)
	vs, err := Reflect(src.Vertex)
	require.NoError(t, err)
	fs, err := Reflect(src.Fragment)
	require.NoError(t, err)
	layout, err := merge(vs, fs)
	require.NoError(t, err)

	active := map[string]gpu.UniformType{}
	for _, info := range layout.Uniforms() {
		active[info.Name] = info.Type
	}
	for _, u := range gpu.Uniforms() {
		assert.Equal(t, u.Type(), active[u.Name()], u.Name())
	}

	assert.Equal(t, 0, layout.UniformBinding)
	assert.Equal(t, 1, layout.TextureBinding)
	assert.Equal(t, 2, layout.SamplerBinding)
	assert.Equal(t, uint64(48), layout.BufferSize())
	assert.True(t, stages(src.Vertex)["vertex"])
	assert.True(t, stages(src.Fragment)["fragment"])
}

func TestReflect_Locations(t *testing.T) {
	layout, err := Reflect(`
struct P { a_b: f32, c: f32 };
@group(0) @binding(0) var<uniform> p: P;
@group(0) @binding(3) var u_image: texture_2d<f32>;
`)
	require.NoError(t, err)

	assert.Equal(t, gpu.UniformLocation(0), layout.Location("u_AB"))
	assert.Equal(t, gpu.UniformLocation(1), layout.Location("u_C"))
	assert.Equal(t, layout.SamplerLocation(), layout.Location("u_Image"))
	assert.Equal(t, gpu.UniformLocation(-1), layout.Location("u_Missing"))
	assert.Equal(t, uint64(16), layout.BufferSize())
}

func TestReflect_RejectsNonScalarFields(t *testing.T) {
	_, err := Reflect(`
struct P { size: vec2<f32> };
@group(0) @binding(0) var<uniform> p: P;
`)
	assert.ErrorContains(t, err, "only f32")
}

func TestReflect_UndeclaredStruct(t *testing.T) {
	_, err := Reflect(`@group(0) @binding(0) var<uniform> p: Missing;`)
	assert.ErrorContains(t, err, "not declared")
}

func TestGLName(t *testing.T) {
	assert.Equal(t, "u_ElapsedTime", GLName("elapsed_time"))
	assert.Equal(t, "u_Texture", GLName("u_texture"))
	assert.Equal(t, "u_AnimationDuration", GLName("animation_duration"))
}
