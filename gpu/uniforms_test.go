package gpu

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gekko3d/dusteffect/shaders"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUniformTable_ResolvesClosedSet(t *testing.T) {
	p := newTestPipeline(t, 32, 32)

	for _, u := range Uniforms() {
		_, bound := p.table.Float(u)
		assert.False(t, bound, "%s bound before any write", u)
	}
	assert.Len(t, Uniforms(), 10)
}

func TestNewUniformTable_MissingUniformIsLinkError(t *testing.T) {
	dev := NewSoftDevice(32, 32)
	store := NewProgramStore(dev)
	src := shaders.Embedded(shaders.GLSL)
	vertex := strings.Replace(src.Vertex, "uniform float u_TextureTop;\n", "", 1)

	program, err := store.Build(vertex, src.Fragment)
	require.NoError(t, err)

	_, err = NewUniformTable(dev, program)
	var linkErr *LinkError
	require.True(t, errors.As(err, &linkErr))
	assert.Contains(t, linkErr.Log, "missing active uniform u_TextureTop")
}

func TestNewUniformTable_WrongTypeIsLinkError(t *testing.T) {
	dev := NewSoftDevice(32, 32)
	store := NewProgramStore(dev)
	src := shaders.Embedded(shaders.GLSL)
	vertex := strings.Replace(src.Vertex, "uniform sampler2D u_Texture;", "uniform float u_Texture;", 1)

	program, err := store.Build(vertex, src.Fragment)
	require.NoError(t, err)

	_, err = NewUniformTable(dev, program)
	var linkErr *LinkError
	require.True(t, errors.As(err, &linkErr))
	assert.Contains(t, linkErr.Log, "u_Texture is float, want sampler2D")
}

func TestUniformTable_SetWrongKindPanics(t *testing.T) {
	p := newTestPipeline(t, 32, 32)

	assert.Panics(t, func() { p.table.SetFloat(UniformTexture, 1) })
	assert.Panics(t, func() { p.table.SetSampler(UniformElapsedTime, 0) })
}

func TestUniformBinder_BindStatic(t *testing.T) {
	p := newTestPipeline(t, 320, 240)
	params := StaticParams{
		Duration:       3600 * time.Millisecond,
		ParticleSize:   2,
		ViewportWidth:  320,
		ViewportHeight: 240,
		TextureWidth:   100,
		TextureHeight:  50,
		TextureLeft:    12,
		TextureTop:     34,
	}

	p.binder.BindStatic(params)

	want := map[Uniform]float32{
		UniformAnimationDuration: 3600,
		UniformParticleSize:      2,
		UniformViewportWidth:     320,
		UniformViewportHeight:    240,
		UniformTextureWidth:      100,
		UniformTextureHeight:     50,
		UniformTextureLeft:       12,
		UniformTextureTop:        34,
	}
	for u, v := range want {
		got, bound := p.table.Float(u)
		assert.True(t, bound, "%s", u)
		assert.Equal(t, v, got, "%s", u)
		devVal, ok := p.dev.UniformValue(u.Name())
		assert.True(t, ok)
		assert.Equal(t, v, devVal, "%s on device", u)
	}
	unit, bound := p.table.Sampler(UniformTexture)
	assert.True(t, bound)
	assert.Equal(t, int32(TextureUnit), unit)
	_, bound = p.table.Float(UniformElapsedTime)
	assert.False(t, bound, "static binding must not touch the elapsed time")
}

func TestUniformBinder_BindStaticIsIdempotent(t *testing.T) {
	p := newTestPipeline(t, 64, 64)
	params := StaticParams{Duration: time.Second, ParticleSize: 1, ViewportWidth: 64, ViewportHeight: 64, TextureWidth: 8, TextureHeight: 8}

	p.binder.BindStatic(params)
	first := snapshotUniforms(p)
	p.binder.BindStatic(params)
	second := snapshotUniforms(p)

	assert.Equal(t, first, second)
}

func TestUniformBinder_BindElapsedOnly(t *testing.T) {
	p := newTestPipeline(t, 64, 64)
	p.binder.BindStatic(StaticParams{Duration: time.Second, ParticleSize: 1, ViewportWidth: 64, ViewportHeight: 64, TextureWidth: 8, TextureHeight: 8})
	before := snapshotUniforms(p)

	p.binder.BindElapsed(1500 * time.Microsecond)

	after := snapshotUniforms(p)
	elapsed, _ := p.table.Float(UniformElapsedTime)
	assert.Equal(t, float32(1.5), elapsed)
	delete(after, UniformElapsedTime.Name())
	delete(before, UniformElapsedTime.Name())
	assert.Equal(t, before, after)
}

func snapshotUniforms(p *testPipeline) map[string]float32 {
	out := map[string]float32{}
	for _, u := range Uniforms() {
		v, _ := p.dev.UniformValue(u.Name())
		out[u.Name()] = v
	}
	return out
}
