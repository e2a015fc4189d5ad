package gpu

import (
	"errors"
	"testing"

	"github.com/gekko3d/dusteffect/particles"
	"github.com/gekko3d/dusteffect/shaders"
	"github.com/stretchr/testify/require"
)

type testPipeline struct {
	dev      *SoftDevice
	store    *ProgramStore
	program  ProgramHandle
	table    *UniformTable
	binder   *UniformBinder
	textures *TextureUploader
	driver   *Driver
}

func newTestPipeline(t *testing.T, width, height int) *testPipeline {
	t.Helper()
	dev := NewSoftDevice(width, height)
	store := NewProgramStore(dev)
	src := shaders.Embedded(shaders.GLSL)
	program, err := store.Build(src.Vertex, src.Fragment)
	require.NoError(t, err)
	table, err := NewUniformTable(dev, program)
	require.NoError(t, err)
	binder := NewUniformBinder(store, table)
	textures := NewTextureUploader(dev)
	return &testPipeline{
		dev:      dev,
		store:    store,
		program:  program,
		table:    table,
		binder:   binder,
		textures: textures,
		driver:   NewDriver(dev, store, binder, textures),
	}
}

func solidImage(w, h int, left, top int) particles.CapturedImage {
	pix := make([]byte, w*h*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = 200, 40, 40, 255
	}
	return particles.CapturedImage{
		Pix:    pix,
		Width:  w,
		Height: h,
		Bounds: particles.Rect{Left: left, Top: top, Width: w, Height: h},
	}
}

// failingTexDevice rejects pixel uploads.
type failingTexDevice struct {
	*SoftDevice
}

func (d failingTexDevice) TexImage2D(TextureHandle, int, int, []byte) error {
	return errors.New("out of texture memory")
}
