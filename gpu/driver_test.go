package gpu

import (
	"testing"
	"time"

	"github.com/gekko3d/dusteffect/particles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startInstance(t *testing.T, p *testPipeline, img particles.CapturedImage, size int, duration time.Duration, onDone func()) *Instance {
	t.Helper()
	grid, err := particles.BuildGrid(img.Width, img.Height, size)
	require.NoError(t, err)
	bounds := img.Bounds
	tex, err := p.textures.Upload(&img)
	require.NoError(t, err)
	buf, err := p.dev.CreateParticleBuffer(grid.Indices)
	require.NoError(t, err)

	vw, vh, _ := p.driver.SyncViewport()
	p.binder.BindStatic(StaticParams{
		Duration:       duration,
		ParticleSize:   size,
		ViewportWidth:  vw,
		ViewportHeight: vh,
		TextureWidth:   tex.Width,
		TextureHeight:  tex.Height,
		TextureLeft:    bounds.Left,
		TextureTop:     bounds.Top,
	})

	inst := NewInstance("test", grid, tex, buf, duration, onDone)
	require.NoError(t, p.driver.Start(inst))
	return inst
}

func TestDriver_DrawsUntilDurationThenTerminates(t *testing.T) {
	p := newTestPipeline(t, 200, 100)
	done := 0
	startInstance(t, p, solidImage(10, 10, 20, 20), 4, 3600*time.Millisecond, func() { done++ })

	var elapsed []float32
	for _, ms := range []int{0, 1000, 2000, 3000, 3700} {
		res, err := p.driver.Frame(time.Duration(ms) * time.Millisecond)
		require.NoError(t, err)
		if ms < 3700 {
			assert.True(t, res.Drew)
			assert.True(t, res.More)
		} else {
			assert.False(t, res.Drew)
			assert.True(t, res.Terminated)
			assert.False(t, res.More)
		}
	}

	for _, d := range p.dev.Draws {
		assert.Equal(t, 9, d.Count, "one draw of every particle")
		elapsed = append(elapsed, d.Elapsed)
	}
	assert.Equal(t, []float32{0, 1000, 2000, 3000}, elapsed)
	assert.Equal(t, 1, done)
	assert.False(t, p.driver.Running())
	assert.Equal(t, 0, p.dev.LiveTextures())
	assert.Equal(t, 0, p.dev.LiveBuffers())
	assert.Equal(t, 5, p.dev.Frames)
}

func TestDriver_NoDrawsAfterTermination(t *testing.T) {
	p := newTestPipeline(t, 64, 64)
	startInstance(t, p, solidImage(4, 4, 0, 0), 1, 10*time.Millisecond, nil)

	_, err := p.driver.Frame(0)
	require.NoError(t, err)
	_, err = p.driver.Frame(50 * time.Millisecond)
	require.NoError(t, err)
	draws := len(p.dev.Draws)

	for i := 0; i < 5; i++ {
		res, err := p.driver.Frame(time.Duration(100+i) * time.Millisecond)
		require.NoError(t, err)
		assert.False(t, res.Drew)
		assert.False(t, res.More)
	}
	assert.Equal(t, draws, len(p.dev.Draws))
}

func TestDriver_NextInstanceStartsOwnClock(t *testing.T) {
	p := newTestPipeline(t, 64, 64)
	startInstance(t, p, solidImage(4, 4, 0, 0), 1, 10*time.Millisecond, nil)
	p.driver.Frame(0)
	p.driver.Frame(20 * time.Millisecond)

	startInstance(t, p, solidImage(4, 4, 0, 0), 1, 10*time.Millisecond, nil)
	res, err := p.driver.Frame(5 * time.Second)
	require.NoError(t, err)
	assert.True(t, res.Drew)
	assert.Equal(t, time.Duration(0), res.Elapsed)
}

func TestDriver_StartWhileRunning(t *testing.T) {
	p := newTestPipeline(t, 64, 64)
	inst := startInstance(t, p, solidImage(4, 4, 0, 0), 1, time.Second, nil)

	err := p.driver.Start(inst)
	assert.ErrorIs(t, err, ErrInstanceRunning)
}

func TestDriver_CancelReleasesWithoutCompletion(t *testing.T) {
	p := newTestPipeline(t, 64, 64)
	done := false
	inst := startInstance(t, p, solidImage(8, 8, 0, 0), 2, time.Second, func() { done = true })
	p.driver.Frame(0)

	assert.True(t, p.driver.Cancel())
	assert.False(t, p.driver.Cancel())

	assert.False(t, done)
	assert.False(t, inst.State().Running())
	assert.Equal(t, 0, p.dev.LiveTextures())
	assert.Equal(t, 0, p.dev.LiveBuffers())

	res, err := p.driver.Frame(time.Millisecond)
	require.NoError(t, err)
	assert.False(t, res.More)
}

func TestDriver_ResizeReconfiguresViewport(t *testing.T) {
	p := newTestPipeline(t, 100, 80)
	startInstance(t, p, solidImage(4, 4, 0, 0), 1, time.Second, nil)

	p.driver.Frame(0)
	w, h := p.driver.Viewport()
	assert.Equal(t, [2]int{100, 80}, [2]int{w, h})

	p.dev.SetDrawableSize(300, 200)
	p.driver.Frame(16 * time.Millisecond)

	w, h = p.driver.Viewport()
	assert.Equal(t, [2]int{300, 200}, [2]int{w, h})
	vw, _ := p.table.Float(UniformViewportWidth)
	vh, _ := p.table.Float(UniformViewportHeight)
	assert.Equal(t, float32(300), vw)
	assert.Equal(t, float32(200), vh)
	assert.Equal(t, 300, p.dev.LastFrame().Bounds().Dx())
}

func TestDriver_IdleFrameOnlyClears(t *testing.T) {
	p := newTestPipeline(t, 16, 16)

	res, err := p.driver.Frame(0)
	require.NoError(t, err)
	assert.Equal(t, FrameResult{}, res)
	assert.Empty(t, p.dev.Draws)
	assert.Equal(t, 1, p.dev.Frames)
}

func TestDriver_FirstFrameRendersCapturedPixels(t *testing.T) {
	p := newTestPipeline(t, 64, 64)
	startInstance(t, p, solidImage(8, 8, 10, 20), 2, time.Second, nil)

	_, err := p.driver.Frame(0)
	require.NoError(t, err)

	frame := p.dev.LastFrame()
	require.NotNil(t, frame)
	inside := frame.RGBAAt(13, 23)
	assert.Equal(t, uint8(200), inside.R)
	assert.Equal(t, uint8(255), inside.A)
	outside := frame.RGBAAt(40, 40)
	assert.Equal(t, uint8(0), outside.A)
}
