package dusteffect

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDustEffectModule_HeadlessLoop(t *testing.T) {
	host := newFakeHost()
	host.images["card"] = cardImage(16, 16, 8, 8)

	app := NewAppBuilder().
		UseModule(TimeModule{FixedStep: 50 * time.Millisecond}).
		Build()
	app.UseDustEffect(DustEffectModule{
		Renderer: RendererHeadless,
		Width:    64,
		Height:   64,
		Options:  Options{Duration: 200 * time.Millisecond, ParticleSize: 4},
		Capturer: host,
		Remover:  host,
	})

	effect, ok := Resource[Effect](app)
	require.True(t, ok)
	rd, ok := Resource[RenderDevice](app)
	require.True(t, ok)
	require.NotNil(t, rd.Soft)

	_, err := effect.Dissolve(context.Background(), "card")
	require.NoError(t, err)

	app.RunFrames(10)

	assert.Equal(t, []ElementID{"card"}, host.removed)
	assert.Len(t, rd.Soft.Draws, 5, "elapsed 0 through 200ms inclusive")
	assert.Equal(t, 10, rd.Soft.Frames)
	assert.Equal(t, 0, rd.Soft.LiveTextures())
}

func TestDustEffectModule_OverlayStageRunsAfterRender(t *testing.T) {
	host := newFakeHost()
	app := NewApp()
	app.UseDustEffect(DustEffectModule{Renderer: RendererHeadless, Width: 8, Height: 8, Capturer: host, Remover: host})

	var names []string
	for _, s := range app.stages {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"Prelude", "PreUpdate", "Update", "PostUpdate", "PreRender", "Render", "DustOverlay", "PostRender", "Finale"}, names)

	rd, _ := Resource[RenderDevice](app)
	var presentedBeforeRender []int
	app.UseSystem(System(func() {
		presentedBeforeRender = append(presentedBeforeRender, rd.Soft.Frames)
	}).InStage(Render))

	app.RunFrames(3)

	assert.Equal(t, []int{0, 1, 2}, presentedBeforeRender)
	assert.Equal(t, 3, rd.Soft.Frames)
}

func TestDustEffectModule_ShutdownOnQuit(t *testing.T) {
	host := newFakeHost()
	app := NewApp()
	app.UseDustEffect(DustEffectModule{Renderer: RendererHeadless, Width: 8, Height: 8, Capturer: host, Remover: host})
	app.UseSystem(System(func(cmd *Commands) { cmd.Quit() }).InStage(Update))

	app.Run()

	rd, _ := Resource[RenderDevice](app)
	assert.True(t, rd.closed)
	assert.Equal(t, 0, rd.Soft.LivePrograms())
}

func TestRendererGuard(t *testing.T) {
	app := NewApp()
	ensureSingleRenderer(app, RendererHeadless)
	ensureSingleRenderer(app, RendererHeadless)

	assert.Panics(t, func() { ensureSingleRenderer(app, RendererGL) })
}

func TestParseRendererName(t *testing.T) {
	name, err := ParseRendererName("wgpu")
	require.NoError(t, err)
	assert.Equal(t, RendererWGPU, name)
	assert.True(t, name.NeedsWindow())
	assert.False(t, RendererHeadless.NeedsWindow())

	_, err = ParseRendererName("vulkan")
	assert.Error(t, err)
}
