package gpu

import "time"

// TextureUnit is the unit the captured texture lives on for the whole renderer lifetime.
const TextureUnit = 0

// StaticParams are the uniforms that stay constant for one invocation.
type StaticParams struct {
	Duration     time.Duration
	ParticleSize int

	// Drawable surface size, not the captured element size.
	ViewportWidth  int
	ViewportHeight int

	// Captured image size in pixels and its on-screen top-left corner.
	TextureWidth  int
	TextureHeight int
	TextureLeft   int
	TextureTop    int
}

// UniformBinder pushes animation parameters into the particle program.
type UniformBinder struct {
	store *ProgramStore
	table *UniformTable
}

func NewUniformBinder(store *ProgramStore, table *UniformTable) *UniformBinder {
	return &UniformBinder{store: store, table: table}
}

func (b *UniformBinder) Table() *UniformTable { return b.table }

// BindStatic is called once per invocation right after the texture upload.
func (b *UniformBinder) BindStatic(p StaticParams) {
	b.store.Use(b.table.Program())

	b.table.SetFloat(UniformAnimationDuration, millis(p.Duration))
	b.table.SetFloat(UniformParticleSize, float32(p.ParticleSize))
	b.table.SetFloat(UniformViewportWidth, float32(p.ViewportWidth))
	b.table.SetFloat(UniformViewportHeight, float32(p.ViewportHeight))
	b.table.SetFloat(UniformTextureWidth, float32(p.TextureWidth))
	b.table.SetFloat(UniformTextureHeight, float32(p.TextureHeight))
	b.table.SetFloat(UniformTextureLeft, float32(p.TextureLeft))
	b.table.SetFloat(UniformTextureTop, float32(p.TextureTop))
	b.table.SetSampler(UniformTexture, TextureUnit)
}

// BindViewport re-sends the viewport size after the drawable surface changed.
func (b *UniformBinder) BindViewport(width, height int) {
	b.store.Use(b.table.Program())
	b.table.SetFloat(UniformViewportWidth, float32(width))
	b.table.SetFloat(UniformViewportHeight, float32(height))
}

// BindElapsed is the only per-frame uniform write.
func (b *UniformBinder) BindElapsed(elapsed time.Duration) {
	b.store.Use(b.table.Program())
	b.table.SetFloat(UniformElapsedTime, millis(elapsed))
}

func millis(d time.Duration) float32 {
	return float32(d) / float32(time.Millisecond)
}
