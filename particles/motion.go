package particles

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/tanema/gween/ease"
)

// The dissolve sweeps left to right: a particle starts moving after a delay proportional to its
// column plus a per-particle jitter, then travels for lifeSpan of the normalized duration.
// particles.vert.glsl and particles.wgsl implement the same model on the GPU.
const (
	sweepDelay  = 0.45
	jitterDelay = 0.15
	lifeSpan    = 1 - sweepDelay - jitterDelay

	minTravel = 40.0
	maxTravel = 200.0
	windDrift = 60.0

	hashSeed2 = 7919.0
)

// Motion evaluates the particle motion model on the CPU. It is used by the software device and
// as the reference the shaders are written against.
type Motion struct {
	Grid Grid
	// Origin is the captured element's top-left corner in viewport pixels.
	Origin mgl32.Vec2
	// TextureSize is the captured image size in pixels.
	TextureSize mgl32.Vec2
	Duration    float32
}

// ParticleSample is where a particle is drawn at a given moment.
type ParticleSample struct {
	Center mgl32.Vec2
	UV     mgl32.Vec2
	Alpha  float32
}

func NewMotion(grid Grid, img CapturedImage, durationMillis float32) Motion {
	return Motion{
		Grid:        grid,
		Origin:      mgl32.Vec2{float32(img.Bounds.Left), float32(img.Bounds.Top)},
		TextureSize: mgl32.Vec2{float32(img.Width), float32(img.Height)},
		Duration:    durationMillis,
	}
}

// Sample computes the particle with the given index elapsedMillis into the animation.
func (m Motion) Sample(index int, elapsedMillis float32) ParticleSample {
	col, row := m.Grid.Cell(index)
	size := float32(m.Grid.ParticleSize)

	var t float32
	if m.Duration > 0 {
		t = clamp01(elapsedMillis / m.Duration)
	} else {
		t = 1
	}

	h1 := hash(float32(index))
	h2 := hash(float32(index) + hashSeed2)

	delay := float32(col)/float32(m.Grid.Columns)*sweepDelay + h1*jitterDelay
	p := clamp01((t - delay) / lifeSpan)
	travel := ease.OutQuad(p, 0, 1, 1)

	angle := -math.Pi/2 + (h2-0.5)*math.Pi*0.75
	distance := (minTravel + (maxTravel-minTravel)*h1) * travel
	offset := mgl32.Vec2{
		float32(math.Cos(float64(angle)))*distance + windDrift*travel,
		float32(math.Sin(float64(angle))) * distance,
	}

	local := mgl32.Vec2{float32(col)*size + size/2, float32(row)*size + size/2}
	uv := mgl32.Vec2{
		mgl32.Clamp(local.X(), 0, m.TextureSize.X()-0.5) / m.TextureSize.X(),
		mgl32.Clamp(local.Y(), 0, m.TextureSize.Y()-0.5) / m.TextureSize.Y(),
	}

	return ParticleSample{
		Center: m.Origin.Add(local).Add(offset),
		UV:     uv,
		Alpha:  1 - ease.InQuad(p, 0, 1, 1),
	}
}

// ToNDC maps a viewport pixel position (origin top-left, y down) to normalized device coordinates.
func ToNDC(p mgl32.Vec2, viewport mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{p.X()/viewport.X()*2 - 1, 1 - p.Y()/viewport.Y()*2}
}

func hash(x float32) float32 {
	v := float32(math.Sin(float64(x*12.9898))) * 43758.5453
	return v - float32(math.Floor(float64(v)))
}

func clamp01(v float32) float32 {
	return mgl32.Clamp(v, 0, 1)
}
