package particles

import "fmt"

// InvalidGridError reports captured geometry that cannot be turned into a particle grid.
type InvalidGridError struct {
	Width        int
	Height       int
	ParticleSize int
	// TooMany is set when the grid would exceed MaxParticles.
	TooMany bool
}

func (e *InvalidGridError) Error() string {
	if e.TooMany {
		return fmt.Sprintf("invalid particle grid: %dx%d source with particle size %d needs more than %d particles", e.Width, e.Height, e.ParticleSize, MaxParticles)
	}
	return fmt.Sprintf("invalid particle grid: %dx%d source with particle size %d", e.Width, e.Height, e.ParticleSize)
}
