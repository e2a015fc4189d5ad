package dusteffect

import (
	"fmt"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDuration     = 1800 * time.Millisecond
	DefaultParticleSize = 1
)

// Options are the knobs of the effect. Changes apply to the next invocation.
type Options struct {
	// Duration of the whole dissolve.
	Duration time.Duration `yaml:"duration"`
	// ParticleSize is the edge length of one particle in captured pixels.
	ParticleSize int `yaml:"particle_size"`
	// ClearColor fills the overlay surface every frame, RGBA in [0,1].
	ClearColor mgl32.Vec4 `yaml:"clear_color"`
}

func DefaultOptions() Options {
	return Options{
		Duration:     DefaultDuration,
		ParticleSize: DefaultParticleSize,
	}
}

// Normalize fills zero values with the defaults.
func (o Options) Normalize() Options {
	if o.Duration == 0 {
		o.Duration = DefaultDuration
	}
	if o.ParticleSize == 0 {
		o.ParticleSize = DefaultParticleSize
	}
	return o
}

func (o Options) Validate() error {
	if o.Duration < 0 {
		return &OptionsError{Field: "duration", Value: o.Duration}
	}
	if o.ParticleSize < 0 {
		return &OptionsError{Field: "particle_size", Value: o.ParticleSize}
	}
	for i, c := range o.ClearColor {
		if c < 0 || c > 1 {
			return &OptionsError{Field: fmt.Sprintf("clear_color[%d]", i), Value: c}
		}
	}
	return nil
}

// ParseOptions decodes YAML on top of the defaults, e.g.
//
//	duration: 3600ms
//	particle_size: 2
//	clear_color: [0, 0, 0, 0]
func ParseOptions(data []byte) (Options, error) {
	opts := DefaultOptions()
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return Options{}, fmt.Errorf("decode options: %w", err)
	}
	opts = opts.Normalize()
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

func LoadOptions(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("read options: %w", err)
	}
	return ParseOptions(data)
}
