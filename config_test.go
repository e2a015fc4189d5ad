package dusteffect

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, 1800*time.Millisecond, opts.Duration)
	assert.Equal(t, 1, opts.ParticleSize)
	assert.NoError(t, opts.Validate())
}

func TestOptions_NormalizeFillsZeroValues(t *testing.T) {
	opts := Options{ParticleSize: 3}.Normalize()
	assert.Equal(t, DefaultDuration, opts.Duration)
	assert.Equal(t, 3, opts.ParticleSize)
}

func TestOptions_ValidateRejectsNegatives(t *testing.T) {
	var optErr *OptionsError

	err := Options{Duration: -time.Second, ParticleSize: 1}.Validate()
	require.ErrorAs(t, err, &optErr)
	assert.Equal(t, "duration", optErr.Field)

	err = Options{Duration: time.Second, ParticleSize: -2}.Validate()
	require.ErrorAs(t, err, &optErr)
	assert.Equal(t, "particle_size", optErr.Field)

	err = Options{Duration: time.Second, ParticleSize: 1, ClearColor: mgl32.Vec4{0, 2, 0, 0}}.Validate()
	require.ErrorAs(t, err, &optErr)
	assert.Equal(t, "clear_color[1]", optErr.Field)
}

func TestParseOptions(t *testing.T) {
	opts, err := ParseOptions([]byte("duration: 3600ms\nparticle_size: 2\nclear_color: [0.1, 0.2, 0.3, 1]\n"))
	require.NoError(t, err)

	assert.Equal(t, 3600*time.Millisecond, opts.Duration)
	assert.Equal(t, 2, opts.ParticleSize)
	assert.Equal(t, mgl32.Vec4{0.1, 0.2, 0.3, 1}, opts.ClearColor)
}

func TestParseOptions_PartialKeepsDefaults(t *testing.T) {
	opts, err := ParseOptions([]byte("particle_size: 4\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultDuration, opts.Duration)
	assert.Equal(t, 4, opts.ParticleSize)
}

func TestParseOptions_Errors(t *testing.T) {
	_, err := ParseOptions([]byte("duration: soon\n"))
	assert.ErrorContains(t, err, "decode options")

	_, err = ParseOptions([]byte("duration: -1s\n"))
	var optErr *OptionsError
	assert.ErrorAs(t, err, &optErr)
}

func TestLoadOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dust.yaml")
	require.NoError(t, os.WriteFile(path, []byte("duration: 2s\n"), 0o644))

	opts, err := LoadOptions(path)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, opts.Duration)

	_, err = LoadOptions(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read options")
}
