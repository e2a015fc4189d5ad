package dusteffect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeModule_FixedStep(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	app := NewAppBuilder().
		UseModule(TimeModule{FixedStep: 40 * time.Millisecond, Now: func() time.Time { return start }}).
		Build()

	app.RunFrames(3)

	clock, ok := Resource[Time](app)
	require.True(t, ok)
	assert.Equal(t, 120*time.Millisecond, clock.Elapsed)
	assert.Equal(t, 40*time.Millisecond, clock.Dt)
}

func TestTimeModule_WallClock(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	app := NewAppBuilder().
		UseModule(TimeModule{Now: func() time.Time { return now }}).
		Build()

	now = now.Add(16 * time.Millisecond)
	app.Step()
	now = now.Add(20 * time.Millisecond)
	app.Step()

	clock, _ := Resource[Time](app)
	assert.Equal(t, 36*time.Millisecond, clock.Elapsed)
	assert.Equal(t, 20*time.Millisecond, clock.Dt)
}
