package dusteffect

import (
	"time"
)

// Time is the frame clock. Elapsed is the host timestamp handed to the dust effect.
type Time struct {
	Start   time.Time
	Time    time.Time
	Dt      time.Duration
	Elapsed time.Duration
}

// TimeModule maintains the Time resource. A non-zero FixedStep advances the clock by exactly that
// much per frame, which keeps headless renders reproducible.
type TimeModule struct {
	FixedStep time.Duration
	Now       func() time.Time
}

func (mod TimeModule) Install(app *App, cmd *Commands) {
	now := mod.Now
	if now == nil {
		now = time.Now
	}
	start := now()
	t := &Time{Start: start, Time: start}
	cmd.AddResources(t)

	step := mod.FixedStep
	cmd.UseSystem(System(func(t *Time) {
		advanceTime(t, step, now)
	}).InStage(Prelude))
}

func advanceTime(t *Time, step time.Duration, now func() time.Time) {
	next := t.Time.Add(step)
	if step <= 0 {
		next = now()
	}

	t.Dt = next.Sub(t.Time)
	t.Time = next
	t.Elapsed = next.Sub(t.Start)
}
