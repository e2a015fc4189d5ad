package particles

import "time"

// AnimationState is the clock of one effect invocation. The zero start is only meaningful
// while running; an idle state has no start time.
type AnimationState struct {
	Duration time.Duration

	start   time.Duration
	running bool
}

// Frame is the outcome of stepping the clock for one frame.
type Frame struct {
	Draw    bool
	Elapsed time.Duration
}

func NewAnimationState(duration time.Duration) AnimationState {
	return AnimationState{Duration: duration}
}

func (s AnimationState) Running() bool { return s.running }

// Start is the timestamp of the first rendered frame. ok is false while idle.
func (s AnimationState) Start() (start time.Duration, ok bool) {
	return s.start, s.running
}

// Step advances the clock to the frame timestamp now.
//
// The first frame of an idle state records now as the start time. Frames keep drawing while
// elapsed <= Duration; the first frame past the duration returns to idle without drawing.
func Step(s AnimationState, now time.Duration) (AnimationState, Frame) {
	if !s.running {
		s.start = now
		s.running = true
	}

	elapsed := now - s.start
	if elapsed < 0 {
		// frame clocks are monotonic, but hosts mixing clocks happen
		elapsed = 0
	}

	if elapsed > s.Duration {
		return s.Reset(), Frame{Draw: false, Elapsed: elapsed}
	}
	return s, Frame{Draw: true, Elapsed: elapsed}
}

// Reset returns the state to idle so the next Step starts a fresh clock.
func (s AnimationState) Reset() AnimationState {
	return AnimationState{Duration: s.Duration}
}
