package gpu

import (
	"time"

	"github.com/gekko3d/dusteffect/particles"
	"github.com/go-gl/mathgl/mgl32"
)

// Instance is one running dissolve: the particle grid, its GPU resources and its own clock.
type Instance struct {
	ID      string
	Grid    particles.Grid
	Texture Texture
	Buffer  BufferHandle

	state  particles.AnimationState
	onDone func()
}

func NewInstance(id string, grid particles.Grid, tex Texture, buffer BufferHandle, duration time.Duration, onDone func()) *Instance {
	return &Instance{
		ID:      id,
		Grid:    grid,
		Texture: tex,
		Buffer:  buffer,
		state:   particles.NewAnimationState(duration),
		onDone:  onDone,
	}
}

func (i *Instance) State() particles.AnimationState { return i.state }

// FrameResult tells the host what happened in a frame.
type FrameResult struct {
	Drew       bool
	Elapsed    time.Duration
	Terminated bool
	// More is true while the host should schedule another frame.
	More bool
}

// Driver runs the per-frame loop of the particle animation on the render thread.
type Driver struct {
	dev      Device
	store    *ProgramStore
	binder   *UniformBinder
	textures *TextureUploader
	clear    mgl32.Vec4

	viewW, viewH int
	active       *Instance
}

func NewDriver(dev Device, store *ProgramStore, binder *UniformBinder, textures *TextureUploader) *Driver {
	return &Driver{
		dev:      dev,
		store:    store,
		binder:   binder,
		textures: textures,
	}
}

func (d *Driver) SetClearColor(c mgl32.Vec4) { d.clear = c }

func (d *Driver) ClearColor() mgl32.Vec4 { return d.clear }

// Viewport is the cached drawable size.
func (d *Driver) Viewport() (width, height int) { return d.viewW, d.viewH }

// SyncViewport compares the drawable size with the cached one and reconfigures the viewport
// when they differ. The viewport uniforms follow so a running instance keeps its geometry.
func (d *Driver) SyncViewport() (width, height int, changed bool) {
	w, h := d.dev.DrawableSize()
	if w == d.viewW && h == d.viewH {
		return w, h, false
	}
	d.viewW, d.viewH = w, h
	d.dev.Viewport(w, h)
	if d.binder != nil {
		d.binder.BindViewport(w, h)
	}
	return w, h, true
}

func (d *Driver) Running() bool { return d.active != nil }

func (d *Driver) Active() *Instance { return d.active }

// Start makes inst the running instance. Its clock starts on the next Frame.
func (d *Driver) Start(inst *Instance) error {
	if d.active != nil {
		return ErrInstanceRunning
	}
	d.active = inst
	return nil
}

// Frame renders one frame at the host timestamp now.
//
// Without a running instance the surface is only cleared. A running instance draws all of its
// particles in a single call until its duration has elapsed; the first frame past the duration
// draws nothing, releases the instance resources and fires its completion callback.
func (d *Driver) Frame(now time.Duration) (FrameResult, error) {
	d.SyncViewport()

	if err := d.dev.BeginFrame(d.clear); err != nil {
		return FrameResult{More: d.active != nil}, err
	}

	inst := d.active
	if inst == nil {
		return FrameResult{}, d.dev.EndFrame()
	}

	var frame particles.Frame
	inst.state, frame = particles.Step(inst.state, now)

	if frame.Draw {
		d.binder.BindElapsed(frame.Elapsed)
		d.dev.DrawPoints(inst.Buffer, inst.Grid.Count)
		err := d.dev.EndFrame()
		return FrameResult{Drew: true, Elapsed: frame.Elapsed, More: true}, err
	}

	err := d.dev.EndFrame()
	d.finish(inst)
	if inst.onDone != nil {
		inst.onDone()
	}
	return FrameResult{Elapsed: frame.Elapsed, Terminated: true}, err
}

// Cancel abandons the running instance and frees its GPU resources. The completion callback is
// not fired.
func (d *Driver) Cancel() bool {
	inst := d.active
	if inst == nil {
		return false
	}
	inst.state = inst.state.Reset()
	d.finish(inst)
	return true
}

func (d *Driver) finish(inst *Instance) {
	d.textures.Release(inst.Texture)
	inst.Texture = Texture{}
	if inst.Buffer != 0 {
		d.dev.DeleteBuffer(inst.Buffer)
		inst.Buffer = 0
	}
	inst.Grid = particles.Grid{}
	d.active = nil
}
