package dusteffect

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gekko3d/dusteffect/gpu"
	"github.com/gekko3d/dusteffect/particles"
	"github.com/gekko3d/dusteffect/shaders"
	"github.com/google/uuid"
)

// ElementID names a screen element in the host UI.
type ElementID string

// Capturer rasterizes an element. It may block; ctx bounds the wait.
type Capturer interface {
	Capture(ctx context.Context, id ElementID) (particles.CapturedImage, error)
}

type CaptureFunc func(ctx context.Context, id ElementID) (particles.CapturedImage, error)

func (f CaptureFunc) Capture(ctx context.Context, id ElementID) (particles.CapturedImage, error) {
	return f(ctx, id)
}

// Remover takes an element out of the host UI once its dissolve finished.
type Remover interface {
	Remove(id ElementID)
}

type RemoverFunc func(id ElementID)

func (f RemoverFunc) Remove(id ElementID) { f(id) }

// Invocation describes one dissolve of one element.
type Invocation struct {
	ID      uuid.UUID
	Element ElementID
	Grid    particles.Grid
	Bounds  particles.Rect
	Options Options
}

type EffectConfig struct {
	Options  Options
	Shaders  shaders.Sources
	Capturer Capturer
	Remover  Remover
	Logger   Logger
}

// Effect turns an element into dust: capture, particle grid, texture upload, uniforms, then
// one draw per frame until the duration has passed and the element is removed. It owns the
// particle program for the lifetime of the rendering surface and runs at most one invocation at
// a time. Effect is driven from the render thread and is not safe for concurrent use.
type Effect struct {
	dev      gpu.Device
	store    *gpu.ProgramStore
	program  gpu.ProgramHandle
	binder   *gpu.UniformBinder
	textures *gpu.TextureUploader
	driver   *gpu.Driver

	opts     Options
	capturer Capturer
	remover  Remover
	logger   Logger

	current *Invocation
	closed  bool
}

// NewEffect builds the particle program on dev. Shader problems surface here as
// *gpu.CompileError or *gpu.LinkError.
func NewEffect(dev gpu.Device, cfg EffectConfig) (*Effect, error) {
	if cfg.Capturer == nil || cfg.Remover == nil {
		return nil, errors.New("dust effect needs a capturer and a remover")
	}
	opts := cfg.Options.Normalize()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = NewNopLogger()
	}

	store := gpu.NewProgramStore(dev)
	program, err := store.Build(cfg.Shaders.Vertex, cfg.Shaders.Fragment)
	if err != nil {
		logger.Errorf("particle program: %v", err)
		return nil, err
	}
	table, err := gpu.NewUniformTable(dev, program)
	if err != nil {
		store.Delete(program)
		logger.Errorf("particle program: %v", err)
		return nil, err
	}

	binder := gpu.NewUniformBinder(store, table)
	textures := gpu.NewTextureUploader(dev)
	driver := gpu.NewDriver(dev, store, binder, textures)
	driver.SetClearColor(opts.ClearColor)

	logger.Debugf("particle program %d ready", program)
	return &Effect{
		dev:      dev,
		store:    store,
		program:  program,
		binder:   binder,
		textures: textures,
		driver:   driver,
		opts:     opts,
		capturer: cfg.Capturer,
		remover:  cfg.Remover,
		logger:   logger,
	}, nil
}

func (e *Effect) Options() Options { return e.opts }

// SetOptions replaces duration, particle size and clear color. A running invocation keeps the
// values it started with, clear color included; the new color takes over once the effect is idle.
func (e *Effect) SetOptions(opts Options) error {
	opts = opts.Normalize()
	if err := opts.Validate(); err != nil {
		return err
	}
	e.opts = opts
	if e.current == nil {
		e.driver.SetClearColor(opts.ClearColor)
	}
	return nil
}

func (e *Effect) Running() bool { return e.current != nil }

// Current is the running invocation, nil when idle.
func (e *Effect) Current() *Invocation { return e.current }

// Dissolve starts dissolving the element. On any failure the element stays where it is, every
// GPU object created so far is released, and the error is returned.
func (e *Effect) Dissolve(ctx context.Context, id ElementID) (*Invocation, error) {
	if e.closed {
		return nil, ErrClosed
	}
	if e.current != nil || e.driver.Running() {
		return nil, ErrBusy
	}

	inv := &Invocation{ID: uuid.New(), Element: id, Options: e.opts}
	if err := e.start(ctx, inv); err != nil {
		e.logger.Errorf("dissolve %s (%s): %v", inv.ID, id, err)
		return nil, err
	}
	e.current = inv
	e.logger.Infof("dissolve %s (%s): %d particles over %s", inv.ID, id, inv.Grid.Count, inv.Options.Duration)
	return inv, nil
}

func (e *Effect) start(ctx context.Context, inv *Invocation) error {
	img, err := e.capturer.Capture(ctx, inv.Element)
	if err != nil {
		return &CaptureError{Element: inv.Element, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return &CaptureError{Element: inv.Element, Err: err}
	}

	grid, err := particles.BuildGrid(img.Width, img.Height, inv.Options.ParticleSize)
	if err != nil {
		return err
	}
	inv.Grid = grid
	inv.Bounds = img.Bounds

	tex, err := e.textures.Upload(&img)
	if err != nil {
		return err
	}
	buf, err := e.dev.CreateParticleBuffer(grid.Indices)
	if err != nil {
		e.textures.Release(tex)
		return fmt.Errorf("particle buffer: %w", err)
	}

	vw, vh, _ := e.driver.SyncViewport()
	e.binder.BindStatic(gpu.StaticParams{
		Duration:       inv.Options.Duration,
		ParticleSize:   inv.Options.ParticleSize,
		ViewportWidth:  vw,
		ViewportHeight: vh,
		TextureWidth:   tex.Width,
		TextureHeight:  tex.Height,
		TextureLeft:    inv.Bounds.Left,
		TextureTop:     inv.Bounds.Top,
	})

	instance := gpu.NewInstance(inv.ID.String(), grid, tex, buf, inv.Options.Duration, func() {
		e.finish(inv)
	})
	if err := e.driver.Start(instance); err != nil {
		e.textures.Release(tex)
		e.dev.DeleteBuffer(buf)
		return err
	}
	e.driver.SetClearColor(inv.Options.ClearColor)
	return nil
}

func (e *Effect) finish(inv *Invocation) {
	e.current = nil
	e.driver.SetClearColor(e.opts.ClearColor)
	e.remover.Remove(inv.Element)
	e.logger.Infof("dissolve %s (%s): done, element removed", inv.ID, inv.Element)
}

// Frame renders one frame at the host timestamp now and reports whether another frame is
// wanted.
func (e *Effect) Frame(now time.Duration) (bool, error) {
	if e.closed {
		return false, ErrClosed
	}
	res, err := e.driver.Frame(now)
	if err != nil {
		e.logger.Errorf("frame at %s: %v", now, err)
	}
	if res.Drew && e.logger.DebugEnabled() {
		e.logger.Debugf("frame elapsed=%s", res.Elapsed)
	}
	return res.More, err
}

// Cancel abandons the running invocation. Its element is not removed.
func (e *Effect) Cancel() bool {
	inv := e.current
	if !e.driver.Cancel() {
		return false
	}
	e.current = nil
	e.driver.SetClearColor(e.opts.ClearColor)
	if inv != nil {
		e.logger.Infof("dissolve %s (%s): cancelled", inv.ID, inv.Element)
	}
	return true
}

// Close tears down the GPU state when the rendering surface goes away.
func (e *Effect) Close() {
	if e.closed {
		return
	}
	e.Cancel()
	e.store.Delete(e.program)
	e.closed = true
}
