// Package wgpudev implements gpu.Device on WebGPU with a GLFW window surface.
package wgpudev

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/gekko3d/dusteffect/gpu"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

// Device renders particles as instanced quads. Uniform writes land in a CPU copy of the
// program's uniform buffer which is uploaded right before each draw.
type Device struct {
	window   *glfw.Window
	instance *wgpu.Instance
	surface  *wgpu.Surface
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	config   *wgpu.SurfaceConfiguration

	nextID   uint32
	shaders  map[gpu.ShaderHandle]*shader
	programs map[gpu.ProgramHandle]*program
	current  *program
	textures map[gpu.TextureHandle]*texture
	units    map[int]gpu.TextureHandle
	buffers  map[gpu.BufferHandle]*wgpu.Buffer

	frame *frame
}

type shader struct {
	stage  gpu.ShaderStage
	module *wgpu.ShaderModule
	layout Layout
}

type program struct {
	ok       bool
	pipeline *wgpu.RenderPipeline
	layout   Layout

	uniforms *wgpu.Buffer
	data     []byte
	dirty    bool
	unit     int32

	bindGroup *wgpu.BindGroup
	bindTex   gpu.TextureHandle
}

type texture struct {
	tex     *wgpu.Texture
	view    *wgpu.TextureView
	sampler *wgpu.Sampler
}

type frame struct {
	target  *wgpu.Texture
	view    *wgpu.TextureView
	encoder *wgpu.CommandEncoder
	pass    *wgpu.RenderPassEncoder
}

// New creates the WebGPU instance, surface and device for window.
func New(window *glfw.Window) (*Device, error) {
	d := &Device{
		window:   window,
		shaders:  make(map[gpu.ShaderHandle]*shader),
		programs: make(map[gpu.ProgramHandle]*program),
		textures: make(map[gpu.TextureHandle]*texture),
		units:    make(map[int]gpu.TextureHandle),
		buffers:  make(map[gpu.BufferHandle]*wgpu.Buffer),
	}

	d.instance = wgpu.CreateInstance(nil)
	d.surface = d.instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(window))

	adapter, err := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: d.surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	d.adapter = adapter

	d.device, err = adapter.RequestDevice(nil)
	if err != nil {
		return nil, fmt.Errorf("request device: %w", err)
	}
	d.queue = d.device.GetQueue()

	width, height := window.GetFramebufferSize()
	caps := d.surface.GetCapabilities(adapter)
	if len(caps.Formats) == 0 {
		return nil, errors.New("surface reports no texture formats")
	}
	d.config = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	d.surface.Configure(d.adapter, d.device, d.config)
	return d, nil
}

func (d *Device) id() uint32 {
	d.nextID++
	return d.nextID
}

func (d *Device) CompileShader(stage gpu.ShaderStage, source string) (gpu.ShaderHandle, bool, string) {
	h := gpu.ShaderHandle(d.id())

	want := "vertex"
	if stage == gpu.StageFragment {
		want = "fragment"
	}
	if !stages(source)[want] {
		return h, false, fmt.Sprintf("no @%s entry point", want)
	}
	layout, err := Reflect(source)
	if err != nil {
		return h, false, err.Error()
	}

	module, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Dust " + stage.String(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: source},
	})
	if err != nil {
		return h, false, err.Error()
	}
	d.shaders[h] = &shader{stage: stage, module: module, layout: layout}
	return h, true, ""
}

func (d *Device) DeleteShader(h gpu.ShaderHandle) {
	if s := d.shaders[h]; s != nil {
		s.module.Release()
		delete(d.shaders, h)
	}
}

func (d *Device) LinkProgram(vertex, fragment gpu.ShaderHandle) (gpu.ProgramHandle, bool, string) {
	h := gpu.ProgramHandle(d.id())
	p := &program{}
	d.programs[h] = p

	vs, fs := d.shaders[vertex], d.shaders[fragment]
	if vs == nil || fs == nil || vs.stage != gpu.StageVertex || fs.stage != gpu.StageFragment {
		return h, false, "program needs one compiled vertex and one compiled fragment module"
	}
	layout, err := merge(vs.layout, fs.layout)
	if err != nil {
		return h, false, err.Error()
	}

	blend := wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorSrcAlpha,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	}
	pipeline, err := d.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "Dust Pipeline",
		Vertex: wgpu.VertexState{
			Module:     vs.module,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{{
				ArrayStride: 4,
				StepMode:    wgpu.VertexStepModeInstance,
				Attributes: []wgpu.VertexAttribute{
					{Format: wgpu.VertexFormatFloat32, Offset: 0, ShaderLocation: 0},
				},
			}},
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs.module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    d.config.Format,
				Blend:     &wgpu.BlendState{Color: blend, Alpha: blend},
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyTriangleList,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return h, false, err.Error()
	}
	p.pipeline = pipeline
	p.layout = layout

	if size := layout.BufferSize(); size > 0 {
		p.data = make([]byte, size)
		p.uniforms, err = d.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "Dust Uniforms",
			Size:  size,
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return h, false, err.Error()
		}
	}
	p.ok = true
	return h, true, ""
}

func (d *Device) DeleteProgram(h gpu.ProgramHandle) {
	p := d.programs[h]
	if p == nil {
		return
	}
	if d.current == p {
		d.current = nil
	}
	p.releaseBindGroup()
	if p.uniforms != nil {
		p.uniforms.Release()
	}
	if p.pipeline != nil {
		p.pipeline.Release()
	}
	delete(d.programs, h)
}

func (d *Device) ActiveUniforms(h gpu.ProgramHandle) []gpu.UniformInfo {
	if p := d.programs[h]; p != nil && p.ok {
		return p.layout.Uniforms()
	}
	return nil
}

func (d *Device) UniformLocation(h gpu.ProgramHandle, name string) gpu.UniformLocation {
	if p := d.programs[h]; p != nil && p.ok {
		return p.layout.Location(name)
	}
	return -1
}

func (d *Device) UseProgram(h gpu.ProgramHandle) {
	p := d.programs[h]
	if p == nil || !p.ok {
		d.current = nil
		return
	}
	d.current = p
}

func (d *Device) Uniform1f(loc gpu.UniformLocation, v float32) {
	p := d.current
	if p == nil || loc < 0 || int(loc) >= len(p.layout.Fields) {
		return
	}
	binary.LittleEndian.PutUint32(p.data[int(loc)*4:], math.Float32bits(v))
	p.dirty = true
}

func (d *Device) Uniform1i(loc gpu.UniformLocation, v int32) {
	p := d.current
	if p == nil || loc != p.layout.SamplerLocation() {
		return
	}
	if p.unit != v {
		p.unit = v
		p.releaseBindGroup()
	}
}

// CreateTexture reserves a handle. WebGPU textures are immutable in size, so the GPU object
// is created by TexImage2D.
func (d *Device) CreateTexture() (gpu.TextureHandle, error) {
	h := gpu.TextureHandle(d.id())
	d.textures[h] = &texture{}
	return h, nil
}

func (d *Device) BindTexture(unit int, h gpu.TextureHandle) {
	d.units[unit] = h
}

func (d *Device) TexParameters(h gpu.TextureHandle, params gpu.SamplerParams) {
	t := d.textures[h]
	if t == nil {
		return
	}
	if t.sampler != nil {
		t.sampler.Release()
	}
	sampler, err := d.device.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU:  addressMode(params.WrapS),
		AddressModeV:  addressMode(params.WrapT),
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     filterMode(params.MagFilter),
		MinFilter:     filterMode(params.MinFilter),
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return
	}
	t.sampler = sampler
}

func (d *Device) TexImage2D(h gpu.TextureHandle, width, height int, pix []byte) error {
	t := d.textures[h]
	if t == nil {
		return fmt.Errorf("texture %d does not exist", h)
	}
	size := wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1}
	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Dust Capture",
		Size:          size,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return err
	}
	d.queue.WriteTexture(tex.AsImageCopy(), pix, &wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  uint32(width) * 4,
		RowsPerImage: uint32(height),
	}, &size)

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return err
	}
	t.releaseImage()
	t.tex, t.view = tex, view
	d.dropBindGroups(h)
	return nil
}

func (d *Device) DeleteTexture(h gpu.TextureHandle) {
	t := d.textures[h]
	if t == nil {
		return
	}
	d.dropBindGroups(h)
	t.releaseImage()
	if t.sampler != nil {
		t.sampler.Release()
	}
	delete(d.textures, h)
	for unit, bound := range d.units {
		if bound == h {
			delete(d.units, unit)
		}
	}
}

func (d *Device) CreateParticleBuffer(indices []float32) (gpu.BufferHandle, error) {
	if len(indices) == 0 {
		return 0, errors.New("empty particle buffer")
	}
	contents := make([]byte, len(indices)*4)
	for i, v := range indices {
		binary.LittleEndian.PutUint32(contents[i*4:], math.Float32bits(v))
	}
	buf, err := d.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Dust Particles",
		Contents: contents,
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		return 0, err
	}
	h := gpu.BufferHandle(d.id())
	d.buffers[h] = buf
	return h, nil
}

func (d *Device) DeleteBuffer(h gpu.BufferHandle) {
	if buf := d.buffers[h]; buf != nil {
		buf.Release()
		delete(d.buffers, h)
	}
}

func (d *Device) DrawableSize() (int, int) {
	return d.window.GetFramebufferSize()
}

// Viewport reconfigures the surface; render passes always cover the whole surface.
func (d *Device) Viewport(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	if d.config.Width == uint32(width) && d.config.Height == uint32(height) {
		return
	}
	d.config.Width = uint32(width)
	d.config.Height = uint32(height)
	d.surface.Configure(d.adapter, d.device, d.config)
}

func (d *Device) BeginFrame(clear mgl32.Vec4) error {
	if d.frame != nil {
		return errors.New("BeginFrame called twice without EndFrame")
	}
	target, err := d.surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("acquire surface texture: %w", err)
	}
	view, err := target.CreateView(nil)
	if err != nil {
		target.Release()
		return fmt.Errorf("create surface view: %w", err)
	}
	encoder, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		target.Release()
		return fmt.Errorf("create command encoder: %w", err)
	}
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: float64(clear[0]), G: float64(clear[1]), B: float64(clear[2]), A: float64(clear[3])},
		}},
	})
	d.frame = &frame{target: target, view: view, encoder: encoder, pass: pass}
	return nil
}

// DrawPoints draws count particles, six vertices each.
func (d *Device) DrawPoints(h gpu.BufferHandle, count int) {
	p, f, buf := d.current, d.frame, d.buffers[h]
	if p == nil || f == nil || buf == nil || count <= 0 {
		return
	}
	if p.dirty && p.uniforms != nil {
		d.queue.WriteBuffer(p.uniforms, 0, p.data)
		p.dirty = false
	}
	bg := d.bindGroup(p)
	if bg == nil {
		return
	}
	f.pass.SetPipeline(p.pipeline)
	f.pass.SetBindGroup(0, bg, nil)
	f.pass.SetVertexBuffer(0, buf, 0, buf.GetSize())
	f.pass.Draw(6, uint32(count), 0, 0)
}

func (d *Device) EndFrame() error {
	f := d.frame
	if f == nil {
		return errors.New("EndFrame called without BeginFrame")
	}
	d.frame = nil
	defer f.target.Release()
	defer f.view.Release()

	if err := f.pass.End(); err != nil {
		return fmt.Errorf("end render pass: %w", err)
	}
	cmd, err := f.encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish encoder: %w", err)
	}
	d.queue.Submit(cmd)
	d.surface.Present()
	return nil
}

// Close releases everything the device still owns.
func (d *Device) Close() {
	for h := range d.buffers {
		d.DeleteBuffer(h)
	}
	for h := range d.textures {
		d.DeleteTexture(h)
	}
	for h := range d.programs {
		d.DeleteProgram(h)
	}
	for h := range d.shaders {
		d.DeleteShader(h)
	}
	if d.device != nil {
		d.device.Release()
	}
	if d.surface != nil {
		d.surface.Release()
	}
	if d.instance != nil {
		d.instance.Release()
	}
}

// bindGroup returns the program's group 0 for the texture currently on its sampler unit.
func (d *Device) bindGroup(p *program) *wgpu.BindGroup {
	texHandle := d.units[int(p.unit)]
	if p.bindGroup != nil && p.bindTex == texHandle {
		return p.bindGroup
	}
	p.releaseBindGroup()

	var entries []wgpu.BindGroupEntry
	if p.layout.UniformBinding >= 0 {
		entries = append(entries, wgpu.BindGroupEntry{
			Binding: uint32(p.layout.UniformBinding),
			Buffer:  p.uniforms,
			Size:    wgpu.WholeSize,
		})
	}
	if p.layout.TextureBinding >= 0 {
		t := d.textures[texHandle]
		if t == nil || t.view == nil || t.sampler == nil {
			return nil
		}
		entries = append(entries,
			wgpu.BindGroupEntry{Binding: uint32(p.layout.TextureBinding), TextureView: t.view},
			wgpu.BindGroupEntry{Binding: uint32(p.layout.SamplerBinding), Sampler: t.sampler},
		)
	}

	bg, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout:  p.pipeline.GetBindGroupLayout(0),
		Entries: entries,
	})
	if err != nil {
		return nil
	}
	p.bindGroup, p.bindTex = bg, texHandle
	return bg
}

func (d *Device) dropBindGroups(h gpu.TextureHandle) {
	for _, p := range d.programs {
		if p.bindTex == h {
			p.releaseBindGroup()
		}
	}
}

func (p *program) releaseBindGroup() {
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	p.bindTex = 0
}

func (t *texture) releaseImage() {
	if t.view != nil {
		t.view.Release()
		t.view = nil
	}
	if t.tex != nil {
		t.tex.Release()
		t.tex = nil
	}
}

func addressMode(w gpu.WrapMode) wgpu.AddressMode {
	if w == gpu.WrapRepeat {
		return wgpu.AddressModeRepeat
	}
	return wgpu.AddressModeClampToEdge
}

func filterMode(f gpu.Filter) wgpu.FilterMode {
	if f == gpu.FilterLinear {
		return wgpu.FilterModeLinear
	}
	return wgpu.FilterModeNearest
}

var _ gpu.Device = (*Device)(nil)
