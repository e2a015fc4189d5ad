package gpu

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"regexp"
	"strings"

	"github.com/gekko3d/dusteffect/particles"
	"github.com/go-gl/mathgl/mgl32"
)

// SoftDevice is a software Device. It understands GLSL uniform declarations well enough to
// validate programs, and rasterizes particle draws on the CPU with the same motion model the
// shaders implement. It backs headless rendering and the GPU-free tests.
type SoftDevice struct {
	width, height int
	viewW, viewH  int

	nextID   uint32
	shaders  map[ShaderHandle]*softShader
	programs map[ProgramHandle]*softProgram
	current  *softProgram
	textures map[TextureHandle]*softTexture
	units    map[int]TextureHandle
	buffers  map[BufferHandle][]float32

	frame   *image.RGBA
	last    *image.RGBA
	inFrame bool

	// OnPresent receives every completed frame.
	OnPresent func(frame *image.RGBA)

	Draws  []DrawCall
	Frames int
}

// DrawCall records one DrawPoints call with the elapsed-time uniform it saw.
type DrawCall struct {
	Program ProgramHandle
	Buffer  BufferHandle
	Count   int
	Elapsed float32
}

type softShader struct {
	stage    ShaderStage
	source   string
	uniforms []UniformInfo
}

type softProgram struct {
	handle   ProgramHandle
	linked   bool
	uniforms []UniformInfo
	values   []float32
}

type softTexture struct {
	params SamplerParams
	width  int
	height int
	pix    []byte
}

func NewSoftDevice(width, height int) *SoftDevice {
	return &SoftDevice{
		width:    width,
		height:   height,
		shaders:  make(map[ShaderHandle]*softShader),
		programs: make(map[ProgramHandle]*softProgram),
		textures: make(map[TextureHandle]*softTexture),
		units:    make(map[int]TextureHandle),
		buffers:  make(map[BufferHandle][]float32),
	}
}

var (
	glslUniformRe = regexp.MustCompile(`(?m)^\s*uniform\s+(?:(?:lowp|mediump|highp)\s+)?(\w+)\s+(\w+)\s*;`)
	glslErrorRe   = regexp.MustCompile(`(?m)^\s*#error\s*(.*)$`)
	glslMainRe    = regexp.MustCompile(`\bvoid\s+main\s*\(`)
)

func (d *SoftDevice) id() uint32 {
	d.nextID++
	return d.nextID
}

func (d *SoftDevice) CompileShader(stage ShaderStage, source string) (ShaderHandle, bool, string) {
	h := ShaderHandle(d.id())
	if strings.TrimSpace(source) == "" {
		return h, false, "ERROR: 0:0: empty shader source"
	}
	if loc := glslErrorRe.FindStringSubmatchIndex(source); loc != nil {
		line := strings.Count(source[:loc[0]], "\n") + 1
		return h, false, fmt.Sprintf("ERROR: 0:%d: '#error' : %s", line, strings.TrimSpace(source[loc[2]:loc[3]]))
	}

	sh := &softShader{stage: stage, source: source}
	for _, m := range glslUniformRe.FindAllStringSubmatch(source, -1) {
		var typ UniformType
		switch m[1] {
		case "float":
			typ = UniformFloat
		case "sampler2D":
			typ = UniformSampler2D
		default:
			continue
		}
		sh.uniforms = append(sh.uniforms, UniformInfo{Name: m[2], Type: typ})
	}
	d.shaders[h] = sh
	return h, true, ""
}

func (d *SoftDevice) DeleteShader(shader ShaderHandle) {
	delete(d.shaders, shader)
}

func (d *SoftDevice) LinkProgram(vertex, fragment ShaderHandle) (ProgramHandle, bool, string) {
	p := &softProgram{handle: ProgramHandle(d.id())}
	d.programs[p.handle] = p

	vs, fs := d.shaders[vertex], d.shaders[fragment]
	switch {
	case vs == nil || fs == nil:
		return p.handle, false, "ERROR: attached shader is not compiled"
	case vs.stage != StageVertex || fs.stage != StageFragment:
		return p.handle, false, "ERROR: program needs one vertex and one fragment shader"
	case !glslMainRe.MatchString(vs.source):
		return p.handle, false, "ERROR: vertex shader: main() not defined"
	case !glslMainRe.MatchString(fs.source):
		return p.handle, false, "ERROR: fragment shader: main() not defined"
	}

	seen := map[string]UniformType{}
	for _, info := range append(append([]UniformInfo{}, vs.uniforms...), fs.uniforms...) {
		if prev, ok := seen[info.Name]; ok {
			if prev != info.Type {
				return p.handle, false, fmt.Sprintf("ERROR: uniform %s declared as %s and %s", info.Name, prev, info.Type)
			}
			continue
		}
		seen[info.Name] = info.Type
		p.uniforms = append(p.uniforms, info)
	}
	p.values = make([]float32, len(p.uniforms))
	p.linked = true
	return p.handle, true, ""
}

func (d *SoftDevice) DeleteProgram(program ProgramHandle) {
	if d.current != nil && d.current.handle == program {
		d.current = nil
	}
	delete(d.programs, program)
}

func (d *SoftDevice) ActiveUniforms(program ProgramHandle) []UniformInfo {
	p := d.programs[program]
	if p == nil {
		return nil
	}
	return append([]UniformInfo(nil), p.uniforms...)
}

func (d *SoftDevice) UniformLocation(program ProgramHandle, name string) UniformLocation {
	p := d.programs[program]
	if p == nil {
		return -1
	}
	for i, info := range p.uniforms {
		if info.Name == name {
			return UniformLocation(i)
		}
	}
	return -1
}

func (d *SoftDevice) UseProgram(program ProgramHandle) {
	p := d.programs[program]
	if p == nil || !p.linked {
		d.current = nil
		return
	}
	d.current = p
}

func (d *SoftDevice) Uniform1f(location UniformLocation, v float32) {
	if d.current == nil || location < 0 || int(location) >= len(d.current.values) {
		return
	}
	d.current.values[location] = v
}

func (d *SoftDevice) Uniform1i(location UniformLocation, v int32) {
	d.Uniform1f(location, float32(v))
}

// UniformValue reads back a uniform of the current program by name.
func (d *SoftDevice) UniformValue(name string) (float32, bool) {
	if d.current == nil {
		return 0, false
	}
	loc := d.UniformLocation(d.current.handle, name)
	if loc < 0 {
		return 0, false
	}
	return d.current.values[loc], true
}

func (d *SoftDevice) CreateTexture() (TextureHandle, error) {
	h := TextureHandle(d.id())
	d.textures[h] = &softTexture{}
	return h, nil
}

func (d *SoftDevice) BindTexture(unit int, texture TextureHandle) {
	d.units[unit] = texture
}

// BoundTexture is the texture bound to unit.
func (d *SoftDevice) BoundTexture(unit int) TextureHandle {
	return d.units[unit]
}

func (d *SoftDevice) TexParameters(texture TextureHandle, params SamplerParams) {
	if t := d.textures[texture]; t != nil {
		t.params = params
	}
}

// TextureParams returns the sampling parameters of a live texture.
func (d *SoftDevice) TextureParams(texture TextureHandle) (SamplerParams, bool) {
	t := d.textures[texture]
	if t == nil {
		return SamplerParams{}, false
	}
	return t.params, true
}

func (d *SoftDevice) TexImage2D(texture TextureHandle, width, height int, pix []byte) error {
	t := d.textures[texture]
	if t == nil {
		return fmt.Errorf("texture %d does not exist", texture)
	}
	if len(pix) != width*height*4 {
		return fmt.Errorf("pixel data holds %d bytes, want %d", len(pix), width*height*4)
	}
	t.width, t.height = width, height
	t.pix = append([]byte(nil), pix...)
	return nil
}

func (d *SoftDevice) DeleteTexture(texture TextureHandle) {
	delete(d.textures, texture)
	for unit, h := range d.units {
		if h == texture {
			delete(d.units, unit)
		}
	}
}

func (d *SoftDevice) CreateParticleBuffer(indices []float32) (BufferHandle, error) {
	if len(indices) == 0 {
		return 0, errors.New("empty particle buffer")
	}
	h := BufferHandle(d.id())
	d.buffers[h] = append([]float32(nil), indices...)
	return h, nil
}

func (d *SoftDevice) DeleteBuffer(buffer BufferHandle) {
	delete(d.buffers, buffer)
}

// LiveTextures and LiveBuffers count GPU objects that have not been deleted.
func (d *SoftDevice) LiveTextures() int { return len(d.textures) }
func (d *SoftDevice) LiveBuffers() int  { return len(d.buffers) }
func (d *SoftDevice) LivePrograms() int { return len(d.programs) }
func (d *SoftDevice) LiveShaders() int  { return len(d.shaders) }

func (d *SoftDevice) DrawableSize() (int, int) { return d.width, d.height }

// SetDrawableSize simulates a surface resize.
func (d *SoftDevice) SetDrawableSize(width, height int) {
	d.width, d.height = width, height
}

func (d *SoftDevice) Viewport(width, height int) {
	d.viewW, d.viewH = width, height
}

func (d *SoftDevice) BeginFrame(clear mgl32.Vec4) error {
	if d.inFrame {
		return errors.New("BeginFrame called twice without EndFrame")
	}
	d.inFrame = true
	w, h := d.viewW, d.viewH
	if w <= 0 || h <= 0 {
		w, h = d.width, d.height
	}
	d.frame = image.NewRGBA(image.Rect(0, 0, w, h))
	c := color.RGBA{R: unorm(clear[0]), G: unorm(clear[1]), B: unorm(clear[2]), A: unorm(clear[3])}
	if c != (color.RGBA{}) {
		for i := 0; i < len(d.frame.Pix); i += 4 {
			d.frame.Pix[i], d.frame.Pix[i+1], d.frame.Pix[i+2], d.frame.Pix[i+3] = c.R, c.G, c.B, c.A
		}
	}
	return nil
}

func (d *SoftDevice) DrawPoints(buffer BufferHandle, count int) {
	call := DrawCall{Buffer: buffer, Count: count}
	if d.current != nil {
		call.Program = d.current.handle
		call.Elapsed, _ = d.UniformValue(UniformElapsedTime.Name())
	}
	d.Draws = append(d.Draws, call)

	if d.frame == nil || d.current == nil {
		return
	}
	indices := d.buffers[buffer]
	if len(indices) < count {
		return
	}
	unit, _ := d.UniformValue(UniformTexture.Name())
	tex := d.textures[d.units[int(unit)]]
	if tex == nil || tex.pix == nil {
		return
	}
	d.rasterize(indices[:count], tex)
}

func (d *SoftDevice) rasterize(indices []float32, tex *softTexture) {
	u := func(uf Uniform) float32 {
		v, _ := d.UniformValue(uf.Name())
		return v
	}
	size := u(UniformParticleSize)
	texW, texH := u(UniformTextureWidth), u(UniformTextureHeight)
	vp := mgl32.Vec2{u(UniformViewportWidth), u(UniformViewportHeight)}
	if size <= 0 || texW <= 0 || texH <= 0 || vp.X() <= 0 || vp.Y() <= 0 {
		return
	}

	grid := particles.Grid{
		Columns:      int(math.Ceil(float64(texW / size))),
		Rows:         int(math.Ceil(float64(texH / size))),
		Count:        len(indices),
		ParticleSize: int(size),
	}
	motion := particles.Motion{
		Grid:        grid,
		Origin:      mgl32.Vec2{u(UniformTextureLeft), u(UniformTextureTop)},
		TextureSize: mgl32.Vec2{texW, texH},
		Duration:    u(UniformAnimationDuration),
	}
	elapsed := u(UniformElapsedTime)

	fb := d.frame.Bounds()
	for _, idx := range indices {
		s := motion.Sample(int(idx), elapsed)
		src := tex.sample(s.UV)
		alpha := float32(src.A) / 255 * s.Alpha
		if alpha <= 0 {
			continue
		}

		ndc := particles.ToNDC(s.Center, vp)
		cx := (ndc.X() + 1) / 2 * float32(fb.Dx())
		cy := (1 - ndc.Y()) / 2 * float32(fb.Dy())
		x0 := int(math.Floor(float64(cx - size/2)))
		y0 := int(math.Floor(float64(cy - size/2)))
		block := image.Rect(x0, y0, x0+int(size), y0+int(size)).Intersect(fb)
		for y := block.Min.Y; y < block.Max.Y; y++ {
			for x := block.Min.X; x < block.Max.X; x++ {
				blend(d.frame, x, y, src, alpha)
			}
		}
	}
}

func (d *SoftDevice) EndFrame() error {
	if !d.inFrame {
		return errors.New("EndFrame called without BeginFrame")
	}
	d.inFrame = false
	d.last = d.frame
	d.frame = nil
	d.Frames++
	if d.OnPresent != nil {
		d.OnPresent(d.last)
	}
	return nil
}

// LastFrame is the most recently presented frame, nil before the first EndFrame.
func (d *SoftDevice) LastFrame() *image.RGBA { return d.last }

func (t *softTexture) sample(uv mgl32.Vec2) color.RGBA {
	// nearest filtering with clamp-to-edge on both axes
	x := clampInt(int(uv.X()*float32(t.width)), 0, t.width-1)
	y := clampInt(int(uv.Y()*float32(t.height)), 0, t.height-1)
	i := (y*t.width + x) * 4
	return color.RGBA{R: t.pix[i], G: t.pix[i+1], B: t.pix[i+2], A: t.pix[i+3]}
}

// blend applies src-alpha, one-minus-src-alpha blending.
func blend(dst *image.RGBA, x, y int, src color.RGBA, alpha float32) {
	i := dst.PixOffset(x, y)
	p := dst.Pix[i : i+4 : i+4]
	inv := 1 - alpha
	p[0] = uint8(float32(src.R)*alpha + float32(p[0])*inv)
	p[1] = uint8(float32(src.G)*alpha + float32(p[1])*inv)
	p[2] = uint8(float32(src.B)*alpha + float32(p[2])*inv)
	p[3] = uint8(255*alpha + float32(p[3])*inv)
}

func unorm(v float32) uint8 {
	return uint8(mgl32.Clamp(v, 0, 1)*255 + 0.5)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
