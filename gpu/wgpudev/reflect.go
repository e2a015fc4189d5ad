package wgpudev

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/gekko3d/dusteffect/gpu"
)

// Layout is what the device needs to know about a module's group 0 resources. Scalar uniforms
// live in one uniform buffer struct made only of f32 fields; the captured image is a
// texture_2d with a separate sampler binding.
type Layout struct {
	UniformBinding int
	Fields         []gpu.UniformInfo

	TextureBinding int
	TextureName    string
	SamplerBinding int
}

func emptyLayout() Layout {
	return Layout{UniformBinding: -1, TextureBinding: -1, SamplerBinding: -1}
}

// BufferSize is the uniform buffer size, padded to the 16 byte struct alignment.
func (l Layout) BufferSize() uint64 {
	n := uint64(len(l.Fields)) * 4
	if n == 0 {
		return 0
	}
	return (n + 15) &^ 15
}

// SamplerLocation is the pseudo location the texture uniform answers to.
func (l Layout) SamplerLocation() gpu.UniformLocation {
	return gpu.UniformLocation(len(l.Fields))
}

func (l Layout) Uniforms() []gpu.UniformInfo {
	out := append([]gpu.UniformInfo(nil), l.Fields...)
	if l.TextureName != "" {
		out = append(out, gpu.UniformInfo{Name: l.TextureName, Type: gpu.UniformSampler2D})
	}
	return out
}

// Location finds a uniform by its GL name.
func (l Layout) Location(name string) gpu.UniformLocation {
	for i, f := range l.Fields {
		if f.Name == name {
			return gpu.UniformLocation(i)
		}
	}
	if l.TextureName != "" && name == l.TextureName {
		return l.SamplerLocation()
	}
	return -1
}

var (
	wgslStructRe  = regexp.MustCompile(`(?s)struct\s+(\w+)\s*\{(.*?)\}`)
	wgslFieldRe   = regexp.MustCompile(`^\s*(?:@\w+(?:\([^)]*\))?\s*)*(\w+)\s*:\s*([\w<>]+)\s*$`)
	wgslBindingRe = regexp.MustCompile(`@group\(\s*0\s*\)\s*@binding\(\s*(\d+)\s*\)\s*var(<\s*uniform\s*>)?\s+(\w+)\s*:\s*([\w<>]+)\s*;`)
	wgslStageRe   = regexp.MustCompile(`@(vertex|fragment)\b`)
)

// Reflect reads the group 0 layout of a WGSL module.
func Reflect(source string) (Layout, error) {
	layout := emptyLayout()

	structs := map[string]string{}
	for _, m := range wgslStructRe.FindAllStringSubmatch(source, -1) {
		structs[m[1]] = m[2]
	}

	for _, m := range wgslBindingRe.FindAllStringSubmatch(source, -1) {
		binding, _ := strconv.Atoi(m[1])
		isUniform, name, typ := m[2] != "", m[3], m[4]

		switch {
		case isUniform:
			body, ok := structs[typ]
			if !ok {
				return layout, fmt.Errorf("uniform %s: struct %s not declared", name, typ)
			}
			fields, err := reflectFields(body)
			if err != nil {
				return layout, fmt.Errorf("uniform %s: %w", name, err)
			}
			layout.UniformBinding = binding
			layout.Fields = fields
		case strings.HasPrefix(typ, "texture_2d"):
			layout.TextureBinding = binding
			layout.TextureName = GLName(name)
		case typ == "sampler":
			layout.SamplerBinding = binding
		default:
			return layout, fmt.Errorf("binding %d: unsupported resource type %s", binding, typ)
		}
	}
	return layout, nil
}

func reflectFields(body string) ([]gpu.UniformInfo, error) {
	var fields []gpu.UniformInfo
	for _, decl := range strings.Split(body, ",") {
		if strings.TrimSpace(decl) == "" {
			continue
		}
		m := wgslFieldRe.FindStringSubmatch(decl)
		if m == nil {
			return nil, fmt.Errorf("cannot parse field %q", strings.TrimSpace(decl))
		}
		if m[2] != "f32" {
			return nil, fmt.Errorf("field %s is %s, only f32 is supported", m[1], m[2])
		}
		fields = append(fields, gpu.UniformInfo{Name: GLName(m[1]), Type: gpu.UniformFloat})
	}
	return fields, nil
}

// stages lists the entry point stages a module declares.
func stages(source string) map[string]bool {
	out := map[string]bool{}
	for _, m := range wgslStageRe.FindAllStringSubmatch(source, -1) {
		out[m[1]] = true
	}
	return out
}

// GLName maps a WGSL identifier to the GLSL uniform spelling: elapsed_time and u_elapsed_time
// both become u_ElapsedTime.
func GLName(ident string) string {
	ident = strings.TrimPrefix(ident, "u_")
	var b strings.Builder
	b.WriteString("u_")
	upper := true
	for _, r := range ident {
		if r == '_' {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// merge combines the layouts of the vertex and fragment modules of one pipeline.
func merge(a, b Layout) (Layout, error) {
	out := a
	if b.UniformBinding >= 0 {
		if a.UniformBinding >= 0 && (a.UniformBinding != b.UniformBinding || len(a.Fields) != len(b.Fields)) {
			return out, fmt.Errorf("stages disagree on the uniform block")
		}
		out.UniformBinding, out.Fields = b.UniformBinding, b.Fields
	}
	if b.TextureBinding >= 0 {
		if a.TextureBinding >= 0 && a.TextureBinding != b.TextureBinding {
			return out, fmt.Errorf("stages disagree on the texture binding")
		}
		out.TextureBinding, out.TextureName = b.TextureBinding, b.TextureName
	}
	if b.SamplerBinding >= 0 {
		out.SamplerBinding = b.SamplerBinding
	}
	return out, nil
}
