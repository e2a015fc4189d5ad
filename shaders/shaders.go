package shaders

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
)

//go:embed particles_vert.glsl
var ParticlesVertGLSL string

//go:embed particles_frag.glsl
var ParticlesFragGLSL string

//go:embed particles_vert.wgsl
var ParticlesVertWGSL string

//go:embed particles_frag.wgsl
var ParticlesFragWGSL string

// Dialect selects the shading language a device consumes.
type Dialect int

const (
	GLSL Dialect = iota
	WGSL
)

func (d Dialect) String() string {
	switch d {
	case GLSL:
		return "glsl"
	case WGSL:
		return "wgsl"
	default:
		return fmt.Sprintf("Dialect(%d)", int(d))
	}
}

// Sources is the vertex and fragment text of the particle program.
type Sources struct {
	Vertex   string
	Fragment string
}

// FileNames are the asset names of the particle shaders in the given dialect.
func FileNames(d Dialect) (vertex, fragment string) {
	ext := d.String()
	return "particles_vert." + ext, "particles_frag." + ext
}

// Embedded returns the shaders compiled into the binary.
func Embedded(d Dialect) Sources {
	if d == WGSL {
		return Sources{Vertex: ParticlesVertWGSL, Fragment: ParticlesFragWGSL}
	}
	return Sources{Vertex: ParticlesVertGLSL, Fragment: ParticlesFragGLSL}
}

// LoadFiles reads the particle shaders from dir.
func LoadFiles(dir string, d Dialect) (Sources, error) {
	vName, fName := FileNames(d)
	vertex, err := os.ReadFile(filepath.Join(dir, vName))
	if err != nil {
		return Sources{}, fmt.Errorf("read vertex shader: %w", err)
	}
	fragment, err := os.ReadFile(filepath.Join(dir, fName))
	if err != nil {
		return Sources{}, fmt.Errorf("read fragment shader: %w", err)
	}
	return Sources{Vertex: string(vertex), Fragment: string(fragment)}, nil
}

// Fetch downloads the particle shaders from baseURL, e.g. http://localhost:5500/shaders/.
func Fetch(ctx context.Context, client *http.Client, baseURL string, d Dialect) (Sources, error) {
	if client == nil {
		client = http.DefaultClient
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return Sources{}, fmt.Errorf("parse shader base url: %w", err)
	}

	vName, fName := FileNames(d)
	vertex, err := fetchText(ctx, client, base, vName)
	if err != nil {
		return Sources{}, err
	}
	fragment, err := fetchText(ctx, client, base, fName)
	if err != nil {
		return Sources{}, err
	}
	return Sources{Vertex: vertex, Fragment: fragment}, nil
}

func fetchText(ctx context.Context, client *http.Client, base *url.URL, name string) (string, error) {
	u := *base
	u.Path = path.Join(u.Path, name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", name, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: unexpected status %s", name, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", name, err)
	}
	return string(body), nil
}
