// Package capture provides capture collaborators for the dust effect: a registry of element
// images with their on-screen bounds, and a card rasterizer for the demo host.
package capture

import (
	"context"
	"fmt"
	"image"
	"math"
	"slices"
	"sync"

	"github.com/disintegration/imaging"
	dust "github.com/gekko3d/dusteffect"
	"github.com/gekko3d/dusteffect/particles"
)

// Element is one entry of the host layout.
type Element struct {
	ID     dust.ElementID
	Bounds particles.Rect
	Image  image.Image
}

// ImageCapturer serves pre-rendered element images. It is also the Remover of its layout:
// removed elements disappear from Elements and can no longer be captured.
type ImageCapturer struct {
	mu       sync.Mutex
	order    []dust.ElementID
	elements map[dust.ElementID]Element

	// Scale maps layout coordinates to drawable pixels, e.g. 2 on a HiDPI surface. Zero means 1.
	Scale float64
	// Filter resamples images whose size differs from the scaled bounds.
	Filter imaging.ResampleFilter
}

func NewImageCapturer(scale float64) *ImageCapturer {
	return &ImageCapturer{
		elements: make(map[dust.ElementID]Element),
		Scale:    scale,
		Filter:   imaging.NearestNeighbor,
	}
}

// Add places img at bounds. Empty bounds take the image size.
func (c *ImageCapturer) Add(id dust.ElementID, img image.Image, bounds particles.Rect) {
	if bounds.Width == 0 && bounds.Height == 0 {
		bounds.Width, bounds.Height = img.Bounds().Dx(), img.Bounds().Dy()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.elements[id]; !ok {
		c.order = append(c.order, id)
	}
	c.elements[id] = Element{ID: id, Bounds: bounds, Image: img}
}

// AddFile loads an element image from disk; any format imaging can decode works.
func (c *ImageCapturer) AddFile(id dust.ElementID, path string, bounds particles.Rect) error {
	img, err := imaging.Open(path)
	if err != nil {
		return fmt.Errorf("load element %s: %w", id, err)
	}
	c.Add(id, img, bounds)
	return nil
}

func (c *ImageCapturer) Remove(id dust.ElementID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.elements, id)
	c.order = slices.DeleteFunc(c.order, func(o dust.ElementID) bool { return o == id })
}

// Elements lists the remaining elements in insertion order.
func (c *ImageCapturer) Elements() []Element {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Element, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.elements[id])
	}
	return out
}

// Hit returns the topmost element containing the layout point x, y.
func (c *ImageCapturer) Hit(x, y float64) (dust.ElementID, bool) {
	elements := c.Elements()
	for i := len(elements) - 1; i >= 0; i-- {
		b := elements[i].Bounds
		if x >= float64(b.Left) && x < float64(b.Left+b.Width) && y >= float64(b.Top) && y < float64(b.Top+b.Height) {
			return elements[i].ID, true
		}
	}
	return "", false
}

func (c *ImageCapturer) scale() float64 {
	if c.Scale <= 0 {
		return 1
	}
	return c.Scale
}

// Capture renders the element at drawable resolution.
func (c *ImageCapturer) Capture(ctx context.Context, id dust.ElementID) (particles.CapturedImage, error) {
	if err := ctx.Err(); err != nil {
		return particles.CapturedImage{}, err
	}
	c.mu.Lock()
	el, ok := c.elements[id]
	c.mu.Unlock()
	if !ok {
		return particles.CapturedImage{}, fmt.Errorf("element %s is not on screen", id)
	}

	s := c.scale()
	bounds := particles.Rect{
		Left:   scaled(el.Bounds.Left, s),
		Top:    scaled(el.Bounds.Top, s),
		Width:  scaled(el.Bounds.Width, s),
		Height: scaled(el.Bounds.Height, s),
	}
	if bounds.Empty() || el.Image == nil {
		return particles.CapturedImage{Bounds: bounds}, nil
	}

	img := el.Image
	if src := img.Bounds(); src.Dx() != bounds.Width || src.Dy() != bounds.Height {
		img = imaging.Resize(img, bounds.Width, bounds.Height, c.Filter)
	}
	return particles.FromImage(img, bounds), nil
}

func scaled(v int, s float64) int {
	return int(math.Round(float64(v) * s))
}
