package gpu

import (
	"github.com/gekko3d/dusteffect/particles"
)

// DustSampling keeps hard pixel-block edges: nearest filtering, no wrap-around at the borders.
var DustSampling = SamplerParams{
	MinFilter: FilterNearest,
	MagFilter: FilterNearest,
	WrapS:     WrapClampToEdge,
	WrapT:     WrapClampToEdge,
}

type Texture struct {
	Handle TextureHandle
	Width  int
	Height int
}

// TextureUploader turns captured images into textures on TextureUnit.
type TextureUploader struct {
	dev Device
}

func NewTextureUploader(dev Device) *TextureUploader {
	return &TextureUploader{dev: dev}
}

// Upload allocates a fresh texture for img and leaves it bound to TextureUnit. The pixel buffer
// is released after a successful upload.
func (u *TextureUploader) Upload(img *particles.CapturedImage) (Texture, error) {
	if img.Width <= 0 || img.Height <= 0 || len(img.Pix) != img.ExpectedLen() {
		return Texture{}, &UploadError{Width: img.Width, Height: img.Height, Len: len(img.Pix)}
	}

	handle, err := u.dev.CreateTexture()
	if err != nil {
		return Texture{}, &UploadError{Width: img.Width, Height: img.Height, Len: len(img.Pix), Err: err}
	}

	u.dev.BindTexture(TextureUnit, handle)
	u.dev.TexParameters(handle, DustSampling)
	if err := u.dev.TexImage2D(handle, img.Width, img.Height, img.Pix); err != nil {
		u.dev.DeleteTexture(handle)
		return Texture{}, &UploadError{Width: img.Width, Height: img.Height, Len: len(img.Pix), Err: err}
	}

	tex := Texture{Handle: handle, Width: img.Width, Height: img.Height}
	img.Release()
	return tex, nil
}

func (u *TextureUploader) Release(tex Texture) {
	if tex.Handle == 0 {
		return
	}
	u.dev.DeleteTexture(tex.Handle)
}
