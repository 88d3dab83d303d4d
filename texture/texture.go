// Package texture decodes image assets and uploads them as GPU textures.
package texture

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"

	"github.com/richinsley/glgrid/graphics"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// DecodeError reports an asset that could not be decoded as an image.
type DecodeError struct {
	Name string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode texture %q: %v", e.Name, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Texture is a GPU-resident 2D image.
type Texture struct {
	Handle uint32
	Width  int
	Height int
}

// Release deletes the texture object.
func (t *Texture) Release(d graphics.Driver) {
	d.DeleteTexture(t.Handle)
}

// Loader reads images from an asset tree and uploads them.
type Loader struct {
	driver graphics.Driver
	fsys   fs.FS
}

// NewLoader returns a loader reading from fsys.
func NewLoader(d graphics.Driver, fsys fs.FS) *Loader {
	return &Loader{driver: d, fsys: fsys}
}

// LoadTexture decodes textures/<name> and uploads it with nearest-neighbor
// filtering for both minification and magnification.
func (l *Loader) LoadTexture(name string) (*Texture, error) {
	f, err := l.fsys.Open("textures/" + name)
	if err != nil {
		return nil, fmt.Errorf("failed to open texture %q: %w", name, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, &DecodeError{Name: name, Err: err}
	}
	return Upload(l.driver, img)
}

// Upload converts img to RGBA and uploads it as a new nearest-filtered texture.
func Upload(d graphics.Driver, img image.Image) (*Texture, error) {
	if img == nil {
		return nil, fmt.Errorf("input image is nil")
	}
	rgba := toRGBA(img)
	size := rgba.Rect.Size()
	if size.X == 0 || size.Y == 0 {
		return nil, fmt.Errorf("input image is empty (%dx%d)", size.X, size.Y)
	}

	handle := d.CreateTexture(int32(size.X), int32(size.Y), rgba.Pix, graphics.Nearest, graphics.Nearest)
	return &Texture{Handle: handle, Width: size.X, Height: size.Y}, nil
}

// toRGBA returns img as a tightly packed RGBA image with its origin at 0,0.
func toRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) && rgba.Stride == 4*b.Dx() {
		return rgba
	}
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}
