package compositor

import (
	"image"
	"image/color"
	"image/draw"

	cerrors "github.com/menta2k/circle-crop/errors"
)

// Canvas is a square pixel buffer the compositor renders into. Pixels use
// straight (non-premultiplied) alpha so erased regions stay truly
// transparent when encoded.
type Canvas struct {
	edge int
	img  *image.NRGBA
}

// NewCanvas allocates a square canvas. The edge must be positive; a
// non-positive edge means the drawing surface cannot be created and yields
// a render-category error.
func NewCanvas(edge int) (*Canvas, error) {
	if edge <= 0 {
		return nil, cerrors.Newf(cerrors.CategoryRender, "compositor.NewCanvas",
			"canvas edge must be positive, got %d", edge)
	}
	return &Canvas{
		edge: edge,
		img:  image.NewNRGBA(image.Rect(0, 0, edge, edge)),
	}, nil
}

// Edge returns the canvas side length in pixels.
func (c *Canvas) Edge() int {
	return c.edge
}

// Image returns the backing buffer. The compositor mutates it in place on
// every render; callers that need a stable copy must clone it.
func (c *Canvas) Image() *image.NRGBA {
	return c.img
}

// Clone returns an independent copy of the current canvas pixels.
func (c *Canvas) Clone() *image.NRGBA {
	out := image.NewNRGBA(c.img.Bounds())
	copy(out.Pix, c.img.Pix)
	return out
}

// Clear resets every pixel to fully transparent.
func (c *Canvas) Clear() {
	for i := range c.img.Pix {
		c.img.Pix[i] = 0
	}
}

// FillUniform floods the canvas with a single color before drawing.
func (c *Canvas) FillUniform(bg color.Color) {
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
}
