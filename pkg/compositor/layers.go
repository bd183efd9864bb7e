package compositor

import (
	"image"

	"github.com/gogpu/gg"

	cerrors "github.com/menta2k/circle-crop/errors"
)

// layerKey identifies a cached mask or rim by its geometry. Width is zero
// for filled masks.
type layerKey struct {
	edge   int
	radius float64
	width  float64
}

// mask returns an anti-aliased alpha coverage map of the centered circle,
// rendering and caching it on first use for each geometry.
func (c *Compositor) mask(edge int, radius float64) (*image.Alpha, error) {
	key := layerKey{edge: edge, radius: radius}

	c.mu.Lock()
	cached, ok := c.masks[key]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	m, err := renderCircleMask(edge, radius)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.masks[key] = m
	c.mu.Unlock()
	return m, nil
}

// rim returns the glossy ring overlay for the given geometry, cached per
// edge the same way as masks.
func (c *Compositor) rim(edge int, radius, width float64) (*image.RGBA, error) {
	key := layerKey{edge: edge, radius: radius, width: width}

	c.mu.Lock()
	cached, ok := c.rims[key]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	r, err := renderRim(edge, radius, width)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.rims[key] = r
	c.mu.Unlock()
	return r, nil
}

// renderCircleMask rasterizes an opaque circle and keeps only its alpha
// channel. The anti-aliased boundary gives smooth clip edges when the mask
// is applied during media draws and erases.
func renderCircleMask(edge int, radius float64) (*image.Alpha, error) {
	dc := gg.NewContext(edge, edge)
	defer dc.Close()

	center := float64(edge) / 2
	dc.SetRGBA(1, 1, 1, 1)
	dc.DrawCircle(center, center, radius)
	if err := dc.Fill(); err != nil {
		return nil, cerrors.Wrap(cerrors.CategoryRender, "compositor.renderCircleMask", err)
	}

	rgba := dc.Image().(*image.RGBA)
	mask := image.NewAlpha(image.Rect(0, 0, edge, edge))
	for i := range mask.Pix {
		mask.Pix[i] = rgba.Pix[i*4+3]
	}
	return mask, nil
}

// renderRim rasterizes the glossy ring: a stroked circle whose brush runs a
// vertical white gradient from strong to faint alpha, giving the crop a
// lens-like highlight.
func renderRim(edge int, radius, width float64) (*image.RGBA, error) {
	dc := gg.NewContext(edge, edge)
	defer dc.Close()

	center := float64(edge) / 2
	grad := gg.NewLinearGradientBrush(center, center-radius, center, center+radius).
		AddColorStop(0, gg.RGBA{R: 1, G: 1, B: 1, A: rimTopAlpha}).
		AddColorStop(1, gg.RGBA{R: 1, G: 1, B: 1, A: rimBottomAlpha})
	dc.SetStrokeBrush(grad)
	dc.SetLineWidth(width)
	dc.DrawCircle(center, center, radius)
	if err := dc.Stroke(); err != nil {
		return nil, cerrors.Wrap(cerrors.CategoryRender, "compositor.renderRim", err)
	}

	return dc.Image().(*image.RGBA), nil
}
