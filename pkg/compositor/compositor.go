// Package compositor renders the layered circular crop preview and the
// flattened crop used by exports. A render walks a fixed layer stack over a
// square canvas: a blurred and darkened copy of the media fills the
// backdrop, a translucent scrim mutes it, a circular aperture is erased to
// full transparency, the media is drawn again sharp and clipped to that
// aperture, and a glossy rim ring finishes the edge.
//
// All geometry derives from the canvas edge, so the same transform state
// reproduces identical framing at any resolution.
package compositor

import (
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"

	cerrors "github.com/menta2k/circle-crop/errors"
	"github.com/menta2k/circle-crop/pkg/media"
	"github.com/menta2k/circle-crop/pkg/transform"
)

const (
	// blurSigma is the gaussian sigma for the backdrop at the reference
	// preview edge. It scales linearly with the canvas edge.
	blurSigma = 20.0
	// backdropDarken multiplies backdrop color channels toward black.
	backdropDarken = 0.4
	// scrimAlpha is the coverage of the black veil over the backdrop.
	scrimAlpha = 128
	// rimStrokeWidth is the ring thickness at the reference preview edge.
	rimStrokeWidth = 4.0
	rimTopAlpha    = 0.6
	rimBottomAlpha = 0.1
)

// Compositor renders media through the layer stack. It is safe for
// concurrent use; mask and rim rasters are cached per geometry.
type Compositor struct {
	previewEdge int

	mu    sync.Mutex
	masks map[layerKey]*image.Alpha
	rims  map[layerKey]*image.RGBA
}

// New creates a compositor whose transform state is interpreted relative to
// previewEdge, the side length of the interactive preview canvas.
func New(previewEdge int) *Compositor {
	return &Compositor{
		previewEdge: previewEdge,
		masks:       make(map[layerKey]*image.Alpha),
		rims:        make(map[layerKey]*image.RGBA),
	}
}

// PreviewEdge returns the reference canvas edge pan and zoom are measured
// against.
func (c *Compositor) PreviewEdge() int {
	return c.previewEdge
}

// RenderFrame draws the full layer stack for the media's current frame.
func (c *Compositor) RenderFrame(cv *Canvas, h media.Handle, st transform.State) error {
	frame, err := h.Frame()
	if err != nil {
		return cerrors.Wrap(cerrors.CategoryRender, "compositor.RenderFrame", err)
	}
	return c.RenderFrameImage(cv, frame, st)
}

// RenderFrameImage draws the full layer stack for one already-decoded frame.
func (c *Compositor) RenderFrameImage(cv *Canvas, frame image.Image, st transform.State) error {
	if cv == nil {
		return cerrors.Newf(cerrors.CategoryRender, "compositor.RenderFrameImage", "nil canvas")
	}

	edge := cv.edge
	ratio := float64(edge) / float64(c.previewEdge)
	radius := transform.MaskFraction / 2 * float64(edge)
	center := float64(edge) / 2
	place := placementFor(frame, st, center, center, ratio)

	mask, err := c.mask(edge, radius)
	if err != nil {
		return err
	}
	rim, err := c.rim(edge, radius, rimStrokeWidth*ratio)
	if err != nil {
		return err
	}

	cv.Clear()

	// Backdrop: the media blurred and pushed toward black, same placement
	// as the sharp pass so both stay registered.
	backdrop := image.NewNRGBA(cv.img.Bounds())
	drawPlaced(backdrop, frame, place, nil)
	soft := imaging.Blur(backdrop, blurSigma*ratio)
	dark := imaging.AdjustFunc(soft, darkenPixel)
	draw.Draw(cv.img, cv.img.Bounds(), dark, image.Point{}, draw.Over)

	// Scrim mutes everything outside the aperture.
	draw.Draw(cv.img, cv.img.Bounds(), image.NewUniform(color.NRGBA{A: scrimAlpha}), image.Point{}, draw.Over)

	// Punch the aperture down to transparency, then refill it with the
	// sharp media clipped to the same coverage map.
	eraseMasked(cv.img, mask)
	drawPlaced(cv.img, frame, place, mask)

	draw.Draw(cv.img, cv.img.Bounds(), rim, image.Point{}, draw.Over)
	return nil
}

// RenderCrop draws only the clipped circle at export geometry: the circle
// spans the whole canvas and the transform is rescaled so the export
// reproduces the preview's framing. A nil background keeps the outside of
// the circle transparent.
func (c *Compositor) RenderCrop(cv *Canvas, h media.Handle, st transform.State, bg color.Color) error {
	frame, err := h.Frame()
	if err != nil {
		return cerrors.Wrap(cerrors.CategoryRender, "compositor.RenderCrop", err)
	}
	return c.RenderCropImage(cv, frame, st, bg)
}

// RenderCropImage is the single-frame form of RenderCrop, used by animated
// exports that sample the media timeline themselves.
func (c *Compositor) RenderCropImage(cv *Canvas, frame image.Image, st transform.State, bg color.Color) error {
	if cv == nil {
		return cerrors.Newf(cerrors.CategoryRender, "compositor.RenderCropImage", "nil canvas")
	}

	edge := cv.edge
	// The preview circle covers MaskFraction of its canvas; the export
	// circle covers the full edge, so placement scales by the ratio of the
	// two circle diameters.
	ratio := float64(edge) / (float64(c.previewEdge) * transform.MaskFraction)
	radius := float64(edge) / 2
	center := float64(edge) / 2

	mask, err := c.mask(edge, radius)
	if err != nil {
		return err
	}

	if bg == nil {
		cv.Clear()
	} else {
		cv.FillUniform(bg)
	}
	place := placementFor(frame, st, center, center, ratio)
	drawPlaced(cv.img, frame, place, mask)
	return nil
}

// placementFor builds the media placement matrix from the frame's own
// bounds so callers never pass stale intrinsic sizes.
func placementFor(frame image.Image, st transform.State, cx, cy, ratio float64) transform.Affine {
	b := frame.Bounds()
	m := st.Placement(b.Dx(), b.Dy(), cx, cy, ratio)
	if b.Min != (image.Point{}) {
		m = m.Mul(transform.Translation(float64(-b.Min.X), float64(-b.Min.Y)))
	}
	return m
}

// drawPlaced maps src through the placement matrix into dst with bilinear
// sampling. A non-nil clip restricts coverage to the mask's alpha.
func drawPlaced(dst *image.NRGBA, src image.Image, m transform.Affine, clip *image.Alpha) {
	opts := &xdraw.Options{}
	if clip != nil {
		opts.DstMask = clip
	}
	xdraw.BiLinear.Transform(dst, m.Aff3(), src, src.Bounds(), xdraw.Over, opts)
}

// eraseMasked is a destination-out pass: pixel alpha is cut by the mask's
// coverage, leaving a transparent hole with anti-aliased edges.
func eraseMasked(dst *image.NRGBA, mask *image.Alpha) {
	b := dst.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		mo := mask.PixOffset(b.Min.X, y)
		po := dst.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x++ {
			if cover := mask.Pix[mo]; cover != 0 {
				a := dst.Pix[po+3]
				dst.Pix[po+3] = uint8(uint32(a) * uint32(255-cover) / 255)
			}
			mo++
			po += 4
		}
	}
}

// darkenPixel scales color channels toward black, keeping alpha.
func darkenPixel(p color.NRGBA) color.NRGBA {
	p.R = uint8(float64(p.R) * backdropDarken)
	p.G = uint8(float64(p.G) * backdropDarken)
	p.B = uint8(float64(p.B) * backdropDarken)
	return p
}
