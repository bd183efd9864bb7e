// Package export turns the current media and framing into downloadable
// artifacts: raster stills (PNG, JPEG, WebP), vector wrappers (SVG) and an
// animated motion-JPEG capture for videos. Every artifact embeds the
// transform snapshot it was rendered with so callers can reproduce or audit
// the framing later.
package export

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"time"

	"github.com/chai2010/webp"

	cerrors "github.com/menta2k/circle-crop/errors"
	"github.com/menta2k/circle-crop/internal/config"
	"github.com/menta2k/circle-crop/internal/utils"
	"github.com/menta2k/circle-crop/pkg/compositor"
	"github.com/menta2k/circle-crop/pkg/media"
	"github.com/menta2k/circle-crop/pkg/transform"
)

// Exporter renders crops at export geometry and encodes them. It is
// stateless apart from its configuration; one exporter serves a whole
// session.
type Exporter struct {
	cfg  *config.Config
	comp *compositor.Compositor
}

// New creates an exporter that renders through comp using cfg's export
// dimensions and qualities.
func New(cfg *config.Config, comp *compositor.Compositor) *Exporter {
	return &Exporter{cfg: cfg, comp: comp}
}

// Finalize produces the session's primary artifact: a PNG still of the
// current frame. Video media keeps IsVideo set so callers can offer the
// animated capture as a follow-up.
func (e *Exporter) Finalize(ctx context.Context, h media.Handle, st transform.State) (*Artifact, error) {
	a, err := e.PNG(ctx, h, st)
	if err != nil {
		return nil, err
	}
	_, a.IsVideo = h.(media.FrameSource)
	return a, nil
}

// PNG exports the crop with everything outside the circle fully
// transparent.
func (e *Exporter) PNG(ctx context.Context, h media.Handle, st transform.State) (*Artifact, error) {
	img, err := e.renderStill(ctx, h, st, nil)
	if err != nil {
		return nil, err
	}
	data, err := encodePNG(img)
	if err != nil {
		return nil, err
	}
	return e.newArtifact(data, "png", st, false), nil
}

// JPEG exports the crop on an opaque white matte, since the container has
// no alpha channel.
func (e *Exporter) JPEG(ctx context.Context, h media.Handle, st transform.State) (*Artifact, error) {
	img, err := e.renderStill(ctx, h, st, color.White)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: e.cfg.Export.JPEGQuality}); err != nil {
		return nil, cerrors.Wrap(cerrors.CategoryRender, "export.JPEG", err)
	}
	return e.newArtifact(buf.Bytes(), "jpg", st, false), nil
}

// WebP exports the crop with alpha preserved, lossy at the configured
// quality.
func (e *Exporter) WebP(ctx context.Context, h media.Handle, st transform.State) (*Artifact, error) {
	img, err := e.renderStill(ctx, h, st, nil)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	opts := &webp.Options{Quality: float32(e.cfg.Export.WebPQuality)}
	if err := webp.Encode(&buf, img, opts); err != nil {
		return nil, cerrors.Wrap(cerrors.CategoryRender, "export.WebP", err)
	}
	return e.newArtifact(buf.Bytes(), "webp", st, false), nil
}

// renderStill draws the clipped circle at export geometry over the given
// background; a nil background leaves the outside transparent.
func (e *Exporter) renderStill(ctx context.Context, h media.Handle, st transform.State, bg color.Color) (*image.NRGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, cerrors.Wrap(cerrors.CategoryRender, "export.renderStill", err)
	}
	cv, err := compositor.NewCanvas(e.cfg.Export.Edge)
	if err != nil {
		return nil, err
	}
	if err := e.comp.RenderCrop(cv, h, st, bg); err != nil {
		return nil, err
	}
	return cv.Image(), nil
}

// scaleRatio converts preview-space pan and zoom to export space: the
// preview circle spans MaskFraction of its canvas while the export circle
// spans the full edge.
func (e *Exporter) scaleRatio() float64 {
	return float64(e.cfg.Export.Edge) / (float64(e.comp.PreviewEdge()) * transform.MaskFraction)
}

func (e *Exporter) newArtifact(data []byte, format string, st transform.State, isVideo bool) *Artifact {
	name := utils.ArtifactFilename(e.cfg.Export.Prefix, format, time.Now())
	return NewArtifact(data, format, name, st, isVideo)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, cerrors.Wrap(cerrors.CategoryRender, "export.encodePNG", err)
	}
	return buf.Bytes(), nil
}
