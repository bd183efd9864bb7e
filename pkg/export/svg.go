package export

import (
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"

	cerrors "github.com/menta2k/circle-crop/errors"
	"github.com/menta2k/circle-crop/pkg/media"
	"github.com/menta2k/circle-crop/pkg/transform"
)

// SVGImage exports a vector wrapper around the full media frame: the
// original pixels ride along as an embedded PNG and the framing is
// expressed as an SVG transform chain under a circular clip path, so the
// crop stays editable in vector tools.
func (e *Exporter) SVGImage(ctx context.Context, h media.Handle, st transform.State) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, cerrors.Wrap(cerrors.CategoryRender, "export.SVGImage", err)
	}

	frame, err := h.Frame()
	if err != nil {
		return nil, cerrors.Wrap(cerrors.CategoryRender, "export.SVGImage", err)
	}
	data, err := encodePNG(frame)
	if err != nil {
		return nil, err
	}

	w, ht := h.IntrinsicSize()
	var b strings.Builder
	e.writeSVGOpen(&b)
	fmt.Fprintf(&b, `<g clip-path="url(#crop-circle)"><image width="%d" height="%d" transform="%s" href="data:image/png;base64,%s"/></g>`,
		w, ht, e.svgTransform(st, w, ht), base64.StdEncoding.EncodeToString(data))
	b.WriteString(`</svg>`)

	return e.newArtifact([]byte(b.String()), "svg", st, false), nil
}

// SVGVideo exports a vector wrapper that references the video source
// instead of re-encoding it: a foreignObject hosts a muted looping video
// element whose CSS transform mirrors the same framing chain.
func (e *Exporter) SVGVideo(h media.Handle, st transform.State) (*Artifact, error) {
	src := h.Source()
	if src == "" {
		return nil, cerrors.New(cerrors.CategoryValidation, "export.SVGVideo", cerrors.ErrNoVideoSource)
	}

	edge := e.cfg.Export.Edge
	w, ht := h.IntrinsicSize()
	var b strings.Builder
	e.writeSVGOpen(&b)
	fmt.Fprintf(&b, `<g clip-path="url(#crop-circle)"><foreignObject width="%d" height="%d">`, edge, edge)
	fmt.Fprintf(&b, `<video xmlns="http://www.w3.org/1999/xhtml" src="%s" width="%d" height="%d" autoplay="autoplay" muted="muted" loop="loop" playsinline="playsinline" style="transform-origin:0 0;transform:%s"></video>`,
		html.EscapeString(src), w, ht, e.cssTransform(st, w, ht))
	b.WriteString(`</foreignObject></g></svg>`)

	return e.newArtifact([]byte(b.String()), "svg", st, true), nil
}

// writeSVGOpen emits the document root and the circular clip definition
// shared by both SVG variants.
func (e *Exporter) writeSVGOpen(b *strings.Builder) {
	edge := e.cfg.Export.Edge
	half := fnum(float64(edge) / 2)
	fmt.Fprintf(b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`, edge, edge, edge, edge)
	fmt.Fprintf(b, `<defs><clipPath id="crop-circle"><circle cx="%s" cy="%s" r="%s"/></clipPath></defs>`, half, half, half)
}

// svgTransform renders the placement chain in SVG syntax: center the media,
// rotate, scale, then shift by its half extent. SVG applies the list left
// to right, matching the raster placement matrix.
func (e *Exporter) svgTransform(st transform.State, w, h int) string {
	s := e.scaleRatio()
	center := float64(e.cfg.Export.Edge) / 2
	return fmt.Sprintf("translate(%s %s) rotate(%s) scale(%s) translate(%s %s)",
		fnum(center+st.PanX*s), fnum(center+st.PanY*s),
		fnum(st.RotationDegrees),
		fnum(st.Zoom*s),
		fnum(-float64(w)/2), fnum(-float64(h)/2))
}

// cssTransform is the same chain in CSS syntax for the foreignObject video.
func (e *Exporter) cssTransform(st transform.State, w, h int) string {
	s := e.scaleRatio()
	center := float64(e.cfg.Export.Edge) / 2
	return fmt.Sprintf("translate(%spx, %spx) rotate(%sdeg) scale(%s) translate(%spx, %spx)",
		fnum(center+st.PanX*s), fnum(center+st.PanY*s),
		fnum(st.RotationDegrees),
		fnum(st.Zoom*s),
		fnum(-float64(w)/2), fnum(-float64(h)/2))
}

// fnum formats a coordinate compactly, trimming float noise to four
// decimals.
func fnum(v float64) string {
	v = math.Round(v*10000) / 10000
	return strconv.FormatFloat(v, 'f', -1, 64)
}
