// Package circlecrop provides interactive circular cropping for photos and
// videos.
//
// A session loads one media item, frames it inside a circular mask with
// pan, zoom and rotation, renders a layered live preview, and exports the
// finished crop as PNG, JPEG, WebP, SVG or an animated motion-JPEG capture.
// An optional multimodal backend can replace an exported image's background
// with transparency.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//
//		"github.com/menta2k/circle-crop"
//	)
//
//	func main() {
//		session := circlecrop.New()
//		defer session.Close()
//
//		// Load a photo and frame it
//		if err := session.LoadImageFile("portrait.jpg"); err != nil {
//			log.Fatal(err)
//		}
//		ctrl := session.Controller()
//		ctrl.PointerDown(400, 400)
//		ctrl.PointerMove(430, 445)
//		ctrl.PointerUp()
//		ctrl.SetZoom(1.8)
//
//		// Export the circular crop
//		artifact, err := session.ExportPNG(context.Background())
//		if err != nil {
//			log.Fatal(err)
//		}
//		path, err := session.SaveArtifact("out")
//		if err != nil {
//			log.Fatal(err)
//		}
//		fmt.Printf("saved %s (%d bytes)\n", path, artifact.Size())
//	}
//
// The package consists of five main components:
//
// 1. Transform (pkg/transform): the pan/zoom/rotation state and its placement math
// 2. Media (pkg/media): image and video decoding behind one frame interface
// 3. Compositor (pkg/compositor): the layered preview and crop rendering
// 4. Export (pkg/export): still, vector and animated artifact encoding
// 5. Removal (pkg/removal): the optional background-removal backend
//
// Loading media fits it automatically: the shorter side fills 80% of the
// preview canvas, centered and unrotated. All framing gestures go through
// the Controller; the session re-renders on every change and runs a
// cancelable redraw loop for animated media.
package circlecrop

import (
	"context"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	cerrors "github.com/menta2k/circle-crop/errors"
	"github.com/menta2k/circle-crop/internal/config"
	"github.com/menta2k/circle-crop/internal/utils"
	"github.com/menta2k/circle-crop/pkg/compositor"
	"github.com/menta2k/circle-crop/pkg/export"
	"github.com/menta2k/circle-crop/pkg/interact"
	"github.com/menta2k/circle-crop/pkg/media"
	"github.com/menta2k/circle-crop/pkg/removal"
	"github.com/menta2k/circle-crop/pkg/transform"
)

// Version of the circle-crop library
const Version = "1.0.0"

// Session owns one media item, its framing state and its latest export
// artifact. Framing methods are meant to be driven from a single
// goroutine; exports and removal hold a busy flag so overlapping modal
// operations fail fast instead of interleaving.
type Session struct {
	cfg  *config.Config
	log  *slog.Logger
	comp *compositor.Compositor
	ex   *export.Exporter
	rem  *removal.Service

	cell *transform.Cell
	ctrl *interact.Controller
	loop *compositor.Loop

	mu        sync.Mutex
	handle    media.Handle
	canvas    *compositor.Canvas
	artifact  *export.Artifact
	onPreview func(*image.NRGBA)
	busy      bool
	closed    bool
}

// New creates a session with default configuration and no removal backend.
func New() *Session {
	s, err := NewWithConfig(config.Default())
	if err != nil {
		// Defaults always validate.
		panic(err)
	}
	return s
}

// NewWithConfig creates a session with custom configuration.
func NewWithConfig(cfg *config.Config) (*Session, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, cerrors.Wrap(cerrors.CategoryValidation, "circlecrop.NewWithConfig", err)
	}

	comp := compositor.New(cfg.Preview.CanvasEdge)
	s := &Session{
		cfg:  cfg,
		log:  slog.Default(),
		comp: comp,
		ex:   export.New(cfg, comp),
		rem:  removal.NewService(nil),
		cell: transform.NewCell(transform.State{Zoom: 1}),
	}
	s.ctrl = interact.NewController(s.cell, float64(cfg.Preview.CanvasEdge))
	s.ctrl.SetOnChange(s.onTransformChange)
	s.loop = compositor.NewLoop(cfg.Preview.FPS, s.tick)
	return s, nil
}

// SetLogger replaces the session's logger, which defaults to slog.Default.
func (s *Session) SetLogger(log *slog.Logger) {
	if log != nil {
		s.log = log
	}
}

// SetRemovalClient wires a background-removal backend. Without one,
// RemoveBackground is a clean no-op.
func (s *Session) SetRemovalClient(c removal.Client) {
	s.rem = removal.NewService(c)
}

// LoadImage decodes a still image from bytes and makes it the session
// media.
func (s *Session) LoadImage(data []byte) error {
	h, err := media.LoadImage(data)
	if err != nil {
		return err
	}
	return s.install(h)
}

// LoadImageFile decodes a still image from a file.
func (s *Session) LoadImageFile(path string) error {
	h, err := media.LoadImageFile(path)
	if err != nil {
		return err
	}
	return s.install(h)
}

// LoadVideo opens a video file as the session media. Playback starts
// immediately; use StartPreview to drive the live composite.
func (s *Session) LoadVideo(path string) error {
	h, err := media.LoadVideo(path)
	if err != nil {
		return err
	}
	return s.install(h)
}

// LoadVideoBytes opens in-memory video data, spooling to a temp file when
// the container needs one. The extension hints the container format.
func (s *Session) LoadVideoBytes(data []byte, ext string) error {
	h, err := media.LoadVideoBytes(data, ext)
	if err != nil {
		return err
	}
	return s.install(h)
}

// Load decodes bytes as the given media kind.
func (s *Session) Load(data []byte, kind media.Kind) error {
	h, err := media.Load(data, kind)
	if err != nil {
		return err
	}
	return s.install(h)
}

// install makes the decoded handle the session media: auto-fit framing,
// fresh canvas, one immediate render. The previous media and artifact are
// released.
func (s *Session) install(h media.Handle) error {
	s.loop.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		h.Close()
		return cerrors.New(cerrors.CategoryValidation, "circlecrop.install", cerrors.ErrSessionClosed)
	}
	if s.busy {
		h.Close()
		return cerrors.New(cerrors.CategoryValidation, "circlecrop.install", cerrors.ErrSessionBusy)
	}

	canvas, err := compositor.NewCanvas(s.cfg.Preview.CanvasEdge)
	if err != nil {
		h.Close()
		return err
	}

	if s.handle != nil {
		s.handle.Close()
	}
	if s.artifact != nil {
		s.artifact.Release()
		s.artifact = nil
	}

	w, ht := h.IntrinsicSize()
	s.handle = h
	s.canvas = canvas
	s.cell.Reset(transform.Initialize(w, ht, s.cfg.Preview.CanvasEdge))

	if err := s.comp.RenderFrame(s.canvas, s.handle, s.cell.Snapshot()); err != nil {
		return err
	}

	_, isVideo := h.(media.FrameSource)
	s.log.Info("media loaded",
		"source", h.Source(),
		"width", w,
		"height", ht,
		"video", isVideo,
		"zoom", s.cell.Snapshot().Zoom)
	return nil
}

// Controller returns the interaction surface for pointer and slider input.
func (s *Session) Controller() *interact.Controller {
	return s.ctrl
}

// Transform returns the current framing snapshot.
func (s *Session) Transform() transform.State {
	return s.cell.Snapshot()
}

// Media returns the loaded handle, or nil before any load.
func (s *Session) Media() media.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle
}

// IsVideo reports whether the loaded media is animated.
func (s *Session) IsVideo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.handle.(media.FrameSource)
	return ok
}

// onTransformChange re-renders static media after a framing change. Video
// previews pick the change up on the next loop tick instead.
func (s *Session) onTransformChange() {
	if s.loop.Running() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == nil || s.canvas == nil {
		return
	}
	if err := s.comp.RenderFrame(s.canvas, s.handle, s.cell.Snapshot()); err != nil {
		s.log.Error("preview render failed", "error", err)
	}
}

// StartPreview begins the continuous redraw loop. After every rendered
// frame the callback, when non-nil, receives the canvas buffer; it is only
// valid until the next tick and must not call back into Stop.
func (s *Session) StartPreview(onFrame func(*image.NRGBA)) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return cerrors.New(cerrors.CategoryValidation, "circlecrop.StartPreview", cerrors.ErrSessionClosed)
	}
	if s.handle == nil {
		s.mu.Unlock()
		return cerrors.New(cerrors.CategoryValidation, "circlecrop.StartPreview", cerrors.ErrNoMedia)
	}
	s.onPreview = onFrame
	s.mu.Unlock()

	s.loop.Start()
	return nil
}

// StopPreview cancels the redraw loop and waits for an in-flight frame.
func (s *Session) StopPreview() {
	s.loop.Stop()
}

// tick renders one preview frame on the loop goroutine.
func (s *Session) tick() {
	s.mu.Lock()
	if s.handle == nil || s.canvas == nil {
		s.mu.Unlock()
		return
	}
	err := s.comp.RenderFrame(s.canvas, s.handle, s.cell.Snapshot())
	cb := s.onPreview
	img := s.canvas.Image()
	s.mu.Unlock()

	if err != nil {
		s.log.Error("preview render failed", "error", err)
		return
	}
	if cb != nil {
		cb(img)
	}
}

// PreviewImage returns an independent copy of the current composite.
func (s *Session) PreviewImage() (*image.NRGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.canvas == nil {
		return nil, cerrors.New(cerrors.CategoryValidation, "circlecrop.PreviewImage", cerrors.ErrNoMedia)
	}
	return s.canvas.Clone(), nil
}

// Finalize renders the primary artifact: a PNG still of the current frame,
// flagged IsVideo for animated media so callers can offer the animated
// capture next.
func (s *Session) Finalize(ctx context.Context) (*export.Artifact, error) {
	h, st, err := s.begin("circlecrop.Finalize")
	if err != nil {
		return nil, err
	}
	a, err := s.ex.Finalize(ctx, h, st)
	s.finish("finalize", a, err)
	return a, err
}

// ExportPNG exports the crop with a transparent background.
func (s *Session) ExportPNG(ctx context.Context) (*export.Artifact, error) {
	h, st, err := s.begin("circlecrop.ExportPNG")
	if err != nil {
		return nil, err
	}
	a, err := s.ex.PNG(ctx, h, st)
	s.finish("png", a, err)
	return a, err
}

// ExportJPEG exports the crop on a white matte.
func (s *Session) ExportJPEG(ctx context.Context) (*export.Artifact, error) {
	h, st, err := s.begin("circlecrop.ExportJPEG")
	if err != nil {
		return nil, err
	}
	a, err := s.ex.JPEG(ctx, h, st)
	s.finish("jpeg", a, err)
	return a, err
}

// ExportWebP exports the crop as lossy WebP with alpha.
func (s *Session) ExportWebP(ctx context.Context) (*export.Artifact, error) {
	h, st, err := s.begin("circlecrop.ExportWebP")
	if err != nil {
		return nil, err
	}
	a, err := s.ex.WebP(ctx, h, st)
	s.finish("webp", a, err)
	return a, err
}

// ExportSVG exports a vector wrapper: still media rides along as an
// embedded PNG, video is referenced by source URI instead of re-encoded.
func (s *Session) ExportSVG(ctx context.Context) (*export.Artifact, error) {
	h, st, err := s.begin("circlecrop.ExportSVG")
	if err != nil {
		return nil, err
	}
	var a *export.Artifact
	if _, ok := h.(media.FrameSource); ok {
		a, err = s.ex.SVGVideo(h, st)
	} else {
		a, err = s.ex.SVGImage(ctx, h, st)
	}
	s.finish("svg", a, err)
	return a, err
}

// CaptureAnimation exports animated media as a motion-JPEG AVI, reporting
// fractional progress between 0 and 100.
func (s *Session) CaptureAnimation(ctx context.Context, progress func(percent float64)) (*export.Artifact, error) {
	h, st, err := s.begin("circlecrop.CaptureAnimation")
	if err != nil {
		return nil, err
	}
	a, err := s.ex.CaptureAnimation(ctx, h, st, progress)
	s.finish("animation", a, err)
	return a, err
}

// RemoveBackground sends the current artifact through the removal backend,
// replacing its bytes in place on success. Failures leave the artifact
// untouched.
func (s *Session) RemoveBackground(ctx context.Context) error {
	const op = "circlecrop.RemoveBackground"

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return cerrors.New(cerrors.CategoryValidation, op, cerrors.ErrSessionClosed)
	}
	if s.busy {
		s.mu.Unlock()
		return cerrors.New(cerrors.CategoryValidation, op, cerrors.ErrSessionBusy)
	}
	if s.artifact == nil {
		s.mu.Unlock()
		return cerrors.New(cerrors.CategoryValidation, op, cerrors.ErrNoArtifact)
	}
	a := s.artifact
	s.busy = true
	s.mu.Unlock()

	changed, err := s.rem.RemoveBackground(ctx, a)

	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()

	if err != nil {
		s.log.Error("background removal failed", "error", err)
		return err
	}
	s.log.Info("background removal finished", "changed", changed)
	return nil
}

// Artifact returns the latest export, or nil when none exists.
func (s *Session) Artifact() *export.Artifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.artifact
}

// SaveArtifact writes the current artifact into dir under its generated
// name and returns the full path.
func (s *Session) SaveArtifact(dir string) (string, error) {
	const op = "circlecrop.SaveArtifact"

	s.mu.Lock()
	a := s.artifact
	s.mu.Unlock()

	if a == nil || a.Bytes() == nil {
		return "", cerrors.New(cerrors.CategoryValidation, op, cerrors.ErrNoArtifact)
	}
	if err := utils.EnsureDir(dir); err != nil {
		return "", cerrors.Wrap(cerrors.CategoryValidation, op, err)
	}

	path := filepath.Join(dir, a.Name)
	if err := os.WriteFile(path, a.Bytes(), 0o644); err != nil {
		return "", cerrors.Wrap(cerrors.CategoryValidation, op, err)
	}
	s.log.Info("artifact saved", "path", path, "bytes", a.Size())
	return path, nil
}

// begin opens a modal operation: it snapshots the media and framing and
// holds the busy flag until finish.
func (s *Session) begin(op string) (media.Handle, transform.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, transform.State{}, cerrors.New(cerrors.CategoryValidation, op, cerrors.ErrSessionClosed)
	}
	if s.busy {
		return nil, transform.State{}, cerrors.New(cerrors.CategoryValidation, op, cerrors.ErrSessionBusy)
	}
	if s.handle == nil {
		return nil, transform.State{}, cerrors.New(cerrors.CategoryValidation, op, cerrors.ErrNoMedia)
	}
	s.busy = true
	return s.handle, s.cell.Snapshot(), nil
}

// finish closes a modal operation, adopting the new artifact and releasing
// the superseded one.
func (s *Session) finish(op string, a *export.Artifact, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	if err != nil {
		s.log.Error("export failed", "op", op, "error", err)
		return
	}
	if s.artifact != nil && s.artifact != a {
		s.artifact.Release()
	}
	s.artifact = a
	s.log.Info("artifact ready", "op", op, "format", a.Format, "name", a.Name, "bytes", a.Size())
}

// Reset returns the session to its empty state: media closed, artifact
// released, framing neutral. The session stays usable.
func (s *Session) Reset() {
	s.loop.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle != nil {
		s.handle.Close()
		s.handle = nil
	}
	if s.artifact != nil {
		s.artifact.Release()
		s.artifact = nil
	}
	s.canvas = nil
	s.onPreview = nil
	s.busy = false
	s.cell.Reset(transform.State{Zoom: 1})
}

// Close releases all resources. The session cannot be used afterwards.
func (s *Session) Close() error {
	s.loop.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.handle != nil {
		s.handle.Close()
		s.handle = nil
	}
	if s.artifact != nil {
		s.artifact.Release()
		s.artifact = nil
	}
	s.canvas = nil
	s.onPreview = nil
	return nil
}

// GetVersion returns the library version.
func GetVersion() string {
	return Version
}
