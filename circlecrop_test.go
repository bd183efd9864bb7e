package circlecrop

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"testing"
	"time"

	cerrors "github.com/menta2k/circle-crop/errors"
	"github.com/menta2k/circle-crop/internal/config"
)

func encodeTestPNG(t *testing.T, width, height int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}
	return buf.Bytes()
}

func loadedSession(t *testing.T) *Session {
	t.Helper()
	s := New()
	t.Cleanup(func() { s.Close() })
	if err := s.LoadImage(encodeTestPNG(t, 100, 100, color.NRGBA{R: 255, A: 255})); err != nil {
		t.Fatalf("LoadImage: %v", err)
	}
	return s
}

func TestNew(t *testing.T) {
	s := New()
	defer s.Close()

	if s.Controller() == nil {
		t.Error("Controller() = nil")
	}
	if got := s.Transform(); got.Zoom != 1 {
		t.Errorf("initial zoom = %v, want 1", got.Zoom)
	}
	if s.Media() != nil {
		t.Error("Media() non-nil before load")
	}
	if GetVersion() != Version {
		t.Errorf("GetVersion() = %q, want %q", GetVersion(), Version)
	}
}

func TestNewWithConfigValidation(t *testing.T) {
	cfg := config.Default()
	cfg.Preview.CanvasEdge = 0
	if _, err := NewWithConfig(cfg); err == nil {
		t.Error("expected error for invalid config")
	}

	s, err := NewWithConfig(nil)
	if err != nil {
		t.Fatalf("NewWithConfig(nil): %v", err)
	}
	s.Close()
}

func TestLoadImageAutoFit(t *testing.T) {
	s := loadedSession(t)

	// 100px shorter side into an 800px canvas: the mask diameter is 640,
	// so the fitted zoom is 6.4.
	st := s.Transform()
	if st.Zoom != 6.4 {
		t.Errorf("auto-fit zoom = %v, want 6.4", st.Zoom)
	}
	if st.PanX != 0 || st.PanY != 0 || st.RotationDegrees != 0 {
		t.Errorf("auto-fit state = %+v, want centered unrotated", st)
	}

	img, err := s.PreviewImage()
	if err != nil {
		t.Fatalf("PreviewImage: %v", err)
	}
	if img.Bounds().Dx() != 800 {
		t.Errorf("preview edge = %d, want 800", img.Bounds().Dx())
	}
	if got := img.NRGBAAt(400, 400); got.R != 255 || got.A != 255 {
		t.Errorf("preview center = %+v, want opaque red", got)
	}
}

func TestLoadImageDecodeFailure(t *testing.T) {
	s := New()
	defer s.Close()

	err := s.LoadImage([]byte("not an image"))
	if err == nil {
		t.Fatal("expected decode error")
	}
	if !cerrors.IsDecode(err) {
		t.Errorf("error category = %v, want decode", err)
	}

	// The session stays in the not-loaded state.
	if _, err := s.ExportPNG(context.Background()); !errors.Is(err, cerrors.ErrNoMedia) {
		t.Errorf("export after failed load = %v, want ErrNoMedia", err)
	}
}

func TestDragAdjustsPan(t *testing.T) {
	s := loadedSession(t)
	ctrl := s.Controller()

	ctrl.PointerDown(100, 100)
	ctrl.PointerMove(130, 145)
	ctrl.PointerUp()

	st := s.Transform()
	if st.PanX != 30 || st.PanY != 45 {
		t.Errorf("pan after drag = (%v, %v), want (30, 45)", st.PanX, st.PanY)
	}
}

func TestExportLifecycle(t *testing.T) {
	s := loadedSession(t)
	ctx := context.Background()

	first, err := s.ExportPNG(ctx)
	if err != nil {
		t.Fatalf("ExportPNG: %v", err)
	}
	if s.Artifact() != first {
		t.Error("Artifact() does not track the export")
	}
	if first.Transform != s.Transform() {
		t.Errorf("artifact transform = %+v, want session framing", first.Transform)
	}

	second, err := s.ExportJPEG(ctx)
	if err != nil {
		t.Fatalf("ExportJPEG: %v", err)
	}
	if !first.Released() {
		t.Error("superseded artifact not released")
	}
	if second.Released() {
		t.Error("current artifact released")
	}
	if s.Artifact() != second {
		t.Error("Artifact() does not track the newest export")
	}
}

func TestFinalizeStill(t *testing.T) {
	s := loadedSession(t)

	a, err := s.Finalize(context.Background())
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if a.Format != "png" || a.IsVideo {
		t.Errorf("artifact = %q video=%v, want png still", a.Format, a.IsVideo)
	}
	if _, err := png.Decode(bytes.NewReader(a.Bytes())); err != nil {
		t.Errorf("artifact does not decode as PNG: %v", err)
	}
}

func TestExportSVGStill(t *testing.T) {
	s := loadedSession(t)

	a, err := s.ExportSVG(context.Background())
	if err != nil {
		t.Fatalf("ExportSVG: %v", err)
	}
	if a.Format != "svg" {
		t.Errorf("Format = %q, want svg", a.Format)
	}
	if !bytes.Contains(a.Bytes(), []byte("<svg")) {
		t.Error("artifact is not an SVG document")
	}
}

func TestSaveArtifact(t *testing.T) {
	s := loadedSession(t)

	if _, err := s.SaveArtifact(t.TempDir()); !errors.Is(err, cerrors.ErrNoArtifact) {
		t.Errorf("save without artifact = %v, want ErrNoArtifact", err)
	}

	a, err := s.ExportPNG(context.Background())
	if err != nil {
		t.Fatalf("ExportPNG: %v", err)
	}

	dir := t.TempDir()
	path, err := s.SaveArtifact(dir)
	if err != nil {
		t.Fatalf("SaveArtifact: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading saved artifact: %v", err)
	}
	if !bytes.Equal(data, a.Bytes()) {
		t.Error("saved bytes differ from artifact")
	}
}

type blockingClient struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingClient) EditImage(ctx context.Context, instruction string, data []byte) ([]byte, error) {
	close(b.started)
	<-b.release
	return nil, nil
}

func TestBusyGuardDuringRemoval(t *testing.T) {
	s := loadedSession(t)
	ctx := context.Background()

	if _, err := s.ExportPNG(ctx); err != nil {
		t.Fatalf("ExportPNG: %v", err)
	}

	fake := &blockingClient{started: make(chan struct{}), release: make(chan struct{})}
	s.SetRemovalClient(fake)

	done := make(chan error, 1)
	go func() { done <- s.RemoveBackground(ctx) }()

	select {
	case <-fake.started:
	case <-time.After(2 * time.Second):
		t.Fatal("removal never reached the client")
	}

	// Exports are refused while the round trip is in flight.
	if _, err := s.ExportPNG(ctx); !errors.Is(err, cerrors.ErrSessionBusy) {
		t.Errorf("export during removal = %v, want ErrSessionBusy", err)
	}

	close(fake.release)
	if err := <-done; err != nil {
		t.Fatalf("RemoveBackground: %v", err)
	}

	// The busy flag clears once the round trip finishes.
	if _, err := s.ExportPNG(ctx); err != nil {
		t.Errorf("export after removal: %v", err)
	}
}

func TestRemoveBackgroundWithoutBackend(t *testing.T) {
	s := loadedSession(t)
	ctx := context.Background()

	if err := s.RemoveBackground(ctx); !errors.Is(err, cerrors.ErrNoArtifact) {
		t.Errorf("removal without artifact = %v, want ErrNoArtifact", err)
	}

	a, err := s.ExportPNG(ctx)
	if err != nil {
		t.Fatalf("ExportPNG: %v", err)
	}
	before := a.Size()

	if err := s.RemoveBackground(ctx); err != nil {
		t.Fatalf("RemoveBackground without backend: %v", err)
	}
	if a.Size() != before || a.BackgroundRemoved {
		t.Error("artifact changed without a backend")
	}
}

func TestStartPreview(t *testing.T) {
	s := New()
	defer s.Close()

	if err := s.StartPreview(nil); !errors.Is(err, cerrors.ErrNoMedia) {
		t.Errorf("StartPreview before load = %v, want ErrNoMedia", err)
	}

	if err := s.LoadImage(encodeTestPNG(t, 100, 100, color.NRGBA{G: 255, A: 255})); err != nil {
		t.Fatalf("LoadImage: %v", err)
	}

	frames := make(chan struct{}, 64)
	if err := s.StartPreview(func(*image.NRGBA) { frames <- struct{}{} }); err != nil {
		t.Fatalf("StartPreview: %v", err)
	}
	select {
	case <-frames:
	case <-time.After(2 * time.Second):
		t.Fatal("preview loop never ticked")
	}
	s.StopPreview()
}

func TestResetAndClose(t *testing.T) {
	s := loadedSession(t)
	ctx := context.Background()

	a, err := s.ExportPNG(ctx)
	if err != nil {
		t.Fatalf("ExportPNG: %v", err)
	}

	s.Reset()
	if s.Media() != nil {
		t.Error("Media() non-nil after Reset")
	}
	if s.Artifact() != nil {
		t.Error("Artifact() non-nil after Reset")
	}
	if !a.Released() {
		t.Error("artifact not released by Reset")
	}
	if got := s.Transform(); got.Zoom != 1 {
		t.Errorf("zoom after Reset = %v, want 1", got.Zoom)
	}

	// The session is reusable after Reset.
	if err := s.LoadImage(encodeTestPNG(t, 50, 80, color.NRGBA{B: 255, A: 255})); err != nil {
		t.Fatalf("LoadImage after Reset: %v", err)
	}
	if got := s.Transform().Zoom; got != 12.8 {
		t.Errorf("auto-fit zoom for 50px side = %v, want 12.8", got)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if err := s.LoadImage(encodeTestPNG(t, 10, 10, color.NRGBA{A: 255})); !errors.Is(err, cerrors.ErrSessionClosed) {
		t.Errorf("load after Close = %v, want ErrSessionClosed", err)
	}
}
