package export

import (
	"bytes"
	"context"
	"image/color"
	"image/jpeg"
	"math"
	"os"
	"time"

	"github.com/icza/mjpeg"

	cerrors "github.com/menta2k/circle-crop/errors"
	"github.com/menta2k/circle-crop/pkg/compositor"
	"github.com/menta2k/circle-crop/pkg/media"
	"github.com/menta2k/circle-crop/pkg/transform"
)

// CaptureAnimation renders the cropped circle over every sampled frame of
// an animated source and packs the result into a motion-JPEG AVI. Frames
// are matted on opaque black since the container carries no alpha. The
// source timeline is sampled deterministically at the configured rate, so
// the capture does not depend on playback state or wall-clock timing.
//
// Duration is capped by the configured maximum; sources reporting zero or
// negative duration still produce a single-frame capture. Progress, when
// non-nil, receives nondecreasing percentages and is called with exactly
// 100 for the final frame. Cancelling ctx aborts the capture and leaves no
// artifact behind.
func (e *Exporter) CaptureAnimation(ctx context.Context, h media.Handle, st transform.State, progress func(percent float64)) (*Artifact, error) {
	src, ok := h.(media.FrameSource)
	if !ok {
		return nil, cerrors.New(cerrors.CategoryValidation, "export.CaptureAnimation", cerrors.ErrNoVideoSource)
	}

	edge := e.cfg.Animated.Edge
	fps := e.cfg.Animated.FPS

	dur := src.Duration()
	if dur > e.cfg.Animated.MaxDuration {
		dur = e.cfg.Animated.MaxDuration
	}
	frames := int(math.Round(dur.Seconds() * float64(fps)))
	if frames < 1 {
		frames = 1
	}

	cv, err := compositor.NewCanvas(edge)
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp("", "circle-crop-*.avi")
	if err != nil {
		return nil, cerrors.Wrap(cerrors.CategoryCapture, "export.CaptureAnimation", err)
	}
	path := tmp.Name()
	tmp.Close()

	aw, err := mjpeg.New(path, int32(edge), int32(edge), int32(fps))
	if err != nil {
		os.Remove(path)
		return nil, cerrors.Wrap(cerrors.CategoryCapture, "export.CaptureAnimation", err)
	}

	finished := false
	defer func() {
		if !finished {
			aw.Close()
			os.Remove(path)
		}
	}()

	var buf bytes.Buffer
	for i := 0; i < frames; i++ {
		if err := ctx.Err(); err != nil {
			return nil, cerrors.Wrap(cerrors.CategoryCapture, "export.CaptureAnimation", err)
		}

		at := time.Duration(float64(i) / float64(fps) * float64(time.Second))
		frame, err := src.FrameAt(at)
		if err != nil {
			return nil, err
		}
		if err := e.comp.RenderCropImage(cv, frame, st, color.Black); err != nil {
			return nil, err
		}

		buf.Reset()
		if err := jpeg.Encode(&buf, cv.Image(), &jpeg.Options{Quality: e.cfg.Animated.FrameQuality}); err != nil {
			return nil, cerrors.Wrap(cerrors.CategoryCapture, "export.CaptureAnimation", err)
		}
		if err := aw.AddFrame(buf.Bytes()); err != nil {
			return nil, cerrors.Wrap(cerrors.CategoryCapture, "export.CaptureAnimation", err)
		}

		if progress != nil {
			progress(float64(i+1) / float64(frames) * 100)
		}
	}

	if err := aw.Close(); err != nil {
		return nil, cerrors.Wrap(cerrors.CategoryCapture, "export.CaptureAnimation", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.CategoryCapture, "export.CaptureAnimation", err)
	}
	finished = true
	os.Remove(path)

	return e.newArtifact(data, "avi", st, true), nil
}
