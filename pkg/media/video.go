package media

import (
	"fmt"
	"image"
	"sync"
	"time"
)

// VideoStream is a loaded video: a FrameSource plus a looping playback
// clock. Playback is muted by nature (frames only) and starts immediately
// on creation so the live preview always has a frame to sample.
type VideoStream struct {
	src    FrameSource
	width  int
	height int
	dur    time.Duration
	source string

	mu       sync.Mutex
	playing  bool
	playedAt time.Time     // wall time of the last Play
	base     time.Duration // playback position at playedAt
	closed   bool

	// removeOnClose is deleted when the stream closes; set for payloads
	// spooled to a temporary file.
	removeOnClose string
	removeFn      func(string) error
}

// NewVideoStream wraps a frame source and starts playback.
func NewVideoStream(src FrameSource, source string) (*VideoStream, error) {
	w, h := src.Size()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("video has invalid dimensions %dx%d", w, h)
	}
	v := &VideoStream{
		src:    src,
		width:  w,
		height: h,
		dur:    src.Duration(),
		source: source,
	}
	v.Play()
	return v, nil
}

// IntrinsicSize returns the video dimensions in pixels.
func (v *VideoStream) IntrinsicSize() (int, int) {
	return v.width, v.height
}

// Size returns the video dimensions; with Duration, FrameAt and Close it
// makes the stream a FrameSource, which is how callers tell video from
// still media.
func (v *VideoStream) Size() (int, int) {
	return v.width, v.height
}

// Duration returns the length of one playback loop.
func (v *VideoStream) Duration() time.Duration {
	return v.dur
}

// Play starts or resumes the playback clock.
func (v *VideoStream) Play() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.playing || v.closed {
		return
	}
	v.playing = true
	v.playedAt = time.Now()
}

// Pause freezes the playback clock at the current position.
func (v *VideoStream) Pause() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.playing {
		return
	}
	v.base = v.positionLocked()
	v.playing = false
}

// SeekTo moves the playback position, clamped into [0, duration].
func (v *VideoStream) SeekTo(t time.Duration) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if t < 0 {
		t = 0
	}
	if v.dur > 0 && t > v.dur {
		t = v.dur
	}
	v.base = t
	v.playedAt = time.Now()
}

// Position returns the current playback position within the loop.
func (v *VideoStream) Position() time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.positionLocked()
}

func (v *VideoStream) positionLocked() time.Duration {
	pos := v.base
	if v.playing {
		pos += time.Since(v.playedAt)
	}
	if v.dur <= 0 {
		return 0
	}
	return pos % v.dur
}

// Playing reports whether the playback clock is running.
func (v *VideoStream) Playing() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.playing
}

// Frame returns the frame at the current playback position.
func (v *VideoStream) Frame() (image.Image, error) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil, ErrClosed
	}
	pos := v.positionLocked()
	v.mu.Unlock()
	return v.src.FrameAt(pos)
}

// FrameAt returns the frame at an explicit presentation time. The animated
// exporter samples deterministically through this instead of the clock.
func (v *VideoStream) FrameAt(t time.Duration) (image.Image, error) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil, ErrClosed
	}
	v.mu.Unlock()
	return v.src.FrameAt(t)
}

// Source returns the path or URI the video was loaded from.
func (v *VideoStream) Source() string {
	return v.source
}

// Close stops playback, releases the frame source and deletes any spooled
// temporary file. Safe to call more than once.
func (v *VideoStream) Close() error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil
	}
	v.closed = true
	v.playing = false
	remove, removeFn := v.removeOnClose, v.removeFn
	v.mu.Unlock()

	err := v.src.Close()
	if remove != "" && removeFn != nil {
		if rmErr := removeFn(remove); err == nil {
			err = rmErr
		}
	}
	return err
}
