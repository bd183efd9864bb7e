// Package media resolves image and video sources into dimensioned,
// drawable handles for the crop session.
//
// A Handle is the capability surface the compositor and exporter consume:
// intrinsic size plus the current drawable frame. StaticImage and
// VideoStream are the two variants; both must be closed when the session
// ends to release their backing resources.
package media

import (
	"errors"
	"image"
	"time"
)

// Kind selects how a loaded payload is interpreted.
type Kind int

const (
	KindImage Kind = iota
	KindVideo
)

func (k Kind) String() string {
	if k == KindVideo {
		return "video"
	}
	return "image"
}

// ErrClosed is returned when a frame is requested from a closed handle.
var ErrClosed = errors.New("media handle closed")

// Handle is the capability interface over loaded media.
type Handle interface {
	// IntrinsicSize returns the media's natural pixel dimensions.
	IntrinsicSize() (width, height int)
	// Frame returns the current drawable frame: the decoded raster for a
	// static image, or the frame at the playback position for video.
	Frame() (image.Image, error)
	// Source returns the path or URI the media was loaded from, if any.
	Source() string
	// Close releases decoder resources. Safe to call more than once.
	Close() error
}

// FrameSource is a decodable video backing: random access to frames by
// presentation time. Implementations: the animated-GIF source in this
// package and capture.FileSource for container files.
type FrameSource interface {
	Size() (width, height int)
	Duration() time.Duration
	FrameAt(t time.Duration) (image.Image, error)
	Close() error
}

// StaticImage is a decoded still image.
type StaticImage struct {
	img    image.Image
	width  int
	height int
	source string
	closed bool
}

// NewStaticImage wraps an already-decoded image.
func NewStaticImage(img image.Image, source string) *StaticImage {
	b := img.Bounds()
	return &StaticImage{img: img, width: b.Dx(), height: b.Dy(), source: source}
}

// IntrinsicSize returns the image dimensions in pixels.
func (s *StaticImage) IntrinsicSize() (int, int) {
	return s.width, s.height
}

// Frame returns the decoded image.
func (s *StaticImage) Frame() (image.Image, error) {
	if s.closed {
		return nil, ErrClosed
	}
	return s.img, nil
}

// Source returns the path the image was loaded from, if any.
func (s *StaticImage) Source() string {
	return s.source
}

// Close drops the pixel reference.
func (s *StaticImage) Close() error {
	s.closed = true
	s.img = nil
	return nil
}
