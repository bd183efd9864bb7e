// Package capture decodes frames from video container files (mp4, webm,
// mov, avi) through OpenCV. It has no knowledge of the session model; it
// only satisfies the frame-source shape the media package consumes.
package capture

import (
	"fmt"
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// FileSource reads frames from a container file with millisecond seeking.
// OpenCV capture handles are not safe for concurrent use, so every
// operation holds the source lock.
type FileSource struct {
	mu       sync.Mutex
	vc       *gocv.VideoCapture
	mat      gocv.Mat
	width    int
	height   int
	fps      float64
	duration time.Duration
	closed   bool
}

// Open opens a video container and probes its dimensions, frame rate and
// duration.
func Open(path string) (*FileSource, error) {
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening video %s: %w", path, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("opening video %s: no usable decoder", path)
	}

	width := int(vc.Get(gocv.VideoCaptureFrameWidth))
	height := int(vc.Get(gocv.VideoCaptureFrameHeight))
	if width <= 0 || height <= 0 {
		vc.Close()
		return nil, fmt.Errorf("video %s reports invalid dimensions %dx%d", path, width, height)
	}

	fps := vc.Get(gocv.VideoCaptureFPS)
	frames := vc.Get(gocv.VideoCaptureFrameCount)
	var duration time.Duration
	if fps > 0 && frames > 0 {
		duration = time.Duration(frames / fps * float64(time.Second))
	}

	return &FileSource{
		vc:       vc,
		mat:      gocv.NewMat(),
		width:    width,
		height:   height,
		fps:      fps,
		duration: duration,
	}, nil
}

// Size returns the frame dimensions in pixels.
func (s *FileSource) Size() (int, int) {
	return s.width, s.height
}

// Duration returns the probed stream duration, zero when the container
// does not report a frame count.
func (s *FileSource) Duration() time.Duration {
	return s.duration
}

// FPS returns the container frame rate, zero when unknown.
func (s *FileSource) FPS() float64 {
	return s.fps
}

// FrameAt seeks to the given presentation time and decodes one frame.
func (s *FileSource) FrameAt(t time.Duration) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("capture source closed")
	}

	if t < 0 {
		t = 0
	}
	if s.duration > 0 && t >= s.duration {
		t = t % s.duration
	}
	s.vc.Set(gocv.VideoCapturePosMsec, float64(t)/float64(time.Millisecond))

	if ok := s.vc.Read(&s.mat); !ok || s.mat.Empty() {
		// Seeking past the physical last frame leaves the capture at EOF;
		// rewind once before giving up.
		s.vc.Set(gocv.VideoCapturePosMsec, 0)
		if ok := s.vc.Read(&s.mat); !ok || s.mat.Empty() {
			return nil, fmt.Errorf("no frame decodable at %v", t)
		}
	}

	return matToImage(s.mat)
}

// Close releases the capture handle and its scratch Mat. Safe to call
// more than once.
func (s *FileSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.mat.Close()
	return s.vc.Close()
}

// matToImage converts a decoded Mat to an NRGBA image. OpenCV delivers
// BGR (or BGRA) channel order.
func matToImage(mat gocv.Mat) (image.Image, error) {
	h := mat.Rows()
	w := mat.Cols()
	channels := mat.Channels()
	if h <= 0 || w <= 0 {
		return nil, fmt.Errorf("empty frame")
	}

	data := mat.ToBytes()
	if len(data) < w*h*channels {
		return nil, fmt.Errorf("short frame buffer: %d bytes for %dx%dx%d", len(data), w, h, channels)
	}

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		src := y * w * channels
		dst := y * img.Stride
		for x := 0; x < w; x++ {
			switch channels {
			case 1:
				v := data[src]
				img.Pix[dst+0] = v
				img.Pix[dst+1] = v
				img.Pix[dst+2] = v
				img.Pix[dst+3] = 255
			case 4:
				img.Pix[dst+0] = data[src+2] // R
				img.Pix[dst+1] = data[src+1] // G
				img.Pix[dst+2] = data[src+0] // B
				img.Pix[dst+3] = data[src+3]
			default: // BGR
				img.Pix[dst+0] = data[src+2] // R
				img.Pix[dst+1] = data[src+1] // G
				img.Pix[dst+2] = data[src+0] // B
				img.Pix[dst+3] = 255
			}
			src += channels
			dst += 4
		}
	}
	return img, nil
}
