package media

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"time"
)

// gifSource plays an animated GIF as a video frame source. Frames are
// coalesced at decode time so FrameAt is a lookup, not a replay.
type gifSource struct {
	frames []*image.NRGBA
	// starts[i] is the presentation time of frame i; total is the loop length.
	starts []time.Duration
	total  time.Duration
	width  int
	height int
	closed bool
}

// isGIF sniffs the GIF magic bytes.
func isGIF(data []byte) bool {
	return len(data) >= 6 &&
		(bytes.HasPrefix(data, []byte("GIF87a")) || bytes.HasPrefix(data, []byte("GIF89a")))
}

// newGIFSource decodes and coalesces every frame of an animated GIF.
func newGIFSource(data []byte) (*gifSource, error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding gif: %w", err)
	}
	if len(g.Image) == 0 {
		return nil, fmt.Errorf("gif has no frames")
	}

	w, h := g.Config.Width, g.Config.Height
	if w <= 0 || h <= 0 {
		b := g.Image[0].Bounds()
		w, h = b.Max.X, b.Max.Y
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("gif has invalid dimensions %dx%d", w, h)
	}

	src := &gifSource{width: w, height: h}
	bounds := image.Rect(0, 0, w, h)
	acc := image.NewNRGBA(bounds)
	var prev *image.NRGBA
	var elapsed time.Duration

	for i, frame := range g.Image {
		disposal := byte(gif.DisposalNone)
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}
		if disposal == gif.DisposalPrevious {
			prev = cloneNRGBA(acc)
		}

		r := frame.Bounds().Intersect(bounds)
		draw.Draw(acc, r, frame, r.Min, draw.Over)

		src.frames = append(src.frames, cloneNRGBA(acc))
		src.starts = append(src.starts, elapsed)

		// Delay units are hundredths of a second; zero-delay frames get
		// the common 10ms floor.
		delay := 1
		if i < len(g.Delay) && g.Delay[i] > 1 {
			delay = g.Delay[i]
		}
		elapsed += time.Duration(delay) * 10 * time.Millisecond

		switch disposal {
		case gif.DisposalBackground:
			clearRect(acc, r)
		case gif.DisposalPrevious:
			if prev != nil {
				copy(acc.Pix, prev.Pix)
			}
		}
	}

	// A single-frame GIF behaves as a zero-duration stream.
	if len(src.frames) > 1 {
		src.total = elapsed
	}
	return src, nil
}

func (s *gifSource) Size() (int, int) {
	return s.width, s.height
}

func (s *gifSource) Duration() time.Duration {
	return s.total
}

// FrameAt returns the coalesced frame covering presentation time t, with
// the timeline wrapping at the loop length.
func (s *gifSource) FrameAt(t time.Duration) (image.Image, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if s.total <= 0 || len(s.frames) == 1 {
		return s.frames[0], nil
	}
	if t < 0 {
		t = 0
	}
	t %= s.total

	idx := 0
	for i, start := range s.starts {
		if start > t {
			break
		}
		idx = i
	}
	return s.frames[idx], nil
}

func (s *gifSource) Close() error {
	s.closed = true
	s.frames = nil
	return nil
}

func cloneNRGBA(src *image.NRGBA) *image.NRGBA {
	dst := image.NewNRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}

func clearRect(img *image.NRGBA, r image.Rectangle) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := img.PixOffset(r.Min.X, y)
		for x := r.Min.X; x < r.Max.X; x++ {
			img.Pix[i+0] = 0
			img.Pix[i+1] = 0
			img.Pix[i+2] = 0
			img.Pix[i+3] = 0
			i += 4
		}
	}
}
