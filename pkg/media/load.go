package media

import (
	"os"
	"path/filepath"
	"strings"

	cerrors "github.com/menta2k/circle-crop/errors"
	"github.com/menta2k/circle-crop/pkg/media/capture"
)

// LoadImage decodes a still image payload. Fails with a decode error when
// the payload is not a valid raster image or has zero area.
func LoadImage(data []byte) (*StaticImage, error) {
	if len(data) == 0 {
		return nil, cerrors.New(cerrors.CategoryDecode, "load_image", cerrors.ErrEmptyInput)
	}
	img, err := decodeImageBytes(data)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, cerrors.New(cerrors.CategoryDecode, "load_image", cerrors.ErrInvalidDimensions)
	}
	return NewStaticImage(img, ""), nil
}

// LoadImageFile decodes a still image from disk, keeping the path as the
// handle's source.
func LoadImageFile(path string) (*StaticImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.CategoryDecode, "load_image", err)
	}
	s, err := LoadImage(data)
	if err != nil {
		return nil, err
	}
	s.source = path
	return s, nil
}

// LoadVideo opens a video file and starts looping playback. Animated GIFs
// are decoded by the pure-Go source; other containers go through the
// OpenCV-backed capture source.
func LoadVideo(path string) (*VideoStream, error) {
	if strings.EqualFold(filepath.Ext(path), ".gif") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, cerrors.Wrap(cerrors.CategoryDecode, "load_video", err)
		}
		return loadGIFStream(data, path)
	}

	src, err := capture.Open(path)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.CategoryDecode, "load_video", err)
	}
	v, err := NewVideoStream(src, path)
	if err != nil {
		src.Close()
		return nil, cerrors.Wrap(cerrors.CategoryDecode, "load_video", err)
	}
	return v, nil
}

// LoadVideoBytes loads a video payload held in memory. GIF payloads decode
// directly; container payloads are spooled to a temporary file (removed
// when the stream closes) because container demuxing is file-based. ext
// hints the container format, e.g. "mp4" or "webm".
func LoadVideoBytes(data []byte, ext string) (*VideoStream, error) {
	if len(data) == 0 {
		return nil, cerrors.New(cerrors.CategoryDecode, "load_video", cerrors.ErrEmptyInput)
	}
	if isGIF(data) {
		return loadGIFStream(data, "")
	}

	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "" {
		ext = "mp4"
	}
	tmp, err := os.CreateTemp("", "circle-crop-*."+ext)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.CategoryDecode, "load_video", err)
	}
	path := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(path)
		return nil, cerrors.Wrap(cerrors.CategoryDecode, "load_video", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(path)
		return nil, cerrors.Wrap(cerrors.CategoryDecode, "load_video", err)
	}

	v, err := LoadVideo(path)
	if err != nil {
		os.Remove(path)
		return nil, err
	}
	v.removeOnClose = path
	v.removeFn = os.Remove
	return v, nil
}

// Load resolves a raw payload into a media handle according to kind.
func Load(data []byte, kind Kind) (Handle, error) {
	switch kind {
	case KindImage:
		return LoadImage(data)
	case KindVideo:
		return LoadVideoBytes(data, "")
	default:
		return nil, cerrors.Newf(cerrors.CategoryValidation, "load", "unknown media kind %d", kind)
	}
}

func loadGIFStream(data []byte, source string) (*VideoStream, error) {
	src, err := newGIFSource(data)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.CategoryDecode, "load_video", err)
	}
	v, err := NewVideoStream(src, source)
	if err != nil {
		src.Close()
		return nil, cerrors.Wrap(cerrors.CategoryDecode, "load_video", err)
	}
	return v, nil
}
