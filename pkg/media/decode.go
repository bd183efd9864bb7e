package media

import (
	"bytes"
	"image"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/chai2010/webp"
	_ "golang.org/x/image/webp"

	cerrors "github.com/menta2k/circle-crop/errors"
)

// decodeImageBytes decodes a still image with WebP fallback support.
func decodeImageBytes(data []byte) (image.Image, error) {
	// Try standard image.Decode first
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}

	// Try WebP decode
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}

	return nil, cerrors.Newf(cerrors.CategoryDecode, "decode_image",
		"unknown or unsupported image format")
}
