package removal

import (
	"context"
	"errors"

	cerrors "github.com/menta2k/circle-crop/errors"
	"github.com/menta2k/circle-crop/pkg/export"
)

// Service applies background removal to export artifacts. The zero-value
// rule for the whole feature: no client, no effect.
type Service struct {
	client Client
}

// NewService wraps a backend client. A nil client is allowed and makes
// RemoveBackground a no-op.
func NewService(client Client) *Service {
	return &Service{client: client}
}

// Available reports whether a backend is configured.
func (s *Service) Available() bool {
	return s.client != nil
}

// RemoveBackground sends the artifact's image through the edit backend and
// replaces its bytes with the model's result. It reports whether the
// artifact changed.
//
// Video and vector artifacts are rejected; the edit model works on single
// raster images. Any transport failure leaves the artifact exactly as it
// was. A model reply without an image is not an error: the original pixels
// are kept.
func (s *Service) RemoveBackground(ctx context.Context, a *export.Artifact) (bool, error) {
	const op = "removal.RemoveBackground"

	if s.client == nil {
		return false, nil
	}
	if a == nil {
		return false, cerrors.New(cerrors.CategoryValidation, op, cerrors.ErrNoArtifact)
	}
	if a.IsVideo || a.Format == "svg" {
		return false, cerrors.Newf(cerrors.CategoryValidation, op, "background removal supports raster image artifacts only")
	}
	data := a.Bytes()
	if len(data) == 0 {
		return false, cerrors.New(cerrors.CategoryValidation, op, cerrors.ErrNoArtifact)
	}

	edited, err := s.client.EditImage(ctx, Instruction, data)
	if err != nil {
		var ce *cerrors.CropError
		if !errors.As(err, &ce) {
			err = cerrors.Wrap(cerrors.CategoryNetwork, op, err)
		}
		return false, err
	}
	if len(edited) == 0 {
		return false, nil
	}

	a.ReplaceBytes(edited)
	a.BackgroundRemoved = true
	return true, nil
}
