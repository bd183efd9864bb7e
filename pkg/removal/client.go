// Package removal sends the finished crop to a multimodal model and swaps
// in the edited pixels it returns, typically to cut the subject free of its
// background. The backend is optional: a service without a client treats
// every request as a clean no-op, and a model response without an image
// leaves the artifact untouched.
package removal

import "context"

// Instruction is the fixed edit request sent with every image.
const Instruction = "isolate the central subject on a transparent background"

// Client is the capability interface over an image-editing model backend.
type Client interface {
	// EditImage submits a PNG with an edit instruction and returns the
	// first image in the model's reply. Nil bytes with a nil error mean
	// the reply carried no image.
	EditImage(ctx context.Context, instruction string, png []byte) ([]byte, error)
}
