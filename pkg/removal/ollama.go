package removal

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"

	cerrors "github.com/menta2k/circle-crop/errors"
)

// defaultTimeout bounds an edit round-trip when the caller's context has no
// deadline. Vision models on CPU can take minutes per image.
const defaultTimeout = 300 * time.Second

// OllamaClient edits images through an Ollama server's chat API.
type OllamaClient struct {
	client  *api.Client
	model   string
	timeout time.Duration
}

// NewOllamaClient creates a client for the given server URL and model. Any
// path on the URL is dropped; only scheme and host are used. A non-positive
// timeout falls back to the default.
func NewOllamaClient(serverURL, model string, timeout time.Duration) (*OllamaClient, error) {
	parsed, err := url.Parse(serverURL)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.CategoryNetwork, "removal.NewOllamaClient", err)
	}
	base := &url.URL{
		Scheme: parsed.Scheme,
		Host:   parsed.Host,
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &OllamaClient{
		client:  api.NewClient(base, http.DefaultClient),
		model:   model,
		timeout: timeout,
	}, nil
}

// EditImage sends the PNG as a chat attachment and returns the first image
// of the model's reply, or nil when the reply is text-only.
func (c *OllamaClient) EditImage(ctx context.Context, instruction string, png []byte) ([]byte, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	streamFalse := false
	req := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: instruction,
				Images:  []api.ImageData{api.ImageData(png)},
			},
		},
		Stream: &streamFalse,
	}

	var edited []byte
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		if edited == nil && len(resp.Message.Images) > 0 {
			edited = []byte(resp.Message.Images[0])
		}
		return nil
	})
	if err != nil {
		return nil, cerrors.Wrap(cerrors.CategoryNetwork, "removal.OllamaClient.EditImage", err)
	}
	return edited, nil
}
