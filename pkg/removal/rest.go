package removal

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	cerrors "github.com/menta2k/circle-crop/errors"
)

// RESTClient edits images through an OpenAI-compatible chat completions
// endpoint, such as a llama.cpp server or a hosted multimodal API.
type RESTClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// OpenAI-compatible message format. Content is a string or []ContentPart.
type restMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatCompletionRequest struct {
	Model     string        `json:"model"`
	Messages  []restMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
	Stream    bool          `json:"stream"`
}

type chatCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int         `json:"index"`
		Message      restMessage `json:"message"`
		FinishReason string      `json:"finish_reason,omitempty"`
	} `json:"choices"`
}

// dataURIPattern matches an inline base64 image in model output.
var dataURIPattern = regexp.MustCompile(`data:image/(?:png|jpeg|webp);base64,([A-Za-z0-9+/=]+)`)

// NewRESTClient creates a client for the given endpoint. An empty URL
// targets a local llama.cpp server; the API key, when set, is sent as a
// bearer credential.
func NewRESTClient(serverURL, apiKey, model string) (*RESTClient, error) {
	if serverURL == "" {
		serverURL = "http://localhost:8080"
	}
	return &RESTClient{
		baseURL: strings.TrimSuffix(serverURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}, nil
}

// EditImage sends the PNG as a data-URI content part and scans the reply
// for the first inline image. A reply without one returns nil bytes.
func (c *RESTClient) EditImage(ctx context.Context, instruction string, png []byte) ([]byte, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTimeout)
		defer cancel()
	}

	content := []contentPart{
		{
			Type: "text",
			Text: instruction,
		},
		{
			Type: "image_url",
			ImageURL: &imageURL{
				URL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
			},
		},
	}

	req := chatCompletionRequest{
		Model: c.model,
		Messages: []restMessage{
			{
				Role:    "user",
				Content: content,
			},
		},
		Stream: false,
	}

	respBody, err := c.sendRequest(ctx, "/v1/chat/completions", req)
	if err != nil {
		return nil, err
	}

	var resp chatCompletionResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, cerrors.Wrap(cerrors.CategoryNetwork, "removal.RESTClient.EditImage", err)
	}
	if len(resp.Choices) == 0 {
		return nil, cerrors.Newf(cerrors.CategoryNetwork, "removal.RESTClient.EditImage", "no choices in response")
	}

	return extractInlineImage(resp.Choices[0].Message.Content)
}

func (c *RESTClient) sendRequest(ctx context.Context, endpoint string, payload interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.CategoryNetwork, "removal.sendRequest", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, cerrors.Wrap(cerrors.CategoryNetwork, "removal.sendRequest", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.CategoryNetwork, "removal.sendRequest", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.CategoryNetwork, "removal.sendRequest", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, cerrors.Newf(cerrors.CategoryNetwork, "removal.sendRequest",
			"server returned status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// extractInlineImage finds the first data-URI image in a message, whether
// the content arrived as a plain string or as content parts.
func extractInlineImage(content interface{}) ([]byte, error) {
	switch v := content.(type) {
	case string:
		return decodeDataURI(v)
	case []interface{}:
		for _, item := range v {
			partMap, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			if img, ok := partMap["image_url"].(map[string]interface{}); ok {
				if u, ok := img["url"].(string); ok {
					if data, err := decodeDataURI(u); err != nil || data != nil {
						return data, err
					}
				}
			}
			if text, ok := partMap["text"].(string); ok {
				if data, err := decodeDataURI(text); err != nil || data != nil {
					return data, err
				}
			}
		}
	}
	return nil, nil
}

// decodeDataURI decodes the first inline image in s, or returns nil when
// there is none.
func decodeDataURI(s string) ([]byte, error) {
	m := dataURIPattern.FindStringSubmatch(s)
	if m == nil {
		return nil, nil
	}
	data, err := base64.StdEncoding.DecodeString(m[1])
	if err != nil {
		return nil, cerrors.Wrap(cerrors.CategoryNetwork, "removal.decodeDataURI", err)
	}
	return data, nil
}
