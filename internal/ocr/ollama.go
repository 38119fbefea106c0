// Package ocr extracts text from images through an Ollama vision model.
package ocr

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"
)

// transcribePrompt keeps the vision model on plain transcription duty.
const transcribePrompt = `Transcribe all readable text in this image.

Rules:
- Return the text exactly as it appears, preserving wording and numbers.
- Do NOT describe the image or add commentary.
- If the image contains no readable text, return nothing.`

// DefaultTimeout bounds a single vision round-trip. OCR on large images is
// slow, so it is longer than the text generation timeout.
const DefaultTimeout = 180 * time.Second

// OllamaOCR recognizes text in images via a multimodal Ollama model.
type OllamaOCR struct {
	Client  *api.Client
	Model   string
	Timeout time.Duration
}

// NewOllamaOCR creates a new vision OCR client. An empty host falls back to
// the OLLAMA_HOST environment configuration.
func NewOllamaOCR(host string, model string) (*OllamaOCR, error) {
	hostURL := envconfig.Host()
	if host != "" {
		parsed, err := url.Parse(host)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
		}
		hostURL = parsed
	}
	client := api.NewClient(hostURL, http.DefaultClient)

	return &OllamaOCR{
		Client:  client,
		Model:   model,
		Timeout: DefaultTimeout,
	}, nil
}

// Recognize returns the best-effort text content of one image. An empty
// string is a valid result for images without readable text.
func (o *OllamaOCR) Recognize(ctx context.Context, image []byte) (string, error) {
	req := api.GenerateRequest{
		Model:  o.Model,
		Prompt: transcribePrompt,
		Images: []api.ImageData{image},
		Options: map[string]interface{}{
			"temperature": 0.0,
		},
	}

	ctx, cancel := context.WithTimeout(ctx, o.Timeout)
	defer cancel()

	var responseBuilder strings.Builder
	err := o.Client.Generate(ctx, &req, func(resp api.GenerateResponse) error {
		_, err := responseBuilder.WriteString(resp.Response)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to recognize image text: %w", err)
	}

	return strings.TrimSpace(responseBuilder.String()), nil
}
