// Package llm wraps the Ollama generation API: one plain Generate call plus
// the grounded answer adapter built on top of it.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"docqa-rag/internal/models"

	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"
)

// DefaultTimeout bounds a single generation round-trip.
const DefaultTimeout = 120 * time.Second

// OllamaLLM handles interactions with the Ollama LLM API.
type OllamaLLM struct {
	Client  *api.Client
	Model   string
	Timeout time.Duration
}

// NewOllamaLLM creates a new Ollama LLM client. An empty host falls back to
// the OLLAMA_HOST environment configuration.
func NewOllamaLLM(host string, model string) (*OllamaLLM, error) {
	hostURL := envconfig.Host()
	if host != "" {
		parsed, err := url.Parse(host)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
		}
		hostURL = parsed
	}
	client := api.NewClient(hostURL, http.DefaultClient)

	return &OllamaLLM{
		Client:  client,
		Model:   model,
		Timeout: DefaultTimeout,
	}, nil
}

// Generate runs a single synchronous generation call and returns the full
// response text.
func (o *OllamaLLM) Generate(ctx context.Context, prompt string) (string, error) {
	req := api.GenerateRequest{
		Model:  o.Model,
		Prompt: prompt,
		Options: map[string]interface{}{
			"temperature": 0.1,
			"num_predict": 1024,
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
		return "", fmt.Errorf("failed to generate response: %w", err)
	}

	return responseBuilder.String(), nil
}

// Answer builds the grounding prompt from the retrieved records and invokes
// the model once, restricting it to answer only from the supplied context.
func (o *OllamaLLM) Answer(ctx context.Context, userQuery string, intent models.Intent, results []models.SearchResult) (string, error) {
	prompt := GroundingPrompt(userQuery, intent, results)

	answer, err := o.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}

	return strings.TrimSpace(answer), nil
}

// GroundingPrompt embeds the intent label, the user's literal question and
// the concatenated retrieved contents, and instructs the model to answer only
// from that context and to state insufficiency rather than fabricate.
func GroundingPrompt(userQuery string, intent models.Intent, results []models.SearchResult) string {
	contents := make([]string, len(results))
	for i, r := range results {
		contents[i] = r.Record.Content
	}

	var sb strings.Builder
	sb.WriteString("Intent: ")
	sb.WriteString(string(intent))
	sb.WriteString("\nUser Question: ")
	sb.WriteString(userQuery)
	sb.WriteString("\n\nContext:\n")
	sb.WriteString(strings.Join(contents, "\n\n"))
	sb.WriteString("\n\nRules:\n")
	sb.WriteString("- Answer ONLY from the context above\n")
	sb.WriteString("- If the context is insufficient, say so explicitly\n")
	sb.WriteString("- Be concise and factual\n\nAnswer: ")
	return sb.String()
}
