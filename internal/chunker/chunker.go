// Package chunker splits page text into overlapping token windows for embedding.
package chunker

import (
	"fmt"
	"strings"
)

const (
	DefaultMaxTokens = 500
	DefaultOverlap   = 50
)

// Tokenizer encodes text into a subword token sequence and back.
// The production implementation wraps tiktoken; tests inject a fake.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

// Chunker produces overlapping token windows from raw text.
type Chunker struct {
	tok       Tokenizer
	maxTokens int
	overlap   int
}

// New creates a Chunker. overlap must be strictly smaller than maxTokens,
// otherwise the window stride is zero or negative and chunking would never
// terminate.
func New(tok Tokenizer, maxTokens, overlap int) (*Chunker, error) {
	if tok == nil {
		return nil, fmt.Errorf("chunker: tokenizer is required")
	}
	if maxTokens <= 0 {
		return nil, fmt.Errorf("chunker: max tokens must be positive, got %d", maxTokens)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("chunker: overlap must not be negative, got %d", overlap)
	}
	if overlap >= maxTokens {
		return nil, fmt.Errorf("chunker: overlap %d must be smaller than max tokens %d", overlap, maxTokens)
	}
	return &Chunker{tok: tok, maxTokens: maxTokens, overlap: overlap}, nil
}

// Chunk encodes text once and slides a window of maxTokens tokens with a
// stride of maxTokens-overlap, decoding each window back to text. The final
// window may be shorter than maxTokens. Whitespace-only input yields nothing.
func (c *Chunker) Chunk(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	tokens := c.tok.Encode(text)
	if len(tokens) == 0 {
		return nil
	}

	stride := c.maxTokens - c.overlap
	var chunks []string
	for start := 0; start < len(tokens); start += stride {
		end := start + c.maxTokens
		if end > len(tokens) {
			end = len(tokens)
		}
		chunks = append(chunks, c.tok.Decode(tokens[start:end]))
		if end == len(tokens) {
			break
		}
	}
	return chunks
}
