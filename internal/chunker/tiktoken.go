package chunker

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// encodingName matches the vocabulary used by the embedding pipeline.
const encodingName = "cl100k_base"

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
	encodingErr  error
)

// TiktokenTokenizer adapts the process-wide tiktoken encoding to the
// Tokenizer interface. The encoding table is loaded lazily on first use and
// never mutated afterwards.
type TiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenTokenizer loads the shared cl100k_base encoding.
func NewTiktokenTokenizer() (*TiktokenTokenizer, error) {
	encodingOnce.Do(func() {
		encoding, encodingErr = tiktoken.GetEncoding(encodingName)
	})
	if encodingErr != nil {
		return nil, fmt.Errorf("failed to load %s encoding: %w", encodingName, encodingErr)
	}
	return &TiktokenTokenizer{enc: encoding}, nil
}

func (t *TiktokenTokenizer) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

func (t *TiktokenTokenizer) Decode(tokens []int) string {
	return t.enc.Decode(tokens)
}
