package query

import (
	"context"
	"errors"
	"testing"

	"docqa-rag/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGenerator returns a canned response or error.
type fakeGenerator struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

const validIntent = `{
	"semantic_query": "sky color",
	"modality": "any",
	"intent": "lookup",
	"keywords": ["sky", "color"],
	"filters": {}
}`

func TestParseValidResponse(t *testing.T) {
	gen := &fakeGenerator{response: validIntent}
	p := NewParser(gen)

	parsed, err := p.Parse(context.Background(), "What color is the sky?")
	require.NoError(t, err)

	assert.Equal(t, "sky color", parsed.SemanticQuery)
	assert.Equal(t, models.ModalityAny, parsed.Modality)
	assert.Equal(t, models.IntentLookup, parsed.Intent)
	assert.Equal(t, []string{"sky", "color"}, parsed.Keywords)
}

func TestParseIncludesUserQueryInPrompt(t *testing.T) {
	gen := &fakeGenerator{response: validIntent}
	p := NewParser(gen)

	_, err := p.Parse(context.Background(), "What color is the sky?")
	require.NoError(t, err)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "What color is the sky?")
	assert.Contains(t, gen.prompts[0], "semantic_query")
}

func TestParseExtractsJSONFromSurroundingProse(t *testing.T) {
	gen := &fakeGenerator{response: "Sure! Here is the parse:\n```json\n" + validIntent + "\n```\nLet me know if you need anything else."}
	p := NewParser(gen)

	parsed, err := p.Parse(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "sky color", parsed.SemanticQuery)
}

func TestParseUsesLastTopLevelObject(t *testing.T) {
	first := `{"semantic_query": "stale", "modality": "text", "intent": "lookup"}`
	gen := &fakeGenerator{response: "Draft: " + first + "\nFinal: " + validIntent}
	p := NewParser(gen)

	parsed, err := p.Parse(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "sky color", parsed.SemanticQuery)
}

func TestParseHandlesNestedObjects(t *testing.T) {
	nested := `{
		"semantic_query": "architecture diagram",
		"modality": "image",
		"intent": "explanation",
		"keywords": ["architecture"],
		"filters": {"section": {"name": "overview"}}
	}`
	gen := &fakeGenerator{response: nested}
	p := NewParser(gen)

	parsed, err := p.Parse(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, models.ModalityImage, parsed.Modality)
}

func TestParseNoJSONFound(t *testing.T) {
	gen := &fakeGenerator{response: "I cannot parse that query, sorry."}
	p := NewParser(gen)

	_, err := p.Parse(context.Background(), "q")

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, NoJSONFound, parseErr.Kind)
	assert.Equal(t, gen.response, parseErr.Raw)
}

func TestParseInvalidJSON(t *testing.T) {
	gen := &fakeGenerator{response: `{"semantic_query": "x", "modality": }`}
	p := NewParser(gen)

	_, err := p.Parse(context.Background(), "q")

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, InvalidJSON, parseErr.Kind)
}

func TestParseSchemaViolations(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{
			"missing modality",
			`{"semantic_query": "x", "intent": "lookup", "keywords": [], "filters": {}}`,
		},
		{
			"unknown modality",
			`{"semantic_query": "x", "modality": "video", "intent": "lookup", "keywords": [], "filters": {}}`,
		},
		{
			"unknown intent",
			`{"semantic_query": "x", "modality": "text", "intent": "guess", "keywords": [], "filters": {}}`,
		},
		{
			"missing semantic query",
			`{"modality": "text", "intent": "lookup", "keywords": [], "filters": {}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParser(&fakeGenerator{response: tt.response})

			_, err := p.Parse(context.Background(), "q")

			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, SchemaViolation, parseErr.Kind)
		})
	}
}

func TestParseGeneratorErrorIsNotParseError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("connection refused")}
	p := NewParser(gen)

	_, err := p.Parse(context.Background(), "q")
	require.Error(t, err)

	var parseErr *ParseError
	assert.False(t, errors.As(err, &parseErr))
}

func TestExtractJSONIgnoresBracesInStrings(t *testing.T) {
	span, ok := extractJSON(`{"semantic_query": "what does {x} mean?", "modality": "any"}`)
	require.True(t, ok)
	assert.Equal(t, `{"semantic_query": "what does {x} mean?", "modality": "any"}`, span)
}

func TestExtractJSONUnbalanced(t *testing.T) {
	_, ok := extractJSON(`{"semantic_query": "truncated`)
	assert.False(t, ok)
}
