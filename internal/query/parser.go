// Package query turns a free-text user question into a structured search
// intent and derives the database filter from it.
package query

import (
	"context"
	"encoding/json"
	"fmt"

	"docqa-rag/internal/models"

	"github.com/go-playground/validator/v10"
)

// queryParserSystemPrompt is the fixed instruction describing the JSON shape
// the model must return. Single source of truth for the parse contract.
const queryParserSystemPrompt = `You are a query parser for a vector search system.

Extract structured search intent from the user query.

Return ONLY valid JSON with these fields:
- semantic_query: string (rewritten query for semantic search)
- modality: one of ["text", "image", "table", "any"]
- intent: one of ["definition", "explanation", "comparison", "lookup", "summary"]
- keywords: list of important keywords
- filters: object (may be empty)

Do NOT add any extra text.`

// ParseErrorKind distinguishes the ways an LLM response can fail to yield a
// valid parsed query.
type ParseErrorKind string

const (
	// NoJSONFound means the response contained no balanced {...} span.
	NoJSONFound ParseErrorKind = "no_json_found"
	// InvalidJSON means the extracted span was not syntactically valid JSON.
	InvalidJSON ParseErrorKind = "invalid_json"
	// SchemaViolation means required fields were missing or enum fields held
	// unrecognized values.
	SchemaViolation ParseErrorKind = "schema_violation"
)

// ParseError reports malformed or contract-breaking LLM output. It keeps the
// raw model text so callers can log what the model actually said. Parse
// errors are non-retriable for a given query; the caller should ask the user
// to rephrase and keep the session alive.
type ParseError struct {
	Kind ParseErrorKind
	Raw  string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("query parse failed (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("query parse failed (%s)", e.Kind)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Generator is the single synchronous LLM call the parser depends on.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Parser extracts a structured search intent from a user query via one LLM
// call. The model output is untrusted and fully validated before use.
type Parser struct {
	llm      Generator
	validate *validator.Validate
}

// NewParser creates a Parser around the given LLM.
func NewParser(llm Generator) *Parser {
	return &Parser{
		llm:      llm,
		validate: validator.New(),
	}
}

// Parse sends the user query with the fixed parse instruction to the LLM and
// extracts a validated ParsedQuery from the response.
func (p *Parser) Parse(ctx context.Context, userQuery string) (*models.ParsedQuery, error) {
	prompt := fmt.Sprintf("%s\n\nUser query:\n%s", queryParserSystemPrompt, userQuery)

	raw, err := p.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("query parser generation call: %w", err)
	}

	span, ok := extractJSON(raw)
	if !ok {
		return nil, &ParseError{Kind: NoJSONFound, Raw: raw}
	}

	var parsed models.ParsedQuery
	if err := json.Unmarshal([]byte(span), &parsed); err != nil {
		return nil, &ParseError{Kind: InvalidJSON, Raw: raw, Err: err}
	}

	if err := p.validate.Struct(&parsed); err != nil {
		return nil, &ParseError{Kind: SchemaViolation, Raw: raw, Err: err}
	}

	return &parsed, nil
}

// extractJSON returns the last balanced top-level {...} span in text. Models
// sometimes wrap the object in prose or code fences, and a greedy
// first-to-last regex breaks on nested objects, so this walks the text with a
// brace counter that is aware of string literals and escapes.
func extractJSON(text string) (string, bool) {
	var (
		start    = -1
		depth    = 0
		inString = false
		escaped  = false
		lastSpan string
	)

	for i, r := range text {
		if escaped {
			escaped = false
			continue
		}
		switch r {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if inString {
				continue
			}
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if inString || depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				lastSpan = text[start : i+1]
			}
		}
	}

	if lastSpan == "" {
		return "", false
	}
	return lastSpan, true
}
