// Package session runs one query turn: parse the question, build the filter,
// retrieve, gate, and synthesize the answer.
package session

import (
	"context"
	"fmt"

	"docqa-rag/internal/models"
	"docqa-rag/internal/query"
	"docqa-rag/internal/retrieval"
)

// QueryParser extracts a structured search intent from a user query.
type QueryParser interface {
	Parse(ctx context.Context, userQuery string) (*models.ParsedQuery, error)
}

// Retriever performs the gated nearest-neighbor search.
type Retriever interface {
	Retrieve(ctx context.Context, semanticQuery string, filter *models.SearchFilter) ([]models.SearchResult, error)
	Assess(results []models.SearchResult) retrieval.Decision
}

// Answerer generates the grounded answer from retrieved context.
type Answerer interface {
	Answer(ctx context.Context, userQuery string, intent models.Intent, results []models.SearchResult) (string, error)
}

// Session answers user queries against the ingested document. It holds no
// mutable state between turns.
type Session struct {
	parser    QueryParser
	retriever Retriever
	llm       Answerer
}

// New creates a Session over the given pipeline stages.
func New(parser QueryParser, retriever Retriever, llm Answerer) *Session {
	return &Session{
		parser:    parser,
		retriever: retriever,
		llm:       llm,
	}
}

// HandleQuery processes one user query and returns its terminal result:
// a grounded answer with source pages, or a no-context / out-of-scope
// rejection. Errors are turn-level; the caller reports them and keeps the
// session alive.
func (s *Session) HandleQuery(ctx context.Context, userQuery string) (*models.TurnResult, error) {
	parsed, err := s.parser.Parse(ctx, userQuery)
	if err != nil {
		return nil, err
	}

	filter := query.BuildFilters(parsed)

	results, err := s.retriever.Retrieve(ctx, parsed.SemanticQuery, filter)
	if err != nil {
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}

	decision := s.retriever.Assess(results)
	switch decision.Outcome {
	case retrieval.NoContext:
		return &models.TurnResult{Status: models.TurnNoContext}, nil
	case retrieval.OutOfScope:
		return &models.TurnResult{
			Status:      models.TurnOutOfScope,
			TopDistance: decision.TopDistance,
			Relevance:   decision.Relevance,
		}, nil
	}

	answer, err := s.llm.Answer(ctx, userQuery, parsed.Intent, results)
	if err != nil {
		return nil, fmt.Errorf("answer generation failed: %w", err)
	}

	return &models.TurnResult{
		Status:      models.TurnAnswered,
		Answer:      answer,
		Pages:       models.SourcePages(results),
		TopDistance: decision.TopDistance,
		Relevance:   decision.Relevance,
	}, nil
}
