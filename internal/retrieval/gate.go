// Package retrieval issues the filtered nearest-neighbor search and decides
// whether the retrieved context is trustworthy enough to answer from.
package retrieval

import (
	"context"
	"fmt"

	"docqa-rag/internal/models"
)

const (
	// DefaultLimit is the number of nearest neighbors requested per query.
	DefaultLimit = 5
	// DefaultThreshold is the maximum cosine distance of the nearest result
	// for a query to be considered in scope. A single-number gate, tuned by
	// hand rather than derived from data.
	DefaultThreshold = 0.5
)

// Embedder turns the semantic query text into a vector.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Searcher is the nearest-neighbor search the vector store exposes.
type Searcher interface {
	SearchSimilar(ctx context.Context, embedding []float32, filter *models.SearchFilter, limit int) ([]models.SearchResult, error)
}

// Outcome is the gate's relevance decision.
type Outcome int

const (
	// Answerable means the nearest result is close enough to ground an answer.
	Answerable Outcome = iota
	// NoContext means the search returned nothing.
	NoContext
	// OutOfScope means the nearest result is too distant to trust.
	OutOfScope
)

// Decision carries the gate outcome together with the triggering distance
// and the derived display score.
type Decision struct {
	Outcome     Outcome
	TopDistance float64
	Relevance   float64
}

// Retriever runs gated retrieval against the vector store.
type Retriever struct {
	embedder  Embedder
	store     Searcher
	limit     int
	threshold float64
}

// NewRetriever wires the embedder and store. Non-positive limit and threshold
// fall back to the defaults.
func NewRetriever(embedder Embedder, store Searcher, limit int, threshold float64) *Retriever {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Retriever{
		embedder:  embedder,
		store:     store,
		limit:     limit,
		threshold: threshold,
	}
}

// Retrieve embeds the semantic query and performs a single nearest-neighbor
// search, nearest first, at most limit results.
func (r *Retriever) Retrieve(ctx context.Context, semanticQuery string, filter *models.SearchFilter) ([]models.SearchResult, error) {
	embedding, err := r.embedder.EmbedText(ctx, semanticQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to embed semantic query: %w", err)
	}

	results, err := r.store.SearchSimilar(ctx, embedding, filter, r.limit)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	return results, nil
}

// Assess computes the relevance decision for a result set. Empty results
// reject with NoContext; a nearest distance above the threshold rejects with
// OutOfScope. Generation must be skipped on both rejection paths.
func (r *Retriever) Assess(results []models.SearchResult) Decision {
	if len(results) == 0 {
		return Decision{Outcome: NoContext}
	}

	d0 := results[0].Distance
	decision := Decision{
		TopDistance: d0,
		Relevance:   RelevanceScore(d0),
	}
	if d0 > r.threshold {
		decision.Outcome = OutOfScope
		return decision
	}
	decision.Outcome = Answerable
	return decision
}

// RelevanceScore derives the display score 1-distance. pgvector's cosine
// distance ranges over [0,2], so the score is clamped to [0,1].
func RelevanceScore(distance float64) float64 {
	score := 1 - distance
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
