package models

import "sort"

// Modality is the content type of a stored record.
type Modality string

const (
	ModalityText  Modality = "text"
	ModalityImage Modality = "image"
	ModalityTable Modality = "table"
	// ModalityAny is only valid inside a parsed query, never on a stored record.
	ModalityAny Modality = "any"
)

// Intent classifies the purpose of a user query. It shapes the answer prompt
// and is not used for retrieval filtering.
type Intent string

const (
	IntentDefinition  Intent = "definition"
	IntentExplanation Intent = "explanation"
	IntentComparison  Intent = "comparison"
	IntentLookup      Intent = "lookup"
	IntentSummary     Intent = "summary"
)

// DocumentRecord is the unit stored in the vector database.
type DocumentRecord struct {
	Content  string   `json:"content"`
	Modality Modality `json:"modality"`
	Source   string   `json:"source"`
	Page     int      `json:"page"` // 1-based, 0 if unknown
	Caption  string   `json:"caption,omitempty"`
}

// ParsedQuery is the structured search intent extracted from a user query.
// It is produced by an untrusted LLM, so the validate tags are the contract
// the parser enforces before any field is used.
type ParsedQuery struct {
	SemanticQuery string         `json:"semantic_query" validate:"required"`
	Modality      Modality       `json:"modality" validate:"required,oneof=text image table any"`
	Intent        Intent         `json:"intent" validate:"required,oneof=definition explanation comparison lookup summary"`
	Keywords      []string       `json:"keywords"`
	Filters       map[string]any `json:"filters"`
}

// SearchFilter narrows a nearest-neighbor search to one modality.
// A nil *SearchFilter means no filtering.
type SearchFilter struct {
	Modality Modality
}

// SearchResult pairs a stored record with its distance to the query vector.
// Smaller distance means more similar.
type SearchResult struct {
	Record   DocumentRecord
	Distance float64
}

// TurnStatus is the terminal outcome of one query turn.
type TurnStatus string

const (
	TurnAnswered   TurnStatus = "answered"
	TurnNoContext  TurnStatus = "no_context"
	TurnOutOfScope TurnStatus = "out_of_scope"
)

// TurnResult is what one user query turn produces: either a grounded answer
// with its source pages, or a rejection from the retrieval gate.
type TurnResult struct {
	Status      TurnStatus
	Answer      string
	Pages       []int
	TopDistance float64
	Relevance   float64
}

// IngestReport summarizes one ingestion run per item kind.
type IngestReport struct {
	TextChunks   int
	Tables       int
	Images       int
	SkippedEmpty int
	Failed       int
}

// Stored is the total number of records written to the store.
func (r IngestReport) Stored() int {
	return r.TextChunks + r.Tables + r.Images
}

// SourcePages returns the sorted distinct page numbers of the results.
func SourcePages(results []SearchResult) []int {
	seen := make(map[int]struct{}, len(results))
	var pages []int
	for _, res := range results {
		if _, ok := seen[res.Record.Page]; ok {
			continue
		}
		seen[res.Record.Page] = struct{}{}
		pages = append(pages, res.Record.Page)
	}
	sort.Ints(pages)
	return pages
}
