package llm

import (
	"strings"
	"testing"

	"docqa-rag/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroundingPromptContainsAllParts(t *testing.T) {
	results := []models.SearchResult{
		{Record: models.DocumentRecord{Content: "First fragment.", Page: 1}},
		{Record: models.DocumentRecord{Content: "Second fragment.", Page: 3}},
	}

	prompt := GroundingPrompt("What color is the sky?", models.IntentLookup, results)

	assert.Contains(t, prompt, "Intent: lookup")
	assert.Contains(t, prompt, "User Question: What color is the sky?")
	assert.Contains(t, prompt, "First fragment.\n\nSecond fragment.")
	assert.Contains(t, prompt, "ONLY from the context")
	assert.Contains(t, prompt, "insufficient")
}

func TestGroundingPromptJoinsContextWithBlankLines(t *testing.T) {
	results := []models.SearchResult{
		{Record: models.DocumentRecord{Content: "a"}},
		{Record: models.DocumentRecord{Content: "b"}},
		{Record: models.DocumentRecord{Content: "c"}},
	}

	prompt := GroundingPrompt("q", models.IntentSummary, results)

	start := strings.Index(prompt, "Context:\n")
	require.Positive(t, start)
	assert.Contains(t, prompt[start:], "a\n\nb\n\nc")
}

func TestGroundingPromptQuestionIsLiteral(t *testing.T) {
	question := "Compare A vs B (see table {2})"
	prompt := GroundingPrompt(question, models.IntentComparison, []models.SearchResult{
		{Record: models.DocumentRecord{Content: "x"}},
	})
	assert.Contains(t, prompt, question)
}
