package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"docqa-rag/internal/models"
	"docqa-rag/internal/processor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lineChunker splits on newlines, mimicking a chunker without tokenization.
type lineChunker struct{}

func (lineChunker) Chunk(text string) []string {
	var chunks []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			chunks = append(chunks, line)
		}
	}
	return chunks
}

type fakeEmbedder struct {
	err  error
	seen []string
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.seen = texts
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{float32(i)}
	}
	return out, nil
}

// fakeOCR maps image names to recognized text; unknown names fail.
type fakeOCR struct {
	texts map[string]string
}

func (f *fakeOCR) Recognize(ctx context.Context, image []byte) (string, error) {
	text, ok := f.texts[string(image)]
	if !ok {
		return "", fmt.Errorf("unreadable image")
	}
	return text, nil
}

type fakeStore struct {
	err        error
	records    []models.DocumentRecord
	embeddings [][]float32
}

func (f *fakeStore) InsertBatch(ctx context.Context, records []models.DocumentRecord, embeddings [][]float32) error {
	if f.err != nil {
		return f.err
	}
	f.records = records
	f.embeddings = embeddings
	return nil
}

func TestIngestTextPages(t *testing.T) {
	store := &fakeStore{}
	ing := NewIngestor(lineChunker{}, &fakeEmbedder{}, nil, store)

	report, err := ing.Ingest(context.Background(), "doc.pdf", []processor.PageText{
		{Page: 1, Text: "first line\nsecond line"},
		{Page: 2, Text: "third line"},
	}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, report.TextChunks)
	require.Len(t, store.records, 3)
	assert.Equal(t, models.ModalityText, store.records[0].Modality)
	assert.Equal(t, "doc.pdf", store.records[0].Source)
	assert.Equal(t, 1, store.records[0].Page)
	assert.Equal(t, 2, store.records[2].Page)
	assert.Empty(t, store.records[0].Caption)
}

func TestIngestDropsEmptyPages(t *testing.T) {
	store := &fakeStore{}
	ing := NewIngestor(lineChunker{}, &fakeEmbedder{}, nil, store)

	report, err := ing.Ingest(context.Background(), "doc.pdf", []processor.PageText{
		{Page: 1, Text: "   \n\t"},
		{Page: 2, Text: "content"},
	}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, report.TextChunks)
	assert.Equal(t, 1, report.SkippedEmpty)
	require.Len(t, store.records, 1)
	assert.Equal(t, 2, store.records[0].Page, "skipping a page must not shift numbering")
}

func TestIngestTables(t *testing.T) {
	store := &fakeStore{}
	ing := NewIngestor(lineChunker{}, &fakeEmbedder{}, nil, store)

	report, err := ing.Ingest(context.Background(), "doc.pdf", []processor.PageText{
		{Page: 1, Text: "text"},
	}, []processor.PageTable{
		{Page: 3, Rows: [][]string{{"name", "price"}, {"apple", "2"}}},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Tables)
	require.Len(t, store.records, 2)
	table := store.records[1]
	assert.Equal(t, models.ModalityTable, table.Modality)
	assert.Equal(t, "name | price\napple | 2", table.Content)
	assert.Equal(t, "Extracted table", table.Caption)
	assert.Equal(t, 3, table.Page)
}

func TestIngestImagesWithOCR(t *testing.T) {
	store := &fakeStore{}
	ocr := &fakeOCR{texts: map[string]string{
		"img-ok":    "Total revenue 2024",
		"img-blank": "   ",
	}}
	ing := NewIngestor(lineChunker{}, &fakeEmbedder{}, ocr, store)

	report, err := ing.Ingest(context.Background(), "doc.pdf", []processor.PageText{
		{Page: 1, Text: "text"},
	}, nil, []processor.PageImage{
		{Page: 2, Name: "Im1", Data: []byte("img-ok")},
		{Page: 2, Name: "Im2", Data: []byte("img-blank")},
		{Page: 4, Name: "Im3", Data: []byte("img-broken")},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Images)
	assert.Equal(t, 1, report.SkippedEmpty)
	assert.Equal(t, 1, report.Failed)

	require.Len(t, store.records, 2)
	img := store.records[1]
	assert.Equal(t, models.ModalityImage, img.Modality)
	assert.Equal(t, "Total revenue 2024", img.Content)
	assert.Equal(t, "Extracted text from image", img.Caption)
	assert.Equal(t, 2, img.Page)
}

func TestIngestEveryStoredRecordHasContent(t *testing.T) {
	store := &fakeStore{}
	ing := NewIngestor(lineChunker{}, &fakeEmbedder{}, nil, store)

	_, err := ing.Ingest(context.Background(), "doc.pdf", []processor.PageText{
		{Page: 1, Text: "a\n \nb"},
	}, []processor.PageTable{
		{Page: 2, Rows: [][]string{{" "}, {""}}},
	}, nil)
	require.NoError(t, err)

	for _, rec := range store.records {
		assert.NotEmpty(t, strings.TrimSpace(rec.Content))
	}
}

func TestIngestEmbeddingsAlignedWithRecords(t *testing.T) {
	store := &fakeStore{}
	embedder := &fakeEmbedder{}
	ing := NewIngestor(lineChunker{}, embedder, nil, store)

	_, err := ing.Ingest(context.Background(), "doc.pdf", []processor.PageText{
		{Page: 1, Text: "a\nb\nc"},
	}, nil, nil)
	require.NoError(t, err)

	require.Len(t, embedder.seen, 3)
	require.Len(t, store.embeddings, 3)
	for i, rec := range store.records {
		assert.Equal(t, rec.Content, embedder.seen[i])
	}
}

func TestIngestNoContentIsFatal(t *testing.T) {
	ing := NewIngestor(lineChunker{}, &fakeEmbedder{}, nil, &fakeStore{})

	_, err := ing.Ingest(context.Background(), "doc.pdf", []processor.PageText{
		{Page: 1, Text: "   "},
	}, nil, nil)
	require.Error(t, err)
}

func TestIngestEmbedderFailureIsFatal(t *testing.T) {
	ing := NewIngestor(lineChunker{}, &fakeEmbedder{err: errors.New("ollama down")}, nil, &fakeStore{})

	_, err := ing.Ingest(context.Background(), "doc.pdf", []processor.PageText{
		{Page: 1, Text: "content"},
	}, nil, nil)
	require.Error(t, err)
	assert.ErrorContains(t, err, "ingestion failed")
}

func TestIngestStoreFailureIsFatal(t *testing.T) {
	ing := NewIngestor(lineChunker{}, &fakeEmbedder{}, nil, &fakeStore{err: errors.New("insert failed")})

	_, err := ing.Ingest(context.Background(), "doc.pdf", []processor.PageText{
		{Page: 1, Text: "content"},
	}, nil, nil)
	require.Error(t, err)
	assert.ErrorContains(t, err, "ingestion failed")
}

func TestIngestSkipsImagesWithoutRecognizer(t *testing.T) {
	store := &fakeStore{}
	ing := NewIngestor(lineChunker{}, &fakeEmbedder{}, nil, store)

	report, err := ing.Ingest(context.Background(), "doc.pdf", []processor.PageText{
		{Page: 1, Text: "text"},
	}, nil, []processor.PageImage{
		{Page: 2, Name: "Im1", Data: []byte("img")},
	})
	require.NoError(t, err)

	assert.Zero(t, report.Images)
	assert.Equal(t, 1, report.SkippedEmpty)
}
