// Package ingest populates the vector store from one PDF document.
package ingest

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"docqa-rag/internal/models"
	"docqa-rag/internal/processor"
)

// Chunker splits page text into embeddable windows.
type Chunker interface {
	Chunk(text string) []string
}

// Embedder vectorizes record contents in batches.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Recognizer extracts best-effort text from a raster image.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// Store persists records with their embeddings.
type Store interface {
	InsertBatch(ctx context.Context, records []models.DocumentRecord, embeddings [][]float32) error
}

// Ingestor turns extracted document content into stored vector records.
type Ingestor struct {
	chunker  Chunker
	embedder Embedder
	ocr      Recognizer
	store    Store
}

// NewIngestor wires the ingestion dependencies. ocr may be nil, in which
// case image content is skipped.
func NewIngestor(chunker Chunker, embedder Embedder, ocr Recognizer, store Store) *Ingestor {
	return &Ingestor{
		chunker:  chunker,
		embedder: embedder,
		ocr:      ocr,
		store:    store,
	}
}

// IngestPDF extracts text, tables and images from the document at path and
// stores them. Failure anywhere on the text path is fatal to ingestion;
// per-item table and OCR failures only show up in the report.
func (ing *Ingestor) IngestPDF(ctx context.Context, path string) (*models.IngestReport, error) {
	texts, err := processor.ExtractText(path)
	if err != nil {
		return nil, fmt.Errorf("ingestion failed: %w", err)
	}

	tables, err := processor.ExtractTables(path)
	if err != nil {
		log.Printf("Warning: table extraction failed, continuing without tables: %v", err)
		tables = nil
	}

	images, err := processor.ExtractImages(path)
	if err != nil {
		log.Printf("Warning: image extraction failed, continuing without images: %v", err)
		images = nil
	}

	return ing.Ingest(ctx, filepath.Base(path), texts, tables, images)
}

// Ingest builds records from extracted content, embeds them and writes them
// to the store. Every stored record has non-empty trimmed content.
func (ing *Ingestor) Ingest(ctx context.Context, source string, texts []processor.PageText, tables []processor.PageTable, images []processor.PageImage) (*models.IngestReport, error) {
	start := time.Now()
	report := &models.IngestReport{}
	var records []models.DocumentRecord

	for _, pt := range texts {
		if strings.TrimSpace(pt.Text) == "" {
			report.SkippedEmpty++
			continue
		}
		for _, chunk := range ing.chunker.Chunk(pt.Text) {
			if strings.TrimSpace(chunk) == "" {
				report.SkippedEmpty++
				continue
			}
			records = append(records, models.DocumentRecord{
				Content:  chunk,
				Modality: models.ModalityText,
				Source:   source,
				Page:     pt.Page,
			})
			report.TextChunks++
		}
	}

	for _, tbl := range tables {
		content := tbl.Serialize()
		if strings.TrimSpace(content) == "" {
			report.SkippedEmpty++
			continue
		}
		records = append(records, models.DocumentRecord{
			Content:  content,
			Modality: models.ModalityTable,
			Source:   source,
			Page:     tbl.Page,
			Caption:  "Extracted table",
		})
		report.Tables++
	}

	for _, img := range images {
		if ing.ocr == nil {
			report.SkippedEmpty++
			continue
		}
		text, err := ing.ocr.Recognize(ctx, img.Data)
		if err != nil {
			log.Printf("Warning: OCR failed for image %s on page %d: %v", img.Name, img.Page, err)
			report.Failed++
			continue
		}
		if strings.TrimSpace(text) == "" {
			report.SkippedEmpty++
			continue
		}
		records = append(records, models.DocumentRecord{
			Content:  text,
			Modality: models.ModalityImage,
			Source:   source,
			Page:     img.Page,
			Caption:  "Extracted text from image",
		})
		report.Images++
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("ingestion failed: no storable content in %s", source)
	}

	contents := make([]string, len(records))
	for i, rec := range records {
		contents[i] = rec.Content
	}

	log.Printf("Embedding %d records from %s...", len(records), source)
	embeddings, err := ing.embedder.EmbedBatch(ctx, contents)
	if err != nil {
		return nil, fmt.Errorf("ingestion failed: %w", err)
	}

	if err := ing.store.InsertBatch(ctx, records, embeddings); err != nil {
		return nil, fmt.Errorf("ingestion failed: %w", err)
	}

	log.Printf("Ingested %d records (%d text, %d tables, %d images) in %v",
		report.Stored(), report.TextChunks, report.Tables, report.Images, time.Since(start))

	return report, nil
}
