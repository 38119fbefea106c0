// Package database implements the pgvector-backed document store.
package database

import (
	"context"
	"fmt"

	"docqa-rag/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// insertBatchSize is how many records a single pgx batch carries.
const insertBatchSize = 50

// DB represents the database connection.
type DB struct {
	Pool *pgxpool.Pool
}

// NewDB creates a new database connection pool and verifies it.
func NewDB(ctx context.Context, connStr string) (*DB, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Initialize sets up the documents table and indices. Idempotent; the
// embedding dimension must match the configured embedding model.
func (db *DB) Initialize(ctx context.Context, embeddingDim int) error {
	if embeddingDim <= 0 {
		return fmt.Errorf("invalid embedding dimension: %d", embeddingDim)
	}

	_, err := db.Pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`)
	if err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	_, err = db.Pool.Exec(ctx, fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS documents (
            id UUID PRIMARY KEY,
            content TEXT NOT NULL,
            modality TEXT NOT NULL CHECK (modality IN ('text', 'image', 'table')),
            source TEXT NOT NULL,
            page INTEGER NOT NULL DEFAULT 0,
            caption TEXT,
            embedding vector(%d) NOT NULL
        )
    `, embeddingDim))
	if err != nil {
		return fmt.Errorf("failed to create documents table: %w", err)
	}

	_, err = db.Pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS documents_embedding_idx ON documents
		USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)
	`)
	if err != nil {
		return fmt.Errorf("failed to create vector index: %w", err)
	}

	_, err = db.Pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS documents_modality_idx ON documents (modality)
	`)
	if err != nil {
		return fmt.Errorf("failed to create modality index: %w", err)
	}

	return nil
}

// Clear removes all records for a source document.
func (db *DB) Clear(ctx context.Context, source string) error {
	_, err := db.Pool.Exec(ctx, `DELETE FROM documents WHERE source = $1`, source)
	if err != nil {
		return fmt.Errorf("failed to clear documents for %s: %w", source, err)
	}
	return nil
}

// InsertBatch stores records with their embeddings, index-aligned, in fixed
// size pgx batches.
func (db *DB) InsertBatch(ctx context.Context, records []models.DocumentRecord, embeddings [][]float32) error {
	if len(records) != len(embeddings) {
		return fmt.Errorf("records and embeddings length mismatch: %d vs %d", len(records), len(embeddings))
	}

	for offset := 0; offset < len(records); offset += insertBatchSize {
		end := offset + insertBatchSize
		if end > len(records) {
			end = len(records)
		}

		batch := &pgx.Batch{}
		for i := offset; i < end; i++ {
			batch.Queue(`
				INSERT INTO documents (id, content, modality, source, page, caption, embedding)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`,
				uuid.New(),
				records[i].Content,
				string(records[i].Modality),
				records[i].Source,
				records[i].Page,
				records[i].Caption,
				pgvector.NewVector(embeddings[i]),
			)
		}

		results := db.Pool.SendBatch(ctx, batch)
		if err := results.Close(); err != nil {
			return fmt.Errorf("failed to insert batch at offset %d: %w", offset, err)
		}
	}

	return nil
}

// SearchSimilar finds the records nearest to the query embedding by cosine
// distance, optionally restricted to one modality, nearest first.
func (db *DB) SearchSimilar(ctx context.Context, embedding []float32, filter *models.SearchFilter, limit int) ([]models.SearchResult, error) {
	if len(embedding) == 0 {
		return nil, fmt.Errorf("empty query embedding")
	}
	if limit <= 0 {
		limit = 5
	}

	vector := pgvector.NewVector(embedding)

	var rows pgx.Rows
	var err error
	if filter != nil {
		rows, err = db.Pool.Query(ctx, `
			SELECT content, modality, source, page, COALESCE(caption, ''),
			       embedding <=> $1 AS distance
			FROM documents
			WHERE modality = $2
			ORDER BY embedding <=> $1
			LIMIT $3
		`, vector, string(filter.Modality), limit)
	} else {
		rows, err = db.Pool.Query(ctx, `
			SELECT content, modality, source, page, COALESCE(caption, ''),
			       embedding <=> $1 AS distance
			FROM documents
			ORDER BY embedding <=> $1
			LIMIT $2
		`, vector, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query similar documents: %w", err)
	}
	defer rows.Close()

	var results []models.SearchResult
	for rows.Next() {
		var res models.SearchResult
		var modality string
		if err := rows.Scan(
			&res.Record.Content,
			&modality,
			&res.Record.Source,
			&res.Record.Page,
			&res.Record.Caption,
			&res.Distance,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		res.Record.Modality = models.Modality(modality)
		results = append(results, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return results, nil
}

// Close closes the database connection pool.
func (db *DB) Close() {
	db.Pool.Close()
}
