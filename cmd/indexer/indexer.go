package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"docqa-rag/internal/chunker"
	"docqa-rag/internal/config"
	"docqa-rag/internal/database"
	"docqa-rag/internal/embedding"
	"docqa-rag/internal/ingest"
	"docqa-rag/internal/ocr"

	"github.com/joho/godotenv"
)

func main() {
	pdfPath := flag.String("pdf", "", "Path to PDF file (required)")
	configPath := flag.String("config", "", "Path to yaml config file")
	maxConcurrent := flag.Int("max-concurrent", 3, "Maximum concurrent embedding requests")
	skipImages := flag.Bool("skip-images", false, "Skip image extraction and OCR")
	clear := flag.Bool("clear", false, "Delete previously stored records for this document first")
	flag.Parse()

	if *pdfPath == "" {
		log.Fatal("PDF path is required")
	}
	if _, err := os.Stat(*pdfPath); os.IsNotExist(err) {
		log.Fatalf("PDF file does not exist: %s", *pdfPath)
	}

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	db, err := database.NewDB(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(ctx, cfg.EmbeddingDim); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	log.Println("Database initialized successfully")

	embedder, err := embedding.NewOllamaEmbedder(cfg.Ollama.Host, cfg.Ollama.EmbeddingModel)
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}
	embedder.MaxConcurrent = *maxConcurrent

	tok, err := chunker.NewTiktokenTokenizer()
	if err != nil {
		log.Fatalf("Failed to load tokenizer: %v", err)
	}
	chk, err := chunker.New(tok, cfg.Chunker.MaxTokens, cfg.Chunker.Overlap)
	if err != nil {
		log.Fatalf("Failed to create chunker: %v", err)
	}

	var recognizer ingest.Recognizer
	if !*skipImages {
		visionOCR, err := ocr.NewOllamaOCR(cfg.Ollama.Host, cfg.Ollama.VisionModel)
		if err != nil {
			log.Fatalf("Failed to create OCR client: %v", err)
		}
		recognizer = visionOCR
	}

	if *clear {
		if err := db.Clear(ctx, filepath.Base(*pdfPath)); err != nil {
			log.Fatalf("Failed to clear previous records: %v", err)
		}
	}

	ingestor := ingest.NewIngestor(chk, embedder, recognizer, db)

	log.Printf("Processing PDF: %s", *pdfPath)
	start := time.Now()
	report, err := ingestor.IngestPDF(ctx, *pdfPath)
	if err != nil {
		log.Fatalf("Failed to ingest PDF: %v", err)
	}

	log.Printf("Done in %v: %d text chunks, %d tables, %d images stored; %d skipped empty, %d failed",
		time.Since(start), report.TextChunks, report.Tables, report.Images,
		report.SkippedEmpty, report.Failed)
}
