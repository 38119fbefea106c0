package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"docqa-rag/internal/chunker"
	"docqa-rag/internal/config"
	"docqa-rag/internal/database"
	"docqa-rag/internal/embedding"
	"docqa-rag/internal/ingest"
	"docqa-rag/internal/llm"
	"docqa-rag/internal/models"
	"docqa-rag/internal/ocr"
	"docqa-rag/internal/query"
	"docqa-rag/internal/retrieval"
	"docqa-rag/internal/session"

	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "", "Path to yaml config file")
	pdfPath := flag.String("pdf", "", "PDF document to ingest before starting the session")
	queryFlag := flag.String("q", "", "Single query to answer (non-interactive)")
	flag.Parse()

	// Missing .env is fine; environment may be set externally.
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

	embedder, err := embedding.NewOllamaEmbedder(cfg.Ollama.Host, cfg.Ollama.EmbeddingModel)
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}

	llmClient, err := llm.NewOllamaLLM(cfg.Ollama.Host, cfg.Ollama.LLMModel)
	if err != nil {
		log.Fatalf("Failed to create LLM client: %v", err)
	}

	if *pdfPath != "" {
		if err := ingestDocument(ctx, cfg, db, embedder, *pdfPath); err != nil {
			log.Fatalf("Failed to ingest %s: %v", *pdfPath, err)
		}
	}

	parser := query.NewParser(llmClient)
	retriever := retrieval.NewRetriever(embedder, db, cfg.Retrieval.Limit, cfg.Retrieval.Threshold)
	sess := session.New(parser, retriever, llmClient)

	if *queryFlag != "" {
		runTurn(ctx, sess, *queryFlag)
		return
	}

	runInteractive(ctx, sess)
}

func ingestDocument(ctx context.Context, cfg *config.Config, db *database.DB, embedder *embedding.OllamaEmbedder, pdfPath string) error {
	if _, err := os.Stat(pdfPath); err != nil {
		return fmt.Errorf("cannot access PDF: %w", err)
	}

	tok, err := chunker.NewTiktokenTokenizer()
	if err != nil {
		return err
	}
	chk, err := chunker.New(tok, cfg.Chunker.MaxTokens, cfg.Chunker.Overlap)
	if err != nil {
		return err
	}

	visionOCR, err := ocr.NewOllamaOCR(cfg.Ollama.Host, cfg.Ollama.VisionModel)
	if err != nil {
		return err
	}

	ingestor := ingest.NewIngestor(chk, embedder, visionOCR, db)

	log.Printf("Ingesting %s...", pdfPath)
	report, err := ingestor.IngestPDF(ctx, pdfPath)
	if err != nil {
		return err
	}
	log.Printf("Ingestion report: %d stored, %d skipped empty, %d failed",
		report.Stored(), report.SkippedEmpty, report.Failed)

	return nil
}

func runInteractive(ctx context.Context, sess *session.Session) {
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Println("Document Assistant - Ask questions about the ingested document (type 'bye' to quit)")

	for {
		fmt.Print("\nQuery> ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		lower := strings.ToLower(input)
		if lower == "bye" || lower == "exit" || lower == "quit" {
			fmt.Println("Goodbye")
			break
		}

		if input == "" {
			fmt.Println("Please enter a non-empty query.")
			continue
		}

		runTurn(ctx, sess, input)
	}
}

// runTurn processes one query. All failures here are turn-level: report and
// keep the session alive.
func runTurn(ctx context.Context, sess *session.Session, userQuery string) {
	result, err := sess.HandleQuery(ctx, userQuery)
	if err != nil {
		var parseErr *query.ParseError
		if errors.As(err, &parseErr) {
			fmt.Printf("Could not understand the query (%s). Please rephrase.\n", parseErr.Kind)
		} else {
			fmt.Printf("Error: %v\n", err)
		}
		fmt.Println(strings.Repeat("-", 40))
		return
	}

	switch result.Status {
	case models.TurnNoContext:
		fmt.Println("Bot: No relevant context found.")
	case models.TurnOutOfScope:
		fmt.Printf("Bot: Out of scope (distance=%.2f)\n", result.TopDistance)
	case models.TurnAnswered:
		fmt.Printf("\nBot: %s\n", result.Answer)
		fmt.Printf("[Source Pages: %v | Relevance Score: %.2f]\n", result.Pages, result.Relevance)
	}
	fmt.Println(strings.Repeat("-", 40))
}
