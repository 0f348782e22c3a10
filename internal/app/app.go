// Package app wires configuration, adapters and features into the HTTP
// surface and owns the server lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"ragcore/features/chat"
	"ragcore/features/ingest"
	"ragcore/features/search"
	"ragcore/features/stats"
	"ragcore/internal/config"
	"ragcore/internal/middleware"
	"ragcore/internal/retrieval"
	"ragcore/internal/worker"
)

// Embedder is the embedding capability the pipelines consume.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Generator is the text generation capability the chat pipeline consumes.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// VectorStore is the union of store methods the features need.
type VectorStore interface {
	UpsertDocument(ctx context.Context, title, source string) (string, error)
	ReplaceChunks(ctx context.Context, documentID string, chunks []ingest.StoredChunk) (int, error)
	CountChunks(ctx context.Context, documentID string) (int, error)
	Query(ctx context.Context, vector []float32, scoreThreshold float64, limit int) ([]retrieval.Hit, error)
	CountDocuments(ctx context.Context) (int, error)
	CountAllChunks(ctx context.Context) (int, error)
}

type TaskPublisher interface {
	Publish(topic string, body []byte) error
}

type App struct {
	Handler          http.Handler
	IngestService    *ingest.Service
	ReingestConsumer *worker.ReingestConsumer

	port int
}

func New(cfg *config.Config, store VectorStore, embedder Embedder, generator Generator, pub TaskPublisher) (*App, error) {
	providerTimeout := time.Duration(cfg.ProviderTimeoutSeconds) * time.Second

	// Feature: Ingest
	ingestService := ingest.NewService(embedder, store, pub, providerTimeout)
	ingestHandler := ingest.NewHandler(ingestService, cfg.RAGChunkSize, cfg.RAGChunkOverlap)

	// Feature: Search
	queryLogger, err := retrieval.NewFileQueryLogger(cfg.QueryLogPath)
	if err != nil {
		slog.Warn("failed to create query logger, falling back to stdout", "error", err)
		queryLogger = retrieval.NewQueryLogger(os.Stdout)
	}

	retrievalService := retrieval.NewService(embedder, store, retrieval.Defaults{
		TopK:           cfg.RAGTopK,
		ScoreThreshold: cfg.RAGScoreThreshold,
	}, providerTimeout, queryLogger)
	searchHandler := search.NewHandler(retrievalService)

	// Feature: Chat
	chatService := chat.NewService(retrievalService, generator, providerTimeout)
	chatHandler := chat.NewHandler(chatService)

	// Feature: Stats
	statsHandler := stats.NewHandler(store)

	// Middleware: CORS
	enableCORS := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}

	// Routes
	mux := http.NewServeMux()

	mux.Handle("POST /ingest", middleware.CorrelationID(enableCORS(ingestHandler.Ingest)))
	mux.Handle("POST /search", middleware.CorrelationID(enableCORS(searchHandler.Search)))
	mux.Handle("POST /chat", middleware.CorrelationID(enableCORS(chatHandler.Chat)))
	mux.Handle("GET /stats", middleware.CorrelationID(enableCORS(statsHandler.GetStats)))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Worker (Reingest Consumer) setup; connected in main when enabled.
	reingestConsumer := worker.NewReingestConsumer(ingestService, cfg.RAGChunkSize, cfg.RAGChunkOverlap, providerTimeout)

	return &App{
		Handler:          mux,
		IngestService:    ingestService,
		ReingestConsumer: reingestConsumer,
		port:             cfg.ServerPort,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.port),
		Handler: a.Handler,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", a.port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
