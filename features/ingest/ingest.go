// Package ingest owns the document ingestion pipeline:
// VALIDATE -> CHUNK -> EMBED -> PERSIST -> REPORT.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ragcore/internal/apperr"
	"ragcore/internal/config"
	"ragcore/internal/middleware"
	"ragcore/internal/text"
)

type Request struct {
	Title        string
	Text         string
	Description  string
	Source       string
	ChunkSize    int
	ChunkOverlap int
}

type Report struct {
	Title          string `json:"title"`
	TotalChunks    int    `json:"total_chunks"`
	EmbeddedChunks int    `json:"embedded_chunks"`
	InsertedChunks int    `json:"inserted_chunks"`
	DBChunksAfter  int    `json:"db_chunks_after"`
	VectorDim      int    `json:"vector_dim"`
	ContentHash    string `json:"content_hash"`
	Note           string `json:"note"`
}

// StoredChunk is what the vector store persists: a chunk plus its embedding.
type StoredChunk struct {
	ChunkIndex  int
	Title       string
	Content     string
	ContentHash string
	Embedding   []float32
}

type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

type Store interface {
	UpsertDocument(ctx context.Context, title, source string) (string, error)
	// ReplaceChunks swaps the document's chunk set atomically; a reader never
	// observes the document with zero chunks mid-ingest.
	ReplaceChunks(ctx context.Context, documentID string, chunks []StoredChunk) (int, error)
	CountChunks(ctx context.Context, documentID string) (int, error)
}

type EventPublisher interface {
	Publish(topic string, body []byte) error
}

type Service struct {
	embedder Embedder
	store    Store
	pub      EventPublisher
	timeout  time.Duration
}

func NewService(embedder Embedder, store Store, pub EventPublisher, timeout time.Duration) *Service {
	return &Service{embedder: embedder, store: store, pub: pub, timeout: timeout}
}

// Ingest runs the full pipeline. Provider failures abort before any database
// mutation, so a failed ingest never leaves a partially replaced chunk set.
func (s *Service) Ingest(ctx context.Context, req Request) (*Report, error) {
	// VALIDATE: combined content drives both the report hash and chunking.
	parts := make([]string, 0, 3)
	for _, p := range []string{req.Title, req.Description, req.Text} {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	fullContent := strings.Join(parts, "\n\n")
	if fullContent == "" {
		return nil, apperr.Validation("EMPTY_CONTENT", "title, description and text are all empty")
	}
	contentHash := text.Hash(fullContent)

	// CHUNK
	chunks, err := text.Split(req.Title, fullContent, req.ChunkSize, req.ChunkOverlap)
	if err != nil {
		return nil, apperr.Validation("INVALID_CHUNK_PARAMS", err.Error())
	}
	if len(chunks) == 0 {
		return nil, apperr.Validation("CHUNKING_YIELDED_NO_DATA", "chunking produced no chunks")
	}

	// EMBED: one batch call; the vector count must match the chunk count.
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	embedCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	vectors, err := s.embedder.EmbedDocuments(embedCtx, texts)
	if err != nil {
		return nil, apperr.Provider("EMBEDDING_FAILED", err)
	}
	if len(vectors) != len(chunks) {
		return nil, apperr.Provider("EMBEDDINGS_LENGTH_MISMATCH",
			fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(chunks)))
	}

	// PERSIST: upsert the document, then replace its chunk set in one
	// transaction.
	documentID, err := s.store.UpsertDocument(ctx, req.Title, req.Source)
	if err != nil {
		return nil, apperr.Storage("DOCUMENT_UPSERT_FAILED", err)
	}

	stored := make([]StoredChunk, len(chunks))
	for i, c := range chunks {
		stored[i] = StoredChunk{
			ChunkIndex:  c.Index,
			Title:       c.Title,
			Content:     c.Content,
			ContentHash: c.ContentHash,
			Embedding:   vectors[i],
		}
	}

	inserted, err := s.store.ReplaceChunks(ctx, documentID, stored)
	if err != nil {
		return nil, apperr.Storage("CHUNK_REPLACE_FAILED", err)
	}

	// REPORT: read the stored count back for verification.
	after, err := s.store.CountChunks(ctx, documentID)
	if err != nil {
		return nil, apperr.Storage("CHUNK_COUNT_FAILED", err)
	}

	s.publishIngested(ctx, documentID, req.Title, contentHash, inserted)

	return &Report{
		Title:          req.Title,
		TotalChunks:    len(chunks),
		EmbeddedChunks: len(vectors),
		InsertedChunks: inserted,
		DBChunksAfter:  after,
		VectorDim:      len(vectors[0]),
		ContentHash:    contentHash,
		Note:           "Ingest completed: document upserted, previous chunks replaced.",
	}, nil
}

// publishIngested notifies downstream consumers. Failures are logged, never
// surfaced: the ingest itself already committed.
func (s *Service) publishIngested(ctx context.Context, documentID, title, contentHash string, chunks int) {
	if s.pub == nil {
		return
	}
	payload, _ := json.Marshal(map[string]interface{}{
		"document_id":    documentID,
		"title":          title,
		"content_hash":   contentHash,
		"chunks":         chunks,
		"correlation_id": middleware.GetCorrelationID(ctx),
	})
	if err := s.pub.Publish(config.TopicIngested, payload); err != nil {
		slog.ErrorContext(ctx, "failed to publish ingested event", "error", err, "title", title)
	} else {
		slog.InfoContext(ctx, "published ingested event", "document_id", documentID, "title", title)
	}
}
