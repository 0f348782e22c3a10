// Package worker consumes reingest requests from NSQ and feeds them through
// the same ingest pipeline the REST endpoint uses.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nsqio/go-nsq"

	"ragcore/features/ingest"
	"ragcore/internal/apperr"
	"ragcore/internal/middleware"
)

// ReingestPayload mirrors the POST /ingest body. Zero chunk params fall back
// to the configured defaults.
type ReingestPayload struct {
	Title         string `json:"title"`
	Text          string `json:"text"`
	Description   string `json:"description"`
	Source        string `json:"source"`
	ChunkSize     int    `json:"chunk_size"`
	ChunkOverlap  int    `json:"chunk_overlap"`
	CorrelationID string `json:"correlation_id"`
}

type Ingestor interface {
	Ingest(ctx context.Context, req ingest.Request) (*ingest.Report, error)
}

type ReingestConsumer struct {
	ingestor            Ingestor
	defaultChunkSize    int
	defaultChunkOverlap int
	timeout             time.Duration
}

func NewReingestConsumer(ingestor Ingestor, defaultChunkSize, defaultChunkOverlap int, timeout time.Duration) *ReingestConsumer {
	return &ReingestConsumer{
		ingestor:            ingestor,
		defaultChunkSize:    defaultChunkSize,
		defaultChunkOverlap: defaultChunkOverlap,
		timeout:             timeout,
	}
}

func (c *ReingestConsumer) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	var payload ReingestPayload
	if err := json.Unmarshal(m.Body, &payload); err != nil {
		// Poison pill: invalid JSON, don't retry.
		slog.Error("poison pill: invalid json", "error", err)
		return nil
	}

	ctx := context.Background()
	if payload.CorrelationID != "" {
		ctx = middleware.WithCorrelationID(ctx, payload.CorrelationID)
	}

	chunkSize := payload.ChunkSize
	if chunkSize == 0 {
		chunkSize = c.defaultChunkSize
	}
	chunkOverlap := payload.ChunkOverlap
	if chunkOverlap == 0 {
		chunkOverlap = c.defaultChunkOverlap
	}

	ingestCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	report, err := c.ingestor.Ingest(ingestCtx, ingest.Request{
		Title:        payload.Title,
		Text:         payload.Text,
		Description:  payload.Description,
		Source:       payload.Source,
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
	})
	if err != nil {
		if apperr.IsValidation(err) {
			// Retrying won't fix bad input.
			slog.ErrorContext(ctx, "poison pill: invalid reingest payload", "error", err, "title", payload.Title)
			return nil
		}
		slog.ErrorContext(ctx, "reingest failed", "error", err, "title", payload.Title)
		return err // Retry
	}

	slog.InfoContext(ctx, "reingest completed", "title", report.Title, "chunks", report.InsertedChunks)
	return nil
}
