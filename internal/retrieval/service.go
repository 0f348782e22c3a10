// Package retrieval composes the embedding provider and the vector store
// into "query text -> ranked hits". It has no side effects beyond the query
// log.
package retrieval

import (
	"context"
	"strings"
	"time"

	"ragcore/internal/apperr"
)

// Hit is one ranked retrieval result. Score is cosine similarity,
// 1 - cosine distance.
type Hit struct {
	Title      string  `json:"title"`
	ChunkIndex int     `json:"chunk_index"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
}

type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

type VectorStore interface {
	Query(ctx context.Context, vector []float32, scoreThreshold float64, limit int) ([]Hit, error)
}

// SearchOptions override the configured defaults. Nil fields keep the
// defaults; an explicit zero threshold is honored.
type SearchOptions struct {
	TopK           *int
	ScoreThreshold *float64
}

// Defaults are the deployment-level retrieval knobs.
type Defaults struct {
	TopK           int
	ScoreThreshold float64
}

type Service struct {
	embedder Embedder
	store    VectorStore
	defaults Defaults
	timeout  time.Duration
	logger   *QueryLogger
}

func NewService(e Embedder, s VectorStore, d Defaults, timeout time.Duration, l *QueryLogger) *Service {
	return &Service{embedder: e, store: s, defaults: d, timeout: timeout, logger: l}
}

func (s *Service) Search(ctx context.Context, query string, opts *SearchOptions) ([]Hit, error) {
	start := time.Now()
	var hits []Hit
	var err error

	defer func() {
		if s.logger != nil && err == nil {
			s.logger.Log(QueryLogEntry{
				Query:         query,
				NumResults:    len(hits),
				Duration:      time.Since(start),
				CorrelationID: correlationID(ctx),
			})
		}
	}()

	query = strings.TrimSpace(query)
	if query == "" {
		err = apperr.Validation("EMPTY_QUERY", "query must not be empty")
		return nil, err
	}

	topK := s.defaults.TopK
	threshold := s.defaults.ScoreThreshold
	if opts != nil {
		if opts.TopK != nil {
			topK = *opts.TopK
		}
		if opts.ScoreThreshold != nil {
			threshold = *opts.ScoreThreshold
		}
	}

	embedCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	vector, embedErr := s.embedder.EmbedQuery(embedCtx, query)
	if embedErr != nil {
		err = apperr.Provider("EMBEDDING_FAILED", embedErr)
		return nil, err
	}

	hits, err = s.store.Query(ctx, vector, threshold, topK)
	if err != nil {
		err = apperr.Storage("SEARCH_FAILED", err)
		return nil, err
	}
	return hits, nil
}
