// Package chat owns the grounded question answering flow:
// VALIDATE -> RETRIEVE -> (GROUNDED | REFUSE) -> RESPOND.
package chat

import (
	"context"
	"strings"
	"time"

	"ragcore/internal/apperr"
	"ragcore/internal/retrieval"
)

type Source struct {
	Title      string  `json:"title"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float64 `json:"score"`
}

type Result struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Sources  []Source `json:"sources"`
}

type Retriever interface {
	Search(ctx context.Context, query string, opts *retrieval.SearchOptions) ([]retrieval.Hit, error)
}

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Service struct {
	retriever Retriever
	generator Generator
	timeout   time.Duration
}

func NewService(retriever Retriever, generator Generator, timeout time.Duration) *Service {
	return &Service{retriever: retriever, generator: generator, timeout: timeout}
}

// Ask answers a question from retrieved context only. With zero hits the
// generator is never invoked and the canonical refusal comes back — that is
// a successful response, not an error. A generator failure is a provider
// error, never an answer.
func (s *Service) Ask(ctx context.Context, question string, opts *retrieval.SearchOptions) (*Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, apperr.Validation("EMPTY_QUESTION", "question must not be empty")
	}

	hits, err := s.retriever.Search(ctx, question, opts)
	if err != nil {
		return nil, err
	}

	if len(hits) == 0 {
		return &Result{
			Question: question,
			Answer:   NoContextAnswer,
			Sources:  []Source{},
		}, nil
	}

	prompt := BuildPrompt(question, hits)

	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	answer, err := s.generator.Generate(genCtx, prompt)
	if err != nil {
		return nil, apperr.Provider("GENERATION_FAILED", err)
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		answer = NoContextAnswer
	}

	sources := make([]Source, len(hits))
	for i, h := range hits {
		sources[i] = Source{Title: h.Title, ChunkIndex: h.ChunkIndex, Score: h.Score}
	}

	return &Result{Question: question, Answer: answer, Sources: sources}, nil
}
