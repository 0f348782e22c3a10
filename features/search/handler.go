// Package search exposes the retrieval service as POST /search. It has no
// side effects beyond the query log.
package search

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"ragcore/internal/apperr"
	"ragcore/internal/middleware"
	"ragcore/internal/retrieval"
)

const maxTopK = 50

type Retriever interface {
	Search(ctx context.Context, query string, opts *retrieval.SearchOptions) ([]retrieval.Hit, error)
}

type Handler struct {
	retriever Retriever
}

func NewHandler(retriever Retriever) *Handler {
	return &Handler{retriever: retriever}
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query          string   `json:"query"`
		TopK           *int     `json:"top_k"`
		ScoreThreshold *float64 `json:"score_threshold"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}

	if req.TopK != nil && (*req.TopK < 1 || *req.TopK > maxTopK) {
		h.writeError(r.Context(), w, "INVALID_TOP_K", "top_k must be within [1,50]", http.StatusUnprocessableEntity)
		return
	}
	if req.ScoreThreshold != nil && (*req.ScoreThreshold < 0 || *req.ScoreThreshold > 1) {
		h.writeError(r.Context(), w, "INVALID_SCORE_THRESHOLD", "score_threshold must be within [0,1]", http.StatusUnprocessableEntity)
		return
	}

	hits, err := h.retriever.Search(r.Context(), req.Query, &retrieval.SearchOptions{
		TopK:           req.TopK,
		ScoreThreshold: req.ScoreThreshold,
	})
	if err != nil {
		if !apperr.IsValidation(err) {
			slog.ErrorContext(r.Context(), "search failed", "error", err)
		}
		h.writeError(r.Context(), w, apperr.CodeOf(err), apperr.ClientMessage(err), apperr.HTTPStatus(err))
		return
	}

	// Ensure we return [] instead of null for empty hit lists.
	if hits == nil {
		hits = []retrieval.Hit{}
	}

	w.Header().Set("Content-Type", "application/json")
	resp := map[string]interface{}{
		"query": req.Query,
		"hits":  hits,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
