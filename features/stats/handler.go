// Package stats reports corpus-level counts.
package stats

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

type Counter interface {
	CountDocuments(ctx context.Context) (int, error)
	CountAllChunks(ctx context.Context) (int, error)
}

type Handler struct {
	counter Counter
}

func NewHandler(counter Counter) *Handler {
	return &Handler{counter: counter}
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	docs, err := h.counter.CountDocuments(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	chunks, err := h.counter.CountAllChunks(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	resp := map[string]int{
		"documents": docs,
		"chunks":    chunks,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	slog.Error("stats query failed", "error", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	if encErr := json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{"code": "INTERNAL_ERROR", "message": "Internal Server Error"},
	}); encErr != nil {
		slog.Error("failed to encode error response", "error", encErr)
	}
}
