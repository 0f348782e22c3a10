package ingest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"ragcore/internal/apperr"
	"ragcore/internal/middleware"
)

// Request bounds, matching the documented API contract.
const (
	minChunkSize    = 200
	maxChunkSize    = 4000
	maxChunkOverlap = 1000
)

type Handler struct {
	service             *Service
	defaultChunkSize    int
	defaultChunkOverlap int
}

func NewHandler(service *Service, defaultChunkSize, defaultChunkOverlap int) *Handler {
	return &Handler{
		service:             service,
		defaultChunkSize:    defaultChunkSize,
		defaultChunkOverlap: defaultChunkOverlap,
	}
}

func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title        string `json:"title"`
		Text         string `json:"text"`
		Description  string `json:"description"`
		Source       string `json:"source"`
		ChunkSize    *int   `json:"chunk_size"`
		ChunkOverlap *int   `json:"chunk_overlap"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}

	chunkSize := h.defaultChunkSize
	if req.ChunkSize != nil {
		chunkSize = *req.ChunkSize
	}
	chunkOverlap := h.defaultChunkOverlap
	if req.ChunkOverlap != nil {
		chunkOverlap = *req.ChunkOverlap
	}

	if chunkSize < minChunkSize || chunkSize > maxChunkSize {
		h.writeError(r.Context(), w, "INVALID_CHUNK_PARAMS", "chunk_size must be within [200,4000]", http.StatusUnprocessableEntity)
		return
	}
	if chunkOverlap < 0 || chunkOverlap > maxChunkOverlap {
		h.writeError(r.Context(), w, "INVALID_CHUNK_PARAMS", "chunk_overlap must be within [0,1000]", http.StatusUnprocessableEntity)
		return
	}

	report, err := h.service.Ingest(r.Context(), Request{
		Title:        req.Title,
		Text:         req.Text,
		Description:  req.Description,
		Source:       req.Source,
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
	})
	if err != nil {
		if !apperr.IsValidation(err) {
			slog.ErrorContext(r.Context(), "ingest failed", "error", err, "title", req.Title)
		}
		h.writeError(r.Context(), w, apperr.CodeOf(err), apperr.ClientMessage(err), apperr.HTTPStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(report); err != nil {
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
