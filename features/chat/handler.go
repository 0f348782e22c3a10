package chat

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

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question       string   `json:"question"`
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

	result, err := h.service.Ask(r.Context(), req.Question, &retrieval.SearchOptions{
		TopK:           req.TopK,
		ScoreThreshold: req.ScoreThreshold,
	})
	if err != nil {
		if !apperr.IsValidation(err) {
			slog.ErrorContext(r.Context(), "chat failed", "error", err)
		}
		h.writeError(r.Context(), w, apperr.CodeOf(err), apperr.ClientMessage(err), apperr.HTTPStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
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
