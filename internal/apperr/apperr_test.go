package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"ragcore/internal/apperr"
)

func TestErrorFormatting(t *testing.T) {
	cause := errors.New("connection refused")

	e := apperr.Storage("DB_DOWN", cause)
	assert.Equal(t, "DB_DOWN: connection refused", e.Error())
	assert.ErrorIs(t, e, cause)

	v := apperr.Validation("EMPTY_QUERY", "query must not be empty")
	assert.Equal(t, "EMPTY_QUERY: query must not be empty", v.Error())
	assert.Nil(t, v.Unwrap())
}

func TestFromUnwrapsChain(t *testing.T) {
	inner := apperr.Provider("EMBEDDING_FAILED", errors.New("quota"))
	wrapped := fmt.Errorf("ingest: %w", inner)

	e, ok := apperr.From(wrapped)
	assert.True(t, ok)
	assert.Equal(t, apperr.KindProvider, e.Kind)
	assert.Equal(t, "EMBEDDING_FAILED", e.Code)

	_, ok = apperr.From(errors.New("plain"))
	assert.False(t, ok)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"Validation", apperr.Validation("EMPTY_QUERY", "empty"), http.StatusUnprocessableEntity},
		{"Provider", apperr.Provider("EMBEDDING_FAILED", errors.New("x")), http.StatusBadGateway},
		{"Storage", apperr.Storage("SEARCH_FAILED", errors.New("x")), http.StatusInternalServerError},
		{"Unknown", errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperr.HTTPStatus(tt.err))
		})
	}
}

func TestIsValidation(t *testing.T) {
	assert.True(t, apperr.IsValidation(apperr.Validation("C", "m")))
	assert.False(t, apperr.IsValidation(apperr.Storage("C", errors.New("x"))))
	assert.False(t, apperr.IsValidation(errors.New("plain")))
}

func TestClientFacingFields(t *testing.T) {
	assert.Equal(t, "EMPTY_QUERY", apperr.CodeOf(apperr.Validation("EMPTY_QUERY", "empty")))
	assert.Equal(t, "INTERNAL_ERROR", apperr.CodeOf(errors.New("plain")))

	// Internal details never leak through the client message.
	e := apperr.Storage("SEARCH_FAILED", errors.New("pq: password authentication failed"))
	assert.Equal(t, "Internal Server Error", apperr.ClientMessage(e))
	assert.Equal(t, "Upstream provider error", apperr.ClientMessage(apperr.Provider("X", errors.New("key leaked"))))
	assert.Equal(t, "Internal Server Error", apperr.ClientMessage(errors.New("plain")))
}
