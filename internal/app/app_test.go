package app_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ragcore/features/ingest"
	"ragcore/internal/app"
	"ragcore/internal/config"
	"ragcore/internal/retrieval"
)

type MockEmbedder struct{ mock.Mock }

func (m *MockEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

func (m *MockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

type MockGenerator struct{ mock.Mock }

func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

type MockStore struct{ mock.Mock }

func (m *MockStore) UpsertDocument(ctx context.Context, title, source string) (string, error) {
	args := m.Called(ctx, title, source)
	return args.String(0), args.Error(1)
}

func (m *MockStore) ReplaceChunks(ctx context.Context, documentID string, chunks []ingest.StoredChunk) (int, error) {
	args := m.Called(ctx, documentID, chunks)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) CountChunks(ctx context.Context, documentID string) (int, error) {
	args := m.Called(ctx, documentID)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) Query(ctx context.Context, vector []float32, scoreThreshold float64, limit int) ([]retrieval.Hit, error) {
	args := m.Called(ctx, vector, scoreThreshold, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]retrieval.Hit), args.Error(1)
}

func (m *MockStore) CountDocuments(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) CountAllChunks(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		RAGTopK:                3,
		RAGScoreThreshold:      0.10,
		RAGChunkSize:           1000,
		RAGChunkOverlap:        200,
		ProviderTimeoutSeconds: 5,
		ServerPort:             0,
		QueryLogPath:           filepath.Join(t.TempDir(), "query.log"),
	}
}

func newApp(t *testing.T, store *MockStore, e *MockEmbedder, g *MockGenerator) *app.App {
	t.Helper()
	a, err := app.New(testConfig(t), store, e, g, nil)
	require.NoError(t, err)
	return a
}

func TestApp_Routes(t *testing.T) {
	t.Run("Health", func(t *testing.T) {
		a := newApp(t, new(MockStore), new(MockEmbedder), new(MockGenerator))

		rec := httptest.NewRecorder()
		a.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})

	t.Run("Ingest Wired End To End", func(t *testing.T) {
		store := new(MockStore)
		e := new(MockEmbedder)
		e.On("EmbedDocuments", mock.Anything, mock.Anything).Return([][]float32{{0.1, 0.2}}, nil)
		store.On("UpsertDocument", mock.Anything, "Doc", "").Return("doc-1", nil)
		store.On("ReplaceChunks", mock.Anything, "doc-1", mock.Anything).Return(1, nil)
		store.On("CountChunks", mock.Anything, "doc-1").Return(1, nil)

		a := newApp(t, store, e, new(MockGenerator))

		req := httptest.NewRequest(http.MethodPost, "/ingest", strings.NewReader(`{"title":"Doc","text":"hello"}`))
		rec := httptest.NewRecorder()
		a.Handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"inserted_chunks":1`)
		assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
	})

	t.Run("Search Wired End To End", func(t *testing.T) {
		store := new(MockStore)
		e := new(MockEmbedder)
		e.On("EmbedQuery", mock.Anything, "hello").Return([]float32{0.1}, nil)
		store.On("Query", mock.Anything, []float32{0.1}, 0.10, 3).
			Return([]retrieval.Hit{{Title: "Doc", Content: "hello there", Score: 0.8}}, nil)

		a := newApp(t, store, e, new(MockGenerator))

		req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{"query":"hello"}`))
		rec := httptest.NewRecorder()
		a.Handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "hello there")
	})

	t.Run("Chat Wired End To End", func(t *testing.T) {
		store := new(MockStore)
		e := new(MockEmbedder)
		g := new(MockGenerator)
		e.On("EmbedQuery", mock.Anything, "what?").Return([]float32{0.1}, nil)
		store.On("Query", mock.Anything, []float32{0.1}, 0.10, 3).
			Return([]retrieval.Hit{{Title: "Doc", Content: "context", Score: 0.8}}, nil)
		g.On("Generate", mock.Anything, mock.Anything).Return("Grounded answer.", nil)

		a := newApp(t, store, e, g)

		req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"question":"what?"}`))
		rec := httptest.NewRecorder()
		a.Handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Grounded answer.")
	})

	t.Run("Stats Wired End To End", func(t *testing.T) {
		store := new(MockStore)
		store.On("CountDocuments", mock.Anything).Return(2, nil)
		store.On("CountAllChunks", mock.Anything).Return(5, nil)

		a := newApp(t, store, new(MockEmbedder), new(MockGenerator))

		rec := httptest.NewRecorder()
		a.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"documents":2,"chunks":5}`, rec.Body.String())
	})

	t.Run("Wrong Method Is Rejected", func(t *testing.T) {
		a := newApp(t, new(MockStore), new(MockEmbedder), new(MockGenerator))

		rec := httptest.NewRecorder()
		a.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ingest", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestApp_ReingestConsumerIsBuilt(t *testing.T) {
	a := newApp(t, new(MockStore), new(MockEmbedder), new(MockGenerator))
	assert.NotNil(t, a.ReingestConsumer)
}
