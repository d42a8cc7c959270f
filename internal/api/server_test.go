package api

import (
	"encoding/json/v2"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfmark/shelfmark-server/internal/metadata"
	"github.com/shelfmark/shelfmark-server/internal/service"
	"github.com/shelfmark/shelfmark-server/internal/store/sqlite"
)

// testEnvelope mirrors the response envelope for decoding in tests.
type testEnvelope[T any] struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
}

// testServer wraps the API server for handler testing.
type testServer struct {
	*Server
	api humatest.TestAPI
}

// setupTestServer creates a test server backed by a temp sqlite database.
// Metadata lookup is disabled so resolution falls back to manual entry.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	recon := service.NewReconcileService(st, logger)
	books := service.NewBookService(st, metadata.Disabled{}, logger)
	series := service.NewSeriesService(st, recon, logger)
	imports := service.NewImportService(books, series, 0, logger)
	jobs := service.NewJobManager(time.Hour, logger)
	t.Cleanup(jobs.Shutdown)

	services := &Services{
		Books:     books,
		Series:    series,
		Reconcile: recon,
		Imports:   imports,
		Jobs:      jobs,
	}

	router := chi.NewRouter()

	humaConfig := huma.DefaultConfig("Shelfmark API Test", "1.0.0")
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	humaAPI := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s := &Server{
		store:    st,
		services: services,
		router:   router,
		api:      humaAPI,
		logger:   logger,
	}

	s.registerHealthRoutes()
	s.registerBookRoutes()
	s.registerSeriesRoutes()
	s.registerImportRoutes()
	s.registerAdminRoutes()

	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, humaAPI),
	}
}

// addBook adds a book to the default local user's library and returns the entry.
func (ts *testServer) addBook(t *testing.T, body map[string]any) LibraryEntryResponse {
	t.Helper()

	resp := ts.api.Post("/api/v1/books", body)
	require.Equal(t, http.StatusOK, resp.Code, "Add book failed: %s", resp.Body.String())

	var envelope testEnvelope[LibraryEntryResponse]
	err := json.Unmarshal(resp.Body.Bytes(), &envelope)
	require.NoError(t, err)
	require.True(t, envelope.Success)

	return envelope.Data
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	assert.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[HealthResponse]
	err := json.Unmarshal(resp.Body.Bytes(), &envelope)
	require.NoError(t, err)

	assert.True(t, envelope.Success)
	assert.Contains(t, envelope.Data.Components, "database")
	assert.Equal(t, "healthy", envelope.Data.Components["database"].Status)
	// No search service is wired in tests, so overall health is degraded.
	assert.Equal(t, "degraded", envelope.Data.Status)
}
