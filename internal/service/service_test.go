package service

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shelfmark/shelfmark-server/internal/metadata"
	"github.com/shelfmark/shelfmark-server/internal/store/sqlite"
)

type testEnv struct {
	store   *sqlite.Store
	books   *BookService
	series  *SeriesService
	recon   *ReconcileService
	imports *ImportService
}

func newTestEnv(t *testing.T, lookup metadata.Lookup) *testEnv {
	t.Helper()
	if lookup == nil {
		lookup = metadata.Disabled{}
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	recon := NewReconcileService(st, logger)
	books := NewBookService(st, lookup, logger)
	series := NewSeriesService(st, recon, logger)
	imports := NewImportService(books, series, 0, logger)
	return &testEnv{
		store:   st,
		books:   books,
		series:  series,
		recon:   recon,
		imports: imports,
	}
}
