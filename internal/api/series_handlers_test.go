package api

import (
	"encoding/json/v2"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createSeries creates a series and returns the response body.
func (ts *testServer) createSeries(t *testing.T, body map[string]any) SeriesResponse {
	t.Helper()

	resp := ts.api.Post("/api/v1/series", body)
	require.Equal(t, http.StatusOK, resp.Code, "Create series failed: %s", resp.Body.String())

	var envelope testEnvelope[SeriesResponse]
	err := json.Unmarshal(resp.Body.Bytes(), &envelope)
	require.NoError(t, err)
	require.True(t, envelope.Success)

	return envelope.Data
}

// getSeries fetches the per-user series detail.
func (ts *testServer) getSeries(t *testing.T, id string, headers ...any) SeriesDetailResponse {
	t.Helper()

	resp := ts.api.Get("/api/v1/series/"+id, headers...)
	require.Equal(t, http.StatusOK, resp.Code, "Get series failed: %s", resp.Body.String())

	var envelope testEnvelope[SeriesDetailResponse]
	err := json.Unmarshal(resp.Body.Bytes(), &envelope)
	require.NoError(t, err)

	return envelope.Data
}

func TestCreateSeries_PrepopulatesVolumes(t *testing.T) {
	ts := setupTestServer(t)

	series := ts.createSeries(t, map[string]any{
		"name":          "The Locked Tomb",
		"total_volumes": 3,
	})
	assert.Equal(t, "The Locked Tomb", series.Name)
	assert.Equal(t, 3, series.TotalVolumes)
	assert.Equal(t, "ongoing", series.Status)

	detail := ts.getSeries(t, series.ID)
	require.Len(t, detail.Volumes, 3)
	for _, v := range detail.Volumes {
		assert.Empty(t, v.BookID)
		assert.Equal(t, "missing", v.Ownership)
	}
	assert.Equal(t, 0, detail.OwnedVolumes)
}

func TestGetSeries_NotFound(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/series/sr_missing")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestAddSeriesBook_OwnershipPerUser(t *testing.T) {
	ts := setupTestServer(t)

	entry := ts.addBook(t, map[string]any{
		"isbn":  "9781250318075",
		"title": "Gideon the Ninth",
	})
	series := ts.createSeries(t, map[string]any{
		"name":          "The Locked Tomb",
		"total_volumes": 2,
	})

	resp := ts.api.Post("/api/v1/series/"+series.ID+"/books", map[string]any{
		"book_id":       entry.Book.ID,
		"volume_number": 1,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[SeriesBookResponse]
	err := json.Unmarshal(resp.Body.Bytes(), &envelope)
	require.NoError(t, err)
	assert.Equal(t, entry.Book.ID, envelope.Data.BookID)
	assert.Equal(t, 1, envelope.Data.VolumeNumber)

	// The caller owns volume 1; volume 2 is still an empty slot.
	detail := ts.getSeries(t, series.ID)
	require.Len(t, detail.Volumes, 2)
	assert.Equal(t, entry.Book.ID, detail.Volumes[0].BookID)
	assert.Equal(t, "owned", detail.Volumes[0].Ownership)
	assert.Equal(t, "missing", detail.Volumes[1].Ownership)
	assert.Equal(t, 1, detail.OwnedVolumes)

	// A different user holds no edition, so the same volume reads missing.
	other := ts.getSeries(t, series.ID, "X-User-ID: somebody-else")
	assert.Equal(t, "missing", other.Volumes[0].Ownership)
	assert.Equal(t, 0, other.OwnedVolumes)
}

func TestAddSeriesBook_DuplicateConflict(t *testing.T) {
	ts := setupTestServer(t)

	entry := ts.addBook(t, map[string]any{"title": "Gideon the Ninth", "authors": []string{"Tamsyn Muir"}})
	series := ts.createSeries(t, map[string]any{"name": "The Locked Tomb"})

	body := map[string]any{"book_id": entry.Book.ID, "volume_number": 1}
	resp := ts.api.Post("/api/v1/series/"+series.ID+"/books", body)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post("/api/v1/series/"+series.ID+"/books", body)
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestUpdateSeries_RaisingTotalAddsSlots(t *testing.T) {
	ts := setupTestServer(t)

	series := ts.createSeries(t, map[string]any{
		"name":          "Mushishi",
		"total_volumes": 1,
	})

	resp := ts.api.Patch("/api/v1/series/"+series.ID, map[string]any{
		"total_volumes": 3,
		"status":        "completed",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[SeriesResponse]
	err := json.Unmarshal(resp.Body.Bytes(), &envelope)
	require.NoError(t, err)
	assert.Equal(t, 3, envelope.Data.TotalVolumes)
	assert.Equal(t, "completed", envelope.Data.Status)

	detail := ts.getSeries(t, series.ID)
	assert.Len(t, detail.Volumes, 3)
}

func TestDeleteSeries_BooksPersist(t *testing.T) {
	ts := setupTestServer(t)

	entry := ts.addBook(t, map[string]any{"title": "Gideon the Ninth", "authors": []string{"Tamsyn Muir"}})
	series := ts.createSeries(t, map[string]any{"name": "The Locked Tomb"})

	resp := ts.api.Post("/api/v1/series/"+series.ID+"/books", map[string]any{
		"book_id":       entry.Book.ID,
		"volume_number": 1,
	})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Delete("/api/v1/series/" + series.ID)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/series/" + series.ID)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	// The linked book outlives the series.
	resp = ts.api.Get("/api/v1/books/" + entry.Book.ID)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestListSeries(t *testing.T) {
	ts := setupTestServer(t)

	ts.createSeries(t, map[string]any{"name": "The Locked Tomb"})
	ts.createSeries(t, map[string]any{"name": "Mushishi"})

	resp := ts.api.Get("/api/v1/series")
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[SeriesListResponse]
	err := json.Unmarshal(resp.Body.Bytes(), &envelope)
	require.NoError(t, err)
	assert.Len(t, envelope.Data.Series, 2)
	assert.False(t, envelope.Data.HasMore)
}
