package api

import (
	"encoding/json/v2"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const importTestCSV = `Title,Author,ISBN,Series
"The Way of Kings (The Stormlight Archive #1)","Brandon Sanderson",9780765326355,"The Stormlight Archive"
"Words of Radiance","Brandon Sanderson",9780765326362,"The Stormlight Archive #2"
`

// getImportJob fetches one import job snapshot.
func (ts *testServer) getImportJob(t *testing.T, id string) ImportJobResponse {
	t.Helper()

	resp := ts.api.Get("/api/v1/imports/" + id)
	require.Equal(t, http.StatusOK, resp.Code, "Get import failed: %s", resp.Body.String())

	var envelope testEnvelope[ImportJobResponse]
	err := json.Unmarshal(resp.Body.Bytes(), &envelope)
	require.NoError(t, err)

	return envelope.Data
}

// waitForImport polls the job until it reaches a terminal state.
func (ts *testServer) waitForImport(t *testing.T, id string) ImportJobResponse {
	t.Helper()

	var job ImportJobResponse
	require.Eventually(t, func() bool {
		job = ts.getImportJob(t, id)
		switch job.Status {
		case "completed", "failed", "cancelled":
			return true
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)

	return job
}

func TestStartImport_RunsToCompletion(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/imports", map[string]any{"csv": importTestCSV})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[ImportJobResponse]
	err := json.Unmarshal(resp.Body.Bytes(), &envelope)
	require.NoError(t, err)
	require.NotEmpty(t, envelope.Data.ID)
	assert.Equal(t, 2, envelope.Data.Total)

	job := ts.waitForImport(t, envelope.Data.ID)
	assert.Equal(t, "completed", job.Status)
	assert.Equal(t, 2, job.Processed)
	assert.Equal(t, 2, job.Succeeded)
	assert.Equal(t, 0, job.Failed)
	assert.Empty(t, job.Errors)
	assert.NotNil(t, job.CompletedAt)

	// Imported editions land in the caller's library.
	resp = ts.api.Get("/api/v1/library")
	require.Equal(t, http.StatusOK, resp.Code)

	var library testEnvelope[LibraryListResponse]
	err = json.Unmarshal(resp.Body.Bytes(), &library)
	require.NoError(t, err)
	assert.Len(t, library.Data.Entries, 2)
}

func TestStartImport_RowFailuresRecorded(t *testing.T) {
	ts := setupTestServer(t)

	csv := "Title,Author,ISBN\nBook One,Author A,9780000000001\n,,\n"
	resp := ts.api.Post("/api/v1/imports", map[string]any{"csv": csv})
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[ImportJobResponse]
	err := json.Unmarshal(resp.Body.Bytes(), &envelope)
	require.NoError(t, err)

	job := ts.waitForImport(t, envelope.Data.ID)
	assert.Equal(t, "completed", job.Status)
	assert.Equal(t, 1, job.Succeeded)
	assert.Equal(t, 1, job.Failed)
	require.Len(t, job.Errors, 1)
	assert.Equal(t, 2, job.Errors[0].Row)
}

func TestImportGenericCSV(t *testing.T) {
	ts := setupTestServer(t)

	csv := "Code,Name,Writer\n9780441013593,Dune,Frank Herbert\n9780765326355,The Way of Kings,Brandon Sanderson\n"
	resp := ts.api.Post("/api/v1/imports/generic", map[string]any{
		"csv": csv,
		"mapping": map[string]string{
			"isbn":   "Code",
			"title":  "Name",
			"author": "Writer",
		},
		"default_status": "wanted",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[ImportReportResponse]
	err := json.Unmarshal(resp.Body.Bytes(), &envelope)
	require.NoError(t, err)
	assert.Equal(t, 2, envelope.Data.Success)
	assert.Equal(t, 0, envelope.Data.Failed)
	assert.Empty(t, envelope.Data.Errors)

	var library testEnvelope[LibraryListResponse]
	resp = ts.api.Get("/api/v1/library")
	require.Equal(t, http.StatusOK, resp.Code)
	err = json.Unmarshal(resp.Body.Bytes(), &library)
	require.NoError(t, err)
	require.Len(t, library.Data.Entries, 2)
	for _, entry := range library.Data.Entries {
		assert.Equal(t, "wanted", entry.Status)
	}
}

func TestImportGenericCSV_RequiresMapping(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/imports/generic", map[string]any{
		"csv": "Title\nSomething\n",
	})
	// Huma returns 422 for missing required fields.
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestPauseImport_TerminalConflict(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/imports", map[string]any{
		"csv": "Title,Author\nBook One,Author A\n",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[ImportJobResponse]
	err := json.Unmarshal(resp.Body.Bytes(), &envelope)
	require.NoError(t, err)

	ts.waitForImport(t, envelope.Data.ID)

	resp = ts.api.Post("/api/v1/imports/" + envelope.Data.ID + "/pause")
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestGetImport_NotFound(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/imports/no-such-job")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestListImports_PerUser(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/imports", map[string]any{
		"csv": "Title,Author\nBook One,Author A\n",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var started testEnvelope[ImportJobResponse]
	err := json.Unmarshal(resp.Body.Bytes(), &started)
	require.NoError(t, err)
	ts.waitForImport(t, started.Data.ID)

	resp = ts.api.Get("/api/v1/imports")
	require.Equal(t, http.StatusOK, resp.Code)

	var mine testEnvelope[ImportJobListResponse]
	err = json.Unmarshal(resp.Body.Bytes(), &mine)
	require.NoError(t, err)
	assert.Len(t, mine.Data.Jobs, 1)

	resp = ts.api.Get("/api/v1/imports", "X-User-ID: somebody-else")
	require.Equal(t, http.StatusOK, resp.Code)

	var theirs testEnvelope[ImportJobListResponse]
	err = json.Unmarshal(resp.Body.Bytes(), &theirs)
	require.NoError(t, err)
	assert.Empty(t, theirs.Data.Jobs)
}
