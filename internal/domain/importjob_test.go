package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImportJob_Transitions(t *testing.T) {
	tests := []struct {
		status    ImportJobStatus
		canPause  bool
		canResume bool
		canCancel bool
		terminal  bool
	}{
		{ImportJobPending, false, false, true, false},
		{ImportJobRunning, true, false, true, false},
		{ImportJobPaused, false, true, true, false},
		{ImportJobCancelled, false, false, false, true},
		{ImportJobCompleted, false, false, false, true},
		{ImportJobFailed, false, false, false, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			j := &ImportJob{Status: tt.status}
			assert.Equal(t, tt.canPause, j.CanPause(), "CanPause")
			assert.Equal(t, tt.canResume, j.CanResume(), "CanResume")
			assert.Equal(t, tt.canCancel, j.CanCancel(), "CanCancel")
			assert.Equal(t, tt.terminal, j.IsTerminal(), "IsTerminal")
		})
	}
}

func TestNormalizeISBN(t *testing.T) {
	assert.Equal(t, "9781250766588", NormalizeISBN("978-1-250-76658-8"))
	assert.Equal(t, "0765326353", NormalizeISBN("0 7653 2635 3"))
	assert.Equal(t, "", NormalizeISBN(""))
}

func TestEdition_MatchesISBN(t *testing.T) {
	e := &Edition{ISBN10: "0765326353", ISBN13: "978-0-7653-2635-5"}

	assert.True(t, e.MatchesISBN("0765326353"))
	assert.True(t, e.MatchesISBN("9780765326355"))
	assert.True(t, e.MatchesISBN("978-07653-26355"))
	assert.False(t, e.MatchesISBN("9999999999999"))
	assert.False(t, e.MatchesISBN(""))
}
