package domain

import "time"

// ImportJobStatus is the lifecycle state of a CSV import run.
type ImportJobStatus string

const (
	ImportJobPending   ImportJobStatus = "pending"
	ImportJobRunning   ImportJobStatus = "running"
	ImportJobPaused    ImportJobStatus = "paused"
	ImportJobCancelled ImportJobStatus = "cancelled"
	ImportJobCompleted ImportJobStatus = "completed"
	ImportJobFailed    ImportJobStatus = "failed"
)

// ImportRowError records one failed CSV row for display back to the user.
type ImportRowError struct {
	// Row is 1-indexed from the first data row (the header is row 0).
	Row     int               `json:"row"`
	Message string            `json:"message"`
	Data    map[string]string `json:"data,omitempty"`
}

// ImportWarning records a non-fatal problem on an otherwise successful row,
// such as a book that imported but failed to link to its series.
type ImportWarning struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportJob tracks one CSV import run. Jobs live only in process memory and
// are evicted a fixed interval after creation regardless of terminal state;
// a restart loses all job state.
type ImportJob struct {
	ID          string           `json:"id"`
	UserID      string           `json:"user_id"`
	Status      ImportJobStatus  `json:"status"`
	Total       int              `json:"total"`
	Processed   int              `json:"processed"`
	Succeeded   int              `json:"succeeded"`
	Failed      int              `json:"failed"`
	Errors      []ImportRowError `json:"errors,omitempty"`
	Warnings    []ImportWarning  `json:"warnings,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	StartedAt   *time.Time       `json:"started_at,omitempty"`
	PausedAt    *time.Time       `json:"paused_at,omitempty"`
	CancelledAt *time.Time       `json:"cancelled_at,omitempty"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}

// IsTerminal reports whether the job has finished for good.
func (j *ImportJob) IsTerminal() bool {
	switch j.Status {
	case ImportJobCancelled, ImportJobCompleted, ImportJobFailed:
		return true
	}
	return false
}

// CanPause reports whether a pause request is valid in the current state.
func (j *ImportJob) CanPause() bool {
	return j.Status == ImportJobRunning
}

// CanResume reports whether a resume request is valid in the current state.
func (j *ImportJob) CanResume() bool {
	return j.Status == ImportJobPaused
}

// CanCancel reports whether a cancel request is valid in the current state.
func (j *ImportJob) CanCancel() bool {
	switch j.Status {
	case ImportJobPending, ImportJobRunning, ImportJobPaused:
		return true
	}
	return false
}
