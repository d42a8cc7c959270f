package service

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shelfmark/shelfmark-server/internal/domain"
	apperrors "github.com/shelfmark/shelfmark-server/internal/errors"
)

// JobManager is the in-memory registry of CSV import jobs. All access goes
// through the mutex; a background janitor evicts jobs a fixed interval after
// creation, terminal or not. The registry exists to serve status polling
// during and shortly after an import, not to be a durable history.
type JobManager struct {
	mu     sync.Mutex
	jobs   map[string]*domain.ImportJob
	ttl    time.Duration
	logger *slog.Logger
	done   chan struct{}
	once   sync.Once
}

// NewJobManager creates a job manager and starts its eviction janitor.
func NewJobManager(ttl time.Duration, logger *slog.Logger) *JobManager {
	m := &JobManager{
		jobs:   make(map[string]*domain.ImportJob),
		ttl:    ttl,
		logger: logger,
		done:   make(chan struct{}),
	}
	go m.janitor()
	return m
}

// Shutdown stops the eviction janitor. Safe to call more than once.
func (m *JobManager) Shutdown() {
	m.once.Do(func() { close(m.done) })
}

func (m *JobManager) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.evictExpired(time.Now())
		}
	}
}

func (m *JobManager) evictExpired(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, job := range m.jobs {
		if now.Sub(job.CreatedAt) > m.ttl {
			delete(m.jobs, id)
			m.logger.Debug("evicted import job", "job_id", id, "status", job.Status)
		}
	}
}

// CreateJob registers a new pending job for the given user.
func (m *JobManager) CreateJob(userID string, total int) *domain.ImportJob {
	job := &domain.ImportJob{
		ID:        uuid.NewString(),
		UserID:    userID,
		Status:    domain.ImportJobPending,
		Total:     total,
		CreatedAt: time.Now().UTC(),
	}
	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()
	return job
}

// GetJob returns a snapshot of the job; mutating the copy does not affect
// the registry.
func (m *JobManager) GetJob(jobID string) (*domain.ImportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return nil, apperrors.NotFoundf("import job %s not found", jobID)
	}
	snapshot := *job
	return &snapshot, nil
}

// ListJobs returns snapshots of the user's jobs, newest first.
func (m *JobManager) ListJobs(userID string) []*domain.ImportJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.ImportJob
	for _, job := range m.jobs {
		if job.UserID == userID {
			snapshot := *job
			out = append(out, &snapshot)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// PauseJob pauses a running job. Any other state is a conflict.
func (m *JobManager) PauseJob(jobID string) error {
	return m.transition(jobID, func(job *domain.ImportJob) error {
		if !job.CanPause() {
			return apperrors.Conflictf("cannot pause job in state %q", job.Status)
		}
		now := time.Now().UTC()
		job.Status = domain.ImportJobPaused
		job.PausedAt = &now
		return nil
	})
}

// ResumeJob resumes a paused job.
func (m *JobManager) ResumeJob(jobID string) error {
	return m.transition(jobID, func(job *domain.ImportJob) error {
		if !job.CanResume() {
			return apperrors.Conflictf("cannot resume job in state %q", job.Status)
		}
		job.Status = domain.ImportJobRunning
		job.PausedAt = nil
		return nil
	})
}

// CancelJob cancels a pending, running, or paused job. The import loop
// observes the cancellation at its next per-row check.
func (m *JobManager) CancelJob(jobID string) error {
	return m.transition(jobID, func(job *domain.ImportJob) error {
		if !job.CanCancel() {
			return apperrors.Conflictf("cannot cancel job in state %q", job.Status)
		}
		now := time.Now().UTC()
		job.Status = domain.ImportJobCancelled
		job.CancelledAt = &now
		return nil
	})
}

func (m *JobManager) transition(jobID string, apply func(*domain.ImportJob) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return apperrors.NotFoundf("import job %s not found", jobID)
	}
	return apply(job)
}

// markRunning flips a pending job to running; a no-op if the job was
// cancelled before the import loop started.
func (m *JobManager) markRunning(jobID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok || job.Status != domain.ImportJobPending {
		return
	}
	now := time.Now().UTC()
	job.Status = domain.ImportJobRunning
	job.StartedAt = &now
}

// recordProgress updates the job's counters and appends any new row errors
// and warnings from the import loop.
func (m *JobManager) recordProgress(jobID string, report *ImportReport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return
	}
	job.Processed = report.Success + report.Failed
	job.Succeeded = report.Success
	job.Failed = report.Failed
	// Fresh slices each time; snapshots handed out by GetJob must not
	// observe later updates through a shared backing array.
	job.Errors = append([]domain.ImportRowError(nil), report.Errors...)
	job.Warnings = append([]domain.ImportWarning(nil), report.Warnings...)
}

// shouldStop reports whether the import loop should break out: true when the
// job is cancelled or gone, and also while paused, where it blocks by polling
// until resumed or cancelled.
func (m *JobManager) shouldStop(jobID string) bool {
	for {
		m.mu.Lock()
		job, ok := m.jobs[jobID]
		if !ok {
			m.mu.Unlock()
			return true
		}
		status := job.Status
		m.mu.Unlock()

		switch status {
		case domain.ImportJobCancelled:
			return true
		case domain.ImportJobPaused:
			time.Sleep(200 * time.Millisecond)
		default:
			return false
		}
	}
}

// finishJob records the terminal state after the import loop returns. A job
// cancelled mid-run keeps its cancelled status.
func (m *JobManager) finishJob(jobID string, runErr error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok || job.IsTerminal() {
		return
	}
	now := time.Now().UTC()
	if runErr != nil {
		job.Status = domain.ImportJobFailed
	} else {
		job.Status = domain.ImportJobCompleted
	}
	job.CompletedAt = &now
}
