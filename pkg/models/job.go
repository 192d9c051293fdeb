package models

import (
	"time"

	"github.com/google/uuid"
)

// JobType identifies what kind of work a job tracks.
type JobType string

const (
	JobTypeInitialAnalysis JobType = "initial_analysis"
	JobTypeRefactor        JobType = "refactor"
	JobTypeBulkUpload      JobType = "bulk_upload"
	JobTypeExport          JobType = "export"
)

// JobStatus represents the current state of an asynchronous job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// ValidJobStatuses contains all valid job status values.
var ValidJobStatuses = []JobStatus{
	JobStatusPending,
	JobStatusRunning,
	JobStatusCompleted,
	JobStatusFailed,
	JobStatusCancelled,
}

// IsValidJobStatus checks if the given status is valid.
func IsValidJobStatus(s JobStatus) bool {
	for _, v := range ValidJobStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further writes are expected for the status.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// CanTransitionTo returns true if transitioning from this status to the
// target is valid. Cancellation is reachable from any non-terminal status
// but is never entered by the pipeline itself.
func (s JobStatus) CanTransitionTo(target JobStatus) bool {
	switch s {
	case JobStatusPending:
		return target == JobStatusRunning || target == JobStatusFailed || target == JobStatusCancelled
	case JobStatusRunning:
		return target == JobStatusCompleted || target == JobStatusFailed || target == JobStatusCancelled
	default:
		return false
	}
}

// Job tracks one upload-to-analysis pipeline run. Progress is a percentage
// in [0,100] and must be non-decreasing within a single run; the tracker
// does not enforce monotonicity, the orchestrator upholds it.
type Job struct {
	ID          uuid.UUID      `json:"id"`
	ClientID    uuid.UUID      `json:"client_id"`
	CodebookID  *uuid.UUID     `json:"codebook_id,omitempty"`
	JobType     JobType        `json:"job_type"`
	Status      JobStatus      `json:"status"`
	Progress    int            `json:"progress"`
	Result      map[string]any `json:"result,omitempty"`
	Error       string         `json:"error,omitempty"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// JobUpdate carries a partial update to a job record. Nil fields are left
// unchanged.
type JobUpdate struct {
	Status      *JobStatus
	Progress    *int
	CodebookID  *uuid.UUID
	Result      map[string]any
	Error       *string
	StartedAt   *time.Time
	CompletedAt *time.Time
}
