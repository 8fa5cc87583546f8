package db

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Job is one unit of processing work, normally an (attachment, prompt) pair.
// Extract and stage-summary jobs carry a nil PromptID. PromptName and
// StageName are snapshots taken at creation so results stay resolvable after
// template edits.
type Job struct {
	ID           uuid.UUID       `json:"id"`
	CandidateID  uuid.UUID       `json:"candidate_id"`
	AttachmentID *uuid.UUID      `json:"attachment_id,omitempty"`
	PromptID     *uuid.UUID      `json:"prompt_id,omitempty"`
	PromptName   *string         `json:"prompt_name,omitempty"`
	StageName    *string         `json:"stage_name,omitempty"`
	Kind         string          `json:"kind"`
	Status       string          `json:"status"`
	Attempts     int             `json:"attempts"`
	Result       json.RawMessage `json:"result,omitempty"`
	ErrorDetail  *string         `json:"error_detail,omitempty"`
	Retryable    bool            `json:"retryable"`
	SupersededAt *time.Time      `json:"superseded_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	StartedAt    *time.Time      `json:"started_at,omitempty"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}

// Live reports whether the job still occupies its unit of work.
func (j *Job) Live() bool {
	if j.SupersededAt != nil {
		return false
	}
	return j.Status == JobStatusPending || j.Status == JobStatusRunning
}

// Terminal reports whether the job reached a terminal status.
func (j *Job) Terminal() bool {
	switch j.Status {
	case JobStatusSucceeded, JobStatusFailed, JobStatusSkipped:
		return true
	}
	return false
}

// JobInput holds fields for creating a pending job.
type JobInput struct {
	CandidateID  uuid.UUID
	AttachmentID *uuid.UUID
	PromptID     *uuid.UUID
	PromptName   *string
	StageName    *string
	Kind         string
}

// JobFilter holds optional filters for listing jobs.
type JobFilter struct {
	CandidateID  *uuid.UUID
	AttachmentID *uuid.UUID
	Status       string
	Kind         string
	Limit        int
}

// EntityWrite describes the dependent entity update applied atomically with a
// job's terminal succeeded transition.
type EntityWrite struct {
	Category     string
	CandidateID  uuid.UUID
	AttachmentID *uuid.UUID
	StageName    string
	Fields       map[string]any
	Text         string
}
