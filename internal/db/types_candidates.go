package db

import (
	"time"

	"github.com/google/uuid"
)

// Candidate is a person moving through a pipeline. PipelineStage is a stage
// name, not a foreign key: stages can be renamed without rewriting candidates,
// at the cost of possible orphaned references.
type Candidate struct {
	ID                 uuid.UUID  `json:"id"`
	Name               string     `json:"name"`
	Email              string     `json:"email"`
	PipelineTemplateID *uuid.UUID `json:"pipeline_template_id,omitempty"`
	PipelineStage      string     `json:"pipeline_stage"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// CandidateProfile holds structured facts derived from analysis jobs.
// Created only by the executor's writes, though humans may edit fields later.
type CandidateProfile struct {
	CandidateID uuid.UUID      `json:"candidate_id"`
	Fields      map[string]any `json:"fields"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// CandidatePreferences holds derived preference data (comp, location, remote).
type CandidatePreferences struct {
	CandidateID uuid.UUID      `json:"candidate_id"`
	Fields      map[string]any `json:"fields"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// StageSummary is a per-stage free-text summary on the candidate record.
type StageSummary struct {
	CandidateID uuid.UUID `json:"candidate_id"`
	StageName   string    `json:"stage_name"`
	Summary     string    `json:"summary"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Attachment is an uploaded file referenced by blob URL. StageName and
// PromptName are snapshot fields recorded at upload time and kept even if the
// stage is later renamed or deleted.
type Attachment struct {
	ID            uuid.UUID      `json:"id"`
	CandidateID   uuid.UUID      `json:"candidate_id"`
	Type          string         `json:"type"`
	FileURL       string         `json:"file_url"`
	StageName     *string        `json:"stage_name,omitempty"`
	PromptName    *string        `json:"prompt_name,omitempty"`
	ExtractedText *string        `json:"extracted_text,omitempty"`
	Summary       *string        `json:"summary,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// CandidateInput holds fields for creating a candidate.
type CandidateInput struct {
	Name               string
	Email              string
	PipelineTemplateID *uuid.UUID
	PipelineStage      string
}

// AttachmentInput holds fields for creating an attachment.
type AttachmentInput struct {
	CandidateID uuid.UUID
	Type        string
	FileURL     string
	StageName   *string
	PromptName  *string
}
