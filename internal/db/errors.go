package db

import (
	"fmt"

	"github.com/google/uuid"
)

// ConflictError indicates a live job already exists for the same unit of work.
// The caller chooses to no-op or to supersede the stale job and retry.
type ConflictError struct {
	CandidateID  uuid.UUID
	AttachmentID *uuid.UUID
	PromptID     *uuid.UUID
	Kind         string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("live %s job already exists for candidate %s", e.Kind, e.CandidateID)
}
