// Package orchestrator is the control loop of the processing core: it
// resolves the prompts a trigger implies, creates job records idempotently,
// and drives each job through context assembly and analysis execution with
// retry and failure isolation.
package orchestrator

import (
	"fmt"

	"github.com/google/uuid"
)

// NotFoundError indicates a referenced entity does not exist. Caller error,
// surfaced immediately; no job is created.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// RequeueError indicates a job is not in a state that allows re-queueing.
type RequeueError struct {
	JobID  uuid.UUID
	Status string
	Reason string
}

func (e *RequeueError) Error() string {
	return fmt.Sprintf("cannot re-queue job %s (%s): %s", e.JobID, e.Status, e.Reason)
}
