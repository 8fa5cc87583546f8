// Package catalog provides read-only access to the pipeline template
// hierarchy as an immutable snapshot loaded at trigger time, so a mid-run
// template edit can never produce an inconsistent prompt set.
package catalog

import (
	"fmt"

	"github.com/google/uuid"
)

// NotFoundError indicates a template or stage does not exist in the catalog.
type NotFoundError struct {
	Kind string // "template" or "stage"
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Name)
}

// OrphanedStageError indicates a candidate references a stage name that no
// longer resolves in their template. The loose name coupling is deliberate;
// this condition is surfaced distinctly rather than treated as fatal.
type OrphanedStageError struct {
	CandidateID uuid.UUID
	StageName   string
	TemplateID  uuid.UUID
}

func (e *OrphanedStageError) Error() string {
	return fmt.Sprintf("candidate %s references stage %q which no longer exists in template %s",
		e.CandidateID, e.StageName, e.TemplateID)
}
