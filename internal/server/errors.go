package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/marcus/talent-tracker/internal/catalog"
	"github.com/marcus/talent-tracker/internal/db"
	"github.com/marcus/talent-tracker/internal/orchestrator"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var conflict *db.ConflictError
	var requeue *orchestrator.RequeueError
	var notFound *orchestrator.NotFoundError
	var catalogNotFound *catalog.NotFoundError
	var orphaned *catalog.OrphanedStageError
	var validation *ErrValidation

	switch {
	case errors.As(err, &conflict), errors.As(err, &requeue):
		return http.StatusConflict
	case errors.As(err, &notFound), errors.As(err, &catalogNotFound):
		return http.StatusNotFound
	case errors.As(err, &orphaned):
		return http.StatusUnprocessableEntity
	case errors.As(err, &validation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
