package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const jobColumns = `id, candidate_id, attachment_id, prompt_id, prompt_name, stage_name,
	kind, status, attempts, result, error_detail, retryable, superseded_at,
	created_at, started_at, completed_at`

func scanJob(row pgx.Row) (*Job, error) {
	var j Job
	err := row.Scan(&j.ID, &j.CandidateID, &j.AttachmentID, &j.PromptID, &j.PromptName, &j.StageName,
		&j.Kind, &j.Status, &j.Attempts, &j.Result, &j.ErrorDetail, &j.Retryable, &j.SupersededAt,
		&j.CreatedAt, &j.StartedAt, &j.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// CreateJob inserts a pending job. The partial unique index over live jobs
// enforces the single-live-job invariant; a violation surfaces as
// *ConflictError so the caller can no-op or supersede.
func (db *DB) CreateJob(ctx context.Context, input *JobInput) (*Job, error) {
	row := db.pool.QueryRow(ctx,
		`INSERT INTO processing_jobs (candidate_id, attachment_id, prompt_id, prompt_name, stage_name, kind, status)
		 VALUES ($1, $2, $3, $4, $5, $6, 'pending')
		 RETURNING `+jobColumns,
		input.CandidateID, input.AttachmentID, input.PromptID, input.PromptName, input.StageName, input.Kind,
	)
	job, err := scanJob(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, &ConflictError{
				CandidateID:  input.CandidateID,
				AttachmentID: input.AttachmentID,
				PromptID:     input.PromptID,
				Kind:         input.Kind,
			}
		}
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	return job, nil
}

// SupersedeLiveJobs marks the live jobs for a unit of work as superseded so a
// fresh job can be created. The superseded rows keep their status and history.
func (db *DB) SupersedeLiveJobs(ctx context.Context, input *JobInput) (int, error) {
	result, err := db.pool.Exec(ctx,
		`UPDATE processing_jobs SET superseded_at = NOW()
		 WHERE candidate_id = $1
		   AND attachment_id IS NOT DISTINCT FROM $2
		   AND prompt_id IS NOT DISTINCT FROM $3
		   AND kind = $4
		   AND stage_name IS NOT DISTINCT FROM $5
		   AND status IN ('pending', 'running')
		   AND superseded_at IS NULL`,
		input.CandidateID, input.AttachmentID, input.PromptID, input.Kind, input.StageName,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to supersede jobs: %w", err)
	}
	return int(result.RowsAffected()), nil
}

// StartJob transitions a job from pending to running with a compare-and-set
// update. Returns nil if the job was not pending (lost race, superseded, or
// already terminal).
func (db *DB) StartJob(ctx context.Context, jobID uuid.UUID) (*Job, error) {
	row := db.pool.QueryRow(ctx,
		`UPDATE processing_jobs
		 SET status = 'running', started_at = NOW(), attempts = attempts + 1
		 WHERE id = $1 AND status = 'pending' AND superseded_at IS NULL
		 RETURNING `+jobColumns,
		jobID,
	)
	job, err := scanJob(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to start job: %w", err)
	}
	return job, nil
}

// SucceedJob writes the terminal succeeded status plus the dependent entity
// update in a single transaction, so a crash never leaves a succeeded job
// whose derived entity write was lost. A superseded job cannot complete: once
// a rerun takes over the unit of work, a still-alive stale runner must not
// land its entity write alongside the rerun's.
func (db *DB) SucceedJob(ctx context.Context, jobID uuid.UUID, result json.RawMessage, write *EntityWrite) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`UPDATE processing_jobs
		 SET status = 'succeeded', result = $2, error_detail = NULL, completed_at = NOW()
		 WHERE id = $1 AND status = 'running' AND superseded_at IS NULL`,
		jobID, result,
	)
	if err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("job %s is not running", jobID)
	}

	if write != nil {
		if err := applyEntityWrite(ctx, tx, write); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit job completion: %w", err)
	}
	return nil
}

// applyEntityWrite maps a job result onto its target entity. The target is
// chosen by the prompt's declared output category, one branch per variant.
func applyEntityWrite(ctx context.Context, tx pgx.Tx, write *EntityWrite) error {
	switch write.Category {
	case CategoryProfile:
		fieldsJSON, err := json.Marshal(write.Fields)
		if err != nil {
			return fmt.Errorf("failed to marshal profile fields: %w", err)
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO candidate_profiles (candidate_id, fields)
			 VALUES ($1, $2)
			 ON CONFLICT (candidate_id) DO UPDATE
			 SET fields = candidate_profiles.fields || EXCLUDED.fields, updated_at = NOW()`,
			write.CandidateID, fieldsJSON,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert profile: %w", err)
		}

	case CategoryPreferences:
		fieldsJSON, err := json.Marshal(write.Fields)
		if err != nil {
			return fmt.Errorf("failed to marshal preference fields: %w", err)
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO candidate_preferences (candidate_id, fields)
			 VALUES ($1, $2)
			 ON CONFLICT (candidate_id) DO UPDATE
			 SET fields = candidate_preferences.fields || EXCLUDED.fields, updated_at = NOW()`,
			write.CandidateID, fieldsJSON,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert preferences: %w", err)
		}

	case CategorySummary:
		_, err := tx.Exec(ctx,
			`INSERT INTO candidate_stage_summaries (candidate_id, stage_name, summary)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (candidate_id, stage_name) DO UPDATE
			 SET summary = EXCLUDED.summary, updated_at = NOW()`,
			write.CandidateID, write.StageName, write.Text,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert stage summary: %w", err)
		}

	case CategoryMetadata:
		if write.AttachmentID == nil {
			return fmt.Errorf("metadata write requires an attachment")
		}
		metadataJSON, err := json.Marshal(write.Fields)
		if err != nil {
			return fmt.Errorf("failed to marshal attachment metadata: %w", err)
		}
		_, err = tx.Exec(ctx,
			`UPDATE attachments
			 SET metadata = COALESCE(metadata, '{}'::jsonb) || $2,
			     summary = COALESCE(NULLIF($3, ''), summary)
			 WHERE id = $1`,
			write.AttachmentID, metadataJSON, write.Text,
		)
		if err != nil {
			return fmt.Errorf("failed to update attachment metadata: %w", err)
		}

	case CategoryAttachmentText:
		if write.AttachmentID == nil {
			return fmt.Errorf("extracted-text write requires an attachment")
		}
		_, err := tx.Exec(ctx,
			`UPDATE attachments SET extracted_text = $2 WHERE id = $1`,
			write.AttachmentID, write.Text,
		)
		if err != nil {
			return fmt.Errorf("failed to store extracted text: %w", err)
		}

	default:
		return fmt.Errorf("unknown output category: %s", write.Category)
	}
	return nil
}

// FailJob writes the terminal failed status with error detail. Retryable
// distinguishes transient inference failures from malformed output.
func (db *DB) FailJob(ctx context.Context, jobID uuid.UUID, errDetail string, retryable bool) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE processing_jobs
		 SET status = 'failed', error_detail = $2, retryable = $3, completed_at = NOW()
		 WHERE id = $1 AND status = 'running' AND superseded_at IS NULL`,
		jobID, errDetail, retryable,
	)
	if err != nil {
		return fmt.Errorf("failed to fail job: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("job %s is not running", jobID)
	}
	return nil
}

// SkipJob marks a pending or running job skipped with a descriptive reason.
// Missing upstream context is an expected partial-pipeline state, not a crash.
func (db *DB) SkipJob(ctx context.Context, jobID uuid.UUID, reason string) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE processing_jobs
		 SET status = 'skipped', error_detail = $2, completed_at = NOW()
		 WHERE id = $1 AND status IN ('pending', 'running') AND superseded_at IS NULL`,
		jobID, reason,
	)
	if err != nil {
		return fmt.Errorf("failed to skip job: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("job %s is not live", jobID)
	}
	return nil
}

// GetJob retrieves a job by ID. Returns nil if not found.
func (db *DB) GetJob(ctx context.Context, jobID uuid.UUID) (*Job, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM processing_jobs WHERE id = $1`, jobID)
	job, err := scanJob(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// ListJobs retrieves jobs matching the filter, oldest first.
func (db *DB) ListJobs(ctx context.Context, filter JobFilter) ([]Job, error) {
	if filter.Limit == 0 {
		filter.Limit = 100
	}

	query := `SELECT ` + jobColumns + ` FROM processing_jobs WHERE 1=1`
	args := []any{}
	argNum := 1

	if filter.CandidateID != nil {
		query += fmt.Sprintf(" AND candidate_id = $%d", argNum)
		args = append(args, *filter.CandidateID)
		argNum++
	}
	if filter.AttachmentID != nil {
		query += fmt.Sprintf(" AND attachment_id = $%d", argNum)
		args = append(args, *filter.AttachmentID)
		argNum++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, filter.Status)
		argNum++
	}
	if filter.Kind != "" {
		query += fmt.Sprintf(" AND kind = $%d", argNum)
		args = append(args, filter.Kind)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY created_at LIMIT $%d", argNum)
	args = append(args, filter.Limit)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	return jobs, nil
}

// ListStaleJobs retrieves running jobs started before the cutoff. A crash
// mid-inference leaves a job visibly running; these are eligible for
// operator-triggered re-queue.
func (db *DB) ListStaleJobs(ctx context.Context, runningSince time.Time) ([]Job, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM processing_jobs
		 WHERE status = 'running' AND superseded_at IS NULL AND started_at < $1
		 ORDER BY started_at`,
		runningSince,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	return jobs, nil
}

// LatestSucceededResult returns the most recent successful result for a
// candidate and prompt name, or nil if none exists. Prompt outputs are looked
// up by name so dependencies survive template edits.
func (db *DB) LatestSucceededResult(ctx context.Context, candidateID uuid.UUID, promptName string) (json.RawMessage, error) {
	var result json.RawMessage
	err := db.pool.QueryRow(ctx,
		`SELECT result FROM processing_jobs
		 WHERE candidate_id = $1 AND prompt_name = $2 AND status = 'succeeded'
		 ORDER BY completed_at DESC LIMIT 1`,
		candidateID, promptName,
	).Scan(&result)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest result: %w", err)
	}
	return result, nil
}

// StageResult is one successful job result within a stage.
type StageResult struct {
	PromptName string          `json:"prompt_name"`
	Result     json.RawMessage `json:"result"`
	Completed  time.Time       `json:"completed_at"`
}

// ListStageResults returns the successful results for a candidate's stage in
// completion order, used to feed stage summarization.
func (db *DB) ListStageResults(ctx context.Context, candidateID uuid.UUID, stageName string) ([]StageResult, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT COALESCE(prompt_name, kind), result, completed_at
		 FROM processing_jobs
		 WHERE candidate_id = $1 AND stage_name = $2 AND status = 'succeeded' AND result IS NOT NULL
		 ORDER BY completed_at`,
		candidateID, stageName,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list stage results: %w", err)
	}
	defer rows.Close()

	var results []StageResult
	for rows.Next() {
		var r StageResult
		if err := rows.Scan(&r.PromptName, &r.Result, &r.Completed); err != nil {
			return nil, fmt.Errorf("failed to scan stage result: %w", err)
		}
		results = append(results, r)
	}
	return results, nil
}
