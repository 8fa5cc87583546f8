package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateCandidate creates a candidate record.
func (db *DB) CreateCandidate(ctx context.Context, input *CandidateInput) (*Candidate, error) {
	var c Candidate
	err := db.pool.QueryRow(ctx,
		`INSERT INTO candidates (name, email, pipeline_template_id, pipeline_stage)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, name, email, pipeline_template_id, pipeline_stage, created_at, updated_at`,
		input.Name, input.Email, input.PipelineTemplateID, input.PipelineStage,
	).Scan(&c.ID, &c.Name, &c.Email, &c.PipelineTemplateID, &c.PipelineStage, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create candidate: %w", err)
	}
	return &c, nil
}

// GetCandidate retrieves a candidate by ID. Returns nil if not found.
func (db *DB) GetCandidate(ctx context.Context, id uuid.UUID) (*Candidate, error) {
	var c Candidate
	err := db.pool.QueryRow(ctx,
		`SELECT id, name, email, pipeline_template_id, pipeline_stage, created_at, updated_at
		 FROM candidates WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Name, &c.Email, &c.PipelineTemplateID, &c.PipelineStage, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get candidate: %w", err)
	}
	return &c, nil
}

// ListCandidates retrieves candidates, most recent first.
func (db *DB) ListCandidates(ctx context.Context, limit int) ([]Candidate, error) {
	if limit == 0 {
		limit = 50
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, name, email, pipeline_template_id, pipeline_stage, created_at, updated_at
		 FROM candidates ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	defer rows.Close()

	var candidates []Candidate
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.PipelineTemplateID, &c.PipelineStage, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// UpdateCandidateStage moves a candidate to a new stage name.
func (db *DB) UpdateCandidateStage(ctx context.Context, id uuid.UUID, stageName string) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE candidates SET pipeline_stage = $1, updated_at = NOW() WHERE id = $2`,
		stageName, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update candidate stage: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("candidate not found: %s", id)
	}
	return nil
}

// GetProfile retrieves a candidate's derived profile. Returns nil if no
// analysis job has written one yet.
func (db *DB) GetProfile(ctx context.Context, candidateID uuid.UUID) (*CandidateProfile, error) {
	var p CandidateProfile
	var fieldsJSON []byte
	err := db.pool.QueryRow(ctx,
		`SELECT candidate_id, fields, updated_at FROM candidate_profiles WHERE candidate_id = $1`,
		candidateID,
	).Scan(&p.CandidateID, &fieldsJSON, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if err := json.Unmarshal(fieldsJSON, &p.Fields); err != nil {
		return nil, fmt.Errorf("failed to decode profile fields: %w", err)
	}
	return &p, nil
}

// GetPreferences retrieves a candidate's derived preferences. Returns nil if
// no analysis job has written them yet.
func (db *DB) GetPreferences(ctx context.Context, candidateID uuid.UUID) (*CandidatePreferences, error) {
	var p CandidatePreferences
	var fieldsJSON []byte
	err := db.pool.QueryRow(ctx,
		`SELECT candidate_id, fields, updated_at FROM candidate_preferences WHERE candidate_id = $1`,
		candidateID,
	).Scan(&p.CandidateID, &fieldsJSON, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}
	if err := json.Unmarshal(fieldsJSON, &p.Fields); err != nil {
		return nil, fmt.Errorf("failed to decode preference fields: %w", err)
	}
	return &p, nil
}

// GetStageSummary retrieves the summary for one candidate stage. Returns nil
// if the stage has not been summarized.
func (db *DB) GetStageSummary(ctx context.Context, candidateID uuid.UUID, stageName string) (*StageSummary, error) {
	var s StageSummary
	err := db.pool.QueryRow(ctx,
		`SELECT candidate_id, stage_name, summary, updated_at
		 FROM candidate_stage_summaries WHERE candidate_id = $1 AND stage_name = $2`,
		candidateID, stageName,
	).Scan(&s.CandidateID, &s.StageName, &s.Summary, &s.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get stage summary: %w", err)
	}
	return &s, nil
}
