package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const attachmentColumns = `id, candidate_id, type, file_url, stage_name, prompt_name,
	extracted_text, summary, metadata, created_at`

func scanAttachment(row pgx.Row) (*Attachment, error) {
	var a Attachment
	var metadataJSON []byte
	err := row.Scan(&a.ID, &a.CandidateID, &a.Type, &a.FileURL, &a.StageName, &a.PromptName,
		&a.ExtractedText, &a.Summary, &metadataJSON, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &a.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode attachment metadata: %w", err)
		}
	}
	return &a, nil
}

// CreateAttachment records an uploaded file. StageName and PromptName are
// snapshots of pipeline position at upload time.
func (db *DB) CreateAttachment(ctx context.Context, input *AttachmentInput) (*Attachment, error) {
	row := db.pool.QueryRow(ctx,
		`INSERT INTO attachments (candidate_id, type, file_url, stage_name, prompt_name)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+attachmentColumns,
		input.CandidateID, input.Type, input.FileURL, input.StageName, input.PromptName,
	)
	a, err := scanAttachment(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create attachment: %w", err)
	}
	return a, nil
}

// GetAttachment retrieves an attachment by ID. Returns nil if not found.
func (db *DB) GetAttachment(ctx context.Context, id uuid.UUID) (*Attachment, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+attachmentColumns+` FROM attachments WHERE id = $1`, id)
	a, err := scanAttachment(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attachment: %w", err)
	}
	return a, nil
}

// ListAttachments retrieves all attachments for a candidate in upload order.
func (db *DB) ListAttachments(ctx context.Context, candidateID uuid.UUID) ([]Attachment, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+attachmentColumns+` FROM attachments WHERE candidate_id = $1 ORDER BY created_at`,
		candidateID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	defer rows.Close()

	var attachments []Attachment
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		attachments = append(attachments, *a)
	}
	return attachments, nil
}
