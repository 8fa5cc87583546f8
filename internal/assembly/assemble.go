package assembly

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/marcus/talent-tracker/internal/db"
	"github.com/marcus/talent-tracker/internal/ingestion"
	"github.com/marcus/talent-tracker/internal/storage"
)

// Store is the persistence capability the assembler needs.
type Store interface {
	LatestSucceededResult(ctx context.Context, candidateID uuid.UUID, promptName string) (json.RawMessage, error)
	ListStageResults(ctx context.Context, candidateID uuid.UUID, stageName string) ([]db.StageResult, error)
	GetProfile(ctx context.Context, candidateID uuid.UUID) (*db.CandidateProfile, error)
	GetPreferences(ctx context.Context, candidateID uuid.UUID) (*db.CandidatePreferences, error)
}

// BlobFetcher retrieves attachment content from the object store.
type BlobFetcher interface {
	Fetch(ctx context.Context, url string) (*storage.Blob, error)
}

// Assembler resolves declared context sources to concrete content.
type Assembler struct {
	store Store
	blobs BlobFetcher
}

// NewAssembler creates an assembler over the given store and blob fetcher.
func NewAssembler(store Store, blobs BlobFetcher) *Assembler {
	return &Assembler{store: store, blobs: blobs}
}

// Assemble resolves each declared source for a job. The attachment may be nil
// for stage-summary work. A source that cannot be resolved yields
// *MissingContextError; infrastructure failures propagate unchanged so the
// caller can retry.
func (a *Assembler) Assemble(ctx context.Context, sources []string, attachment *db.Attachment, candidate *db.Candidate, stageName string) (*ContextBundle, error) {
	bundle := &ContextBundle{}

	for _, source := range sources {
		switch {
		case source == SourceAttachmentText:
			if attachment == nil {
				return nil, &MissingContextError{Source: source, Reason: "no attachment for this job"}
			}
			text, err := a.AttachmentText(ctx, attachment)
			if err != nil {
				return nil, err
			}
			bundle.Add(source, fmt.Sprintf("Attachment (%s)", attachment.Type), text)

		case source == SourceProfile:
			profile, err := a.store.GetProfile(ctx, candidate.ID)
			if err != nil {
				return nil, err
			}
			if profile == nil || len(profile.Fields) == 0 {
				return nil, &MissingContextError{Source: source, Reason: "candidate has no profile on record"}
			}
			content, err := marshalFields(profile.Fields)
			if err != nil {
				return nil, err
			}
			bundle.Add(source, "Candidate profile", content)

		case source == SourcePreferences:
			prefs, err := a.store.GetPreferences(ctx, candidate.ID)
			if err != nil {
				return nil, err
			}
			if prefs == nil || len(prefs.Fields) == 0 {
				return nil, &MissingContextError{Source: source, Reason: "candidate has no preferences on record"}
			}
			content, err := marshalFields(prefs.Fields)
			if err != nil {
				return nil, err
			}
			bundle.Add(source, "Candidate preferences", content)

		case source == SourceStageResults:
			results, err := a.store.ListStageResults(ctx, candidate.ID, stageName)
			if err != nil {
				return nil, err
			}
			if len(results) == 0 {
				return nil, &MissingContextError{Source: source, Reason: fmt.Sprintf("no successful results for stage %q", stageName)}
			}
			for _, r := range results {
				bundle.Add(source, fmt.Sprintf("Result of %q", r.PromptName), string(r.Result))
			}

		default:
			promptName, ok := PromptDependency(source)
			if !ok {
				return nil, &MissingContextError{Source: source, Reason: "unknown context source"}
			}
			result, err := a.store.LatestSucceededResult(ctx, candidate.ID, promptName)
			if err != nil {
				return nil, err
			}
			if result == nil {
				return nil, &MissingContextError{Source: source, Reason: fmt.Sprintf("prompt %q has no successful result", promptName)}
			}
			bundle.Add(source, fmt.Sprintf("Output of %q", promptName), string(result))
		}
	}

	return bundle, nil
}

// AttachmentText returns clean text for an attachment, using the stored
// extraction when present and fetching from the object store otherwise. A
// missing blob or an unextractable content type is missing context; transient
// fetch failures propagate for retry.
func (a *Assembler) AttachmentText(ctx context.Context, attachment *db.Attachment) (string, error) {
	if attachment.ExtractedText != nil && *attachment.ExtractedText != "" {
		return *attachment.ExtractedText, nil
	}

	blob, err := a.blobs.Fetch(ctx, attachment.FileURL)
	if err != nil {
		var notFound *storage.NotFoundError
		if errors.As(err, &notFound) {
			return "", &MissingContextError{Source: SourceAttachmentText, Reason: err.Error()}
		}
		return "", err
	}

	text, err := ingestion.ExtractText(blob.Content, blob.ContentType)
	if err != nil {
		var unsupported *ingestion.UnsupportedContentError
		if errors.As(err, &unsupported) {
			return "", &MissingContextError{Source: SourceAttachmentText, Reason: err.Error()}
		}
		return "", err
	}
	if text == "" {
		return "", &MissingContextError{Source: SourceAttachmentText, Reason: "attachment produced no text"}
	}
	return text, nil
}

func marshalFields(fields map[string]any) (string, error) {
	content, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal fields: %w", err)
	}
	return string(content), nil
}
