package analysis

import (
	"github.com/google/uuid"

	"github.com/marcus/talent-tracker/internal/db"
)

// EntityWrite maps a result onto its target entity, chosen by the prompt's
// declared output category. One mapping function per variant; the category is
// configuration, never inferred from the result shape.
func EntityWrite(result *Result, candidateID uuid.UUID, attachmentID *uuid.UUID, stageName string) *db.EntityWrite {
	switch result.Category {
	case db.CategoryProfile:
		return profileWrite(result, candidateID)
	case db.CategoryPreferences:
		return preferencesWrite(result, candidateID)
	case db.CategorySummary:
		return summaryWrite(result, candidateID, stageName)
	case db.CategoryMetadata:
		return metadataWrite(result, candidateID, attachmentID)
	}
	return nil
}

func profileWrite(result *Result, candidateID uuid.UUID) *db.EntityWrite {
	return &db.EntityWrite{
		Category:    db.CategoryProfile,
		CandidateID: candidateID,
		Fields:      result.Fields,
	}
}

func preferencesWrite(result *Result, candidateID uuid.UUID) *db.EntityWrite {
	return &db.EntityWrite{
		Category:    db.CategoryPreferences,
		CandidateID: candidateID,
		Fields:      result.Fields,
	}
}

func summaryWrite(result *Result, candidateID uuid.UUID, stageName string) *db.EntityWrite {
	return &db.EntityWrite{
		Category:    db.CategorySummary,
		CandidateID: candidateID,
		StageName:   stageName,
		Text:        result.Summary,
	}
}

func metadataWrite(result *Result, candidateID uuid.UUID, attachmentID *uuid.UUID) *db.EntityWrite {
	return &db.EntityWrite{
		Category:     db.CategoryMetadata,
		CandidateID:  candidateID,
		AttachmentID: attachmentID,
		Fields:       result.Fields,
		Text:         result.Summary,
	}
}
