package db

// JobStatus constants
const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusSucceeded = "succeeded"
	JobStatusFailed    = "failed"
	JobStatusSkipped   = "skipped"
)

// JobKind constants. Extract and stage-summary jobs are not prompt-bound.
const (
	JobKindAnalysis     = "analysis"
	JobKindExtract      = "extract"
	JobKindStageSummary = "stage_summary"
)

// OutputCategory constants define where a successful job's result is written.
// The category is configuration on the prompt, never inferred from the result.
const (
	CategoryProfile     = "profile"
	CategoryPreferences = "preferences"
	CategorySummary     = "summary"
	CategoryMetadata    = "metadata"

	// CategoryAttachmentText is used internally by extract jobs.
	CategoryAttachmentText = "attachment_text"
)

// AttachmentType constants
const (
	AttachmentResume    = "resume"
	AttachmentRecording = "recording"
	AttachmentNote      = "note"
	AttachmentHomework  = "homework"
	AttachmentOther     = "other"
)

// ValidOutputCategory reports whether c is a category a prompt may declare.
func ValidOutputCategory(c string) bool {
	switch c {
	case CategoryProfile, CategoryPreferences, CategorySummary, CategoryMetadata:
		return true
	}
	return false
}

// ValidAttachmentType reports whether t is a known attachment type.
func ValidAttachmentType(t string) bool {
	switch t {
	case AttachmentResume, AttachmentRecording, AttachmentNote, AttachmentHomework, AttachmentOther:
		return true
	}
	return false
}
