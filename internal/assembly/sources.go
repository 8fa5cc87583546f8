// Package assembly gathers the inputs a prompt needs into a context bundle:
// raw attachment content, prior prompt outputs, and candidate profile or
// preference fields.
package assembly

import "strings"

// Context source identifiers a prompt may declare.
const (
	// SourceAttachmentText is the extracted text of the triggering attachment.
	SourceAttachmentText = "attachment_text"
	// SourceProfile is the candidate's derived profile fields.
	SourceProfile = "profile"
	// SourcePreferences is the candidate's derived preference fields.
	SourcePreferences = "preferences"
	// SourceStageResults is every successful result for the job's stage.
	SourceStageResults = "stage_results"
	// SourcePromptPrefix declares a dependency on another prompt's most
	// recent successful output, e.g. "prompt:sentiment".
	SourcePromptPrefix = "prompt:"
)

// PromptDependency returns the prompt name a source depends on, if the source
// is a prompt-output reference.
func PromptDependency(source string) (string, bool) {
	if strings.HasPrefix(source, SourcePromptPrefix) {
		name := strings.TrimPrefix(source, SourcePromptPrefix)
		if name != "" {
			return name, true
		}
	}
	return "", false
}

// KnownSource reports whether the identifier is one the assembler can resolve.
func KnownSource(source string) bool {
	switch source {
	case SourceAttachmentText, SourceProfile, SourcePreferences, SourceStageResults:
		return true
	}
	_, ok := PromptDependency(source)
	return ok
}
