package assembly

import (
	"fmt"
	"strings"
)

// Section is one resolved context source.
type Section struct {
	Source  string `json:"source"`
	Label   string `json:"label"`
	Content string `json:"content"`
}

// ContextBundle is the resolved set of inputs fed to one analysis execution.
type ContextBundle struct {
	Sections []Section `json:"sections"`
}

// Add appends a resolved section.
func (b *ContextBundle) Add(source, label, content string) {
	b.Sections = append(b.Sections, Section{Source: source, Label: label, Content: content})
}

// Lookup returns the content resolved for a source identifier.
func (b *ContextBundle) Lookup(source string) (string, bool) {
	for _, s := range b.Sections {
		if s.Source == source {
			return s.Content, true
		}
	}
	return "", false
}

// Render flattens the bundle into prompt text, one labelled block per section.
func (b *ContextBundle) Render() string {
	var sb strings.Builder
	for _, s := range b.Sections {
		sb.WriteString(fmt.Sprintf("## %s\n", s.Label))
		sb.WriteString(s.Content)
		sb.WriteString("\n\n")
	}
	return strings.TrimSpace(sb.String())
}

// MissingContextError indicates a required context source could not be
// resolved, e.g. a dependent prompt never ran. Missing upstream data is an
// expected partial-pipeline state; the job is skipped, not crashed.
type MissingContextError struct {
	Source string
	Reason string
}

func (e *MissingContextError) Error() string {
	return fmt.Sprintf("missing context %q: %s", e.Source, e.Reason)
}
