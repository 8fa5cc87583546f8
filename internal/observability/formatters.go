// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/marcus/talent-tracker/internal/analysis"
	"github.com/marcus/talent-tracker/internal/assembly"
	"github.com/marcus/talent-tracker/internal/db"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 8
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

func truncate(s string, limit int) string {
	if len(s) > limit {
		return s[:limit-3] + "..."
	}
	return s
}

// jobLine is a one-line description of a job for list output.
func jobLine(job *db.Job) string {
	unit := job.Kind
	if job.PromptName != nil {
		unit = fmt.Sprintf("%s %q", job.Kind, *job.PromptName)
	}
	return fmt.Sprintf("%s  %s  %s", statusMarker(job.Status), unit, job.ID.String()[:8])
}

func statusMarker(status string) string {
	switch status {
	case db.JobStatusSucceeded:
		return "✓"
	case db.JobStatusFailed:
		return "✗"
	case db.JobStatusSkipped:
		return "−"
	case db.JobStatusRunning:
		return "▶"
	default:
		return "·"
	}
}

// PrintJob outputs a detailed summary of one processing job.
func (p *Printer) PrintJob(job *db.Job) {
	if job == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("ID:        %s\n", job.ID))
	sb.WriteString(fmt.Sprintf("Kind:      %s\n", job.Kind))
	sb.WriteString(fmt.Sprintf("Status:    %s\n", job.Status))
	sb.WriteString(fmt.Sprintf("Attempts:  %d\n", job.Attempts))
	if job.PromptName != nil {
		sb.WriteString(fmt.Sprintf("Prompt:    %s\n", *job.PromptName))
	}
	if job.StageName != nil {
		sb.WriteString(fmt.Sprintf("Stage:     %s\n", *job.StageName))
	}
	if job.SupersededAt != nil {
		sb.WriteString("Superseded\n")
	}
	if job.ErrorDetail != nil && *job.ErrorDetail != "" {
		sb.WriteString(fmt.Sprintf("Detail:    %s\n", truncate(*job.ErrorDetail, 45)))
		if job.Status == db.JobStatusFailed {
			sb.WriteString(fmt.Sprintf("Retryable: %t\n", job.Retryable))
		}
	}

	p.printBox("PROCESSING JOB", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintJobs outputs a compact listing of jobs with status markers.
func (p *Printer) PrintJobs(title string, jobs []db.Job) {
	if len(jobs) == 0 {
		p.printBox(title, "no jobs")
		return
	}

	var sb strings.Builder
	count := min(len(jobs), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(jobLine(&jobs[i]))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}
	if len(jobs) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more jobs", len(jobs)-maxItemsToShow))
	}

	p.printBox(title, sb.String())
}

// PrintBundle outputs the sources resolved into a context bundle.
func (p *Printer) PrintBundle(bundle *assembly.ContextBundle) {
	if bundle == nil || len(bundle.Sections) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Resolved %d sections:\n\n", len(bundle.Sections)))
	for i, section := range bundle.Sections {
		sb.WriteString(fmt.Sprintf("• %s (%s)\n", truncate(section.Label, 35), section.Source))
		sb.WriteString(fmt.Sprintf("  %d chars\n", len(section.Content)))
		if i < len(bundle.Sections)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("CONTEXT BUNDLE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintResult outputs a parsed analysis result.
func (p *Printer) PrintResult(result *analysis.Result) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Category:  %s\n", result.Category))

	if result.Summary != "" {
		sb.WriteString("\n")
		sb.WriteString(truncate(result.Summary, 150))
		sb.WriteString("\n")
	}

	if len(result.Fields) > 0 {
		sb.WriteString(fmt.Sprintf("\nFields (%d):\n", len(result.Fields)))
		shown := 0
		for key, value := range result.Fields {
			if shown >= maxItemsToShow {
				sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(result.Fields)-shown))
				break
			}
			sb.WriteString(fmt.Sprintf("  %s: %s\n", key, truncate(fmt.Sprintf("%v", value), 35)))
			shown++
		}
	}

	p.printBox("ANALYSIS RESULT", strings.TrimSuffix(sb.String(), "\n"))
}
