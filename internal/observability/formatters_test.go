package observability

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/marcus/talent-tracker/internal/analysis"
	"github.com/marcus/talent-tracker/internal/assembly"
	"github.com/marcus/talent-tracker/internal/db"
)

func TestPrintJob(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	prompt := "extract_profile"
	stage := "screening"
	job := &db.Job{
		ID:         uuid.New(),
		Kind:       db.JobKindAnalysis,
		Status:     db.JobStatusSucceeded,
		Attempts:   1,
		PromptName: &prompt,
		StageName:  &stage,
	}

	p.PrintJob(job)

	output := buf.String()
	assert.Contains(t, output, "PROCESSING JOB")
	assert.Contains(t, output, "succeeded")
	assert.Contains(t, output, "extract_profile")
	assert.Contains(t, output, "screening")
	assert.Contains(t, output, "┌")
	assert.Contains(t, output, "└")
}

func TestPrintJob_FailedShowsRetryable(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	detail := "inference error: rate limited"
	job := &db.Job{
		ID:          uuid.New(),
		Kind:        db.JobKindAnalysis,
		Status:      db.JobStatusFailed,
		Attempts:    3,
		ErrorDetail: &detail,
		Retryable:   true,
	}

	p.PrintJob(job)

	output := buf.String()
	assert.Contains(t, output, "failed")
	assert.Contains(t, output, "Retryable: true")
	assert.Contains(t, output, "rate limited")
}

func TestPrintJob_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintJob(nil)
	assert.Empty(t, buf.String())
}

func TestPrintJobs(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	prompt := "assess_fit"
	jobs := []db.Job{
		{ID: uuid.New(), Kind: db.JobKindExtract, Status: db.JobStatusSucceeded},
		{ID: uuid.New(), Kind: db.JobKindAnalysis, Status: db.JobStatusSkipped, PromptName: &prompt},
	}

	p.PrintJobs("PROCESSING RESULT", jobs)

	output := buf.String()
	assert.Contains(t, output, "PROCESSING RESULT")
	assert.Contains(t, output, "✓")
	assert.Contains(t, output, "−")
	assert.Contains(t, output, `"assess_fit"`)
}

func TestPrintJobs_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintJobs("QUEUED JOBS", nil)
	assert.Contains(t, buf.String(), "no jobs")
}

func TestPrintJobs_TruncatesLongLists(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	jobs := make([]db.Job, 12)
	for i := range jobs {
		jobs[i] = db.Job{ID: uuid.New(), Kind: db.JobKindAnalysis, Status: db.JobStatusPending}
	}

	p.PrintJobs("QUEUED JOBS", jobs)

	assert.Contains(t, buf.String(), "and 4 more jobs")
}

func TestPrintBundle(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	bundle := &assembly.ContextBundle{}
	bundle.Add(assembly.SourceAttachmentText, "Attachment (resume)", "Ten years of Go.")
	bundle.Add("prompt:extract_profile", `Output of "extract_profile"`, `{"years_experience":10}`)

	p.PrintBundle(bundle)

	output := buf.String()
	assert.Contains(t, output, "CONTEXT BUNDLE")
	assert.Contains(t, output, "Resolved 2 sections")
	assert.Contains(t, output, "attachment_text")
}

func TestPrintBundle_Empty(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintBundle(nil)
	p.PrintBundle(&assembly.ContextBundle{})

	assert.Empty(t, buf.String())
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	result := &analysis.Result{
		Category: db.CategoryProfile,
		Fields:   map[string]any{"years_experience": float64(10)},
	}

	p.PrintResult(result)

	output := buf.String()
	assert.Contains(t, output, "ANALYSIS RESULT")
	assert.Contains(t, output, "profile")
	assert.Contains(t, output, "years_experience")
}

func TestPrintResult_Summary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintResult(&analysis.Result{Category: db.CategorySummary, Summary: "Strong screening round."})

	assert.Contains(t, buf.String(), "Strong screening round.")
}
