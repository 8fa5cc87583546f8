package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/marcus/talent-tracker/internal/analysis"
	"github.com/marcus/talent-tracker/internal/assembly"
	"github.com/marcus/talent-tracker/internal/catalog"
	"github.com/marcus/talent-tracker/internal/db"
	"github.com/marcus/talent-tracker/internal/llm"
	"github.com/marcus/talent-tracker/internal/prompts"
)

// Store is the persistence capability the orchestrator needs.
type Store interface {
	GetCandidate(ctx context.Context, id uuid.UUID) (*db.Candidate, error)
	GetAttachment(ctx context.Context, id uuid.UUID) (*db.Attachment, error)
	LoadTemplateTree(ctx context.Context, templateID uuid.UUID) (*db.TemplateTree, error)
	CreateJob(ctx context.Context, input *db.JobInput) (*db.Job, error)
	SupersedeLiveJobs(ctx context.Context, input *db.JobInput) (int, error)
	StartJob(ctx context.Context, jobID uuid.UUID) (*db.Job, error)
	SucceedJob(ctx context.Context, jobID uuid.UUID, result json.RawMessage, write *db.EntityWrite) error
	FailJob(ctx context.Context, jobID uuid.UUID, errDetail string, retryable bool) error
	SkipJob(ctx context.Context, jobID uuid.UUID, reason string) error
	GetJob(ctx context.Context, jobID uuid.UUID) (*db.Job, error)
	ListJobs(ctx context.Context, filter db.JobFilter) ([]db.Job, error)
	ListStaleJobs(ctx context.Context, runningSince time.Time) ([]db.Job, error)
}

// ContextAssembler resolves a prompt's declared sources into a bundle.
type ContextAssembler interface {
	Assemble(ctx context.Context, sources []string, attachment *db.Attachment, candidate *db.Candidate, stageName string) (*assembly.ContextBundle, error)
	AttachmentText(ctx context.Context, attachment *db.Attachment) (string, error)
}

// AnalysisExecutor runs one inference call and parses the result.
type AnalysisExecutor interface {
	Execute(ctx context.Context, systemInstructions, instructions string, bundle *assembly.ContextBundle, category string, tier llm.ModelTier) (*analysis.Result, error)
}

// Config holds the orchestrator's retry and concurrency knobs.
type Config struct {
	MaxAttempts   int
	BackoffBase   time.Duration
	BackoffMax    time.Duration
	Staleness     time.Duration
	MaxConcurrent int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:   3,
		BackoffBase:   time.Second,
		BackoffMax:    30 * time.Second,
		Staleness:     15 * time.Minute,
		MaxConcurrent: 4,
	}
}

// Orchestrator drives processing jobs from creation through their terminal
// status, keeping the single-live-job invariant and dependency order.
type Orchestrator struct {
	store     Store
	assembler ContextAssembler
	executor  AnalysisExecutor
	config    Config
}

// New creates an orchestrator.
func New(store Store, assembler ContextAssembler, executor AnalysisExecutor, config Config) *Orchestrator {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 1
	}
	return &Orchestrator{store: store, assembler: assembler, executor: executor, config: config}
}

// unit is an attachment resolved against its candidate's template snapshot.
type unit struct {
	attachment *db.Attachment
	candidate  *db.Candidate
	snapshot   *catalog.Snapshot
	stageName  string
	system     string
	prompts    []db.Prompt
}

func (o *Orchestrator) resolveAttachment(ctx context.Context, attachmentID uuid.UUID) (*unit, error) {
	att, err := o.store.GetAttachment(ctx, attachmentID)
	if err != nil {
		return nil, err
	}
	if att == nil {
		return nil, &NotFoundError{Kind: "attachment", ID: attachmentID.String()}
	}

	cand, err := o.store.GetCandidate(ctx, att.CandidateID)
	if err != nil {
		return nil, err
	}
	if cand == nil {
		return nil, &NotFoundError{Kind: "candidate", ID: att.CandidateID.String()}
	}
	if cand.PipelineTemplateID == nil {
		return nil, fmt.Errorf("candidate %s has no pipeline template", cand.ID)
	}

	snapshot, err := catalog.Load(ctx, o.store, *cand.PipelineTemplateID)
	if err != nil {
		return nil, err
	}

	// The attachment's stage snapshot wins; otherwise the candidate's current
	// stage, which must still resolve against the template.
	stageName := cand.PipelineStage
	if att.StageName != nil && *att.StageName != "" {
		stageName = *att.StageName
	} else if err := snapshot.ValidateCandidateStage(cand); err != nil {
		return nil, err
	}

	stage, err := snapshot.ResolveStage(stageName)
	if err != nil {
		return nil, err
	}
	stagePrompts, err := snapshot.ResolveStagePrompts(stageName)
	if err != nil {
		return nil, err
	}

	// An attachment pinned to one prompt runs that prompt alone.
	if att.PromptName != nil && *att.PromptName != "" {
		var pinned []db.Prompt
		for _, p := range stagePrompts {
			if p.Name == *att.PromptName {
				pinned = append(pinned, p)
				break
			}
		}
		if len(pinned) == 0 {
			return nil, &catalog.NotFoundError{Kind: "prompt", Name: *att.PromptName}
		}
		stagePrompts = pinned
	}

	system := ""
	if stage.SystemInstructions != nil {
		system = *stage.SystemInstructions
	}

	return &unit{
		attachment: att,
		candidate:  cand,
		snapshot:   snapshot,
		stageName:  stageName,
		system:     system,
		prompts:    stagePrompts,
	}, nil
}

// TriggerAttachment creates the pending jobs for an attachment: one extract
// job when the attachment has no stored text, and one analysis job per prompt
// in its stage. Creation is idempotent; a prompt already covered by a live or
// successful job is left alone, so re-triggering an attachment only fills in
// what failed, was skipped, or never ran.
func (o *Orchestrator) TriggerAttachment(ctx context.Context, attachmentID uuid.UUID) ([]db.Job, error) {
	u, err := o.resolveAttachment(ctx, attachmentID)
	if err != nil {
		return nil, err
	}
	return o.triggerUnit(ctx, u)
}

// coveredWork reports which of an attachment's units already have a live or
// succeeded, non-superseded job and need no fresh one.
type coveredWork struct {
	extract bool
	prompts map[string]bool
}

func (o *Orchestrator) coveredWork(ctx context.Context, attachmentID uuid.UUID) (*coveredWork, error) {
	existing, err := o.store.ListJobs(ctx, db.JobFilter{AttachmentID: &attachmentID, Limit: 500})
	if err != nil {
		return nil, err
	}

	covered := &coveredWork{prompts: make(map[string]bool)}
	for i := range existing {
		job := &existing[i]
		if !job.Live() && !(job.Status == db.JobStatusSucceeded && job.SupersededAt == nil) {
			continue
		}
		if job.Kind == db.JobKindExtract {
			covered.extract = true
		}
		if job.PromptName != nil {
			covered.prompts[*job.PromptName] = true
		}
	}
	return covered, nil
}

func (o *Orchestrator) triggerUnit(ctx context.Context, u *unit) ([]db.Job, error) {
	covered, err := o.coveredWork(ctx, u.attachment.ID)
	if err != nil {
		return nil, err
	}

	var created []db.Job

	if (u.attachment.ExtractedText == nil || *u.attachment.ExtractedText == "") && !covered.extract {
		input := &db.JobInput{
			CandidateID:  u.candidate.ID,
			AttachmentID: &u.attachment.ID,
			StageName:    &u.stageName,
			Kind:         db.JobKindExtract,
		}
		job, err := o.store.CreateJob(ctx, input)
		if err != nil {
			var conflict *db.ConflictError
			if !errors.As(err, &conflict) {
				return nil, err
			}
		} else {
			created = append(created, *job)
		}
	}

	for i := range u.prompts {
		p := u.prompts[i]
		if covered.prompts[p.Name] {
			continue
		}
		input := &db.JobInput{
			CandidateID:  u.candidate.ID,
			AttachmentID: &u.attachment.ID,
			PromptID:     &p.ID,
			PromptName:   &p.Name,
			StageName:    &u.stageName,
			Kind:         db.JobKindAnalysis,
		}
		job, err := o.store.CreateJob(ctx, input)
		if err != nil {
			var conflict *db.ConflictError
			if !errors.As(err, &conflict) {
				return nil, err
			}
			continue
		}
		created = append(created, *job)
	}

	return created, nil
}

// ProcessAttachment triggers and runs an attachment's jobs to completion.
// Extraction runs first, then analysis prompts wave by wave in dependency
// order, prompts within a wave concurrently. A failed prompt does not stop
// the run; its dependents skip on missing context. Returns the attachment's
// jobs in their final states.
func (o *Orchestrator) ProcessAttachment(ctx context.Context, attachmentID uuid.UUID) ([]db.Job, error) {
	u, err := o.resolveAttachment(ctx, attachmentID)
	if err != nil {
		return nil, err
	}
	if _, err := o.triggerUnit(ctx, u); err != nil {
		return nil, err
	}

	pending, err := o.store.ListJobs(ctx, db.JobFilter{
		AttachmentID: &u.attachment.ID,
		Status:       db.JobStatusPending,
	})
	if err != nil {
		return nil, err
	}

	byPrompt := make(map[string]*db.Job, len(pending))
	for i := range pending {
		job := &pending[i]
		switch job.Kind {
		case db.JobKindExtract:
			if err := o.runExtractJob(ctx, job, u.attachment); err != nil {
				return nil, err
			}
		case db.JobKindAnalysis:
			if job.PromptName != nil {
				byPrompt[*job.PromptName] = job
			}
		}
	}

	waves, err := buildWaves(u.prompts)
	if err != nil {
		return nil, err
	}

	for _, wave := range waves {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(o.config.MaxConcurrent)
		for i := range wave {
			p := wave[i]
			job, ok := byPrompt[p.Name]
			if !ok {
				continue
			}
			g.Go(func() error {
				return o.runAnalysisJob(gctx, job, u, p)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	return o.store.ListJobs(ctx, db.JobFilter{AttachmentID: &u.attachment.ID})
}

// RunJob runs a single pending job to a terminal status and returns the
// refreshed record.
func (o *Orchestrator) RunJob(ctx context.Context, jobID uuid.UUID) (*db.Job, error) {
	job, err := o.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, &NotFoundError{Kind: "job", ID: jobID.String()}
	}
	if job.Status != db.JobStatusPending || job.SupersededAt != nil {
		return nil, &RequeueError{JobID: job.ID, Status: job.Status, Reason: "job is not pending"}
	}

	switch job.Kind {
	case db.JobKindExtract, db.JobKindAnalysis:
		if job.AttachmentID == nil {
			return nil, fmt.Errorf("job %s has no attachment", job.ID)
		}
		u, err := o.resolveAttachment(ctx, *job.AttachmentID)
		if err != nil {
			return nil, err
		}
		if job.Kind == db.JobKindExtract {
			if err := o.runExtractJob(ctx, job, u.attachment); err != nil {
				return nil, err
			}
		} else {
			prompt, ok := findPrompt(u.prompts, job.PromptName)
			if !ok {
				if err := o.store.SkipJob(ctx, job.ID, "prompt is no longer defined for this stage"); err != nil {
					return nil, err
				}
			} else if err := o.runAnalysisJob(ctx, job, u, prompt); err != nil {
				return nil, err
			}
		}

	case db.JobKindStageSummary:
		cand, err := o.store.GetCandidate(ctx, job.CandidateID)
		if err != nil {
			return nil, err
		}
		if cand == nil {
			return nil, &NotFoundError{Kind: "candidate", ID: job.CandidateID.String()}
		}
		if err := o.runStageSummaryJob(ctx, job, cand); err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unknown job kind: %s", job.Kind)
	}

	return o.store.GetJob(ctx, jobID)
}

func findPrompt(stagePrompts []db.Prompt, name *string) (db.Prompt, bool) {
	if name == nil {
		return db.Prompt{}, false
	}
	for _, p := range stagePrompts {
		if p.Name == *name {
			return p, true
		}
	}
	return db.Prompt{}, false
}

// SummarizeStage creates and runs a stage-summary job for a candidate's
// stage, writing the result onto the candidate record.
func (o *Orchestrator) SummarizeStage(ctx context.Context, candidateID uuid.UUID, stageName string) (*db.Job, error) {
	cand, err := o.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if cand == nil {
		return nil, &NotFoundError{Kind: "candidate", ID: candidateID.String()}
	}
	if cand.PipelineTemplateID == nil {
		return nil, fmt.Errorf("candidate %s has no pipeline template", cand.ID)
	}

	snapshot, err := catalog.Load(ctx, o.store, *cand.PipelineTemplateID)
	if err != nil {
		return nil, err
	}
	if _, err := snapshot.ResolveStage(stageName); err != nil {
		return nil, err
	}

	job, err := o.store.CreateJob(ctx, &db.JobInput{
		CandidateID: cand.ID,
		StageName:   &stageName,
		Kind:        db.JobKindStageSummary,
	})
	if err != nil {
		return nil, err
	}

	if err := o.runStageSummaryJob(ctx, job, cand); err != nil {
		return nil, err
	}
	return o.store.GetJob(ctx, job.ID)
}

// RerunJob supersedes a settled job and creates a fresh pending job for the
// same unit of work. Eligible jobs are failed, skipped, or running past the
// staleness threshold; the original keeps its status and history.
func (o *Orchestrator) RerunJob(ctx context.Context, jobID uuid.UUID) (*db.Job, error) {
	job, err := o.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, &NotFoundError{Kind: "job", ID: jobID.String()}
	}

	switch {
	case job.Status == db.JobStatusFailed, job.Status == db.JobStatusSkipped:
	case job.Status == db.JobStatusRunning:
		if job.StartedAt == nil || time.Since(*job.StartedAt) < o.config.Staleness {
			return nil, &RequeueError{JobID: job.ID, Status: job.Status, Reason: "job is still running"}
		}
	default:
		return nil, &RequeueError{JobID: job.ID, Status: job.Status, Reason: "only failed, skipped, or stale jobs can be re-queued"}
	}

	input := &db.JobInput{
		CandidateID:  job.CandidateID,
		AttachmentID: job.AttachmentID,
		PromptID:     job.PromptID,
		PromptName:   job.PromptName,
		StageName:    job.StageName,
		Kind:         job.Kind,
	}
	if _, err := o.store.SupersedeLiveJobs(ctx, input); err != nil {
		return nil, err
	}

	fresh, err := o.store.CreateJob(ctx, input)
	if err != nil {
		var conflict *db.ConflictError
		if errors.As(err, &conflict) {
			return nil, &RequeueError{JobID: job.ID, Status: job.Status, Reason: "a live job already exists for this unit of work"}
		}
		return nil, err
	}
	return fresh, nil
}

// StaleJobs lists running jobs older than the configured staleness threshold.
func (o *Orchestrator) StaleJobs(ctx context.Context) ([]db.Job, error) {
	return o.store.ListStaleJobs(ctx, time.Now().Add(-o.config.Staleness))
}

func (o *Orchestrator) runExtractJob(ctx context.Context, job *db.Job, att *db.Attachment) error {
	started, err := o.store.StartJob(ctx, job.ID)
	if err != nil {
		return err
	}
	if started == nil {
		return nil
	}

	var text string
	var lastErr error
	for attempt := 1; attempt <= o.config.MaxAttempts; attempt++ {
		text, lastErr = o.assembler.AttachmentText(ctx, att)
		if lastErr == nil {
			break
		}
		var missing *assembly.MissingContextError
		if errors.As(lastErr, &missing) {
			return o.store.SkipJob(ctx, job.ID, missing.Error())
		}
		if attempt < o.config.MaxAttempts {
			if err := o.sleepBackoff(ctx, attempt); err != nil {
				return err
			}
		}
	}
	if lastErr != nil {
		return o.store.FailJob(ctx, job.ID, lastErr.Error(), true)
	}

	result, err := json.Marshal(map[string]any{"characters": len(text)})
	if err != nil {
		return err
	}
	write := &db.EntityWrite{
		Category:     db.CategoryAttachmentText,
		CandidateID:  job.CandidateID,
		AttachmentID: &att.ID,
		Text:         text,
	}
	if err := o.store.SucceedJob(ctx, job.ID, result, write); err != nil {
		return err
	}

	// Later jobs in this run read the stored text instead of re-fetching.
	att.ExtractedText = &text
	return nil
}

func (o *Orchestrator) runAnalysisJob(ctx context.Context, job *db.Job, u *unit, prompt db.Prompt) error {
	started, err := o.store.StartJob(ctx, job.ID)
	if err != nil {
		return err
	}
	if started == nil {
		return nil
	}

	var result *analysis.Result
	var lastErr error
	for attempt := 1; attempt <= o.config.MaxAttempts; attempt++ {
		var bundle *assembly.ContextBundle
		bundle, lastErr = o.assembler.Assemble(ctx, prompt.ContextSources, u.attachment, u.candidate, u.stageName)
		if lastErr == nil {
			result, lastErr = o.executor.Execute(ctx, u.system, prompt.Instructions, bundle, prompt.OutputCategory, llm.TierStandard)
		}
		if lastErr == nil {
			break
		}

		var missing *assembly.MissingContextError
		if errors.As(lastErr, &missing) {
			return o.store.SkipJob(ctx, job.ID, missing.Error())
		}
		var malformed *analysis.MalformedOutputError
		if errors.As(lastErr, &malformed) {
			return o.store.FailJob(ctx, job.ID, malformed.Error(), false)
		}
		if attempt < o.config.MaxAttempts {
			if err := o.sleepBackoff(ctx, attempt); err != nil {
				return err
			}
		}
	}
	if lastErr != nil {
		return o.store.FailJob(ctx, job.ID, lastErr.Error(), true)
	}

	write := analysis.EntityWrite(result, u.candidate.ID, &u.attachment.ID, u.stageName)
	return o.store.SucceedJob(ctx, job.ID, result.Raw, write)
}

func (o *Orchestrator) runStageSummaryJob(ctx context.Context, job *db.Job, cand *db.Candidate) error {
	started, err := o.store.StartJob(ctx, job.ID)
	if err != nil {
		return err
	}
	if started == nil {
		return nil
	}
	if job.StageName == nil {
		return o.store.FailJob(ctx, job.ID, "stage-summary job has no stage", false)
	}
	stageName := *job.StageName

	instructions := prompts.Format(
		prompts.MustGet("analysis.json", "stage_summary_user"),
		map[string]string{"Stage": stageName},
	)
	system := prompts.MustGet("analysis.json", "stage_summary_system")

	var result *analysis.Result
	var lastErr error
	for attempt := 1; attempt <= o.config.MaxAttempts; attempt++ {
		var bundle *assembly.ContextBundle
		bundle, lastErr = o.assembler.Assemble(ctx, []string{assembly.SourceStageResults}, nil, cand, stageName)
		if lastErr == nil {
			result, lastErr = o.executor.Execute(ctx, system, instructions, bundle, db.CategorySummary, llm.TierAdvanced)
		}
		if lastErr == nil {
			break
		}

		var missing *assembly.MissingContextError
		if errors.As(lastErr, &missing) {
			return o.store.SkipJob(ctx, job.ID, missing.Error())
		}
		var malformed *analysis.MalformedOutputError
		if errors.As(lastErr, &malformed) {
			return o.store.FailJob(ctx, job.ID, malformed.Error(), false)
		}
		if attempt < o.config.MaxAttempts {
			if err := o.sleepBackoff(ctx, attempt); err != nil {
				return err
			}
		}
	}
	if lastErr != nil {
		return o.store.FailJob(ctx, job.ID, lastErr.Error(), true)
	}

	write := analysis.EntityWrite(result, cand.ID, nil, stageName)
	return o.store.SucceedJob(ctx, job.ID, result.Raw, write)
}

// sleepBackoff waits for the exponential backoff delay after the given
// attempt number, honoring context cancellation.
func (o *Orchestrator) sleepBackoff(ctx context.Context, attempt int) error {
	delay := o.config.BackoffBase << (attempt - 1)
	if delay > o.config.BackoffMax {
		delay = o.config.BackoffMax
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
