package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/marcus/talent-tracker/internal/db"
	"github.com/marcus/talent-tracker/internal/observability"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect and manage processing jobs",
}

var (
	jobsListFlags     processingFlags
	jobsListCandidate string
	jobsListStatus    string
	jobsListKind      string
	jobsListLimit     int
)

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List processing jobs",
	RunE:  runJobsList,
}

var jobsStaleFlags processingFlags

var jobsStaleCmd = &cobra.Command{
	Use:   "stale",
	Short: "List running jobs past the staleness threshold",
	Long: `List jobs stuck in running, usually left behind by a crash mid-inference.
Stale jobs are eligible for re-queueing with 'jobs rerun'.`,
	RunE: runJobsStale,
}

var jobsRunFlags processingFlags

var jobsRunCmd = &cobra.Command{
	Use:   "run <job-id>",
	Short: "Run a pending job to a terminal status",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsRun,
}

var jobsRerunFlags processingFlags

var jobsRerunCmd = &cobra.Command{
	Use:   "rerun <job-id>",
	Short: "Supersede a settled job and queue a fresh one",
	Long: `Create a fresh pending job for the same unit of work as a failed, skipped,
or stale job. The original keeps its status and history.`,
	Args: cobra.ExactArgs(1),
	RunE: runJobsRerun,
}

func init() {
	jobsListFlags.register(jobsListCmd)
	jobsListCmd.Flags().StringVar(&jobsListCandidate, "candidate", "", "Filter by candidate UUID")
	jobsListCmd.Flags().StringVar(&jobsListStatus, "status", "", "Filter by status (pending, running, succeeded, failed, skipped)")
	jobsListCmd.Flags().StringVar(&jobsListKind, "kind", "", "Filter by kind (analysis, extract, stage_summary)")
	jobsListCmd.Flags().IntVar(&jobsListLimit, "limit", 50, "Maximum jobs to list")

	jobsStaleFlags.register(jobsStaleCmd)
	jobsRunFlags.register(jobsRunCmd)
	jobsRerunFlags.register(jobsRerunCmd)

	jobsCmd.AddCommand(jobsListCmd, jobsStaleCmd, jobsRunCmd, jobsRerunCmd)
	rootCmd.AddCommand(jobsCmd)
}

func runJobsList(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := jobsListFlags.resolve(cmd)
	if err != nil {
		return err
	}
	env, err := newProcessingEnv(ctx, cfg)
	if err != nil {
		return err
	}
	defer env.Close()

	filter := db.JobFilter{
		Status: jobsListStatus,
		Kind:   jobsListKind,
		Limit:  jobsListLimit,
	}
	if jobsListCandidate != "" {
		candidateID, err := uuid.Parse(jobsListCandidate)
		if err != nil {
			return fmt.Errorf("invalid candidate ID: %w", err)
		}
		filter.CandidateID = &candidateID
	}

	jobs, err := env.db.ListJobs(ctx, filter)
	if err != nil {
		return err
	}

	observability.NewPrinter(os.Stdout).PrintJobs("PROCESSING JOBS", jobs)
	return nil
}

func runJobsStale(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := jobsStaleFlags.resolve(cmd)
	if err != nil {
		return err
	}
	env, err := newProcessingEnv(ctx, cfg)
	if err != nil {
		return err
	}
	defer env.Close()

	jobs, err := env.orch.StaleJobs(ctx)
	if err != nil {
		return err
	}

	observability.NewPrinter(os.Stdout).PrintJobs("STALE JOBS", jobs)
	return nil
}

func runJobsRun(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	jobID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid job ID: %w", err)
	}

	cfg, err := jobsRunFlags.resolve(cmd)
	if err != nil {
		return err
	}
	env, err := newProcessingEnv(ctx, cfg)
	if err != nil {
		return err
	}
	defer env.Close()

	job, err := env.orch.RunJob(ctx, jobID)
	if err != nil {
		return err
	}

	observability.NewPrinter(os.Stdout).PrintJob(job)
	return nil
}

func runJobsRerun(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	jobID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid job ID: %w", err)
	}

	cfg, err := jobsRerunFlags.resolve(cmd)
	if err != nil {
		return err
	}
	env, err := newProcessingEnv(ctx, cfg)
	if err != nil {
		return err
	}
	defer env.Close()

	job, err := env.orch.RerunJob(ctx, jobID)
	if err != nil {
		return err
	}

	observability.NewPrinter(os.Stdout).PrintJob(job)
	return nil
}
