package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/marcus/talent-tracker/internal/observability"
)

var (
	processFlags       processingFlags
	processTriggerOnly bool
)

var processCmd = &cobra.Command{
	Use:   "process <attachment-id>",
	Short: "Run the analysis jobs for an attachment",
	Long: `Create the processing jobs an attachment implies and run them to completion:
text extraction first, then each of the stage's prompts in dependency order.
With --trigger-only the jobs are created as pending but not run.`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	processFlags.register(processCmd)
	processCmd.Flags().BoolVar(&processTriggerOnly, "trigger-only", false, "Create pending jobs without running them")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	attachmentID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid attachment ID: %w", err)
	}

	cfg, err := processFlags.resolve(cmd)
	if err != nil {
		return err
	}

	env, err := newProcessingEnv(ctx, cfg)
	if err != nil {
		return err
	}
	defer env.Close()

	printer := observability.NewPrinter(os.Stdout)

	if processTriggerOnly {
		jobs, err := env.orch.TriggerAttachment(ctx, attachmentID)
		if err != nil {
			return err
		}
		printer.PrintJobs("QUEUED JOBS", jobs)
		return nil
	}

	jobs, err := env.orch.ProcessAttachment(ctx, attachmentID)
	if err != nil {
		return err
	}
	printer.PrintJobs("PROCESSING RESULT", jobs)

	if cfg.Verbose {
		for i := range jobs {
			printer.PrintJob(&jobs[i])
		}
	}
	return nil
}
