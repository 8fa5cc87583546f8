package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/marcus/talent-tracker/internal/observability"
)

var summarizeFlags processingFlags

var summarizeCmd = &cobra.Command{
	Use:   "summarize <candidate-id> <stage>",
	Short: "Summarize a candidate's stage from its analysis results",
	Long: `Run a stage-summary job: gather the successful analysis results for one of a
candidate's stages and synthesize them into a summary on the candidate record.`,
	Args: cobra.ExactArgs(2),
	RunE: runSummarize,
}

func init() {
	summarizeFlags.register(summarizeCmd)
	rootCmd.AddCommand(summarizeCmd)
}

func runSummarize(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	candidateID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid candidate ID: %w", err)
	}
	stageName := args[1]

	cfg, err := summarizeFlags.resolve(cmd)
	if err != nil {
		return err
	}

	env, err := newProcessingEnv(ctx, cfg)
	if err != nil {
		return err
	}
	defer env.Close()

	job, err := env.orch.SummarizeStage(ctx, candidateID, stageName)
	if err != nil {
		return err
	}

	observability.NewPrinter(os.Stdout).PrintJob(job)
	return nil
}
