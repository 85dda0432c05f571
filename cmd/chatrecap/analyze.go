package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cheercheung/chatrecap-sub001/internal/chat"
	"github.com/cheercheung/chatrecap-sub001/internal/errs"
	"github.com/cheercheung/chatrecap-sub001/internal/job"
	"github.com/cheercheung/chatrecap-sub001/internal/memstore"
	"github.com/cheercheung/chatrecap-sub001/internal/processor"
)

var (
	analyzePlatform string
	analyzeLocale   string
	analyzeWait     time.Duration
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Clean an export and print the AI relationship report",
	Long: `Runs the full lifecycle in memory: upload, clean, then AI analysis.
Requires an API key for the configured provider.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzePlatform, "platform", "p", "", "export format; sniffed when empty")
	analyzeCmd.Flags().StringVarP(&analyzeLocale, "locale", "l", "", "report language, e.g. en or zh-CN")
	analyzeCmd.Flags().DurationVar(&analyzeWait, "wait", 3*time.Minute, "how long to wait for each stage")
	rootCmd.AddCommand(analyzeCmd)
}

const pollInterval = 250 * time.Millisecond

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	hint, err := chat.ParsePlatform(analyzePlatform)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	gen, err := newGenerator(ctx, cfg, log)
	if err != nil {
		return err
	}
	if gen == nil {
		return errors.New("no API key configured for " + cfg.AIProvider)
	}

	proc := processor.New(processor.Deps{
		Jobs:      memstore.NewJobs(),
		Artifacts: memstore.NewArtifacts(),
		Ledger:    memstore.NewUnlimitedLedger(),
		Generator: gen,
		Prompts:   newPrompts(cfg, log),
	}, processorOptions(cfg), log)
	defer proc.Shutdown(context.Background())

	attempts := int(analyzeWait / pollInterval)
	j, err := proc.Upload(ctx, "cli", hint, raw)
	if err != nil {
		return userErr(err)
	}
	if _, err := proc.Clean(ctx, j.ID, hint); err != nil {
		return userErr(err)
	}
	if err := await(ctx, proc, j.ID, attempts, job.StatusCompletedBasic); err != nil {
		return err
	}
	if _, err := proc.AnalyzeWithAI(ctx, j.ID, analyzeLocale); err != nil {
		return userErr(err)
	}
	if err := await(ctx, proc, j.ID, attempts, job.StatusCompleteAI); err != nil {
		return err
	}

	report, err := proc.GetInsights(ctx, j.ID)
	if err != nil {
		return userErr(err)
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func await(ctx context.Context, proc *processor.Processor, fileID string, attempts int, target job.Status) error {
	st, err := proc.WaitForStatus(ctx, fileID, pollInterval, attempts, target)
	if err != nil {
		return err
	}
	if st.Status == job.StatusFailed {
		return errors.New(st.Error)
	}
	return nil
}

func userErr(err error) error {
	if e, ok := errs.As(err); ok {
		return fmt.Errorf("%s: %s", e.Code(), e.Message())
	}
	return err
}
