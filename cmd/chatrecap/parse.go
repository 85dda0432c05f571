package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/cheercheung/chatrecap-sub001/internal/chat"
	"github.com/cheercheung/chatrecap-sub001/internal/errs"
	"github.com/cheercheung/chatrecap-sub001/internal/parser"
	"github.com/cheercheung/chatrecap-sub001/internal/stats"
)

var (
	parsePlatform string
	parseJSON     bool
	parseMessages bool
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse an export and print its statistics",
	Long: `Runs the cleaning pipeline and the statistics engine on a local export
without storing anything. No AI call is made.`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().StringVarP(&parsePlatform, "platform", "p", "", "export format (whatsapp, discord, instagram, telegram, snapchat); sniffed when empty")
	parseCmd.Flags().BoolVar(&parseJSON, "json", false, "output the full result as JSON")
	parseCmd.Flags().BoolVar(&parseMessages, "messages", false, "include the cleaned messages in JSON output")
	rootCmd.AddCommand(parseCmd)
}

type parseOutput struct {
	*chat.ProcessResult
	Analysis *stats.Bundle `json:"analysis"`
}

func runParse(cmd *cobra.Command, args []string) error {
	hint, err := chat.ParsePlatform(parsePlatform)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	res, err := parser.New(nil).Process(raw, hint)
	if err != nil {
		return errors.New(errs.UserMessage(err))
	}
	bundle, err := stats.Compute(context.Background(), res.Messages, stats.DefaultTextOptions())
	if err != nil {
		return err
	}

	if parseJSON {
		out := parseOutput{ProcessResult: res, Analysis: bundle}
		if !parseMessages {
			trimmed := *res
			trimmed.Messages = nil
			out.ProcessResult = &trimmed
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	printSummary(cmd, res, bundle)
	return nil
}

func printSummary(cmd *cobra.Command, res *chat.ProcessResult, b *stats.Bundle) {
	ov := b.Overview
	cmd.Printf("Platform:        %s\n", res.Platform)
	cmd.Printf("Messages:        %s (%s words)\n", humanize.Comma(int64(ov.TotalMessages)), humanize.Comma(int64(ov.TotalWords)))
	for _, s := range ov.Senders {
		cmd.Printf("  %-20s %s messages, %.1f%%\n", s.Name, humanize.Comma(int64(s.Messages)), s.Share)
	}
	if ov.FirstMessageAt != nil && ov.LastMessageAt != nil {
		cmd.Printf("Span:            %s to %s (%d days, %d active)\n",
			ov.FirstMessageAt.Format("2006-01-02"), ov.LastMessageAt.Format("2006-01-02"), ov.DaysSpanned, ov.ActiveDays)
	}
	if ov.ResponseTime.Samples > 0 {
		cmd.Printf("Response time:   %s average, %s median\n", ov.ResponseTime.Average, ov.ResponseTime.Median)
	}
	if ta := b.TimeAnalysis; ta.MostActiveHour >= 0 {
		cmd.Printf("Busiest hour:    %02d:00\n", ta.MostActiveHour)
	}
	if len(b.TextAnalysis.TopWords) > 0 {
		cmd.Print("Top words:      ")
		for i, w := range b.TextAnalysis.TopWords {
			if i == 5 {
				break
			}
			cmd.Printf(" %s (%d)", w.Word, w.Count)
		}
		cmd.Println()
	}
	cmd.Printf("Sentiment:       %s\n", b.TextAnalysis.Sentiment.Label)
	st := res.Stats
	cmd.Printf("Filtered:        %d system, %d media\n", st.FilteredSystemMessages, st.FilteredMediaMessages)
}
