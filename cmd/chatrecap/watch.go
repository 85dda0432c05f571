package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cheercheung/chatrecap-sub001/internal/events"
	"github.com/cheercheung/chatrecap-sub001/internal/logger"
)

var watchJSON bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print job lifecycle events published by a running server",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchJSON, "json", false, "print each event as a JSON line")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.NatsURL == "" {
		return errors.New("nats_url is not configured")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bus, err := events.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, logger.Named(log, "events"))
	if err != nil {
		return err
	}
	defer bus.Close()

	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	if err := bus.WatchJobs(func(evt events.JobEvent) {
		if watchJSON {
			_ = enc.Encode(evt)
			return
		}
		fmt.Fprintln(out, formatJobEvent(evt))
	}); err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr, "watching", events.SubjectJobAll)
	<-ctx.Done()
	return nil
}

func formatJobEvent(evt events.JobEvent) string {
	transition := evt.To
	if evt.From != "" {
		transition = evt.From + " -> " + evt.To
	}
	line := fmt.Sprintf("%s  %s  %s", evt.At.UTC().Format(time.DateTime), evt.FileID, transition)
	if evt.Error != "" {
		line += "  (" + evt.Error + ")"
	}
	return line
}
