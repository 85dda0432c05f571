package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cheercheung/chatrecap-sub001/internal/api"
	"github.com/cheercheung/chatrecap-sub001/internal/artifact"
	"github.com/cheercheung/chatrecap-sub001/internal/events"
	"github.com/cheercheung/chatrecap-sub001/internal/logger"
	"github.com/cheercheung/chatrecap-sub001/internal/memstore"
	"github.com/cheercheung/chatrecap-sub001/internal/processor"
	"github.com/cheercheung/chatrecap-sub001/internal/scheduler"
	"github.com/cheercheung/chatrecap-sub001/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and background processing",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	log.Info().Int("port", cfg.Port).Msg("chatrecap starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	health := map[string]api.HealthCheck{}
	deps := processor.Deps{}

	// Jobs and credits
	if cfg.DatabaseURL != "" {
		db, err := store.New(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Migrate(); err != nil {
			return err
		}
		db.SetStartingCredits(cfg.StartingCredits)
		deps.Jobs, deps.Ledger = db, db
		health["database"] = db.Healthy
		log.Info().Msg("database connected")
	} else {
		log.Warn().Msg("DATABASE_URL not set, jobs are kept in memory with unlimited credits")
		deps.Jobs, deps.Ledger = memstore.NewJobs(), memstore.NewUnlimitedLedger()
	}

	// Artifacts
	blobs, err := artifact.Open(cfg.ArtifactDBPath, log)
	if err != nil {
		return err
	}
	defer blobs.Close()
	deps.Artifacts = blobs

	// Model client
	deps.Generator, err = newGenerator(ctx, cfg, log)
	if err != nil {
		return err
	}
	deps.Prompts = newPrompts(cfg, log)

	// NATS
	if cfg.NatsURL != "" {
		bus, err := events.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, logger.Named(log, "events"))
		if err != nil {
			return err
		}
		defer bus.Close()
		deps.Publisher = bus
		health["nats"] = func(context.Context) bool { return bus.Healthy() }
		log.Info().Str("url", cfg.NatsURL).Msg("NATS connected")
	} else {
		log.Warn().Msg("NATS not configured, lifecycle events are not published")
	}

	proc := processor.New(deps, processorOptions(cfg), log)

	// Interrupted jobs from a previous run
	if n, err := proc.ReapStale(ctx, cfg.StaleAfter); err != nil {
		log.Warn().Err(err).Msg("startup reap failed")
	} else if n > 0 {
		log.Warn().Int("jobs", n).Msg("failed jobs left running by a previous run")
	}

	sched, err := scheduler.New(log)
	if err != nil {
		return err
	}
	if err := sched.ScheduleReaper(proc, cfg.ReaperInterval, cfg.StaleAfter); err != nil {
		return err
	}
	sched.Start()

	srv := api.NewServer(proc, api.Options{
		Port:           cfg.Port,
		APIToken:       cfg.APIToken,
		CORSOrigins:    cfg.CORSOrigins,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Health:         health,
	}, logger.Named(log, "api"))
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	log.Info().Int("port", cfg.Port).Str("ai_provider", cfg.AIProvider).Msg("chatrecap ready")

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	var serveErr error
	select {
	case <-sigCh:
	case serveErr = <-errCh:
		log.Error().Err(serveErr).Msg("HTTP server error")
	}
	log.Info().Msg("shutting down")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 30*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("HTTP shutdown")
	}
	if err := sched.Stop(); err != nil {
		log.Warn().Err(err).Msg("scheduler shutdown")
	}
	if err := proc.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		log.Warn().Err(err).Msg("processor shutdown")
	}
	cancel()
	log.Info().Msg("chatrecap stopped")
	return serveErr
}
