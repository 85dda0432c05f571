package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/cheercheung/chatrecap-sub001/internal/artifact"
	"github.com/cheercheung/chatrecap-sub001/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required")
		}
		db, err := store.New(context.Background(), cfg.DatabaseURL, log)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Migrate(); err != nil {
			return err
		}

		blobs, err := artifact.Open(cfg.ArtifactDBPath, log)
		if err != nil {
			return err
		}
		return blobs.Close()
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
