package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cheercheung/chatrecap-sub001/internal/config"
	"github.com/cheercheung/chatrecap-sub001/internal/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "chatrecap",
	Short:         "Turn chat exports into statistics and AI relationship reports",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a yaml or toml config file")
}

func loadConfig() (config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, zerolog.Nop(), err
	}
	log := logger.New(logger.Options{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "chatrecap",
		Writer:  os.Stderr,
	})
	return cfg, log, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrln("error:", err)
		os.Exit(1)
	}
}
