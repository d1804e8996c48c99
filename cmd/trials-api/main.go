// Package main is the entry point for the trials-map HTTP service.
//
// @title Trials Map API
// @version 1.0
// @description Search ClinicalTrials.gov, map studies to countries and export the results.
// @license.name MIT
// @BasePath /
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"trials-map/internal/api"
	"trials-map/internal/api/handler"
	"trials-map/internal/chart"
	"trials-map/internal/config"
	"trials-map/internal/country"
	"trials-map/internal/fetcher"
	"trials-map/internal/logging"
	"trials-map/pkg/router"
)

var rootCmd = &cobra.Command{
	Use:   "trials-api",
	Short: "Clinical trials search and map service",
	Long: `trials-api serves the search page, the /search JSON endpoint that returns
matched studies with a choropleth of trials per country, and the /download
spreadsheet export.`,
	SilenceUsage: true,
	RunE:         serve,
}

func init() {
	rootCmd.Flags().String("config", "", "config file (default: $CONFIG_PATH, ./config.yaml or /etc/trials-map/config.yaml)")
	rootCmd.Flags().Int("port", 0, "listen port (overrides config)")
	rootCmd.Flags().Bool("debug", false, "debug logging on the console")
}

func serve(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port, _ = cmd.Flags().GetInt("port")
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Server.Debug = true
		cfg.Logging = config.LoggingConfig{Level: "debug", Format: "console"}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	extractor := country.New(cfg.Country.MatchCodes)
	f, err := fetcher.New(cfg.Fetcher)
	if err != nil {
		return err
	}
	charts := chart.NewBuilder(extractor)
	charts.AssetsHost = cfg.Chart.AssetsHost
	h := handler.NewTrialsHandler(f, extractor, charts, cfg.Fetcher.MaxStudies)

	r := router.New()
	api.RegisterRoutes(r, h, cfg.HTTP)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("strategy", f.Name()).
		Int("countries", extractor.Len()).
		Msg("starting trials-api")

	return r.Start(ctx, cfg.Server.Addr(), router.ServerOptions{
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
