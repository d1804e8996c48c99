// Package main is the trials command-line client: run a search or export
// matching studies without the HTTP service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"trials-map/internal/config"
	"trials-map/internal/country"
	"trials-map/internal/fetcher"
	"trials-map/internal/logging"
)

// env is shared by every subcommand once the root pre-run has loaded it.
var env struct {
	cfg       *config.Config
	fetcher   fetcher.Fetcher
	extractor *country.Extractor
}

var rootCmd = &cobra.Command{
	Use:   "trials",
	Short: "Search ClinicalTrials.gov and map studies to countries",
	Long: `trials queries the ClinicalTrials.gov registry, matches each study to the
first country named in its locations and either prints the results (search)
or writes them to a spreadsheet (export).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			cfg.Logging = config.LoggingConfig{Level: "debug", Format: "console"}
		}
		if cmd.Flags().Changed("max-studies") {
			cfg.Fetcher.MaxStudies, _ = cmd.Flags().GetInt("max-studies")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

		f, err := fetcher.New(cfg.Fetcher)
		if err != nil {
			return err
		}
		env.cfg = cfg
		env.fetcher = f
		env.extractor = country.New(cfg.Country.MatchCodes)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: $CONFIG_PATH, ./config.yaml or /etc/trials-map/config.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "debug logging on the console")
	rootCmd.PersistentFlags().Int("max-studies", 0, "cap on studies fetched from the registry (overrides config)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
