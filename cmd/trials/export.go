package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"trials-map/internal/logging"
	"trials-map/internal/model"
	"trials-map/internal/pipeline"
	"trials-map/pkg/utils"
)

var exportCmd = &cobra.Command{
	Use:   "export <terms>",
	Short: "Write matching studies to a spreadsheet",
	Long: `export fetches studies matching the terms and writes every one of them,
with its matched country, to clinical_trials.xlsx in a new run directory
under the output directory. No date filtering is applied. The file path is
printed on success.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("out", "outputs", "output directory")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	terms := strings.TrimSpace(args[0])
	if terms == "" {
		return fmt.Errorf("search terms must not be empty")
	}

	table, err := env.fetcher.Fetch(cmd.Context(), terms, model.TargetFields, env.cfg.Fetcher.MaxStudies)
	if err != nil {
		return err
	}
	studies, err := pipeline.Enrich(table, env.extractor)
	if err != nil {
		return err
	}

	dir, _ := cmd.Flags().GetString("out")
	om := utils.NewOutputManager(dir)
	f, path, err := om.Create(pipeline.ExportFileName)
	if err != nil {
		return err
	}
	n, err := pipeline.ExportXLSX(f, table.Header(), studies)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}

	logging.Info().Str("terms", terms).Int("rows", n).Str("path", path).Str("type", om.FileType(path)).Msg("export written")
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
