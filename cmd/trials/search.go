package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"trials-map/internal/chart"
	"trials-map/internal/model"
	"trials-map/internal/pipeline"
	"trials-map/pkg/utils"
)

var searchCmd = &cobra.Command{
	Use:   "search <terms>",
	Short: "Search the registry and print matched studies",
	Long: `search fetches studies matching the terms, drops those outside the date
bounds or without a recognisable country, and prints the results followed by
the number of trials per country. With --map the choropleth is written to an
HTML file under the output directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("date-field", string(model.DateFieldStart), `date column to show: "Start Date" or "Primary Completion Date"`)
	searchCmd.Flags().String("start-from", "", "earliest start date (YYYY-MM-DD)")
	searchCmd.Flags().String("start-to", "", "latest start date (YYYY-MM-DD)")
	searchCmd.Flags().String("pc-from", "", "earliest primary completion date (YYYY-MM-DD)")
	searchCmd.Flags().String("pc-to", "", "latest primary completion date (YYYY-MM-DD)")
	searchCmd.Flags().Bool("json", false, "print results as JSON")
	searchCmd.Flags().Bool("map", false, "write the choropleth HTML to the output directory")
	searchCmd.Flags().String("out", "outputs", "output directory for --map")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	req := model.SearchRequest{SearchTerms: args[0]}
	req.DateField, _ = flags.GetString("date-field")
	req.StartDateFrom, _ = flags.GetString("start-from")
	req.StartDateTo, _ = flags.GetString("start-to")
	req.PCDateFrom, _ = flags.GetString("pc-from")
	req.PCDateTo, _ = flags.GetString("pc-to")
	req.Normalize()
	if req.SearchTerms == "" {
		return errors.New("search terms must not be empty")
	}
	q, err := req.ToQuery()
	if err != nil {
		return err
	}

	table, err := env.fetcher.Fetch(cmd.Context(), q.SearchTerms, model.TargetFields, env.cfg.Fetcher.MaxStudies)
	if err != nil {
		return err
	}
	res, err := pipeline.Run(table, q, env.extractor)
	if err != nil {
		return err
	}
	res.Stats.Report(q.SearchTerms)

	out := cmd.OutOrStdout()
	if asJSON, _ := flags.GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(struct {
			Rows   []model.TableRow     `json:"table_data"`
			Counts []model.CountryCount `json:"counts"`
			Stats  pipeline.Stats       `json:"stats"`
		}{res.Rows, res.Counts, res.Stats}); err != nil {
			return err
		}
	} else {
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", model.FieldNCTNumber, model.FieldCountry, q.DateField, model.FieldStudyTitle)
		for _, row := range res.Rows {
			date, _ := row[string(q.DateField)].(string)
			fmt.Fprintf(tw, "%v\t%v\t%s\t%v\n", row[model.FieldNCTNumber], row[model.FieldCountry], date, row[model.FieldStudyTitle])
		}
		fmt.Fprintln(tw)
		for _, c := range res.Counts {
			fmt.Fprintf(tw, "%s\t%d\n", c.Country, c.Count)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if writeMap, _ := flags.GetBool("map"); writeMap {
		b := chart.NewBuilder(env.extractor)
		b.AssetsHost = env.cfg.Chart.AssetsHost
		graph, err := b.Build(res.Counts, q.SearchTerms)
		if err != nil {
			return err
		}
		dir, _ := flags.GetString("out")
		f, path, err := utils.NewOutputManager(dir).Create("trials_map.html")
		if err != nil {
			return err
		}
		if _, err := f.WriteString(graph); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "map written to", path)
	}
	return nil
}
