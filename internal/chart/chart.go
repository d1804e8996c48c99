// Package chart renders the per-country trial counts as a world choropleth.
package chart

import (
	"bytes"
	"fmt"
	"html"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"trials-map/internal/model"
)

// Placeholder is returned instead of a map when there is nothing to plot.
const Placeholder = "<p>No clinical trials matched the selected filters.</p>"

// viridis, dark to light.
var viridis = []string{
	"#440154", "#482878", "#3E4989", "#31688E", "#26828E",
	"#1F9E89", "#35B779", "#6DCD59", "#B4DE2C", "#FDE725",
}

// MapNamer translates canonical country names to world map region names.
type MapNamer interface {
	MapName(country string) string
}

type Builder struct {
	names MapNamer

	Width  string
	Height string

	// AssetsHost overrides where echarts.min.js and the world map are loaded from.
	AssetsHost string
}

// NewBuilder returns a Builder. A nil namer uses country names as given.
func NewBuilder(names MapNamer) *Builder {
	return &Builder{names: names, Width: "100%", Height: "600px"}
}

// Title is the chart heading for a search.
func Title(searchTerms string) string {
	return "Distribution of Clinical Trials by Country for " + searchTerms
}

// Build renders a self-contained HTML document with the choropleth. Empty
// counts yield Placeholder. The option JSON is written into an inline
// script without HTML escaping, so the search terms are escaped first.
func (b *Builder) Build(counts []model.CountryCount, searchTerms string) (string, error) {
	if len(counts) == 0 {
		return Placeholder, nil
	}

	data := make([]opts.MapData, 0, len(counts))
	peak := 0
	for _, c := range counts {
		name := c.Country
		if b.names != nil {
			name = b.names.MapName(c.Country)
		}
		data = append(data, opts.MapData{Name: name, Value: c.Count})
		peak = max(peak, c.Count)
	}

	initOpts := opts.Initialization{
		PageTitle: Title(searchTerms),
		Width:     b.Width,
		Height:    b.Height,
	}
	if b.AssetsHost != "" {
		initOpts.AssetsHost = b.AssetsHost
	}

	m := charts.NewMap()
	m.RegisterMapType("world")
	m.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts),
		charts.WithTitleOpts(opts.Title{Title: Title(html.EscapeString(searchTerms)), Left: "center"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(peak),
			Text:       []string{"Number of Trials", ""},
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)
	m.AddSeries("Number of Trials", data)

	var buf bytes.Buffer
	if err := m.Render(&buf); err != nil {
		return "", fmt.Errorf("failed to render choropleth: %w", err)
	}
	return buf.String(), nil
}
