package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"trials-map/internal/chart"
	"trials-map/internal/fetcher"
	"trials-map/internal/logging"
	"trials-map/internal/model"
	"trials-map/internal/pipeline"
)

const (
	// MsgNoSearchData is returned by /search when the registry yields nothing.
	MsgNoSearchData = "No clinical trials data found."

	// MsgNoDownloadData is returned by /download when the registry yields nothing.
	MsgNoDownloadData = "No clinical trials data available."

	maxRequestBytes = 1 << 20
)

// ChoroplethBuilder renders country counts as embeddable HTML.
type ChoroplethBuilder interface {
	Build(counts []model.CountryCount, searchTerms string) (string, error)
}

// TrialsHandler serves search and download. All dependencies are read-only
// and shared across requests.
type TrialsHandler struct {
	fetcher    fetcher.Fetcher
	extractor  pipeline.CountryExtractor
	chart      ChoroplethBuilder
	maxStudies int
}

func NewTrialsHandler(f fetcher.Fetcher, e pipeline.CountryExtractor, c ChoroplethBuilder, maxStudies int) *TrialsHandler {
	return &TrialsHandler{fetcher: f, extractor: e, chart: c, maxStudies: maxStudies}
}

// Search runs a query against the registry
// @Summary Search clinical trials
// @Description Fetch studies matching the search terms, match each to a country, apply the optional date bounds and return the table plus a choropleth of trials per country. Registry failures and empty results are reported with status 200 and an error body.
// @Tags trials
// @Accept json
// @Produce json
// @Param request body model.SearchRequest true "Search query"
// @Success 200 {object} model.SearchResponse "Search results"
// @Failure 400 {object} model.ErrorResponse "Invalid request"
// @Failure 500 {object} model.ErrorResponse "Rendering failed"
// @Router /search [post]
func (h *TrialsHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req model.SearchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	req.Normalize()

	if err := getValidator().Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	q, err := req.ToQuery()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	table, err := h.fetch(r.Context(), q.SearchTerms)
	if err != nil {
		writeError(w, http.StatusOK, MsgNoSearchData)
		return
	}

	res, err := pipeline.Run(table, q, h.extractor)
	if err != nil {
		logging.Warn().Err(err).Str("terms", q.SearchTerms).Msg("registry response unusable")
		writeError(w, http.StatusOK, MsgNoSearchData)
		return
	}
	res.Stats.Report(q.SearchTerms)

	graph, err := h.chart.Build(res.Counts, q.SearchTerms)
	if err != nil {
		logging.Error().Err(err).Str("terms", q.SearchTerms).Msg("choropleth rendering failed")
		writeError(w, http.StatusInternalServerError, "Failed to render the trials map")
		return
	}

	writeJSON(w, http.StatusOK, model.SearchResponse{TableData: res.Rows, GraphHTML: graph})
}

// Download exports the enriched, unfiltered results as a spreadsheet
// @Summary Download clinical trials
// @Description Fetch studies matching the search terms and return them, with the matched country, as a single-sheet xlsx workbook. No date filtering is applied.
// @Tags trials
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce json
// @Param search_terms query string true "Search terms"
// @Param date_field query string false "Accepted for compatibility; the export contains both dates"
// @Success 200 {file} file "clinical_trials.xlsx"
// @Failure 400 {object} model.ErrorResponse "Missing search terms"
// @Router /download [get]
func (h *TrialsHandler) Download(w http.ResponseWriter, r *http.Request) {
	req := model.DownloadRequest{
		SearchTerms: strings.TrimSpace(r.URL.Query().Get("search_terms")),
		DateField:   strings.TrimSpace(r.URL.Query().Get("date_field")),
	}
	if err := getValidator().Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	table, err := h.fetch(r.Context(), req.SearchTerms)
	if err != nil {
		writeError(w, http.StatusOK, MsgNoDownloadData)
		return
	}

	studies, err := pipeline.Enrich(table, h.extractor)
	if err != nil {
		logging.Warn().Err(err).Str("terms", req.SearchTerms).Msg("registry response unusable")
		writeError(w, http.StatusOK, MsgNoDownloadData)
		return
	}

	var buf bytes.Buffer
	n, err := pipeline.ExportXLSX(&buf, table.Header(), studies)
	if err != nil {
		logging.Error().Err(err).Str("terms", req.SearchTerms).Msg("spreadsheet export failed")
		writeError(w, http.StatusInternalServerError, "Failed to build the spreadsheet")
		return
	}
	logging.Info().Str("terms", req.SearchTerms).Int("rows", n).Int("bytes", buf.Len()).Msg("spreadsheet exported")

	w.Header().Set("Content-Type", pipeline.ExportContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+pipeline.ExportFileName+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *TrialsHandler) fetch(ctx context.Context, terms string) (model.Table, error) {
	table, err := h.fetcher.Fetch(ctx, terms, model.TargetFields, h.maxStudies)
	if err != nil {
		if !errors.Is(err, fetcher.ErrNoData) {
			err = errors.Join(fetcher.ErrNoData, err)
		}
		logging.Warn().Err(err).Str("terms", terms).Str("strategy", h.fetcher.Name()).Msg("no registry data")
		return nil, err
	}
	return table, nil
}

// breakerState is implemented by fetchers guarded by a circuit breaker.
type breakerState interface {
	State() gobreaker.State
}

// Health reports liveness and, when known, the registry circuit state
// @Summary Health check
// @Description Always 200 while the process serves. "registry" is the circuit breaker state (closed, half-open, open) in front of the registry.
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *TrialsHandler) Health(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]string{"status": "ok"}
	if b, ok := h.fetcher.(breakerState); ok {
		resp["registry"] = b.State().String()
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

// Ensure the chart builder satisfies the handler's dependency.
var _ ChoroplethBuilder = (*chart.Builder)(nil)
