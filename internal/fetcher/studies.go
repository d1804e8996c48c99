package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"trials-map/internal/logging"
	"trials-map/internal/model"
)

const (
	studiesPath = "/api/v2/studies"

	// studiesMaxPageSize is the API's upper bound for pageSize.
	studiesMaxPageSize = 1000

	// StudyURLPrefix prefixes an NCT id to form the public study page.
	StudyURLPrefix = "https://clinicaltrials.gov/study/"
)

// StudiesFetcher pages through the v2 studies API and flattens the JSON
// into the same columns as the CSV export.
type StudiesFetcher struct {
	Client       *http.Client
	BaseURL      string
	UserAgent    string
	MaxBodyBytes int64

	// PageSize overrides the page size; zero lets the cap decide.
	PageSize int
}

func (f *StudiesFetcher) Name() string { return "studies" }

type studiesPage struct {
	Studies       []apiStudy `json:"studies"`
	NextPageToken string     `json:"nextPageToken"`
	TotalCount    int        `json:"totalCount"`
}

type apiStudy struct {
	ProtocolSection struct {
		IdentificationModule struct {
			NCTID      string `json:"nctId"`
			BriefTitle string `json:"briefTitle"`
		} `json:"identificationModule"`
		StatusModule struct {
			StartDateStruct             apiDate `json:"startDateStruct"`
			PrimaryCompletionDateStruct apiDate `json:"primaryCompletionDateStruct"`
		} `json:"statusModule"`
		ContactsLocationsModule struct {
			Locations []apiLocation `json:"locations"`
		} `json:"contactsLocationsModule"`
	} `json:"protocolSection"`
}

type apiDate struct {
	Date string `json:"date"`
}

type apiLocation struct {
	Facility string `json:"facility"`
	City     string `json:"city"`
	State    string `json:"state"`
	Zip      string `json:"zip"`
	Country  string `json:"country"`
}

// studyColumn knows the API pieces behind one CSV column and how to render it.
type studyColumn struct {
	pieces []string
	value  func(s *apiStudy) string
}

var studyColumns = map[string]studyColumn{
	model.FieldNCTNumber: {
		pieces: []string{"NCTId"},
		value:  func(s *apiStudy) string { return s.ProtocolSection.IdentificationModule.NCTID },
	},
	model.FieldStudyTitle: {
		pieces: []string{"BriefTitle"},
		value:  func(s *apiStudy) string { return s.ProtocolSection.IdentificationModule.BriefTitle },
	},
	model.FieldStudyURL: {
		pieces: []string{"NCTId"},
		value: func(s *apiStudy) string {
			if id := s.ProtocolSection.IdentificationModule.NCTID; id != "" {
				return StudyURLPrefix + id
			}
			return ""
		},
	},
	model.FieldLocations: {
		pieces: []string{"LocationFacility", "LocationCity", "LocationState", "LocationZip", "LocationCountry"},
		value:  func(s *apiStudy) string { return joinLocations(s.ProtocolSection.ContactsLocationsModule.Locations) },
	},
	model.FieldStartDate: {
		pieces: []string{"StartDate"},
		value:  func(s *apiStudy) string { return s.ProtocolSection.StatusModule.StartDateStruct.Date },
	},
	model.FieldPrimaryCompletionDate: {
		pieces: []string{"PrimaryCompletionDate"},
		value:  func(s *apiStudy) string { return s.ProtocolSection.StatusModule.PrimaryCompletionDateStruct.Date },
	},
}

// joinLocations renders sites the way the CSV export does:
// "facility, city, state, zip, country" joined with "|".
func joinLocations(locs []apiLocation) string {
	sites := make([]string, 0, len(locs))
	for _, l := range locs {
		var parts []string
		for _, p := range []string{l.Facility, l.City, l.State, l.Zip, l.Country} {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) > 0 {
			sites = append(sites, strings.Join(parts, ", "))
		}
	}
	return strings.Join(sites, "|")
}

// Fetch follows nextPageToken until maxStudies rows are collected or the
// result set is exhausted.
func (f *StudiesFetcher) Fetch(ctx context.Context, searchExpr string, fields []string, maxStudies int) (table model.Table, err error) {
	start := time.Now()
	defer func() { observe(f.Name(), start, table, err) }()

	columns := make([]studyColumn, len(fields))
	var pieces []string
	seen := make(map[string]bool)
	for i, name := range fields {
		col, ok := studyColumns[name]
		if !ok {
			return nil, fail(f.Name(), "request", fmt.Errorf("field %q is not available from the studies API", name))
		}
		columns[i] = col
		for _, p := range col.pieces {
			if !seen[p] {
				seen[p] = true
				pieces = append(pieces, p)
			}
		}
	}

	header := append([]string(nil), fields...)
	table = model.Table{header}
	token := ""
	for {
		pageSize := f.pageSize(maxStudies, len(table)-1)
		page, err := f.page(ctx, searchExpr, pieces, pageSize, token)
		if err != nil {
			return nil, err
		}
		if token == "" {
			logging.Debug().Str("terms", searchExpr).Int("total", page.TotalCount).Msg("studies query matched")
		}

		for i := range page.Studies {
			if maxStudies > 0 && len(table)-1 >= maxStudies {
				break
			}
			row := make([]string, len(columns))
			for c, col := range columns {
				row[c] = col.value(&page.Studies[i])
			}
			table = append(table, row)
		}

		token = page.NextPageToken
		if token == "" || len(page.Studies) == 0 || (maxStudies > 0 && len(table)-1 >= maxStudies) {
			break
		}
	}

	if !table.HasData() {
		return nil, fail(f.Name(), "empty", errEmpty)
	}
	return table, nil
}

func (f *StudiesFetcher) pageSize(maxStudies, have int) int {
	size := f.PageSize
	if size <= 0 {
		size = studiesMaxPageSize
	}
	if maxStudies > 0 && maxStudies-have < size {
		size = maxStudies - have
	}
	return size
}

func (f *StudiesFetcher) page(ctx context.Context, searchExpr string, pieces []string, pageSize int, token string) (*studiesPage, error) {
	params := url.Values{
		"format":     {"json"},
		"query.term": {searchExpr},
		"fields":     {strings.Join(pieces, ",")},
		"pageSize":   {strconv.Itoa(pageSize)},
	}
	if token == "" {
		params.Set("countTotal", "true")
	} else {
		params.Set("pageToken", token)
	}
	reqURL := strings.TrimRight(f.BaseURL, "/") + studiesPath + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fail(f.Name(), "request", fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	resp, err := httpClient(f.Client).Do(req)
	if err != nil {
		return nil, fail(f.Name(), "network", fmt.Errorf("registry request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fail(f.Name(), "status", &StatusError{Code: resp.StatusCode})
	}

	maxBody := bodyLimit(f.MaxBodyBytes)
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		return nil, fail(f.Name(), "network", fmt.Errorf("reading response: %w", err))
	}
	if int64(len(body)) > maxBody {
		return nil, fail(f.Name(), "malformed", fmt.Errorf("response body exceeds %d bytes", maxBody))
	}

	var page studiesPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fail(f.Name(), "malformed", fmt.Errorf("parsing studies response: %w", err))
	}
	return &page, nil
}
