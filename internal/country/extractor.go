// Package country matches free-text study locations to a single country.
//
// The canonical list lives in countries.yaml. Matching is plain substring
// search in list order, so the first listed country contained in the text
// wins. That makes a few names ambiguous: "Georgia" (US state or country),
// "Niger" inside "Nigeria", "Oman" inside "Romania", "Guinea" inside
// "Papua New Guinea", "Jersey" inside "New Jersey". These are left as is.
package country

import (
	_ "embed"
	"fmt"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

//go:embed countries.yaml
var countriesYAML []byte

// Country is one entry of the canonical list.
type Country struct {
	Name    string   `yaml:"name"`
	Alpha2  string   `yaml:"alpha_2"`
	Alpha3  string   `yaml:"alpha_3"`
	Aliases []string `yaml:"aliases"`
	MapName string   `yaml:"map_name"`
}

// Extractor is read-only after construction and safe for concurrent use.
type Extractor struct {
	countries  []Country
	byName     map[string]Country
	matchCodes bool
}

// Load parses a country list in the countries.yaml format.
func Load(data []byte, matchCodes bool) (*Extractor, error) {
	var list []Country
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse country list: %w", err)
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("country list is empty")
	}

	e := &Extractor{
		countries:  list,
		byName:     make(map[string]Country, len(list)),
		matchCodes: matchCodes,
	}
	for _, c := range list {
		if c.Name == "" {
			return nil, fmt.Errorf("country %q has no name", c.Alpha3)
		}
		e.byName[c.Name] = c
	}
	return e, nil
}

// New returns an Extractor over the embedded ISO 3166-1 list.
func New(matchCodes bool) *Extractor {
	e, err := Load(countriesYAML, matchCodes)
	if err != nil {
		panic(err)
	}
	return e
}

// Default returns an Extractor that matches names only.
func Default() *Extractor {
	return New(false)
}

// Len returns the number of known countries.
func (e *Extractor) Len() int {
	return len(e.countries)
}

// Extract returns the canonical name of the first country found in the
// location text. Names and aliases are tried before the alpha-2 code of the
// same entry.
func (e *Extractor) Extract(location string) (string, bool) {
	if strings.TrimSpace(location) == "" {
		return "", false
	}

	var tokens map[string]bool
	if e.matchCodes {
		tokens = codeTokens(location)
	}

	for _, c := range e.countries {
		if strings.Contains(location, c.Name) {
			return c.Name, true
		}
		for _, alias := range c.Aliases {
			if strings.Contains(location, alias) {
				return c.Name, true
			}
		}
		if tokens[c.Alpha2] {
			return c.Name, true
		}
	}
	return "", false
}

// MapName returns the world map region name for a canonical country name.
func (e *Extractor) MapName(name string) string {
	if c, ok := e.byName[name]; ok && c.MapName != "" {
		return c.MapName
	}
	return name
}

// codeTokens collects standalone two-letter upper-case words.
func codeTokens(s string) map[string]bool {
	tokens := make(map[string]bool)
	for _, w := range strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r)
	}) {
		if len(w) == 2 && strings.ToUpper(w) == w {
			tokens[w] = true
		}
	}
	return tokens
}
