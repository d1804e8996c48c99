package chart

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trials-map/internal/country"
	"trials-map/internal/model"
)

func TestBuild_Placeholder(t *testing.T) {
	b := NewBuilder(country.Default())

	html, err := b.Build(nil, "diabetes")
	require.NoError(t, err)
	assert.Equal(t, Placeholder, html)

	html, err = b.Build([]model.CountryCount{}, "diabetes")
	require.NoError(t, err)
	assert.Equal(t, Placeholder, html)
}

func TestBuild_Choropleth(t *testing.T) {
	b := NewBuilder(country.Default())

	html, err := b.Build([]model.CountryCount{
		{Country: "United States", Count: 12},
		{Country: "Russian Federation", Count: 3},
	}, "diabetes")
	require.NoError(t, err)

	assert.NotEqual(t, Placeholder, html)
	assert.Contains(t, html, "Distribution of Clinical Trials by Country for diabetes")
	assert.Contains(t, html, "United States")
	assert.Contains(t, html, "Russia")
	assert.Contains(t, html, "world")
	assert.Contains(t, html, "#FDE725")
}

func TestBuild_NilNamer(t *testing.T) {
	html, err := NewBuilder(nil).Build([]model.CountryCount{{Country: "Freedonia", Count: 1}}, "x")
	require.NoError(t, err)
	assert.Contains(t, html, "Freedonia")
}

func TestBuild_TermsCannotCloseScript(t *testing.T) {
	terms := "x</script><script>alert(1)</script>"
	html, err := NewBuilder(country.Default()).Build([]model.CountryCount{{Country: "France", Count: 1}}, terms)
	require.NoError(t, err)

	assert.NotContains(t, html, "<script>alert(1)")
	assert.NotContains(t, html, "x</script>")
	assert.Equal(t, strings.Count(html, "<script"), strings.Count(html, "</script>"))
	assert.Contains(t, html, "x&lt;/script&gt;")
}

func TestBuild_AssetsHost(t *testing.T) {
	b := NewBuilder(country.Default())
	b.AssetsHost = "https://cdn.example.org/echarts/"

	html, err := b.Build([]model.CountryCount{{Country: "France", Count: 1}}, "x")
	require.NoError(t, err)
	assert.Contains(t, html, "https://cdn.example.org/echarts/")
}
