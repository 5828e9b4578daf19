package graphqlpipeline

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shreyasgm/ask-atlas-sub001/pkg/models"
)

func TestFormatUSD(t *testing.T) {
	tests := []struct {
		value    float64
		expected string
	}{
		{1_500_000_000_000, "$1.5 trillion"},
		{45_300_000_000, "$45.3 billion"},
		{2_700_000, "$2.7 million"},
		{120_000, "$120 thousand"},
		{950, "$950"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatUSD(tt.value))
	}
}

func TestOrdinal(t *testing.T) {
	tests := []struct {
		n        int
		expected string
	}{
		{1, "1st"}, {2, "2nd"}, {3, "3rd"}, {4, "4th"},
		{11, "11th"}, {12, "12th"}, {13, "13th"},
		{21, "21st"}, {22, "22nd"}, {23, "23rd"},
		{111, "111th"}, {101, "101st"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ordinal(tt.n))
	}
}

func TestFormatRank(t *testing.T) {
	assert.Equal(t, "42nd of 133", FormatRank(42, 133))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "3.7%", FormatPercent(3.71))
	assert.Equal(t, "-1.2%", FormatPercent(-1.2))
}

func TestFormatCountryProfile(t *testing.T) {
	data := json.RawMessage(`{"countryProfile":{
		"countryName":"Chile",
		"totalExports":98000000000,
		"totalImports":88000000000,
		"gdpPerCapita":16500,
		"eciRank":65,
		"eciValue":-0.12,
		"totalCountries":133,
		"growthProjection":2.8}}`)

	out, err := formatResponse(QueryTypeCountryProfile, data, nil)
	require.NoError(t, err)

	assert.Contains(t, out, "Chile:")
	assert.Contains(t, out, "$98.0 billion")
	assert.Contains(t, out, "65th of 133")
	assert.Contains(t, out, "2.8%")
}

func TestFormatTreemapSortsByValueDescending(t *testing.T) {
	data := json.RawMessage(`{"treemapProducts":{
		"totalValue":100000000,
		"products":[
			{"name":"Grapes","exportValue":10000000,"sharePercent":10},
			{"name":"Copper ore","exportValue":60000000,"sharePercent":60},
			{"name":"Wine","exportValue":30000000,"sharePercent":30}
		]}}`)

	out, err := formatResponse(QueryTypeTreemapProducts, data, nil)
	require.NoError(t, err)

	assert.Contains(t, out, "Total: $100.0 million")
	assert.Contains(t, out, "1. Copper ore")
	assert.Contains(t, out, "2. Wine")
	assert.Contains(t, out, "3. Grapes")
}

func TestFormatTreemapCapsAtFifteen(t *testing.T) {
	items := make([]map[string]any, 20)
	for i := range items {
		items[i] = map[string]any{
			"name":        "Product",
			"exportValue": float64(1000000 * (20 - i)),
		}
	}
	payload, err := json.Marshal(map[string]any{
		"treemapProducts": map[string]any{"totalValue": 1e9, "products": items},
	})
	require.NoError(t, err)

	out, err := formatResponse(QueryTypeTreemapProducts, payload, nil)
	require.NoError(t, err)

	assert.Contains(t, out, "... and 5 more")
	assert.NotContains(t, out, "16. ")
}

func TestFormatNewProductsEmpty(t *testing.T) {
	out, err := formatResponse(QueryTypeNewProducts, json.RawMessage(`{"newProducts":{"products":[]}}`), nil)
	require.NoError(t, err)
	assert.Equal(t, "No newly exported products found.", out)
}

func TestFormatResponseUnknownQueryType(t *testing.T) {
	_, err := formatResponse("nonsense", json.RawMessage(`{}`), nil)
	assert.Error(t, err)
}

func TestBuildAtlasLinks(t *testing.T) {
	entities := &models.GraphQLEntities{Country: "Chile"}
	resolved := map[string]string{"country": "42"}

	links := buildAtlasLinks(QueryTypeCountryProfile, resolved, entities)
	require.Len(t, links, 1)
	assert.Equal(t, "https://atlas.hks.harvard.edu/countries/42", links[0].URL)
	assert.Contains(t, links[0].Label, "Chile")

	links = buildAtlasLinks(QueryTypeTreemapProducts, resolved, entities)
	require.Len(t, links, 1)
	assert.Contains(t, links[0].URL, "explore/treemap?exporter=country-42")
}

func TestBuildAtlasLinksWithoutCountry(t *testing.T) {
	assert.Nil(t, buildAtlasLinks(QueryTypeCountryProfile, map[string]string{}, nil))
}
