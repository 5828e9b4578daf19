package graphqlpipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() *EntityCatalog {
	return &EntityCatalog{
		Countries: []CountryEntry{
			{ISO3: "CHL", Name: "Chile", ID: "42"},
			{ISO3: "CHN", Name: "China", ID: "43"},
			{ISO3: "USA", Name: "United States of America", ID: "231"},
			{ISO3: "KOR", Name: "South Korea", ID: "118"},
			{ISO3: "PRK", Name: "North Korea", ID: "119"},
		},
		Products: []ProductEntry{
			{Name: "Copper ore", Code: "2603", ID: "650", Classification: "hs92"},
			{Name: "Refined copper", Code: "7403", ID: "1432", Classification: "hs92"},
			{Name: "Wine", Code: "2204", ID: "580", Classification: "hs92"},
		},
		ServicesCategories: []ServicesCategory{
			{Name: "Travel and tourism", ID: "svc-1"},
			{Name: "ICT services", ID: "svc-2"},
		},
	}
}

func TestResolveCountryExactISO3(t *testing.T) {
	candidates := testCatalog().ResolveCountry("CHL")
	require.Len(t, candidates, 1)
	assert.Equal(t, "42", candidates[0].ID)
	assert.Equal(t, float64(1), candidates[0].Score)
}

func TestResolveCountryExactNameCaseInsensitive(t *testing.T) {
	candidates := testCatalog().ResolveCountry("chile")
	require.Len(t, candidates, 1)
	assert.Equal(t, "Chile", candidates[0].Name)
}

func TestResolveCountryFuzzyRanksBestFirst(t *testing.T) {
	candidates := testCatalog().ResolveCountry("korea")
	require.Len(t, candidates, 2)
	for _, c := range candidates {
		assert.Contains(t, c.Name, "Korea")
		assert.Less(t, c.Score, float64(1))
	}
}

func TestResolveCountryNoMatch(t *testing.T) {
	assert.Empty(t, testCatalog().ResolveCountry("Atlantis"))
	assert.Empty(t, testCatalog().ResolveCountry("  "))
}

func TestResolveProductExactAndFuzzy(t *testing.T) {
	catalog := testCatalog()

	exact := catalog.ResolveProduct("copper ore", "hs92")
	require.Len(t, exact, 1)
	assert.Equal(t, "650", exact[0].ID)

	byCode := catalog.ResolveProduct("2204", "hs92")
	require.Len(t, byCode, 1)
	assert.Equal(t, "Wine", byCode[0].Name)

	fuzzy := catalog.ResolveProduct("copper", "hs92")
	require.Len(t, fuzzy, 2)
}

func TestResolveProductClassificationFilter(t *testing.T) {
	assert.Empty(t, testCatalog().ResolveProduct("copper ore", "sitc"))
}

func TestTokenOverlap(t *testing.T) {
	assert.InDelta(t, 0.9, tokenOverlap("korea", "south korea"), 1e-9)
	assert.InDelta(t, 0.5, tokenOverlap("united kingdom", "united states of america"), 1e-9)
	assert.Zero(t, tokenOverlap("japan", "chile"))
}

func TestServicesCatalogHelpers(t *testing.T) {
	catalog := testCatalog()

	text := catalog.ServicesCatalogText()
	assert.Contains(t, text, "- Travel and tourism")
	assert.Contains(t, text, "- ICT services")

	assert.Equal(t, "svc-1", catalog.ServicesCategoryID("travel and tourism"))
	assert.Equal(t, "", catalog.ServicesCategoryID("banking"))
}

func TestLoadEntityCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entity_catalog.yaml")
	content := `countries:
  - iso3: CHL
    name: Chile
    id: "42"
products:
  - name: Copper ore
    code: "2603"
    id: "650"
    classification: hs92
services_categories:
  - name: Travel and tourism
    id: svc-1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	catalog, err := LoadEntityCatalog(path)
	require.NoError(t, err)
	assert.Len(t, catalog.Countries, 1)
	assert.Len(t, catalog.Products, 1)
}

func TestLoadEntityCatalogRejectsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("countries: []\n"), 0600))

	_, err := LoadEntityCatalog(path)
	assert.Error(t, err)
}
