package graphqlpipeline

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/shreyasgm/ask-atlas-sub001/pkg/models"
)

// FormatUSD renders a dollar value with a magnitude suffix, e.g.
// "$1.2 trillion", "$45.3 billion", "$120 thousand".
func FormatUSD(value float64) string {
	abs := value
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 1e12:
		return fmt.Sprintf("$%.1f trillion", value/1e12)
	case abs >= 1e9:
		return fmt.Sprintf("$%.1f billion", value/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("$%.1f million", value/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("$%.0f thousand", value/1e3)
	default:
		return fmt.Sprintf("$%.0f", value)
	}
}

// FormatRank renders "Nth of TOTAL" with an ordinal suffix.
func FormatRank(rank, total int) string {
	return fmt.Sprintf("%s of %d", ordinal(rank), total)
}

func ordinal(n int) string {
	suffix := "th"
	switch {
	case n%100 >= 11 && n%100 <= 13:
	case n%10 == 1:
		suffix = "st"
	case n%10 == 2:
		suffix = "nd"
	case n%10 == 3:
		suffix = "rd"
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

// FormatPercent renders a percentage with one decimal.
func FormatPercent(value float64) string {
	return fmt.Sprintf("%.1f%%", value)
}

type treemapItem struct {
	Name         string  `json:"name"`
	Code         string  `json:"code,omitempty"`
	ISO3         string  `json:"iso3,omitempty"`
	ExportValue  float64 `json:"exportValue"`
	SharePercent float64 `json:"sharePercent"`
	FirstYear    int     `json:"firstYear,omitempty"`
	RCA          float64 `json:"rca,omitempty"`
}

// formatResponse derives the human-readable summary for a query type
// from the raw JSON payload.
func formatResponse(queryType string, data json.RawMessage, entities *models.GraphQLEntities) (string, error) {
	switch queryType {
	case QueryTypeCountryProfile:
		return formatCountryProfile(data)
	case QueryTypeTreemapProducts:
		return formatTreemap(data, "treemapProducts", "products", "export")
	case QueryTypeTreemapPartners:
		return formatTreemap(data, "treemapPartners", "partners", "trade with")
	case QueryTypeNewProducts:
		return formatNewProducts(data)
	case QueryTypeCountryGrowth:
		return formatCountryGrowth(data)
	case QueryTypeProductSpaceRCA:
		return formatProductSpaceRCA(data)
	default:
		return "", fmt.Errorf("no formatter for query type %s", queryType)
	}
}

func formatCountryProfile(data json.RawMessage) (string, error) {
	var payload struct {
		CountryProfile struct {
			CountryName      string  `json:"countryName"`
			TotalExports     float64 `json:"totalExports"`
			TotalImports     float64 `json:"totalImports"`
			GDPPerCapita     float64 `json:"gdpPerCapita"`
			ECIRank          int     `json:"eciRank"`
			ECIValue         float64 `json:"eciValue"`
			TotalCountries   int     `json:"totalCountries"`
			GrowthProjection float64 `json:"growthProjection"`
		} `json:"countryProfile"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("unexpected country profile payload: %w", err)
	}
	p := payload.CountryProfile

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s:\n", p.CountryName))
	sb.WriteString(fmt.Sprintf("- Total exports: %s\n", FormatUSD(p.TotalExports)))
	sb.WriteString(fmt.Sprintf("- Total imports: %s\n", FormatUSD(p.TotalImports)))
	sb.WriteString(fmt.Sprintf("- GDP per capita: %s\n", FormatUSD(p.GDPPerCapita)))
	if p.ECIRank > 0 {
		sb.WriteString(fmt.Sprintf("- Economic Complexity ranking: %s (ECI %.2f)\n",
			FormatRank(p.ECIRank, p.TotalCountries), p.ECIValue))
	}
	if p.GrowthProjection != 0 {
		sb.WriteString(fmt.Sprintf("- Projected annual growth: %s\n", FormatPercent(p.GrowthProjection)))
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func formatTreemap(data json.RawMessage, envelopeKey, listKey, verb string) (string, error) {
	var outer map[string]json.RawMessage
	if err := json.Unmarshal(data, &outer); err != nil {
		return "", fmt.Errorf("unexpected treemap payload: %w", err)
	}
	var inner struct {
		Products   []treemapItem `json:"products"`
		Partners   []treemapItem `json:"partners"`
		TotalValue float64       `json:"totalValue"`
	}
	if err := json.Unmarshal(outer[envelopeKey], &inner); err != nil {
		return "", fmt.Errorf("unexpected treemap payload: %w", err)
	}
	items := inner.Products
	if listKey == "partners" {
		items = inner.Partners
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].ExportValue > items[j].ExportValue
	})

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total: %s\n", FormatUSD(inner.TotalValue)))
	for i, item := range items {
		if i >= 15 {
			sb.WriteString(fmt.Sprintf("... and %d more\n", len(items)-i))
			break
		}
		sb.WriteString(fmt.Sprintf("%d. %s: %s (%s of total %s)\n",
			i+1, item.Name, FormatUSD(item.ExportValue), FormatPercent(item.SharePercent), verb))
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func formatNewProducts(data json.RawMessage) (string, error) {
	var payload struct {
		NewProducts struct {
			Products []treemapItem `json:"products"`
		} `json:"newProducts"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("unexpected new products payload: %w", err)
	}
	items := payload.NewProducts.Products
	if len(items) == 0 {
		return "No newly exported products found.", nil
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].ExportValue > items[j].ExportValue
	})

	var sb strings.Builder
	sb.WriteString("Newly exported products:\n")
	for i, item := range items {
		sb.WriteString(fmt.Sprintf("%d. %s: %s", i+1, item.Name, FormatUSD(item.ExportValue)))
		if item.FirstYear > 0 {
			sb.WriteString(fmt.Sprintf(" (first exported %d)", item.FirstYear))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func formatCountryGrowth(data json.RawMessage) (string, error) {
	var payload struct {
		CountryGrowth struct {
			CountryName      string   `json:"countryName"`
			GrowthProjection float64  `json:"growthProjection"`
			GrowthRank       int      `json:"growthRank"`
			TotalCountries   int      `json:"totalCountries"`
			Drivers          []string `json:"drivers"`
		} `json:"countryGrowth"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("unexpected growth payload: %w", err)
	}
	g := payload.CountryGrowth

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s is projected to grow %s annually", g.CountryName, FormatPercent(g.GrowthProjection)))
	if g.GrowthRank > 0 {
		sb.WriteString(fmt.Sprintf(", ranking %s for projected growth", FormatRank(g.GrowthRank, g.TotalCountries)))
	}
	sb.WriteString(".")
	if len(g.Drivers) > 0 {
		sb.WriteString(" Key drivers: " + strings.Join(g.Drivers, ", ") + ".")
	}
	return sb.String(), nil
}

func formatProductSpaceRCA(data json.RawMessage) (string, error) {
	var payload struct {
		ProductSpaceRca struct {
			Products []treemapItem `json:"products"`
		} `json:"productSpaceRca"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("unexpected product space payload: %w", err)
	}
	items := payload.ProductSpaceRca.Products
	if len(items) == 0 {
		return "No products with revealed comparative advantage found.", nil
	}
	sort.Slice(items, func(i, j int) bool { return items[i].RCA > items[j].RCA })

	var sb strings.Builder
	sb.WriteString("Products with revealed comparative advantage (RCA > 1):\n")
	for i, item := range items {
		if i >= 15 {
			sb.WriteString(fmt.Sprintf("... and %d more\n", len(items)-i))
			break
		}
		sb.WriteString(fmt.Sprintf("%d. %s: RCA %.2f\n", i+1, item.Name, item.RCA))
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

// buildAtlasLinks produces deep links into the public visualization
// site for the resolved country and query type.
func buildAtlasLinks(queryType string, resolvedIDs map[string]string, entities *models.GraphQLEntities) []models.AtlasLink {
	countryID, ok := resolvedIDs["country"]
	if !ok {
		return nil
	}
	countryName := ""
	if entities != nil {
		countryName = entities.Country
	}

	var links []models.AtlasLink
	switch queryType {
	case QueryTypeCountryProfile, QueryTypeCountryGrowth:
		links = append(links, models.AtlasLink{
			URL:      fmt.Sprintf("https://atlas.hks.harvard.edu/countries/%s", countryID),
			Label:    fmt.Sprintf("%s country profile", countryName),
			LinkType: "country_profile",
		})
	case QueryTypeTreemapProducts, QueryTypeNewProducts:
		links = append(links, models.AtlasLink{
			URL:      fmt.Sprintf("https://atlas.hks.harvard.edu/explore/treemap?exporter=country-%s", countryID),
			Label:    fmt.Sprintf("%s export treemap", countryName),
			LinkType: "treemap",
		})
	case QueryTypeTreemapPartners:
		links = append(links, models.AtlasLink{
			URL:      fmt.Sprintf("https://atlas.hks.harvard.edu/explore/treemap?exporter=country-%s&view=markets", countryID),
			Label:    fmt.Sprintf("%s trade partners", countryName),
			LinkType: "treemap",
		})
	case QueryTypeProductSpaceRCA:
		links = append(links, models.AtlasLink{
			URL:      fmt.Sprintf("https://atlas.hks.harvard.edu/countries/%s/product-space", countryID),
			Label:    fmt.Sprintf("%s product space", countryName),
			LinkType: "product_space",
		})
	}
	return links
}
