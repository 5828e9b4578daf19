package graphqlpipeline

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// CountryEntry maps a country to its Atlas numeric id.
type CountryEntry struct {
	ISO3 string `yaml:"iso3"`
	Name string `yaml:"name"`
	ID   string `yaml:"id"`
}

// ProductEntry maps a product name to its Atlas product id within a
// classification system.
type ProductEntry struct {
	Name           string `yaml:"name"`
	Code           string `yaml:"code"`
	ID             string `yaml:"id"`
	Classification string `yaml:"classification"`
}

// ServicesCategory is one entry of the services catalog injected into
// entity extraction prompts.
type ServicesCategory struct {
	Name string `yaml:"name"`
	ID   string `yaml:"id"`
}

// EntityCatalog holds the pre-built id lookup tables. Loaded once at
// startup and immutable afterwards.
type EntityCatalog struct {
	Countries          []CountryEntry     `yaml:"countries"`
	Products           []ProductEntry     `yaml:"products"`
	ServicesCategories []ServicesCategory `yaml:"services_categories"`
}

// LoadEntityCatalog reads the catalog artifact.
func LoadEntityCatalog(path string) (*EntityCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read entity catalog: %w", err)
	}
	var catalog EntityCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse entity catalog: %w", err)
	}
	if len(catalog.Countries) == 0 {
		return nil, fmt.Errorf("entity catalog %s lists no countries", path)
	}
	return &catalog, nil
}

// Candidate is one scored catalog match.
type Candidate struct {
	ID    string
	Name  string
	Score float64
}

// ResolveCountry finds candidates for a country reference: exact ISO3
// or exact name first, fuzzy token match otherwise. Candidates are
// sorted best-first.
func (c *EntityCatalog) ResolveCountry(ref string) []Candidate {
	needle := strings.ToLower(strings.TrimSpace(ref))
	if needle == "" {
		return nil
	}

	var exact, fuzzy []Candidate
	for _, entry := range c.Countries {
		name := strings.ToLower(entry.Name)
		switch {
		case strings.EqualFold(entry.ISO3, needle) || name == needle:
			exact = append(exact, Candidate{ID: entry.ID, Name: entry.Name, Score: 1})
		default:
			if score := tokenOverlap(needle, name); score > 0 {
				fuzzy = append(fuzzy, Candidate{ID: entry.ID, Name: entry.Name, Score: score})
			}
		}
	}
	if len(exact) > 0 {
		return exact
	}
	sort.Slice(fuzzy, func(i, j int) bool { return fuzzy[i].Score > fuzzy[j].Score })
	return fuzzy
}

// ResolveProduct finds candidates for a product name, exact first then
// fuzzy, optionally restricted to one classification system.
func (c *EntityCatalog) ResolveProduct(ref, classification string) []Candidate {
	needle := strings.ToLower(strings.TrimSpace(ref))
	if needle == "" {
		return nil
	}

	var exact, fuzzy []Candidate
	for _, entry := range c.Products {
		if classification != "" && entry.Classification != classification {
			continue
		}
		name := strings.ToLower(entry.Name)
		switch {
		case name == needle || entry.Code == needle:
			exact = append(exact, Candidate{ID: entry.ID, Name: entry.Name, Score: 1})
		default:
			if score := tokenOverlap(needle, name); score > 0 {
				fuzzy = append(fuzzy, Candidate{ID: entry.ID, Name: entry.Name, Score: score})
			}
		}
	}
	if len(exact) > 0 {
		return exact
	}
	sort.Slice(fuzzy, func(i, j int) bool { return fuzzy[i].Score > fuzzy[j].Score })
	return fuzzy
}

// ServicesCatalogText renders the services categories for prompt
// injection.
func (c *EntityCatalog) ServicesCatalogText() string {
	var sb strings.Builder
	for _, cat := range c.ServicesCategories {
		sb.WriteString("- " + cat.Name + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// ServicesCategoryID resolves a category name to its id, or "".
func (c *EntityCatalog) ServicesCategoryID(name string) string {
	for _, cat := range c.ServicesCategories {
		if strings.EqualFold(cat.Name, strings.TrimSpace(name)) {
			return cat.ID
		}
	}
	return ""
}

// tokenOverlap scores how many of the needle's tokens appear in the
// candidate, as a fraction. Substring containment counts as a strong
// match.
func tokenOverlap(needle, candidate string) float64 {
	if strings.Contains(candidate, needle) || strings.Contains(needle, candidate) {
		return 0.9
	}
	tokens := strings.Fields(needle)
	if len(tokens) == 0 {
		return 0
	}
	hits := 0
	for _, token := range tokens {
		if strings.Contains(candidate, token) {
			hits++
		}
	}
	return float64(hits) / float64(len(tokens))
}
