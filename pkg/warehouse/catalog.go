package warehouse

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ClassificationMetadataSchema is implicitly included alongside any
// selected data schema; it holds the code-to-name lookup tables.
const ClassificationMetadataSchema = "classification"

// TableColumn describes one column in the catalog artifact.
type TableColumn struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
}

// TableEntry describes one warehouse table.
type TableEntry struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Columns     []TableColumn `yaml:"columns"`
}

// TableCatalog maps classification schema names to their tables. It is
// loaded once at startup and immutable afterwards.
type TableCatalog struct {
	Schemas map[string][]TableEntry `yaml:"schemas"`
}

// LoadTableCatalog reads the catalog artifact.
func LoadTableCatalog(path string) (*TableCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read table catalog: %w", err)
	}
	var catalog TableCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse table catalog: %w", err)
	}
	if len(catalog.Schemas) == 0 {
		return nil, fmt.Errorf("table catalog %s defines no schemas", path)
	}
	return &catalog, nil
}

// KnownSchema reports whether the catalog covers the schema.
func (c *TableCatalog) KnownSchema(schema string) bool {
	_, ok := c.Schemas[schema]
	return ok
}

// TableInfoFor assembles the descriptive block for the selected
// schemas: each table's purpose plus a DDL-style column listing. The
// classification metadata schema is always appended.
func (c *TableCatalog) TableInfoFor(schemas []string) string {
	ordered := make([]string, 0, len(schemas)+1)
	seen := make(map[string]struct{})
	for _, schema := range append(schemas, ClassificationMetadataSchema) {
		if _, ok := seen[schema]; ok {
			continue
		}
		seen[schema] = struct{}{}
		ordered = append(ordered, schema)
	}

	var sb strings.Builder
	for _, schema := range ordered {
		tables, ok := c.Schemas[schema]
		if !ok {
			continue
		}
		for _, table := range tables {
			if sb.Len() > 0 {
				sb.WriteString("\n\n")
			}
			sb.WriteString(fmt.Sprintf("-- %s: %s\n", table.Name, table.Description))
			sb.WriteString(fmt.Sprintf("CREATE TABLE %s (\n", table.Name))
			for i, col := range table.Columns {
				sb.WriteString(fmt.Sprintf("    %s %s", col.Name, col.Type))
				if i < len(table.Columns)-1 {
					sb.WriteString(",")
				}
				if col.Description != "" {
					sb.WriteString(" -- " + col.Description)
				}
				sb.WriteString("\n")
			}
			sb.WriteString(");")
		}
	}
	return sb.String()
}
