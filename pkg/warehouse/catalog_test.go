package warehouse

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalogYAML = `schemas:
  hs92:
    - name: hs92.country_product_year_4
      description: Bilateral trade by country, product, and year at the 4-digit level.
      columns:
        - name: country_id
          type: INTEGER
          description: Numeric country identifier
        - name: export_value
          type: BIGINT
  classification:
    - name: classification.product_hs92
      description: HS92 product codes and names.
      columns:
        - name: code
          type: TEXT
        - name: name_short
          type: TEXT
`

func writeTestCatalog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "table_catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testCatalogYAML), 0600))
	return path
}

func TestLoadTableCatalog(t *testing.T) {
	catalog, err := LoadTableCatalog(writeTestCatalog(t))
	require.NoError(t, err)

	assert.True(t, catalog.KnownSchema("hs92"))
	assert.True(t, catalog.KnownSchema("classification"))
	assert.False(t, catalog.KnownSchema("sitc"))
}

func TestLoadTableCatalogMissingFile(t *testing.T) {
	_, err := LoadTableCatalog(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadTableCatalogEmptySchemas(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("schemas: {}\n"), 0600))

	_, err := LoadTableCatalog(path)
	assert.Error(t, err)
}

func TestTableInfoForAlwaysIncludesClassification(t *testing.T) {
	catalog, err := LoadTableCatalog(writeTestCatalog(t))
	require.NoError(t, err)

	info := catalog.TableInfoFor([]string{"hs92"})

	assert.Contains(t, info, "CREATE TABLE hs92.country_product_year_4")
	assert.Contains(t, info, "CREATE TABLE classification.product_hs92")
	assert.Contains(t, info, "-- Numeric country identifier")
}

func TestTableInfoForDeduplicatesSchemas(t *testing.T) {
	catalog, err := LoadTableCatalog(writeTestCatalog(t))
	require.NoError(t, err)

	info := catalog.TableInfoFor([]string{"classification", "classification"})

	assert.Equal(t, 1, strings.Count(info, "CREATE TABLE classification.product_hs92"))
}
