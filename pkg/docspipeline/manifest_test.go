package docspipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const docWithFrontmatter = `---
title: Economic Complexity Index
purpose: Explains how ECI is computed.
when_to_load: Questions about complexity rankings.
when_not_to_load: Raw trade value questions.
keywords:
  - ECI
  - complexity
---

The Economic Complexity Index measures the knowledge intensity of an economy.
`

const docWithoutFrontmatter = `Just a body with no header.
`

func writeDocsDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "01_eci.md"), []byte(docWithFrontmatter), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "02_plain.md"), []byte(docWithoutFrontmatter), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0600))
	return dir
}

func TestParseFrontmatter(t *testing.T) {
	meta, body := parseFrontmatter(docWithFrontmatter)

	assert.Equal(t, "Economic Complexity Index", meta.Title)
	assert.Equal(t, "Explains how ECI is computed.", meta.Purpose)
	assert.Equal(t, []string{"ECI", "complexity"}, meta.Keywords)
	assert.Contains(t, body, "knowledge intensity")
	assert.NotContains(t, body, "---")
}

func TestParseFrontmatterAbsentHeader(t *testing.T) {
	meta, body := parseFrontmatter(docWithoutFrontmatter)
	assert.Empty(t, meta.Title)
	assert.Equal(t, docWithoutFrontmatter, body)
}

func TestParseFrontmatterUnterminatedHeader(t *testing.T) {
	content := "---\ntitle: Broken\nno closing delimiter"
	meta, body := parseFrontmatter(content)
	assert.Empty(t, meta.Title)
	assert.Equal(t, content, body)
}

func TestLoadManifest(t *testing.T) {
	manifest, err := LoadManifest(writeDocsDir(t))
	require.NoError(t, err)

	require.Len(t, manifest.Docs, 2)
	assert.Equal(t, "Economic Complexity Index", manifest.Docs[0].Meta.Title)
	// Missing title falls back to the filename.
	assert.Equal(t, "02_plain", manifest.Docs[1].Meta.Title)
}

func TestLoadManifestMissingDir(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestListingNumbersFromZero(t *testing.T) {
	manifest, err := LoadManifest(writeDocsDir(t))
	require.NoError(t, err)

	listing := manifest.Listing()

	assert.Contains(t, listing, "0. Economic Complexity Index")
	assert.Contains(t, listing, "1. 02_plain")
	assert.Contains(t, listing, "Purpose: Explains how ECI is computed.")
	assert.Contains(t, listing, "Keywords: ECI, complexity")
}

func TestBodyOf(t *testing.T) {
	manifest, err := LoadManifest(writeDocsDir(t))
	require.NoError(t, err)

	assert.Contains(t, manifest.BodyOf(0), "knowledge intensity")
	assert.Equal(t, "", manifest.BodyOf(-1))
	assert.Equal(t, "", manifest.BodyOf(99))
}

func TestIndicesOfDropsUnknownPaths(t *testing.T) {
	manifest, err := LoadManifest(writeDocsDir(t))
	require.NoError(t, err)

	paths := []string{
		manifest.Docs[1].Path,
		"/nonexistent/doc.md",
		manifest.Docs[0].Path,
	}
	assert.Equal(t, []int{1, 0}, manifest.IndicesOf(paths))
}

func TestAllIndices(t *testing.T) {
	manifest, err := LoadManifest(writeDocsDir(t))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, manifest.AllIndices())
}
