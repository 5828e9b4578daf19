// Package docspipeline answers methodology questions from a pre-loaded
// markdown documentation set when the agent calls docs_tool.
package docspipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// NoDocsMessage is the terminal text when no document body could be
// loaded at all.
const NoDocsMessage = "No documentation files could be loaded."

// Frontmatter is the YAML header of one documentation file.
type Frontmatter struct {
	Title       string   `yaml:"title"`
	Purpose     string   `yaml:"purpose"`
	WhenToLoad  string   `yaml:"when_to_load"`
	WhenNotTo   string   `yaml:"when_not_to_load"`
	Keywords    []string `yaml:"keywords"`
	RelatedDocs []string `yaml:"related_docs"`
}

// Document is one manifest entry with its pre-read body.
type Document struct {
	Path string
	Meta Frontmatter
	Body string
}

// Manifest is the documentation set, assembled once at startup by
// scanning the configured directory. Immutable after construction.
type Manifest struct {
	Docs []Document
}

// LoadManifest scans dir for markdown files, parses their frontmatter,
// and pre-reads bodies into memory. Files are ordered by filename so
// manifest indices are stable.
func LoadManifest(dir string) (*Manifest, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read docs directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".md") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	manifest := &Manifest{}
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		meta, body := parseFrontmatter(string(data))
		if meta.Title == "" {
			meta.Title = strings.TrimSuffix(name, ".md")
		}
		manifest.Docs = append(manifest.Docs, Document{Path: path, Meta: meta, Body: body})
	}
	return manifest, nil
}

// parseFrontmatter splits a markdown file into its YAML header and
// body. Files without a header yield an empty Frontmatter.
func parseFrontmatter(content string) (Frontmatter, string) {
	var meta Frontmatter
	trimmed := strings.TrimLeft(content, "\uFEFF\n\r ")
	if !strings.HasPrefix(trimmed, "---") {
		return meta, content
	}
	rest := trimmed[3:]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return meta, content
	}
	header := rest[:end]
	body := rest[end+4:]
	if err := yaml.Unmarshal([]byte(header), &meta); err != nil {
		return Frontmatter{}, content
	}
	return meta, strings.TrimLeft(body, "\n\r")
}

// Listing renders the numbered manifest for the selection prompt.
func (m *Manifest) Listing() string {
	var sb strings.Builder
	for i, doc := range m.Docs {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i, doc.Meta.Title))
		if doc.Meta.Purpose != "" {
			sb.WriteString("   Purpose: " + doc.Meta.Purpose + "\n")
		}
		if doc.Meta.WhenToLoad != "" {
			sb.WriteString("   Load when: " + doc.Meta.WhenToLoad + "\n")
		}
		if doc.Meta.WhenNotTo != "" {
			sb.WriteString("   Skip when: " + doc.Meta.WhenNotTo + "\n")
		}
		if len(doc.Meta.Keywords) > 0 {
			sb.WriteString("   Keywords: " + strings.Join(doc.Meta.Keywords, ", ") + "\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// BodyOf returns the cached body of a document, re-reading from disk
// when the cache is empty. Returns "" when nothing can be loaded.
func (m *Manifest) BodyOf(index int) string {
	if index < 0 || index >= len(m.Docs) {
		return ""
	}
	doc := m.Docs[index]
	if doc.Body != "" {
		return doc.Body
	}
	data, err := os.ReadFile(doc.Path)
	if err != nil {
		return ""
	}
	_, body := parseFrontmatter(string(data))
	return body
}

// IndicesOf maps selected file paths back to manifest indices,
// dropping paths no longer present.
func (m *Manifest) IndicesOf(paths []string) []int {
	byPath := make(map[string]int, len(m.Docs))
	for i, doc := range m.Docs {
		byPath[doc.Path] = i
	}
	var indices []int
	for _, path := range paths {
		if idx, ok := byPath[path]; ok {
			indices = append(indices, idx)
		}
	}
	return indices
}

// AllIndices returns every document index, the select-all fallback.
func (m *Manifest) AllIndices() []int {
	indices := make([]int, len(m.Docs))
	for i := range indices {
		indices[i] = i
	}
	return indices
}
