package warehouse

import (
	"regexp"
	"sort"
	"strings"
)

// tableRef matches table references after FROM and JOIN keywords,
// including schema-qualified names.
var tableRef = regexp.MustCompile(`(?i)\b(?:from|join)\s+([a-zA-Z_][a-zA-Z0-9_]*(?:\.[a-zA-Z_][a-zA-Z0-9_]*)?)`)

// ExtractTableNames parses a best-effort list of referenced table names
// out of a SQL string. Subquery aliases and CTE names may appear; the
// list is informational, not authoritative.
func ExtractTableNames(query string) []string {
	seen := make(map[string]struct{})
	var tables []string
	for _, match := range tableRef.FindAllStringSubmatch(query, -1) {
		name := strings.ToLower(match[1])
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		tables = append(tables, name)
	}
	sort.Strings(tables)
	return tables
}

// FormatResult renders a result as an aligned text table for the model
// to read. Empty results produce EmptyResultMessage.
func FormatResult(r *Result) string {
	if r == nil || r.RowCount == 0 {
		return EmptyResultMessage
	}

	widths := make([]int, len(r.Columns))
	for i, col := range r.Columns {
		widths[i] = len(col)
	}
	for _, row := range r.Rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var sb strings.Builder
	writeRow := func(cells []string) {
		for i, cell := range cells {
			if i > 0 {
				sb.WriteString(" | ")
			}
			sb.WriteString(cell)
			sb.WriteString(strings.Repeat(" ", widths[i]-len(cell)))
		}
		sb.WriteString("\n")
	}

	writeRow(r.Columns)
	for i, w := range widths {
		if i > 0 {
			sb.WriteString("-+-")
		}
		sb.WriteString(strings.Repeat("-", w))
	}
	sb.WriteString("\n")
	for _, row := range r.Rows {
		writeRow(row)
	}
	return strings.TrimRight(sb.String(), "\n")
}
