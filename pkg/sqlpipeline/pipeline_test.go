package sqlpipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shreyasgm/ask-atlas-sub001/pkg/models"
)

func TestNormalizeSchemas(t *testing.T) {
	tests := []struct {
		name     string
		schemas  []string
		override string
		expected []string
	}{
		{"override wins", []string{"sitc", "hs12"}, "hs92", []string{"hs92"}},
		{"empty defaults to hs92", nil, "", []string{"hs92"}},
		{"capped at two", []string{"hs92", "sitc", "hs12"}, "", []string{"hs92", "sitc"}},
		{"passthrough", []string{"services_unilateral"}, "", []string{"services_unilateral"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizeSchemas(tt.schemas, tt.override))
		})
	}
}

func TestStripSQLFence(t *testing.T) {
	want := "SELECT 1"
	assert.Equal(t, want, stripSQLFence("```sql\nSELECT 1\n```"))
	assert.Equal(t, want, stripSQLFence("```\nSELECT 1\n```"))
	assert.Equal(t, want, stripSQLFence("  SELECT 1  "))
}

func TestFormatCodes(t *testing.T) {
	codes := []models.ResolvedProductCodes{
		{ProductName: "Copper ore", ClassificationSchema: "hs92", Codes: []string{"2603"}},
		{ProductName: "Wine", ClassificationSchema: "hs92", Codes: []string{"2204", "2205"}},
	}

	out := formatCodes(codes)

	assert.Contains(t, out, "- Copper ore (hs92): 2603")
	assert.Contains(t, out, "- Wine (hs92): 2204, 2205")
	assert.Empty(t, formatCodes(nil))
}

func TestSplitForStreaming(t *testing.T) {
	assert.Nil(t, splitForStreaming(""))

	short := splitForStreaming("abc")
	assert.Equal(t, []string{"abc"}, short)

	long := splitForStreaming(strings.Repeat("x", 150))
	assert.Len(t, long, 3)
	assert.Len(t, long[0], 64)
	assert.Len(t, long[2], 22)
	assert.Equal(t, strings.Repeat("x", 150), strings.Join(long, ""))
}
