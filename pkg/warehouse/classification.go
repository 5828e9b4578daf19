package warehouse

import (
	"context"
	"fmt"
	"log/slog"
)

// CodeCandidate is one classification table hit for a product name.
type CodeCandidate struct {
	Code      string
	NameShort string
	Rank      float64
}

// classificationTables maps schema names to their code lookup tables.
var classificationTables = map[string]string{
	"hs92":                "classification.product_hs92",
	"hs12":                "classification.product_hs12",
	"sitc":                "classification.product_sitc",
	"services_unilateral": "classification.product_services_unilateral",
	"services_bilateral":  "classification.product_services_bilateral",
}

// VerifyCodes checks LLM-suggested candidate codes against the
// classification table and returns the ones that exist.
func (e *Executor) VerifyCodes(ctx context.Context, schema string, codes []string) ([]CodeCandidate, error) {
	table, ok := classificationTables[schema]
	if !ok {
		return nil, fmt.Errorf("unknown classification schema: %s", schema)
	}
	if len(codes) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(
		`SELECT code, name_short_en FROM %s WHERE code = ANY($1)`, table)
	rows, err := e.db.QueryContext(ctx, query, codes)
	if err != nil {
		return nil, fmt.Errorf("failed to verify candidate codes: %w", err)
	}
	defer rows.Close()

	var result []CodeCandidate
	for rows.Next() {
		var c CodeCandidate
		if err := rows.Scan(&c.Code, &c.NameShort); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// SearchProductName finds candidate codes for a product name: full-text
// search over name_short_en first, trigram similarity at threshold 0.3
// when full-text returns nothing.
func (e *Executor) SearchProductName(ctx context.Context, schema, name string, limit int) ([]CodeCandidate, error) {
	table, ok := classificationTables[schema]
	if !ok {
		return nil, fmt.Errorf("unknown classification schema: %s", schema)
	}
	if limit <= 0 {
		limit = 10
	}

	fts := fmt.Sprintf(`
		SELECT code, name_short_en,
		       ts_rank(to_tsvector('english', name_short_en), plainto_tsquery('english', $1)) AS rank
		FROM %s
		WHERE to_tsvector('english', name_short_en) @@ plainto_tsquery('english', $1)
		ORDER BY rank DESC
		LIMIT $2`, table)
	candidates, err := e.queryCandidates(ctx, fts, name, limit)
	if err != nil {
		return nil, fmt.Errorf("full-text product search failed: %w", err)
	}
	if len(candidates) > 0 {
		return candidates, nil
	}

	slog.Debug("Full-text search empty, trying trigram fallback",
		"schema", schema, "product", name)
	trigram := fmt.Sprintf(`
		SELECT code, name_short_en, similarity(name_short_en, $1) AS rank
		FROM %s
		WHERE similarity(name_short_en, $1) > 0.3
		ORDER BY rank DESC
		LIMIT $2`, table)
	candidates, err = e.queryCandidates(ctx, trigram, name, limit)
	if err != nil {
		return nil, fmt.Errorf("trigram product search failed: %w", err)
	}
	return candidates, nil
}

func (e *Executor) queryCandidates(ctx context.Context, query, name string, limit int) ([]CodeCandidate, error) {
	rows, err := e.db.QueryContext(ctx, query, name, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []CodeCandidate
	for rows.Next() {
		var c CodeCandidate
		if err := rows.Scan(&c.Code, &c.NameShort, &c.Rank); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}
