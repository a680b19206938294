package service

import (
	"strings"

	"agrimono/internal/models"
)

// Substrings that route an active column into the area or yield bucket.
// Matching is lowercase-substring based, area takes priority over yield.
var (
	nameColumnHints  = []string{"commune", "cercle", "nom"}
	areaColumnHints  = []string{"ha", "superficie", "bour", "irrigu", "forêt", "parcours"}
	yieldColumnHints = []string{"rdt", "rendement", "poids", "tonne", "qx"}
)

// ClassifyColumns identifies the entity-name column of a record set and
// partitions the remaining columns into area, yield and other buckets.
// Columns that never hold a positive numeric value are dropped entirely.
// An empty record set yields the zero-value sentinel, not an error.
func ClassifyColumns(rs models.RecordSet) models.ClassifiedColumns {
	if rs.Empty() || len(rs.Columns) == 0 {
		return models.ClassifiedColumns{}
	}

	nameColumn := rs.Columns[0]
	for _, col := range rs.Columns {
		if containsAny(strings.ToLower(col), nameColumnHints) {
			nameColumn = col
			break
		}
	}

	cc := models.ClassifiedColumns{NameColumn: nameColumn}

	for _, col := range rs.Columns {
		if col == nameColumn {
			continue
		}
		low := strings.ToLower(col)
		if strings.Contains(low, "code") || strings.Contains(low, "id") {
			continue
		}
		if !columnActive(rs.Records, col) {
			continue
		}

		switch {
		case containsAny(low, areaColumnHints):
			cc.AreaColumns = append(cc.AreaColumns, col)
		case containsAny(low, yieldColumnHints):
			cc.YieldColumns = append(cc.YieldColumns, col)
		default:
			cc.OtherColumns = append(cc.OtherColumns, col)
		}
	}

	cc.Ordered = make([]string, 0, len(cc.AreaColumns)+len(cc.YieldColumns)+len(cc.OtherColumns))
	cc.Ordered = append(cc.Ordered, cc.AreaColumns...)
	cc.Ordered = append(cc.Ordered, cc.YieldColumns...)
	cc.Ordered = append(cc.Ordered, cc.OtherColumns...)

	// Sheets without any area or yield signal degrade to a single bucket
	// so that every active column still renders.
	if len(cc.AreaColumns) == 0 && len(cc.YieldColumns) == 0 {
		cc.OtherColumns = cc.Ordered
	}

	return cc
}

// columnActive reports whether at least one record holds a numeric value
// strictly above zero for the column. Parse failures are non-numeric.
func columnActive(records []models.Record, col string) bool {
	for _, rec := range records {
		v, ok := rec[col]
		if !ok || v == nil {
			continue
		}
		if f, ok := asStrictNumber(v); ok && f > 0 {
			return true
		}
	}
	return false
}

// asStrictNumber converts a scalar using strict rules: floats pass, strings
// must be fully numeric after trimming.
func asStrictNumber(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return 0, false
		}
		return parseStrictFloat(trimmed)
	default:
		return 0, false
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
