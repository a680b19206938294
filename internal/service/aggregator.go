package service

import (
	"sort"

	"agrimono/internal/models"
)

// Aggregate sums the numeric, non-percentage fields of normalized rows into
// provincial category totals. Pure and idempotent: the same rows always
// produce the same totals. Percentage metrics are skipped; summing them
// would be meaningless.
func Aggregate(rows []models.NormalizedRow) models.DatasetTotals {
	totals := make(models.DatasetTotals)
	for _, row := range rows {
		for _, f := range row.Fields {
			if f.Numeric == nil || f.Percent {
				continue
			}
			entry, ok := totals[f.Key]
			if !ok {
				entry = &models.CategoryTotal{Label: f.Label}
				totals[f.Key] = entry
			}
			entry.Total += *f.Numeric
		}
	}
	return totals
}

// SortedTotals returns the non-zero totals sorted descending, the order
// used for presentation. Zero totals stay in the underlying map but are
// excluded here.
func SortedTotals(totals models.DatasetTotals) []models.CategoryTotal {
	out := make([]models.CategoryTotal, 0, len(totals))
	for _, t := range totals {
		if t.Total > 0 {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Label < out[j].Label
	})
	return out
}
