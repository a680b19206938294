package service

import (
	"strings"
	"testing"

	"agrimono/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSection() DatasetContext {
	rows := []models.NormalizedRow{
		{Name: "Azrou", Source: "Céréales", Fields: []models.Field{numField("Blé Tendre (ha)", 100)}},
		{Name: "Timahdite", Source: "Céréales", Fields: []models.Field{numField("Blé Tendre (ha)", 50)}},
	}
	return DatasetContext{
		Label:  "Céréales",
		Rows:   rows,
		Totals: Aggregate(rows),
	}
}

func TestContextBuilder_TwoSections(t *testing.T) {
	b := NewContextBuilder(20000)
	blob := b.Build([]DatasetContext{testSection()})

	assert.Contains(t, blob, totalsOpen)
	assert.Contains(t, blob, totalsClose)
	assert.Contains(t, blob, detailOpen)
	assert.Contains(t, blob, detailClose)
	assert.Contains(t, blob, "--- Volet: Céréales ---")
	assert.Contains(t, blob, "Blé Tendre (ha)")
	assert.Contains(t, blob, "(TOTAL PROVINCE)")
	assert.Contains(t, blob, "COMMUNE: Azrou")
	assert.Contains(t, blob, "COMMUNE: Timahdite")
	assert.Contains(t, blob, "[Céréales] Blé Tendre (ha): 100")
}

func TestContextBuilder_TruncatesAtBlockBoundary(t *testing.T) {
	full := NewContextBuilder(20000).Build([]DatasetContext{testSection()})

	// A budget just above the totals section keeps whole blocks only.
	tight := NewContextBuilder(len(full) - 10).Build([]DatasetContext{testSection()})

	assert.Contains(t, tight, "COMMUNE: Azrou")
	assert.NotContains(t, tight, "COMMUNE: Timahdite")
	// No half-emitted detail line.
	for _, line := range strings.Split(tight, "\n") {
		if strings.HasPrefix(line, "  - ") {
			assert.Contains(t, line, ": ")
		}
	}
}

func TestContextBuilder_TotalsSurviveTinyBudget(t *testing.T) {
	blob := NewContextBuilder(10).Build([]DatasetContext{testSection()})

	// The verified totals are never sacrificed to the budget.
	assert.Contains(t, blob, totalsOpen)
	assert.Contains(t, blob, "Blé Tendre (ha)")
	assert.NotContains(t, blob, "COMMUNE:")
	assert.NotEmpty(t, blob)
}

func TestContextBuilder_SkipsEmptyRows(t *testing.T) {
	section := DatasetContext{
		Label: "Céréales",
		Rows: []models.NormalizedRow{
			{Name: "Azrou", Fields: []models.Field{{Label: "Obs", Key: "obs", Value: ""}}},
		},
		Totals: models.DatasetTotals{},
	}

	blob := NewContextBuilder(20000).Build([]DatasetContext{section})
	assert.NotContains(t, blob, "COMMUNE: Azrou")
}

func TestContextBuilder_CoopChildren(t *testing.T) {
	section := DatasetContext{
		Label: "Coopératives",
		Rows: []models.NormalizedRow{
			{
				Name:   "Azrou",
				Fields: []models.Field{numField("Adhérents", 12)},
				Children: []models.CoopMember{
					{Name: "Al Amal", Activity: "Lait", Members: float64(12)},
				},
			},
		},
		Totals: models.DatasetTotals{},
	}

	blob := NewContextBuilder(20000).Build([]DatasetContext{section})
	assert.Contains(t, blob, "Coopérative: Al Amal | Lait | 12 adhérents")
}

func TestContextBuilder_FrenchNumberFormat(t *testing.T) {
	rows := []models.NormalizedRow{
		{Name: "Azrou", Fields: []models.Field{numField("Orge (ha)", 1234.5)}},
	}
	blob := NewContextBuilder(20000).Build([]DatasetContext{{
		Label:  "Céréales",
		Rows:   rows,
		Totals: Aggregate(rows),
	}})

	// French locale groups thousands and uses a decimal comma.
	require.Contains(t, blob, "(TOTAL PROVINCE)")
	assert.NotContains(t, blob, "1234.5 (TOTAL PROVINCE)")
	assert.Contains(t, blob, ",5")
}
