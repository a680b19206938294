package service

import (
	"testing"

	"agrimono/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numField(label string, v float64) models.Field {
	return models.Field{Label: label, Key: normalizeKey(label), Value: v, Numeric: &v}
}

func pctField(label string, v float64) models.Field {
	f := numField(label, v)
	f.Percent = true
	return f
}

func TestAggregate_SumsAcrossRows(t *testing.T) {
	rows := []models.NormalizedRow{
		{Name: "Azrou", Fields: []models.Field{numField("Blé Tendre (ha)", 100)}},
		{Name: "Timahdite", Fields: []models.Field{numField("Blé Tendre (ha)", 50)}},
	}

	totals := Aggregate(rows)
	require.Contains(t, totals, "ble tendre (ha)")
	assert.Equal(t, 150.0, totals["ble tendre (ha)"].Total)
}

func TestAggregate_PercentExcluded(t *testing.T) {
	rows := []models.NormalizedRow{
		{Name: "Azrou", Fields: []models.Field{
			numField("Blé Tendre (ha)", 100),
			pctField("Taux irrigué (%)", 35),
		}},
	}

	totals := Aggregate(rows)
	assert.NotContains(t, totals, "taux irrigue (%)")
	assert.Len(t, totals, 1)
}

func TestAggregate_Idempotent(t *testing.T) {
	rows := []models.NormalizedRow{
		{Name: "Azrou", Fields: []models.Field{numField("Blé Tendre (ha)", 100)}},
	}

	first := Aggregate(rows)
	second := Aggregate(rows)
	assert.Equal(t, first["ble tendre (ha)"].Total, second["ble tendre (ha)"].Total)
}

func TestSortedTotals_DescendingNonZero(t *testing.T) {
	rows := []models.NormalizedRow{
		{Name: "Azrou", Fields: []models.Field{
			numField("Blé Tendre (ha)", 100),
			numField("Orge (ha)", 400),
			numField("Avoine (ha)", 0),
		}},
	}

	totals := Aggregate(rows)
	// The zero total stays in the map.
	assert.Len(t, totals, 3)

	sorted := SortedTotals(totals)
	require.Len(t, sorted, 2)
	assert.Equal(t, "Orge (ha)", sorted[0].Label)
	assert.Equal(t, "Blé Tendre (ha)", sorted[1].Label)
}
