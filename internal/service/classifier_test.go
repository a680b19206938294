package service

import (
	"testing"

	"agrimono/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestClassifyColumns_EmptySet(t *testing.T) {
	cc := ClassifyColumns(models.RecordSet{})
	assert.Equal(t, models.ClassifiedColumns{}, cc)
}

func TestClassifyColumns_NameColumnByHint(t *testing.T) {
	rs := models.RecordSet{
		Columns: []string{"Annee", "Commune", "sup_bt_ha"},
		Records: []models.Record{
			{"Annee": float64(2024), "Commune": "Ain Leuh", "sup_bt_ha": float64(120)},
		},
	}

	cc := ClassifyColumns(rs)
	assert.Equal(t, "Commune", cc.NameColumn)
	assert.Equal(t, []string{"sup_bt_ha"}, cc.AreaColumns)
	assert.Equal(t, []string{"Annee"}, cc.OtherColumns)
}

func TestClassifyColumns_FirstColumnFallback(t *testing.T) {
	rs := models.RecordSet{
		Columns: []string{"Zone", "sup_bt_ha"},
		Records: []models.Record{
			{"Zone": "Nord", "sup_bt_ha": float64(15)},
		},
	}

	cc := ClassifyColumns(rs)
	assert.Equal(t, "Zone", cc.NameColumn)
}

func TestClassifyColumns_InactiveColumnsDropped(t *testing.T) {
	rs := models.RecordSet{
		Columns: []string{"Commune", "sup_bt_ha", "sup_mais_ha", "notes"},
		Records: []models.Record{
			{"Commune": "A", "sup_bt_ha": float64(100), "sup_mais_ha": float64(0), "notes": "texte"},
			{"Commune": "B", "sup_bt_ha": float64(50), "sup_mais_ha": nil, "notes": "autre"},
		},
	}

	cc := ClassifyColumns(rs)
	assert.Equal(t, []string{"sup_bt_ha"}, cc.AreaColumns)
	assert.NotContains(t, cc.Ordered, "sup_mais_ha")
	// Text-only columns never hold a positive numeric value.
	assert.NotContains(t, cc.Ordered, "notes")
}

func TestClassifyColumns_StrictNumericStrings(t *testing.T) {
	rs := models.RecordSet{
		Columns: []string{"Commune", "rdt_qx"},
		Records: []models.Record{
			// Formatted values do not activate a column; only clean
			// numerics do.
			{"Commune": "A", "rdt_qx": "12 qx environ"},
			{"Commune": "B", "rdt_qx": "18.5"},
		},
	}

	cc := ClassifyColumns(rs)
	assert.Equal(t, []string{"rdt_qx"}, cc.YieldColumns)
}

func TestClassifyColumns_CodeAndIDColumnsExcluded(t *testing.T) {
	rs := models.RecordSet{
		Columns: []string{"Commune", "code_geo", "sup_bt_ha"},
		Records: []models.Record{
			{"Commune": "A", "code_geo": float64(12), "sup_bt_ha": float64(5)},
		},
	}

	cc := ClassifyColumns(rs)
	assert.NotContains(t, cc.Ordered, "code_geo")
}

func TestClassifyColumns_SingleBucketDegrade(t *testing.T) {
	rs := models.RecordSet{
		Columns: []string{"Commune", "effectif", "ruches"},
		Records: []models.Record{
			{"Commune": "A", "effectif": float64(300), "ruches": float64(40)},
		},
	}

	cc := ClassifyColumns(rs)
	assert.Empty(t, cc.AreaColumns)
	assert.Empty(t, cc.YieldColumns)
	assert.Equal(t, []string{"effectif", "ruches"}, cc.OtherColumns)
	assert.Equal(t, cc.Ordered, cc.OtherColumns)
}
