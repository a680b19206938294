package service

import (
	"testing"

	"agrimono/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticDict map[string]string

func (d staticDict) HeaderLabel(key string) (string, bool) {
	label, ok := d[key]
	return label, ok
}

func TestNormalizeSet_FillDown(t *testing.T) {
	n := NewNormalizer(staticDict{})
	rs := models.RecordSet{
		Columns: []string{"Commune", "sup_bt_ha"},
		Records: []models.Record{
			{"Commune": "Azrou", "sup_bt_ha": float64(10)},
			{"Commune": nil, "sup_bt_ha": float64(20)},
			{"Commune": "Timahdite", "sup_bt_ha": float64(30)},
		},
	}

	rows := n.NormalizeSet(rs, "Céréales", ClassifyColumns(rs))
	require.Len(t, rows, 3)
	assert.Equal(t, "Azrou", rows[0].Name)
	assert.Equal(t, "Azrou", rows[1].Name)
	assert.Equal(t, "Timahdite", rows[2].Name)
}

func TestNormalizeSet_SubTotalRowsExcluded(t *testing.T) {
	n := NewNormalizer(staticDict{})
	rs := models.RecordSet{
		Columns: []string{"Commune", "sup_bt_ha"},
		Records: []models.Record{
			{"Commune": "Azrou", "sup_bt_ha": float64(10)},
			{"Commune": "S/T", "sup_bt_ha": float64(10)},
			{"Commune": "Timahdite", "sup_bt_ha": float64(30)},
			{"Commune": "TOTAL PROVINCE", "sup_bt_ha": float64(40)},
		},
	}

	rows := n.NormalizeSet(rs, "Céréales", ClassifyColumns(rs))
	require.Len(t, rows, 2)
	assert.Equal(t, "Azrou", rows[0].Name)
	assert.Equal(t, "Timahdite", rows[1].Name)
}

func TestNormalizeSet_DictionaryRelabel(t *testing.T) {
	n := NewNormalizer(staticDict{"sup_bt_ha": "Blé Tendre (ha)"})
	rs := models.RecordSet{
		Columns: []string{"Commune", "sup_bt_ha"},
		Records: []models.Record{
			{"Commune": "Azrou", "sup_bt_ha": float64(10)},
		},
	}

	rows := n.NormalizeSet(rs, "Céréales", ClassifyColumns(rs))
	require.Len(t, rows, 1)
	require.Len(t, rows[0].Fields, 1)
	f := rows[0].Fields[0]
	assert.Equal(t, "Blé Tendre (ha)", f.Label)
	assert.Equal(t, "Céréales", f.Source)
	require.NotNil(t, f.Numeric)
	assert.Equal(t, 10.0, *f.Numeric)
}

func TestNormalizeSet_ColonFallbackLabel(t *testing.T) {
	n := NewNormalizer(staticDict{})
	rs := models.RecordSet{
		Columns: []string{"Commune", "Superficie agricole:Forêt"},
		Records: []models.Record{
			{"Commune": "Azrou", "Superficie agricole:Forêt": float64(250)},
		},
	}

	rows := n.NormalizeSet(rs, "Occupation du Sol", ClassifyColumns(rs))
	require.Len(t, rows[0].Fields, 1)
	assert.Equal(t, "Forêt", rows[0].Fields[0].Label)
}

func TestNormalizeSet_MergeCollidingLabels(t *testing.T) {
	dict := staticDict{
		"sup_bt_ha":   "Blé Tendre (ha)",
		"sup_bt2_ha":  "Blé Tendre (ha)",
		"obs_bour":    "Observation",
		"obs_irrigue": "Observation",
	}
	n := NewNormalizer(dict)
	rs := models.RecordSet{
		Columns: []string{"Commune", "sup_bt_ha", "sup_bt2_ha", "obs_bour", "obs_irrigue"},
		Records: []models.Record{
			{
				"Commune":     "Azrou",
				"sup_bt_ha":   float64(10),
				"sup_bt2_ha":  float64(5),
				"obs_bour":    "sec",
				"obs_irrigue": "humide",
			},
		},
	}

	rows := n.NormalizeSet(rs, "Céréales", ClassifyColumns(rs))
	require.Len(t, rows, 1)

	byLabel := map[string]models.Field{}
	for _, f := range rows[0].Fields {
		byLabel[f.Label] = f
	}

	// Numeric collisions sum, text collisions join. Nothing is dropped.
	merged := byLabel["Blé Tendre (ha)"]
	require.NotNil(t, merged.Numeric)
	assert.Equal(t, 15.0, *merged.Numeric)

	obs := byLabel["Observation"]
	assert.Equal(t, "sec, humide", obs.Value)
	assert.Nil(t, obs.Numeric)
}

func TestNormalizeSet_PercentFields(t *testing.T) {
	n := NewNormalizer(staticDict{})
	rs := models.RecordSet{
		Columns: []string{"Commune", "taux_irrigue_%"},
		Records: []models.Record{
			{"Commune": "Azrou", "taux_irrigue_%": float64(35)},
		},
	}

	rows := n.NormalizeSet(rs, "Irrigation", ClassifyColumns(rs))
	require.Len(t, rows[0].Fields, 1)
	f := rows[0].Fields[0]
	assert.True(t, f.Percent)
	assert.Contains(t, f.Label, "%")
}

func TestNormalizeSet_CoopGrouping(t *testing.T) {
	n := NewNormalizer(staticDict{})
	rs := models.RecordSet{
		Columns: []string{"Commune", "Nom Coopérative", "Activité", "Adhérents"},
		Records: []models.Record{
			{"Commune": "Azrou", "Nom Coopérative": "Al Amal", "Activité": "Lait", "Adhérents": float64(12)},
			{"Commune": nil, "Nom Coopérative": "Tifawin", "Activité": "Miel", "Adhérents": float64(8)},
			{"Commune": "Timahdite", "Nom Coopérative": "Adrar", "Activité": "Viande", "Adhérents": float64(20)},
		},
	}

	rows := n.NormalizeSet(rs, "Coopératives", ClassifyColumns(rs))
	require.Len(t, rows, 2)

	azrou := rows[0]
	assert.Equal(t, "Azrou", azrou.Name)
	require.Len(t, azrou.Children, 2)
	assert.Equal(t, "Al Amal", azrou.Children[0].Name)
	assert.Equal(t, "Miel", azrou.Children[1].Activity)

	// Member counts accumulate per commune.
	var members *float64
	for _, f := range azrou.Fields {
		if f.Key == "adherents" {
			members = f.Numeric
		}
	}
	require.NotNil(t, members)
	assert.Equal(t, 20.0, *members)

	timahdite := rows[1]
	require.Len(t, timahdite.Children, 1)
	assert.Equal(t, "Adrar", timahdite.Children[0].Name)
}
