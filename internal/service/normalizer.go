package service

import (
	"strings"

	"agrimono/internal/models"
)

// sourceTagField is the internal column used to tag merged multi-dataset
// rows with their origin. Never rendered as data.
const sourceTagField = "_volet"

// coopParentPattern detects list-type sheets (cooperative registries) by
// the presence of a parent-entity name column.
const coopParentPattern = "nomcooperative"

// HeaderDict resolves normalized technical headers to display labels.
type HeaderDict interface {
	HeaderLabel(normalizedKey string) (string, bool)
}

// Normalizer turns raw records into normalized rows: filled-down entity
// names, dictionary-relabeled columns, merged duplicate labels, sub-total
// rows removed, and list-type sheets grouped by parent entity.
type Normalizer struct {
	dict HeaderDict
}

func NewNormalizer(dict HeaderDict) *Normalizer {
	return &Normalizer{dict: dict}
}

// NormalizeSet processes one record set in source order. sourceLabel tags
// every emitted field with the dataset it came from.
func (n *Normalizer) NormalizeSet(rs models.RecordSet, sourceLabel string, cc models.ClassifiedColumns) []models.NormalizedRow {
	if rs.Empty() {
		return nil
	}

	rows := make([]models.NormalizedRow, 0, len(rs.Records))
	lastKnownName := ""

	for _, rec := range rs.Records {
		name := entityName(rec, cc.NameColumn)
		if name == "" {
			name = lastKnownName
		} else {
			lastKnownName = name
		}

		// Sub-total and grand-total rows duplicate what the aggregator
		// computes; keeping them would double-count provincial sums.
		if name == "S/T" || strings.Contains(name, "TOTAL") {
			continue
		}

		row := models.NormalizedRow{Name: name, Source: sourceLabel}
		n.normalizeFields(&row, rec, rs.Columns, cc.NameColumn, sourceLabel)
		rows = append(rows, row)
	}

	if isCoopSheet(rs.Columns) {
		rows = groupCoopRows(rows, rs, cc, lastNamesOf(rows))
	}

	return rows
}

// normalizeFields emits one Field per retained column, merging labels that
// normalize identically.
func (n *Normalizer) normalizeFields(row *models.NormalizedRow, rec models.Record, columns []string, nameColumn, sourceLabel string) {
	index := make(map[string]int)

	for _, key := range columns {
		if key == nameColumn || key == sourceTagField {
			continue
		}
		value, ok := rec[key]
		if !ok || value == nil {
			continue
		}
		if s, isStr := value.(string); isStr && strings.TrimSpace(s) == "" {
			continue
		}
		low := strings.ToLower(key)
		if strings.Contains(low, "id") || strings.Contains(low, "code") {
			continue
		}

		label := n.resolveLabel(key)

		// Unit suffixes carried by the raw header, not the dictionary.
		if strings.Contains(key, "%") && !strings.Contains(label, "%") {
			label += " (%)"
		}
		if strings.Contains(low, " ha") && !strings.Contains(label, "(ha)") {
			label += " (ha)"
		}

		field := models.Field{
			Label:   label,
			Key:     normalizeKey(label),
			Source:  sourceLabel,
			Value:   value,
			Percent: strings.Contains(label, "%"),
		}
		if num, ok := parseCleanNumeric(value); ok {
			field.Numeric = &num
		}

		if at, exists := index[field.Key]; exists {
			row.Fields[at] = mergeFields(row.Fields[at], field)
			continue
		}
		index[field.Key] = len(row.Fields)
		row.Fields = append(row.Fields, field)
	}
}

// resolveLabel looks the normalized key up in the dictionary; on miss it
// falls back to the substring after the last ':' of the raw key.
func (n *Normalizer) resolveLabel(rawKey string) string {
	if n.dict != nil {
		if label, ok := n.dict.HeaderLabel(normalizeKey(rawKey)); ok {
			return label
		}
	}
	if idx := strings.LastIndex(rawKey, ":"); idx >= 0 {
		if tail := strings.TrimSpace(rawKey[idx+1:]); tail != "" {
			return tail
		}
	}
	return rawKey
}

// mergeFields combines two values whose labels normalize identically.
// Numeric pairs sum; anything else joins with ", ". Values are never
// silently overwritten.
func mergeFields(a, b models.Field) models.Field {
	if a.Numeric != nil && b.Numeric != nil {
		sum := *a.Numeric + *b.Numeric
		a.Numeric = &sum
		a.Value = sum
		return a
	}
	a.Value = formatScalar(a.Value) + ", " + formatScalar(b.Value)
	a.Numeric = nil
	return a
}

func entityName(rec models.Record, nameColumn string) string {
	v, ok := rec[nameColumn]
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(formatScalar(v))
}

func isCoopSheet(columns []string) bool {
	for _, col := range columns {
		if strings.Contains(compactKey(col), coopParentPattern) {
			return true
		}
	}
	return false
}

// coopColumns locates the structural columns of a cooperative sheet by
// compact matching.
type coopColumns struct {
	name, activity, members string
}

func findCoopColumns(columns []string) coopColumns {
	var cols coopColumns
	for _, col := range columns {
		ck := compactKey(col)
		switch {
		case strings.Contains(ck, coopParentPattern):
			cols.name = col
		case strings.Contains(ck, "activite"):
			cols.activity = col
		case strings.Contains(ck, "adherent"):
			cols.members = col
		}
	}
	return cols
}

// groupCoopRows collapses rows sharing one entity name into a single
// aggregate row with a structured child list, preserving the one-to-many
// relationship flattening would destroy. Numeric fields are summed.
func groupCoopRows(rows []models.NormalizedRow, rs models.RecordSet, cc models.ClassifiedColumns, order []string) []models.NormalizedRow {
	cols := findCoopColumns(rs.Columns)
	groups := make(map[string]*models.NormalizedRow)

	// rows and retained source records stay index-aligned: both skip the
	// same sub-total rows.
	retained := retainedRecords(rs, cc.NameColumn)

	for i, row := range rows {
		group, ok := groups[row.Name]
		if !ok {
			g := models.NormalizedRow{Name: row.Name, Source: row.Source}
			groups[row.Name] = &g
			group = groups[row.Name]
		}
		mergeGroupFields(group, row.Fields)

		member := models.CoopMember{Name: "-", Activity: "-"}
		if i < len(retained) {
			rec := retained[i]
			if cols.name != "" && rec[cols.name] != nil {
				member.Name = formatScalar(rec[cols.name])
			}
			if cols.activity != "" && rec[cols.activity] != nil {
				member.Activity = formatScalar(rec[cols.activity])
			}
			if cols.members != "" {
				member.Members = rec[cols.members]
			}
		}
		group.Children = append(group.Children, member)
	}

	grouped := make([]models.NormalizedRow, 0, len(groups))
	for _, name := range order {
		if g, ok := groups[name]; ok {
			grouped = append(grouped, *g)
			delete(groups, name)
		}
	}
	return grouped
}

// mergeGroupFields accumulates numeric child fields into the group row.
func mergeGroupFields(group *models.NormalizedRow, fields []models.Field) {
	index := make(map[string]int, len(group.Fields))
	for i, f := range group.Fields {
		index[f.Key] = i
	}
	for _, f := range fields {
		if f.Numeric == nil {
			continue
		}
		if at, ok := index[f.Key]; ok {
			sum := *group.Fields[at].Numeric + *f.Numeric
			group.Fields[at].Numeric = &sum
			group.Fields[at].Value = sum
			continue
		}
		copied := f
		num := *f.Numeric
		copied.Numeric = &num
		copied.Value = num
		index[copied.Key] = len(group.Fields)
		group.Fields = append(group.Fields, copied)
	}
}

// retainedRecords replays the fill-down pass to return the source records
// that survive sub-total filtering, in order.
func retainedRecords(rs models.RecordSet, nameColumn string) []models.Record {
	var out []models.Record
	lastKnownName := ""
	for _, rec := range rs.Records {
		name := entityName(rec, nameColumn)
		if name == "" {
			name = lastKnownName
		} else {
			lastKnownName = name
		}
		if name == "S/T" || strings.Contains(name, "TOTAL") {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// lastNamesOf returns distinct row names in first-seen order.
func lastNamesOf(rows []models.NormalizedRow) []string {
	seen := make(map[string]bool)
	var order []string
	for _, r := range rows {
		if !seen[r.Name] {
			seen[r.Name] = true
			order = append(order, r.Name)
		}
	}
	return order
}
