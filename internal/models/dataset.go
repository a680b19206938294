package models

// Dataset describes one published data sheet. Descriptors are loaded once
// from the embedded registry and never mutated at runtime.
type Dataset struct {
	ID       string   `json:"id" yaml:"id"`
	Label    string   `json:"label" yaml:"label"`
	Category string   `json:"category" yaml:"category"`
	Keywords []string `json:"keywords" yaml:"keywords"`
}

// Record is one row of a dataset keyed by column name. Values are
// type-inferred scalars: string, float64 or nil.
type Record map[string]any

// RecordSet is an ordered sequence of records sharing one header. Row order
// is the source order and is meaningful (sub-total rows, grouped detail).
type RecordSet struct {
	Columns []string
	Records []Record
}

func (rs RecordSet) Empty() bool {
	return len(rs.Records) == 0
}

// ClassifiedColumns is the per-RecordSet partition of columns into semantic
// buckets. Ordered is the rendering order: area, then yield, then other.
type ClassifiedColumns struct {
	NameColumn   string   `json:"name_column"`
	AreaColumns  []string `json:"area_columns"`
	YieldColumns []string `json:"yield_columns"`
	OtherColumns []string `json:"other_columns"`
	Ordered      []string `json:"ordered"`
}

// Field is one normalized label/value pair of a record.
type Field struct {
	Label   string   // display label, unit suffix included
	Key     string   // accent-stripped lowercase dedup key
	Source  string   // dataset label the value came from
	Value   any      // scalar, or a ", "-joined merge of colliding values
	Numeric *float64 // set when the cleaned value parsed as a number
	Percent bool
}

// CoopMember is one child entry of a grouped list-type row.
type CoopMember struct {
	Name     string `json:"name"`
	Activity string `json:"activity"`
	Members  any    `json:"members"`
}

// NormalizedRow is the Row Normalizer output for one retained record.
// Children is populated only in the list-type grouping mode, where several
// source rows collapse into one row per entity.
type NormalizedRow struct {
	Name     string
	Source   string
	Fields   []Field
	Children []CoopMember
}

// CategoryTotal is one provincial sum for a normalized metric label.
type CategoryTotal struct {
	Label string  `json:"label"`
	Total float64 `json:"total"`
}

// DatasetTotals maps normalized label key to its accumulated total for one
// dataset. Zero totals stay in the map; rendering filters them out.
type DatasetTotals map[string]*CategoryTotal

// DatasetSummary is the shaped view of one dataset used by dashboards.
type DatasetSummary struct {
	Dataset Dataset
	Columns ClassifiedColumns
	Rows    []NormalizedRow
	Totals  DatasetTotals
}
