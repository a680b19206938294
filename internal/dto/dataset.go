package dto

import "agrimono/internal/models"

type DatasetResponse struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Category string `json:"category"`
	Active   bool   `json:"active"`
}

type DatasetListResponse struct {
	Datasets []DatasetResponse `json:"datasets"`
}

type SelectDatasetResponse struct {
	Selected DatasetResponse `json:"selected"`
}

type ReloadDatasetResponse struct {
	DatasetID string `json:"dataset_id"`
	Records   int    `json:"records"`
}

type RowResponse struct {
	Name     string              `json:"name"`
	Source   string              `json:"source,omitempty"`
	Fields   []FieldResponse     `json:"fields"`
	Children []models.CoopMember `json:"children,omitempty"`
}

type FieldResponse struct {
	Label   string `json:"label"`
	Value   any    `json:"value"`
	Percent bool   `json:"percent,omitempty"`
}

type SummaryResponse struct {
	Dataset DatasetResponse          `json:"dataset"`
	Columns models.ClassifiedColumns `json:"columns"`
	Rows    []RowResponse            `json:"rows"`
	Totals  []models.CategoryTotal   `json:"totals"`
}
