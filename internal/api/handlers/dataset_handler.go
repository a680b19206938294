package handlers

import (
	"errors"
	"strings"

	"agrimono/internal/dto"
	"agrimono/internal/models"
	"agrimono/internal/registry"
	"agrimono/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type DatasetHandler struct {
	registry  *registry.Registry
	sheets    *service.SheetService
	dashboard *service.DashboardService
	logger    *zap.Logger
}

func NewDatasetHandler(reg *registry.Registry, sheets *service.SheetService, dashboard *service.DashboardService, logger *zap.Logger) *DatasetHandler {
	return &DatasetHandler{
		registry:  reg,
		sheets:    sheets,
		dashboard: dashboard,
		logger:    logger,
	}
}

// ListDatasets returns the catalogue with the active dataset flagged.
func (h *DatasetHandler) ListDatasets(c *fiber.Ctx) error {
	active := h.sheets.Current(c.Context())

	resp := dto.DatasetListResponse{
		Datasets: make([]dto.DatasetResponse, 0, len(h.registry.Datasets())),
	}
	for _, ds := range h.registry.Datasets() {
		resp.Datasets = append(resp.Datasets, toDatasetResponse(ds, ds.ID == active.ID))
	}
	return c.JSON(resp)
}

// GetSummary returns the shaped view of one dataset.
func (h *DatasetHandler) GetSummary(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, ok := h.registry.ByID(id); !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Unknown dataset",
		})
	}

	summary, err := h.dashboard.Summary(c.Context(), id)
	if err != nil {
		h.logger.Error("Failed to build dataset summary", zap.String("dataset_id", id), zap.Error(err))
		return sourceErrorResponse(c, err)
	}

	active := h.sheets.Current(c.Context())

	resp := dto.SummaryResponse{
		Dataset: toDatasetResponse(summary.Dataset, summary.Dataset.ID == active.ID),
		Columns: summary.Columns,
		Rows:    make([]dto.RowResponse, 0, len(summary.Rows)),
		Totals:  service.SortedTotals(summary.Totals),
	}
	for _, row := range summary.Rows {
		resp.Rows = append(resp.Rows, toRowResponse(row))
	}
	return c.JSON(resp)
}

// SelectDataset sets the active dataset used when routing is ambiguous.
func (h *DatasetHandler) SelectDataset(c *fiber.Ctx) error {
	ds, err := h.sheets.SetActive(c.Context(), c.Params("id"))
	if err != nil {
		if strings.Contains(err.Error(), "unknown dataset") {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Unknown dataset",
			})
		}
		h.logger.Error("Failed to select dataset", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to select dataset",
		})
	}

	return c.JSON(dto.SelectDatasetResponse{Selected: toDatasetResponse(ds, true)})
}

// ReloadDataset forces a fresh fetch of one dataset.
func (h *DatasetHandler) ReloadDataset(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, ok := h.registry.ByID(id); !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Unknown dataset",
		})
	}

	rs, err := h.sheets.Reload(c.Context(), id)
	if err != nil {
		h.logger.Error("Failed to reload dataset", zap.String("dataset_id", id), zap.Error(err))
		return sourceErrorResponse(c, err)
	}

	return c.JSON(dto.ReloadDatasetResponse{DatasetID: id, Records: len(rs.Records)})
}

func toDatasetResponse(ds models.Dataset, active bool) dto.DatasetResponse {
	return dto.DatasetResponse{
		ID:       ds.ID,
		Label:    ds.Label,
		Category: ds.Category,
		Active:   active,
	}
}

func toRowResponse(row models.NormalizedRow) dto.RowResponse {
	out := dto.RowResponse{
		Name:     row.Name,
		Source:   row.Source,
		Fields:   make([]dto.FieldResponse, 0, len(row.Fields)),
		Children: row.Children,
	}
	for _, f := range row.Fields {
		out.Fields = append(out.Fields, dto.FieldResponse{
			Label:   f.Label,
			Value:   f.Value,
			Percent: f.Percent,
		})
	}
	return out
}

// sourceErrorResponse maps upstream data-source failures to 502 and
// everything else to 500.
func sourceErrorResponse(c *fiber.Ctx, err error) error {
	var fetchErr *models.FetchError
	var parseErr *models.ParseError
	if errors.As(err, &fetchErr) || errors.As(err, &parseErr) {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Data source unavailable",
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal server error",
	})
}
