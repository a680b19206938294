package service

import (
	"context"
	"fmt"

	"agrimono/internal/models"
	"agrimono/internal/registry"

	"go.uber.org/zap"
)

// DashboardService exposes the shaped per-dataset view: classified columns,
// normalized rows and provincial totals.
type DashboardService struct {
	registry   *registry.Registry
	sheets     *SheetService
	normalizer *Normalizer
	logger     *zap.Logger
}

func NewDashboardService(reg *registry.Registry, sheets *SheetService, normalizer *Normalizer, logger *zap.Logger) *DashboardService {
	return &DashboardService{
		registry:   reg,
		sheets:     sheets,
		normalizer: normalizer,
		logger:     logger,
	}
}

// Summary loads and shapes one dataset. An empty dataset yields an empty
// summary, not an error.
func (s *DashboardService) Summary(ctx context.Context, datasetID string) (models.DatasetSummary, error) {
	ds, ok := s.registry.ByID(datasetID)
	if !ok {
		return models.DatasetSummary{}, fmt.Errorf("unknown dataset id %s", datasetID)
	}

	rs, err := s.sheets.Load(ctx, datasetID)
	if err != nil {
		return models.DatasetSummary{}, err
	}

	cc := ClassifyColumns(rs)
	rows := s.normalizer.NormalizeSet(rs, ds.Label, cc)

	return models.DatasetSummary{
		Dataset: ds,
		Columns: cc,
		Rows:    rows,
		Totals:  Aggregate(rows),
	}, nil
}
