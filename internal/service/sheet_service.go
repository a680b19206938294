package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"agrimono/internal/models"
	"agrimono/internal/registry"
	"agrimono/pkg/config"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ActiveStore persists the selected dataset across restarts.
type ActiveStore interface {
	ActiveDataset(ctx context.Context) (string, error)
	SetActiveDataset(ctx context.Context, id string) error
}

// SheetService downloads published CSV sheets, parses them into typed
// record sets and serves them from an in-process cache.
type SheetService struct {
	cfg      config.SheetsConfig
	registry *registry.Registry
	store    ActiveStore
	client   *http.Client
	logger   *zap.Logger

	mu    sync.Mutex
	cache map[string]models.RecordSet
}

func NewSheetService(cfg config.SheetsConfig, reg *registry.Registry, store ActiveStore, logger *zap.Logger) *SheetService {
	return &SheetService{
		cfg:      cfg,
		registry: reg,
		store:    store,
		client:   &http.Client{Timeout: cfg.Timeout},
		logger:   logger,
		cache:    make(map[string]models.RecordSet),
	}
}

// Load returns the record set for one dataset, fetching it on first use.
// Cached entries never expire; Reload is the explicit refresh path.
func (s *SheetService) Load(ctx context.Context, datasetID string) (models.RecordSet, error) {
	s.mu.Lock()
	if rs, ok := s.cache[datasetID]; ok {
		s.mu.Unlock()
		return rs, nil
	}
	s.mu.Unlock()

	rs, err := s.fetch(ctx, datasetID)
	if err != nil {
		return models.RecordSet{}, err
	}

	s.mu.Lock()
	s.cache[datasetID] = rs
	s.mu.Unlock()
	return rs, nil
}

// Reload drops the cached copy and fetches the dataset again. The stale
// copy stays served if the refresh fails.
func (s *SheetService) Reload(ctx context.Context, datasetID string) (models.RecordSet, error) {
	rs, err := s.fetch(ctx, datasetID)
	if err != nil {
		return models.RecordSet{}, err
	}

	s.mu.Lock()
	s.cache[datasetID] = rs
	s.mu.Unlock()
	return rs, nil
}

// LoadAll fetches several datasets concurrently. All-or-nothing: one failed
// fetch fails the whole call.
func (s *SheetService) LoadAll(ctx context.Context, datasets []models.Dataset) (map[string]models.RecordSet, error) {
	out := make(map[string]models.RecordSet, len(datasets))
	var outMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, ds := range datasets {
		g.Go(func() error {
			rs, err := s.Load(gctx, ds.ID)
			if err != nil {
				return err
			}
			outMu.Lock()
			out[ds.ID] = rs
			outMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Current resolves the active dataset: the persisted selection when valid,
// otherwise the first registry entry.
func (s *SheetService) Current(ctx context.Context) models.Dataset {
	id, err := s.store.ActiveDataset(ctx)
	if err != nil {
		s.logger.Warn("Failed to read active dataset, using default", zap.Error(err))
		return s.registry.First()
	}
	if ds, ok := s.registry.ByID(id); ok {
		return ds
	}
	return s.registry.First()
}

// SetActive persists the dataset selection. Unknown ids are rejected.
func (s *SheetService) SetActive(ctx context.Context, datasetID string) (models.Dataset, error) {
	ds, ok := s.registry.ByID(datasetID)
	if !ok {
		return models.Dataset{}, fmt.Errorf("unknown dataset id %s", datasetID)
	}
	if err := s.store.SetActiveDataset(ctx, datasetID); err != nil {
		return models.Dataset{}, fmt.Errorf("failed to persist active dataset: %w", err)
	}
	return ds, nil
}

func (s *SheetService) fetch(ctx context.Context, datasetID string) (models.RecordSet, error) {
	url := s.cfg.BaseURL + "&gid=" + datasetID

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.RecordSet{}, &models.FetchError{DatasetID: datasetID, Cause: err}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return models.RecordSet{}, &models.FetchError{DatasetID: datasetID, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.RecordSet{}, &models.FetchError{
			DatasetID: datasetID,
			Cause:     fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	rs, err := parseCSV(resp.Body)
	if err != nil {
		return models.RecordSet{}, &models.ParseError{DatasetID: datasetID, Cause: err}
	}

	s.logger.Info("Dataset fetched",
		zap.String("dataset_id", datasetID),
		zap.Int("records", len(rs.Records)))
	return rs, nil
}

// parseCSV reads a header row plus data rows into typed records. Ragged
// rows are tolerated; missing cells become nil, extra cells are dropped.
func parseCSV(r io.Reader) (models.RecordSet, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return models.RecordSet{}, nil
	}
	if err != nil {
		return models.RecordSet{}, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = sanitizeUTF8(strings.TrimSpace(h))
	}

	var records []models.Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return models.RecordSet{}, fmt.Errorf("failed to read row: %w", err)
		}

		record := make(models.Record, len(columns))
		empty := true
		for i, col := range columns {
			if col == "" {
				continue
			}
			if i >= len(row) {
				record[col] = nil
				continue
			}
			cell := sanitizeUTF8(strings.TrimSpace(row[i]))
			if cell == "" {
				record[col] = nil
				continue
			}
			empty = false
			record[col] = inferScalar(cell)
		}
		if !empty {
			records = append(records, record)
		}
	}

	return models.RecordSet{Columns: columns, Records: records}, nil
}

// inferScalar types a cell: float64 when the whole cell is a plain number,
// string otherwise. Formatted values ("1 200 ha") stay strings and are
// cleaned later, at normalization time.
func inferScalar(cell string) any {
	if f, err := strconv.ParseFloat(strings.ReplaceAll(cell, ",", "."), 64); err == nil {
		return f
	}
	return cell
}
