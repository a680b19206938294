// Package registry loads the static dataset catalogue and the technical
// header dictionary from embedded, versioned configuration data.
package registry

import (
	_ "embed"
	"fmt"

	"agrimono/internal/models"

	"gopkg.in/yaml.v3"
)

//go:embed registry.yaml
var registryData []byte

type registryFile struct {
	Version  int               `yaml:"version"`
	Datasets []models.Dataset  `yaml:"datasets"`
	Headers  map[string]string `yaml:"headers"`
}

// Registry is the immutable dataset catalogue, loaded once at startup.
type Registry struct {
	version  int
	datasets []models.Dataset
	byID     map[string]models.Dataset
	headers  map[string]string
}

// Load parses and validates the embedded registry. Duplicate dataset ids,
// empty labels and empty keyword lists are startup errors.
func Load() (*Registry, error) {
	return Parse(registryData)
}

// Parse builds a registry from raw YAML.
func Parse(data []byte) (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse registry: %w", err)
	}

	if len(file.Datasets) == 0 {
		return nil, fmt.Errorf("registry contains no datasets")
	}

	byID := make(map[string]models.Dataset, len(file.Datasets))
	for _, ds := range file.Datasets {
		if ds.ID == "" || ds.Label == "" || ds.Category == "" {
			return nil, fmt.Errorf("dataset %q: id, label and category are required", ds.ID)
		}
		if len(ds.Keywords) == 0 {
			return nil, fmt.Errorf("dataset %s (%s): empty keyword list", ds.ID, ds.Label)
		}
		if _, dup := byID[ds.ID]; dup {
			return nil, fmt.Errorf("duplicate dataset id %s", ds.ID)
		}
		byID[ds.ID] = ds
	}

	return &Registry{
		version:  file.Version,
		datasets: file.Datasets,
		byID:     byID,
		headers:  file.Headers,
	}, nil
}

func (r *Registry) Version() int { return r.version }

// Datasets returns descriptors in declaration order.
func (r *Registry) Datasets() []models.Dataset { return r.datasets }

// First returns the default dataset, the first declared one.
func (r *Registry) First() models.Dataset { return r.datasets[0] }

func (r *Registry) ByID(id string) (models.Dataset, bool) {
	ds, ok := r.byID[id]
	return ds, ok
}

// ByCategory returns all datasets of one category, in declaration order.
func (r *Registry) ByCategory(category string) []models.Dataset {
	var out []models.Dataset
	for _, ds := range r.datasets {
		if ds.Category == category {
			out = append(out, ds)
		}
	}
	return out
}

// Categories returns the distinct categories in first-seen order.
func (r *Registry) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, ds := range r.datasets {
		if !seen[ds.Category] {
			seen[ds.Category] = true
			out = append(out, ds.Category)
		}
	}
	return out
}

// HeaderLabel resolves a normalized technical header to its display label.
func (r *Registry) HeaderLabel(normalizedKey string) (string, bool) {
	label, ok := r.headers[normalizedKey]
	return label, ok
}
