package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/common"
	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/model"
	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/service"
)

// fakeStore is an in-memory store with per-call error injection.
type fakeStore struct {
	estimates  map[string]*model.Estimate
	projects   map[string]*model.Project
	lines      map[string][]model.EstimateLine
	catalog    []model.CatalogItem
	factors    map[string]*model.RegionalFactors
	taxConfigs map[string]*model.TaxConfig

	catalogErr error
	replaceErr error
	factorsErr error

	mu          sync.Mutex
	pageSizes   []int
	replaceCall int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		estimates:  map[string]*model.Estimate{},
		projects:   map[string]*model.Project{},
		lines:      map[string][]model.EstimateLine{},
		factors:    map[string]*model.RegionalFactors{},
		taxConfigs: map[string]*model.TaxConfig{},
	}
}

func (f *fakeStore) GetEstimate(_ context.Context, estimateID string) (*model.Estimate, error) {
	e, ok := f.estimates[estimateID]
	if !ok {
		return nil, fmt.Errorf("%w: estimate %s", common.ErrNotFound, estimateID)
	}
	return e, nil
}

func (f *fakeStore) GetProject(_ context.Context, projectID string) (*model.Project, error) {
	p, ok := f.projects[projectID]
	if !ok {
		return nil, fmt.Errorf("%w: project %s", common.ErrNotFound, projectID)
	}
	return p, nil
}

func (f *fakeStore) GetEstimateLines(_ context.Context, estimateID string) ([]model.EstimateLine, error) {
	return f.lines[estimateID], nil
}

func (f *fakeStore) ForEachActiveCatalogPage(_ context.Context, _ string, pageSize int, fn service.CatalogPageFunc) error {
	f.mu.Lock()
	f.pageSizes = append(f.pageSizes, pageSize)
	f.mu.Unlock()
	if f.catalogErr != nil {
		return f.catalogErr
	}
	for start := 0; start < len(f.catalog); start += pageSize {
		end := min(start+pageSize, len(f.catalog))
		if err := fn(f.catalog[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeStore) ReplaceRegionalFactors(_ context.Context, project *model.Project, factors *model.RegionalFactors) error {
	f.replaceCall++
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.factors[project.ID] = factors
	rate := factors.AggregateTaxRate
	f.taxConfigs[project.ID] = &model.TaxConfig{ProjectID: project.ID, LearnedTaxRate: &rate}
	return nil
}

func (f *fakeStore) GetRegionalFactors(_ context.Context, projectID string) (*model.RegionalFactors, error) {
	if f.factorsErr != nil {
		return nil, f.factorsErr
	}
	return f.factors[projectID], nil
}

func (f *fakeStore) GetTaxConfig(_ context.Context, projectID string) (*model.TaxConfig, error) {
	return f.taxConfigs[projectID], nil
}

func (f *fakeStore) GetCatalogItems(_ context.Context, itemIDs []string) ([]model.CatalogItem, error) {
	items := make([]model.CatalogItem, 0, len(itemIDs))
	for _, id := range itemIDs {
		found := false
		for _, item := range f.catalog {
			if item.ID == id {
				items = append(items, item)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: catalog item %s", common.ErrNotFound, id)
		}
	}
	return items, nil
}
