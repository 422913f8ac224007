package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/model"
	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/pricing"
)

// Extrapolator prices catalog items for a project from its stored snapshot.
type Extrapolator struct {
	store  ExtrapolateStore
	config pricing.Config
}

// NewExtrapolator creates an extrapolator with the default configuration.
func NewExtrapolator(store ExtrapolateStore) *Extrapolator {
	return NewExtrapolatorWithConfig(store, DefaultConfig())
}

// NewExtrapolatorWithConfig creates an extrapolator with custom configuration.
func NewExtrapolatorWithConfig(store ExtrapolateStore, config Config) *Extrapolator {
	return &Extrapolator{
		store:  store,
		config: config.Pricing,
	}
}

// Extrapolate prices one catalog item. Quantity only scales the extended
// price; values <= 0 count as 1.
func (e *Extrapolator) Extrapolate(ctx context.Context, itemID, projectID string, quantity float64) (*model.ExtrapolatedItem, error) {
	results, err := e.extrapolate(ctx, []string{itemID}, projectID, quantity)
	if err != nil {
		return nil, err
	}
	return &results[0], nil
}

// ExtrapolateMany prices several catalog items against one snapshot read.
// Results follow the order of itemIDs. An unknown item fails the whole call.
func (e *Extrapolator) ExtrapolateMany(ctx context.Context, itemIDs []string, projectID string) ([]model.ExtrapolatedItem, error) {
	return e.extrapolate(ctx, itemIDs, projectID, 1)
}

// ExtrapolateManyQuantity is ExtrapolateMany with the same quantity applied
// to every item.
func (e *Extrapolator) ExtrapolateManyQuantity(ctx context.Context, itemIDs []string, projectID string, quantity float64) ([]model.ExtrapolatedItem, error) {
	return e.extrapolate(ctx, itemIDs, projectID, quantity)
}

// Snapshot reads everything extrapolation needs for a project.
func (e *Extrapolator) Snapshot(ctx context.Context, projectID string) (pricing.Snapshot, error) {
	var (
		project   *model.Project
		factors   *model.RegionalFactors
		taxConfig *model.TaxConfig
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		project, err = e.store.GetProject(gctx, projectID)
		if err != nil {
			return fmt.Errorf("failed to load project: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		factors, err = e.store.GetRegionalFactors(gctx, projectID)
		if err != nil {
			return fmt.Errorf("failed to load regional factors: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		taxConfig, err = e.store.GetTaxConfig(gctx, projectID)
		if err != nil {
			return fmt.Errorf("failed to load tax config: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return pricing.Snapshot{}, err
	}

	return pricing.Snapshot{
		Factors:              factors,
		TaxConfig:            taxConfig,
		CompanyDefaultOPRate: project.Company.DefaultOPRate,
	}, nil
}

func (e *Extrapolator) extrapolate(ctx context.Context, itemIDs []string, projectID string, quantity float64) ([]model.ExtrapolatedItem, error) {
	var (
		snap  pricing.Snapshot
		items []model.CatalogItem
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap, err = e.Snapshot(gctx, projectID)
		return err
	})
	g.Go(func() error {
		if len(itemIDs) == 0 {
			return nil
		}
		var err error
		items, err = e.store.GetCatalogItems(gctx, itemIDs)
		if err != nil {
			return fmt.Errorf("failed to load catalog items: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]model.ExtrapolatedItem, len(items))
	for i, item := range items {
		results[i] = pricing.Extrapolate(item, snap, quantity, e.config)
	}
	return results, nil
}
