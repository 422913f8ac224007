// Package engine runs the learn and extrapolate cycles against storage.
package engine

import (
	"context"

	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/model"
	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/pricing"
	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/service"
)

// Config holds configuration options for the learn and extrapolate cycles.
type Config struct {
	Pricing         pricing.Config
	CatalogPageSize int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Pricing:         pricing.DefaultConfig(),
		CatalogPageSize: 500,
	}
}

// LearnStore is the storage a Learner needs.
type LearnStore interface {
	GetEstimate(ctx context.Context, estimateID string) (*model.Estimate, error)
	GetProject(ctx context.Context, projectID string) (*model.Project, error)
	GetEstimateLines(ctx context.Context, estimateID string) ([]model.EstimateLine, error)
	ForEachActiveCatalogPage(ctx context.Context, companyID string, pageSize int, fn service.CatalogPageFunc) error
	ReplaceRegionalFactors(ctx context.Context, project *model.Project, factors *model.RegionalFactors) error
}

// ExtrapolateStore is the storage an Extrapolator needs.
type ExtrapolateStore interface {
	GetProject(ctx context.Context, projectID string) (*model.Project, error)
	GetRegionalFactors(ctx context.Context, projectID string) (*model.RegionalFactors, error)
	GetTaxConfig(ctx context.Context, projectID string) (*model.TaxConfig, error)
	GetCatalogItems(ctx context.Context, itemIDs []string) ([]model.CatalogItem, error)
}

var (
	_ LearnStore       = service.Storage(nil)
	_ ExtrapolateStore = service.Storage(nil)
)
