// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/model"
)

// CatalogPageFunc receives one page of active catalog items. Returning an
// error stops the iteration and is returned to the caller.
type CatalogPageFunc func(items []model.CatalogItem) error

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Company and project operations
	CreateCompany(ctx context.Context, company *model.Company) error
	CreateProject(ctx context.Context, project *model.Project) error
	GetProject(ctx context.Context, projectID string) (*model.Project, error)

	// Catalog operations
	CreatePriceList(ctx context.Context, priceList *model.PriceList) error
	SaveCatalogItems(ctx context.Context, items []model.CatalogItem) error
	GetCatalogItem(ctx context.Context, itemID string) (*model.CatalogItem, error)
	GetCatalogItems(ctx context.Context, itemIDs []string) ([]model.CatalogItem, error)
	ForEachActiveCatalogPage(ctx context.Context, companyID string, pageSize int, fn CatalogPageFunc) error

	// Estimate operations
	CreateEstimate(ctx context.Context, estimate *model.Estimate) error
	ReplaceEstimateLines(ctx context.Context, estimateID string, lines []model.EstimateLine) error
	GetEstimate(ctx context.Context, estimateID string) (*model.Estimate, error)
	GetEstimateLines(ctx context.Context, estimateID string) ([]model.EstimateLine, error)

	// Regional factor operations
	ReplaceRegionalFactors(ctx context.Context, project *model.Project, factors *model.RegionalFactors) error
	GetRegionalFactors(ctx context.Context, projectID string) (*model.RegionalFactors, error)
	GetTaxConfig(ctx context.Context, projectID string) (*model.TaxConfig, error)
	SetManualTaxOverride(ctx context.Context, projectID string, rate *float64, enabled bool) error
	CountCategoryAdjustments(ctx context.Context, projectID string) (int, error)

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// FactorWriter holds the writes that make up one learn cycle. They are only
// meaningful together inside a Transaction.
type FactorWriter interface {
	UpsertRegionalFactors(ctx context.Context, factors *model.RegionalFactors) error
	ReplaceCategoryAdjustments(ctx context.Context, factorsID string, adjustments []model.CategoryAdjustment) error
	UpsertLearnedTaxRate(ctx context.Context, project *model.Project, factors *model.RegionalFactors) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit() error
	Rollback() error
	FactorWriter
}
