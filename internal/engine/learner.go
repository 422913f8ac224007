package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/model"
	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/pricing"
)

// Learner derives a project's regional factors from one imported estimate.
type Learner struct {
	store    LearnStore
	pageSize int
}

// NewLearner creates a learner with the default configuration.
func NewLearner(store LearnStore) *Learner {
	return NewLearnerWithConfig(store, DefaultConfig())
}

// NewLearnerWithConfig creates a learner with custom configuration.
func NewLearnerWithConfig(store LearnStore, config Config) *Learner {
	return &Learner{
		store:    store,
		pageSize: config.CatalogPageSize,
	}
}

// Learn aggregates the estimate's rates, matches its lines against the
// company's active cost book, and replaces the project's snapshot with the
// result. The returned factors are what was persisted.
func (l *Learner) Learn(ctx context.Context, estimateID string) (*model.RegionalFactors, error) {
	start := time.Now()

	estimate, err := l.store.GetEstimate(ctx, estimateID)
	if err != nil {
		return nil, fmt.Errorf("failed to load estimate: %w", err)
	}

	project, err := l.store.GetProject(ctx, estimate.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	lines, err := l.store.GetEstimateLines(ctx, estimateID)
	if err != nil {
		return nil, fmt.Errorf("failed to load estimate lines: %w", err)
	}

	slog.Info("Learning regional factors",
		"estimate_id", estimateID,
		"project_id", project.ID,
		"lines", len(lines))

	rates := pricing.Aggregate(lines)
	slog.Debug("Aggregated estimate rates",
		"tax_rate", rates.TaxRate,
		"op_rate", rates.OPRate,
		"item_amount", rates.TotalItemAmount)

	index := pricing.NewCatalogIndex()
	err = l.store.ForEachActiveCatalogPage(ctx, project.CompanyID, l.pageSize, func(page []model.CatalogItem) error {
		index.Add(page...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load cost book: %w", err)
	}

	matches := index.Match(lines)
	adjustments := pricing.AggregateByCategory(matches)

	factors := &model.RegionalFactors{
		ProjectID:           project.ID,
		SourceEstimateID:    estimateID,
		AggregateTaxRate:    rates.TaxRate,
		AggregateOPRate:     rates.OPRate,
		TotalLineItems:      rates.LineCount,
		TotalItemAmount:     rates.TotalItemAmount,
		Confidence:          pricing.Confidence(rates.LineCount),
		CategoryAdjustments: adjustments,
	}

	if err := l.store.ReplaceRegionalFactors(ctx, project, factors); err != nil {
		return nil, fmt.Errorf("failed to store regional factors: %w", err)
	}

	slog.Info("Learned regional factors",
		"project_id", project.ID,
		"tax_rate", factors.AggregateTaxRate,
		"op_rate", factors.AggregateOPRate,
		"catalog_items", index.Len(),
		"matched_lines", len(matches),
		"categories", len(adjustments),
		"confidence", factors.Confidence,
		"duration", time.Since(start))

	return factors, nil
}
