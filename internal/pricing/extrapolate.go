package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/model"
)

// BootstrapWarning is attached to items priced for a project that has never
// learned regional factors.
const BootstrapWarning = "Bootstrap mode: using company defaults because regional learning has not occurred yet for this project. Import an estimate to learn regional pricing."

// Snapshot is the project state an extrapolation reads. Factors and TaxConfig
// are nil when nothing has been learned or configured.
type Snapshot struct {
	Factors              *model.RegionalFactors
	TaxConfig            *model.TaxConfig
	CompanyDefaultOPRate *float64
}

// IsBootstrap reports whether no regional factors exist for the project.
func (s Snapshot) IsBootstrap() bool {
	return s.Factors == nil
}

// ResolveCategoryAdjustment picks the learned factor for item: an exact
// (category, activity) row first, then the category-wide row. Rows backed by
// fewer than minSampleSize matches are ignored and the factor is 1.
func ResolveCategoryAdjustment(item model.CatalogItem, factors *model.RegionalFactors, minSampleSize int) (float64, model.AdjustmentSource) {
	if factors == nil || item.CategoryCode == "" {
		return 1.0, model.AdjustmentNone
	}

	adj := factors.FindAdjustment(item.CategoryCode, item.Activity)
	if adj == nil {
		adj = factors.FindCategoryWide(item.CategoryCode)
	}
	if adj == nil || adj.SampleSize < minSampleSize {
		return 1.0, model.AdjustmentNone
	}

	return adj.MedianVariance, model.AdjustmentLearned
}

// ResolveTaxRate applies, in order: an enabled manual override, the learned
// rate, then 0.
func ResolveTaxRate(taxConfig *model.TaxConfig) (float64, model.RateSource) {
	if rate, ok := taxConfig.ManualOverride(); ok {
		return rate, model.RateLearned
	}
	if taxConfig != nil && taxConfig.LearnedTaxRate != nil {
		return *taxConfig.LearnedTaxRate, model.RateLearnedFromEstimate
	}
	return 0, model.RateCompanyDefault
}

// ResolveOPRate returns the learned O&P rate when a snapshot exists, else the
// company default. A missing or zero company default falls back to fallback.
func ResolveOPRate(factors *model.RegionalFactors, companyDefault *float64, fallback float64) (float64, model.RateSource) {
	if factors != nil {
		return factors.AggregateOPRate, model.RateLearnedFromEstimate
	}
	if companyDefault != nil && *companyDefault != 0 {
		return *companyDefault, model.RateCompanyDefault
	}
	return fallback, model.RateCompanyDefault
}

// PriceBreakdown is the result of compounding tax and O&P on a base price.
type PriceBreakdown struct {
	TaxAmount float64
	Subtotal  float64
	OPAmount  float64
	Final     float64
}

// ComposePrice applies tax to the adjusted price and O&P to the taxed
// subtotal. The two markups compound; they are not both taken off the base.
func ComposePrice(adjustedUnitPrice, taxRate, opRate float64) PriceBreakdown {
	taxAmount := adjustedUnitPrice * taxRate
	subtotal := adjustedUnitPrice + taxAmount
	opAmount := subtotal * opRate
	return PriceBreakdown{
		TaxAmount: taxAmount,
		Subtotal:  subtotal,
		OPAmount:  opAmount,
		Final:     subtotal + opAmount,
	}
}

// Warning describes degraded pricing: bootstrap mode first, then low
// confidence. It returns "" when the snapshot is trustworthy.
func Warning(factors *model.RegionalFactors, lowConfidenceThreshold float64) string {
	if factors == nil {
		return BootstrapWarning
	}
	if factors.Confidence < lowConfidenceThreshold {
		return fmt.Sprintf("Low confidence (%.0f%%). More estimate data is needed for accurate regional pricing.", factors.Confidence*100)
	}
	return ""
}

// ExtendedPrice multiplies the final unit price by quantity, rounded to cents.
func ExtendedPrice(finalUnitPrice, quantity float64) float64 {
	return decimal.NewFromFloat(finalUnitPrice).
		Mul(decimal.NewFromFloat(quantity)).
		Round(2).
		InexactFloat64()
}

// Extrapolate prices one catalog item against a project snapshot. Quantity
// only affects ExtendedPrice; values <= 0 are treated as 1.
func Extrapolate(item model.CatalogItem, snap Snapshot, quantity float64, cfg Config) model.ExtrapolatedItem {
	if quantity <= 0 {
		quantity = 1
	}

	factor, adjSource := ResolveCategoryAdjustment(item, snap.Factors, cfg.MinSampleSize)
	adjusted := item.UnitPrice * factor

	taxRate, taxSource := ResolveTaxRate(snap.TaxConfig)
	opRate, opSource := ResolveOPRate(snap.Factors, snap.CompanyDefaultOPRate, cfg.DefaultOPRate)

	price := ComposePrice(adjusted, taxRate, opRate)

	var confidence float64
	if snap.Factors != nil {
		confidence = snap.Factors.Confidence
	}

	return model.ExtrapolatedItem{
		Item:                     item,
		AdjustedUnitPrice:        adjusted,
		CategoryAdjustmentFactor: factor,
		CategoryAdjustmentSource: adjSource,
		TaxRate:                  taxRate,
		TaxAmount:                price.TaxAmount,
		TaxSource:                taxSource,
		Subtotal:                 price.Subtotal,
		OPRate:                   opRate,
		OPAmount:                 price.OPAmount,
		OPSource:                 opSource,
		FinalUnitPrice:           price.Final,
		Confidence:               confidence,
		Warning:                  Warning(snap.Factors, cfg.LowConfidenceThreshold),
		Quantity:                 quantity,
		ExtendedPrice:            ExtendedPrice(price.Final, quantity),
	}
}

// TotalExtended sums the extended prices of items in exact decimal.
func TotalExtended(items []model.ExtrapolatedItem) float64 {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(decimal.NewFromFloat(item.ExtendedPrice))
	}
	return total.Round(2).InexactFloat64()
}
