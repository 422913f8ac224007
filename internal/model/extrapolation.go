package model

// AdjustmentSource reports where a category adjustment factor came from.
type AdjustmentSource string

const (
	// AdjustmentLearned means the factor is a learned median variance.
	AdjustmentLearned AdjustmentSource = "learned"
	// AdjustmentNone means no usable adjustment existed and 1.0 was applied.
	AdjustmentNone AdjustmentSource = "none"
)

// RateSource reports where a tax or O&P rate came from.
type RateSource string

const (
	// RateLearned marks a manual tax override, which is reported as learned.
	RateLearned RateSource = "learned"
	// RateLearnedFromEstimate marks a rate learned from an imported estimate.
	RateLearnedFromEstimate RateSource = "learned-from-petl"
	// RateCompanyDefault marks a bootstrap fallback rate.
	RateCompanyDefault RateSource = "company-default"
	// RateManual marks a tax config row created only to hold an override.
	RateManual RateSource = "manual"
)

// ExtrapolatedItem is a catalog item priced for a project's market.
type ExtrapolatedItem struct {
	Item                     CatalogItem
	Warning                  string
	CategoryAdjustmentSource AdjustmentSource
	TaxSource                RateSource
	OPSource                 RateSource
	AdjustedUnitPrice        float64
	CategoryAdjustmentFactor float64
	TaxRate                  float64
	TaxAmount                float64
	Subtotal                 float64
	OPRate                   float64
	OPAmount                 float64
	FinalUnitPrice           float64
	Confidence               float64
	Quantity                 float64
	ExtendedPrice            float64
}

// HasWarning reports whether the item was priced in a degraded mode.
func (e ExtrapolatedItem) HasWarning() bool {
	return e.Warning != ""
}
