package model

import "time"

// RegionalFactors is the current learned pricing snapshot for a project.
// Each learn cycle overwrites it together with its CategoryAdjustments.
type RegionalFactors struct {
	CreatedAt           time.Time
	UpdatedAt           time.Time
	ID                  string
	ProjectID           string
	SourceEstimateID    string
	CategoryAdjustments []CategoryAdjustment
	AggregateTaxRate    float64
	AggregateOPRate     float64
	TotalItemAmount     float64
	Confidence          float64
	TotalLineItems      int
}

// FindAdjustment returns the adjustment for categoryCode whose activity equals
// activity, treating a nil adjustment activity as the empty string.
func (f *RegionalFactors) FindAdjustment(categoryCode, activity string) *CategoryAdjustment {
	if f == nil {
		return nil
	}
	for i := range f.CategoryAdjustments {
		adj := &f.CategoryAdjustments[i]
		if adj.CategoryCode == categoryCode && adj.ActivityOrEmpty() == activity {
			return adj
		}
	}
	return nil
}

// FindCategoryWide returns the "any activity" adjustment for categoryCode.
func (f *RegionalFactors) FindCategoryWide(categoryCode string) *CategoryAdjustment {
	if f == nil {
		return nil
	}
	for i := range f.CategoryAdjustments {
		adj := &f.CategoryAdjustments[i]
		if adj.CategoryCode == categoryCode && adj.Activity == nil {
			return adj
		}
	}
	return nil
}

// CategoryAdjustment is the learned price variance of one category, optionally
// narrowed to one activity. A nil Activity means any activity in the category.
type CategoryAdjustment struct {
	Activity       *string
	ID             string
	CategoryCode   string
	AvgVariance    float64
	MedianVariance float64
	SampleSize     int
}

// ActivityOrEmpty returns the activity or "" for the category-wide bucket.
func (a CategoryAdjustment) ActivityOrEmpty() string {
	if a.Activity == nil {
		return ""
	}
	return *a.Activity
}

// TaxConfig mirrors the learned tax rate of a project for consumers that only
// need tax behavior, and carries the optional manual override.
type TaxConfig struct {
	LastUpdated           time.Time
	LearnedTaxRate        *float64
	ManualOverrideRate    *float64
	ProjectID             string
	CompanyID             string
	TaxZipCode            string
	TaxCity               string
	TaxState              string
	LearnedFromEstimateID string
	Source                RateSource
	Confidence            float64
	UseManualOverride     bool
}

// ManualOverride returns the override rate when one is set and enabled.
func (c *TaxConfig) ManualOverride() (float64, bool) {
	if c == nil || !c.UseManualOverride || c.ManualOverrideRate == nil {
		return 0, false
	}
	return *c.ManualOverrideRate, true
}
