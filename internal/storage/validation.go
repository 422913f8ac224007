// Package storage provides the data persistence layer for the pricebook application.
package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/model"
)

// Validation errors.
var (
	ErrNilContext          = errors.New("context cannot be nil")
	ErrEmptyString         = errors.New("string parameter cannot be empty")
	ErrNilParameter        = errors.New("parameter cannot be nil")
	ErrInvalidCatalogItem  = errors.New("invalid catalog item")
	ErrInvalidEstimateLine = errors.New("invalid estimate line")
	ErrInvalidFactors      = errors.New("invalid regional factors")
	ErrInvalidAdjustment   = errors.New("invalid category adjustment")
	ErrInvalidTaxOverride  = errors.New("invalid tax override")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateProjectRef(project *model.Project) error {
	if project == nil {
		return fmt.Errorf("%w: project", ErrNilParameter)
	}
	if err := validateString(project.ID, "project.ID"); err != nil {
		return err
	}
	return validateString(project.CompanyID, "project.CompanyID")
}

func validateCatalogItems(items []model.CatalogItem) error {
	for i, item := range items {
		if strings.TrimSpace(item.PriceListID) == "" {
			return fmt.Errorf("%w: item at index %d: missing price list", ErrInvalidCatalogItem, i)
		}
		if math.IsNaN(item.UnitPrice) || math.IsInf(item.UnitPrice, 0) {
			return fmt.Errorf("%w: item at index %d: unit price is not finite", ErrInvalidCatalogItem, i)
		}
	}
	return nil
}

func validateEstimateLines(lines []model.EstimateLine) error {
	for i, line := range lines {
		for _, v := range []float64{line.ItemAmount, line.SalesTax, line.RCV, line.UnitCost} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: line at index %d: amount is not finite", ErrInvalidEstimateLine, i)
			}
		}
		if line.LineNo < 0 {
			return fmt.Errorf("%w: line at index %d: negative line number", ErrInvalidEstimateLine, i)
		}
	}
	return nil
}

// validateFactors checks the snapshot invariants before it is persisted.
func validateFactors(factors *model.RegionalFactors) error {
	if factors == nil {
		return fmt.Errorf("%w: factors", ErrNilParameter)
	}
	if strings.TrimSpace(factors.ProjectID) == "" {
		return fmt.Errorf("%w: missing project ID", ErrInvalidFactors)
	}
	if factors.Confidence < 0 || factors.Confidence >= 1 {
		return fmt.Errorf("%w: confidence %v outside [0, 1)", ErrInvalidFactors, factors.Confidence)
	}
	if factors.TotalLineItems < 0 {
		return fmt.Errorf("%w: negative line count", ErrInvalidFactors)
	}
	return nil
}

func validateAdjustments(adjustments []model.CategoryAdjustment) error {
	for i, adj := range adjustments {
		if strings.TrimSpace(adj.CategoryCode) == "" {
			return fmt.Errorf("%w: adjustment at index %d: missing category", ErrInvalidAdjustment, i)
		}
		if adj.SampleSize < 1 {
			return fmt.Errorf("%w: adjustment at index %d: sample size %d", ErrInvalidAdjustment, i, adj.SampleSize)
		}
		if adj.MedianVariance <= 0 || adj.AvgVariance <= 0 {
			return fmt.Errorf("%w: adjustment at index %d: non-positive variance", ErrInvalidAdjustment, i)
		}
	}
	return nil
}

func validateTaxOverride(rate *float64) error {
	if rate != nil && (*rate < 0 || math.IsNaN(*rate) || math.IsInf(*rate, 0)) {
		return fmt.Errorf("%w: rate must be a non-negative number", ErrInvalidTaxOverride)
	}
	return nil
}
