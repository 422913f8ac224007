package testutil

import (
	"fmt"

	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/model"
)

// Line builds an estimate line whose RCV carries the given tax and O&P rates
// on top of itemAmount.
func Line(category, selection, activity string, itemAmount, taxRate, opRate, unitCost float64) model.EstimateLine {
	tax := itemAmount * taxRate
	return model.EstimateLine{
		CategoryCode:  category,
		SelectionCode: selection,
		Activity:      activity,
		ItemAmount:    itemAmount,
		SalesTax:      tax,
		RCV:           (itemAmount + tax) * (1 + opRate),
		UnitCost:      unitCost,
	}
}

// Item builds a catalog item.
func Item(id, category, selection string, unitPrice float64) model.CatalogItem {
	return model.CatalogItem{
		ID:            id,
		CategoryCode:  category,
		SelectionCode: selection,
		Description:   fmt.Sprintf("%s %s", category, selection),
		UnitPrice:     unitPrice,
	}
}

// RepeatLine returns n copies of line.
func RepeatLine(line model.EstimateLine, n int) []model.EstimateLine {
	lines := make([]model.EstimateLine, n)
	for i := range lines {
		lines[i] = line
	}
	return lines
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
