package pricing

import "github.com/paulgagnon1969/nexus-enterprise-sub002/internal/model"

// AggregateRates is the estimate-wide reduction of raw line amounts.
type AggregateRates struct {
	TaxRate         float64
	OPRate          float64
	TotalItemAmount float64
	TotalSalesTax   float64
	TotalRCV        float64
	LineCount       int
}

// Aggregate sums the estimate lines and derives the effective tax and O&P
// rates. RCV is modeled as item amount + sales tax + O&P, so the O&P rate is
// the residual over the taxed subtotal. A negative O&P rate is kept as is.
func Aggregate(lines []model.EstimateLine) AggregateRates {
	var r AggregateRates
	for _, line := range lines {
		r.TotalItemAmount += line.ItemAmount
		r.TotalSalesTax += line.SalesTax
		r.TotalRCV += line.RCV
	}
	r.LineCount = len(lines)

	if r.TotalItemAmount > 0 {
		r.TaxRate = r.TotalSalesTax / r.TotalItemAmount
	}

	subtotal := r.TotalItemAmount + r.TotalSalesTax
	if subtotal > 0 {
		r.OPRate = (r.TotalRCV - r.TotalItemAmount - r.TotalSalesTax) / subtotal
	}

	return r
}
