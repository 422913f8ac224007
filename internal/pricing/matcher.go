package pricing

import "github.com/paulgagnon1969/nexus-enterprise-sub002/internal/model"

// PriceMatch is an estimate line joined to the cost book item with the same
// category/selection key.
type PriceMatch struct {
	LineID            string
	CatalogItemID     string
	CategoryCode      string
	SelectionCode     string
	Activity          string
	CandidateUnitCost float64
	CatalogUnitPrice  float64
	PriceVariance     float64
}

type catalogKey struct {
	category  string
	selection string
}

type catalogEntry struct {
	id        string
	unitPrice float64
}

// CatalogIndex is a compact category/selection -> price lookup built from a
// cost book one page at a time, so the full catalog never has to be resident.
type CatalogIndex struct {
	entries map[catalogKey]catalogEntry
}

// NewCatalogIndex returns an empty index.
func NewCatalogIndex() *CatalogIndex {
	return &CatalogIndex{entries: make(map[catalogKey]catalogEntry)}
}

// Add indexes items. Items without a category, a selection, or a positive
// price are skipped. A later item with the same key replaces an earlier one.
func (ix *CatalogIndex) Add(items ...model.CatalogItem) {
	for _, item := range items {
		if item.CategoryCode == "" || item.SelectionCode == "" || item.UnitPrice <= 0 {
			continue
		}
		ix.entries[catalogKey{item.CategoryCode, item.SelectionCode}] = catalogEntry{
			id:        item.ID,
			unitPrice: item.UnitPrice,
		}
	}
}

// Len returns the number of distinct keys indexed.
func (ix *CatalogIndex) Len() int {
	return len(ix.entries)
}

// Match joins lines to the index by exact (category, selection). Lines missing
// a category, a selection, or a positive unit cost are skipped, as are lines
// without a cost book counterpart. Variance is line unit cost / catalog price.
func (ix *CatalogIndex) Match(lines []model.EstimateLine) []PriceMatch {
	matches := make([]PriceMatch, 0, len(lines))
	for _, line := range lines {
		if line.CategoryCode == "" || line.SelectionCode == "" || line.UnitCost <= 0 {
			continue
		}

		entry, ok := ix.entries[catalogKey{line.CategoryCode, line.SelectionCode}]
		if !ok {
			continue
		}

		matches = append(matches, PriceMatch{
			LineID:            line.ID,
			CatalogItemID:     entry.id,
			CategoryCode:      line.CategoryCode,
			SelectionCode:     line.SelectionCode,
			Activity:          line.Activity,
			CandidateUnitCost: line.UnitCost,
			CatalogUnitPrice:  entry.unitPrice,
			PriceVariance:     line.UnitCost / entry.unitPrice,
		})
	}
	return matches
}
