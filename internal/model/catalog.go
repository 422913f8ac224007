package model

import "time"

// PriceList is a company's cost book. At most one list per company is
// active; creating an active list deactivates the others.
type PriceList struct {
	CreatedAt time.Time
	ID        string
	CompanyID string
	Name      string
	IsActive  bool
}

// CatalogItem is a single priced entry in a company's cost book.
type CatalogItem struct {
	ID            string
	PriceListID   string
	CategoryCode  string
	SelectionCode string
	Activity      string
	Description   string
	UnitPrice     float64
}
