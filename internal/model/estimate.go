package model

import "time"

// Estimate is a carrier estimate imported for a project.
type Estimate struct {
	ImportedAt time.Time
	ID         string
	ProjectID  string
	Source     string
}

// EstimateLine is one raw line of an imported estimate.
// Amounts left blank by the source are stored as zero.
type EstimateLine struct {
	ID            string
	EstimateID    string
	CategoryCode  string
	SelectionCode string
	Activity      string
	Description   string
	ItemAmount    float64
	SalesTax      float64
	RCV           float64
	UnitCost      float64
	LineNo        int
}
