package model

import "time"

// Company is a tenant owning projects and a cost book.
type Company struct {
	CreatedAt     time.Time
	DefaultOPRate *float64 // nil when the company never configured one
	ID            string
	Name          string
}

// Project is a job site. Company is populated when loaded from storage.
type Project struct {
	CreatedAt  time.Time
	Company    Company
	ID         string
	CompanyID  string
	Name       string
	PostalCode string
	City       string
	State      string
}
