// Package testutil provides test utilities for the pricebook project: a
// migrated throwaway database and seeders for the records a learn or
// extrapolate cycle reads.
package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/model"
	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/service"
	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates a migrated SQLite database in a temp directory.
// It is closed automatically when the test ends.
//
// Example:
//
//	db := testutil.SetupTestDB(t)
//	project := db.SeedProject(db.SeedCompany(nil), "78701")
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "pricebook.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	// Run migrations
	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Register cleanup
	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{
		Storage: store,
		t:       t,
	}
}

// WithTransaction executes the given function within a database transaction.
// The transaction is automatically rolled back after the function completes.
func (db *TestDB) WithTransaction(fn func(tx service.Transaction) error) error {
	ctx := context.Background()
	tx, err := db.Storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	return fn(tx)
}

// SeedCompany creates a company. A nil defaultOPRate leaves it unset.
func (db *TestDB) SeedCompany(defaultOPRate *float64) *model.Company {
	db.t.Helper()

	company := &model.Company{Name: "Test Restoration Co", DefaultOPRate: defaultOPRate}
	if err := db.Storage.CreateCompany(context.Background(), company); err != nil {
		db.t.Fatalf("failed to seed company: %v", err)
	}
	return company
}

// SeedProject creates a project for company and returns it with the company loaded.
func (db *TestDB) SeedProject(company *model.Company, postalCode string) *model.Project {
	db.t.Helper()
	ctx := context.Background()

	project := &model.Project{
		CompanyID:  company.ID,
		Name:       "Test Project " + postalCode,
		PostalCode: postalCode,
		City:       "Austin",
		State:      "TX",
	}
	if err := db.Storage.CreateProject(ctx, project); err != nil {
		db.t.Fatalf("failed to seed project: %v", err)
	}

	loaded, err := db.Storage.GetProject(ctx, project.ID)
	if err != nil {
		db.t.Fatalf("failed to reload project: %v", err)
	}
	return loaded
}

// SeedCatalog creates an active price list for company holding items.
// PriceListID is filled in on the returned items.
func (db *TestDB) SeedCatalog(company *model.Company, items ...model.CatalogItem) []model.CatalogItem {
	db.t.Helper()
	ctx := context.Background()

	priceList := &model.PriceList{CompanyID: company.ID, Name: "Cost Book", IsActive: true}
	if err := db.Storage.CreatePriceList(ctx, priceList); err != nil {
		db.t.Fatalf("failed to seed price list: %v", err)
	}

	seeded := make([]model.CatalogItem, len(items))
	copy(seeded, items)
	for i := range seeded {
		seeded[i].PriceListID = priceList.ID
	}
	if err := db.Storage.SaveCatalogItems(ctx, seeded); err != nil {
		db.t.Fatalf("failed to seed catalog items: %v", err)
	}
	return seeded
}

// SeedEstimate imports lines as a new estimate of project.
func (db *TestDB) SeedEstimate(project *model.Project, lines ...model.EstimateLine) *model.Estimate {
	db.t.Helper()
	ctx := context.Background()

	estimate := &model.Estimate{ProjectID: project.ID, Source: "test"}
	if err := db.Storage.CreateEstimate(ctx, estimate); err != nil {
		db.t.Fatalf("failed to seed estimate: %v", err)
	}
	if err := db.Storage.ReplaceEstimateLines(ctx, estimate.ID, lines); err != nil {
		db.t.Fatalf("failed to seed estimate lines: %v", err)
	}
	return estimate
}
