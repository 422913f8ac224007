package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/model"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

// seedProject creates a company and a project in Austin.
func seedProject(t *testing.T, store *SQLiteStorage) *model.Project {
	t.Helper()
	ctx := context.Background()

	company := &model.Company{Name: "Acme Restoration"}
	require.NoError(t, store.CreateCompany(ctx, company))

	project := &model.Project{
		CompanyID:  company.ID,
		Name:       "Smith Residence",
		PostalCode: "78701",
		City:       "Austin",
		State:      "TX",
	}
	require.NoError(t, store.CreateProject(ctx, project))

	loaded, err := store.GetProject(ctx, project.ID)
	require.NoError(t, err)
	return loaded
}

func TestNewSQLiteStorage_RejectsEmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage("  ")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestNewSQLiteStorage_CreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "pricebook.db")

	store, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	assert.Equal(t, dbPath, store.Path())
}

func TestMigrate_Idempotent(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Migrate(ctx))

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)

	for _, table := range []string{
		"companies", "projects", "price_lists", "catalog_items", "estimates",
		"estimate_lines", "project_regional_factors", "regional_category_adjustments",
		"project_tax_configs",
	} {
		var count int
		err := store.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "table %s missing", table)
	}
}

func TestBeginTx_RollbackDiscardsWrites(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	project := seedProject(t, store)

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)

	factors := &model.RegionalFactors{
		ProjectID:        project.ID,
		SourceEstimateID: "est-1",
		AggregateTaxRate: 0.08,
		AggregateOPRate:  0.2,
		TotalLineItems:   10,
		Confidence:       testConfidence,
	}
	require.NoError(t, tx.UpsertRegionalFactors(ctx, factors))
	require.NotEmpty(t, factors.ID)
	require.NoError(t, tx.ReplaceCategoryAdjustments(ctx, factors.ID, []model.CategoryAdjustment{
		{CategoryCode: "DRY", AvgVariance: 1.1, MedianVariance: 1.1, SampleSize: 3},
	}))
	require.NoError(t, tx.UpsertLearnedTaxRate(ctx, project, factors))
	require.NoError(t, tx.Rollback())

	got, err := store.GetRegionalFactors(ctx, project.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	taxConfig, err := store.GetTaxConfig(ctx, project.ID)
	require.NoError(t, err)
	assert.Nil(t, taxConfig)

	count, err := store.CountCategoryAdjustments(ctx, project.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestBeginTx_CommitPersistsWrites(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	project := seedProject(t, store)

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)

	factors := &model.RegionalFactors{ProjectID: project.ID, SourceEstimateID: "est-1", Confidence: testConfidence}
	require.NoError(t, tx.UpsertRegionalFactors(ctx, factors))
	require.NoError(t, tx.Commit())

	got, err := store.GetRegionalFactors(ctx, project.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, factors.ID, got.ID)
}

func TestTransaction_ValidatesInput(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	assert.ErrorIs(t, tx.UpsertRegionalFactors(ctx, nil), ErrNilParameter)
	assert.ErrorIs(t, tx.ReplaceCategoryAdjustments(ctx, "", nil), ErrEmptyString)
	assert.ErrorIs(t, tx.UpsertLearnedTaxRate(ctx, nil, &model.RegionalFactors{ProjectID: "p"}), ErrNilParameter)
}

// testConfidence is the confidence of a ten-line estimate.
const testConfidence = 10.0 / 60.0
