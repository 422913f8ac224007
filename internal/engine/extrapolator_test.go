package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/common"
	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/model"
	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/pricing"
	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/service"
	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/testutil"
)

func learnedMarket(t *testing.T) (*testutil.TestDB, *model.Project) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	project, estimate := seedMarket(t, db, nil)
	_, err := NewLearner(db.Storage).Learn(context.Background(), estimate.ID)
	require.NoError(t, err)
	return db, project
}

func TestExtrapolator_LearnedProject(t *testing.T) {
	db, project := learnedMarket(t)
	ctx := context.Background()
	ex := NewExtrapolator(db.Storage)

	dry, err := ex.Extrapolate(ctx, "cb-dry", project.ID, 1)
	require.NoError(t, err)
	assert.InDelta(t, 1.1, dry.CategoryAdjustmentFactor, 1e-9)
	assert.Equal(t, model.AdjustmentLearned, dry.CategoryAdjustmentSource)
	assert.InDelta(t, 2.2, dry.AdjustedUnitPrice, 1e-9)
	assert.InDelta(t, 0.08, dry.TaxRate, 1e-9)
	assert.Equal(t, model.RateLearnedFromEstimate, dry.TaxSource)
	assert.InDelta(t, 0.20, dry.OPRate, 1e-9)
	assert.Equal(t, model.RateLearnedFromEstimate, dry.OPSource)
	assert.InDelta(t, 2.2*1.08*1.2, dry.FinalUnitPrice, 1e-9)
	assert.InDelta(t, 9.0/59.0, dry.Confidence, 1e-12)
	assert.True(t, strings.HasPrefix(dry.Warning, "Low confidence (15%)"))

	pnt, err := ex.Extrapolate(ctx, "cb-pnt", project.ID, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.9, pnt.CategoryAdjustmentFactor, 1e-9)
	assert.Equal(t, model.AdjustmentLearned, pnt.CategoryAdjustmentSource)

	// Only an activity-specific row exists for paint, so other activities get none.
	other, err := ex.Extrapolate(ctx, "cb-pnt-e", project.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, other.CategoryAdjustmentFactor)
	assert.Equal(t, model.AdjustmentNone, other.CategoryAdjustmentSource)

	frm, err := ex.Extrapolate(ctx, "cb-frm", project.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, model.AdjustmentNone, frm.CategoryAdjustmentSource)
	assert.Equal(t, 4.0, frm.Quantity)
	assert.InDelta(t, 5*1.08*1.2*4, frm.ExtendedPrice, 0.005)
}

func TestExtrapolator_Bootstrap(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	company := db.SeedCompany(nil)
	project := db.SeedProject(company, "60601")
	db.SeedCatalog(company, testutil.Item("cb-1", "DRY", "1/2", 50))

	got, err := NewExtrapolator(db.Storage).Extrapolate(ctx, "cb-1", project.ID, 1)
	require.NoError(t, err)

	assert.Equal(t, model.AdjustmentNone, got.CategoryAdjustmentSource)
	assert.Equal(t, 0.0, got.TaxRate)
	assert.Equal(t, model.RateCompanyDefault, got.TaxSource)
	assert.Equal(t, 0.20, got.OPRate)
	assert.Equal(t, model.RateCompanyDefault, got.OPSource)
	assert.Equal(t, 0.0, got.Confidence)
	assert.Equal(t, pricing.BootstrapWarning, got.Warning)
	assert.InDelta(t, 60.0, got.FinalUnitPrice, 1e-9)
}

func TestExtrapolator_BootstrapCompanyDefaultAndManualTax(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	company := db.SeedCompany(testutil.Float(0.15))
	project := db.SeedProject(company, "60601")
	db.SeedCatalog(company, testutil.Item("cb-1", "DRY", "1/2", 100))
	require.NoError(t, db.Storage.SetManualTaxOverride(ctx, project.ID, testutil.Float(0.1), true))

	got, err := NewExtrapolator(db.Storage).Extrapolate(ctx, "cb-1", project.ID, 1)
	require.NoError(t, err)

	assert.Equal(t, 0.1, got.TaxRate)
	assert.Equal(t, model.RateLearned, got.TaxSource)
	assert.Equal(t, 0.15, got.OPRate)
	assert.InDelta(t, 126.5, got.FinalUnitPrice, 1e-9)
	assert.Equal(t, pricing.BootstrapWarning, got.Warning)
}

func TestExtrapolator_ManyMatchesSingle(t *testing.T) {
	db, project := learnedMarket(t)
	ctx := context.Background()
	ex := NewExtrapolator(db.Storage)

	ids := []string{"cb-frm", "cb-dry", "cb-pnt", "cb-dry"}
	batch, err := ex.ExtrapolateMany(ctx, ids, project.ID)
	require.NoError(t, err)
	require.Len(t, batch, len(ids))

	for i, id := range ids {
		assert.Equal(t, id, batch[i].Item.ID)
		single, err := ex.Extrapolate(ctx, id, project.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, *single, batch[i])
	}
}

func TestExtrapolator_ManyQuantity(t *testing.T) {
	db, project := learnedMarket(t)

	batch, err := NewExtrapolator(db.Storage).ExtrapolateManyQuantity(context.Background(), []string{"cb-dry", "cb-frm"}, project.ID, 10)
	require.NoError(t, err)
	for _, item := range batch {
		assert.Equal(t, 10.0, item.Quantity)
		assert.InDelta(t, item.FinalUnitPrice*10, item.ExtendedPrice, 0.005)
	}
}

func TestExtrapolator_NotFound(t *testing.T) {
	db, project := learnedMarket(t)
	ctx := context.Background()
	ex := NewExtrapolator(db.Storage)

	_, err := ex.Extrapolate(ctx, "ghost", project.ID, 1)
	assert.True(t, errors.Is(err, common.ErrNotFound))

	_, err = ex.Extrapolate(ctx, "cb-dry", "no-such-project", 1)
	assert.True(t, errors.Is(err, common.ErrNotFound))

	_, err = ex.ExtrapolateMany(ctx, []string{"cb-dry", "ghost"}, project.ID)
	assert.True(t, errors.Is(err, common.ErrNotFound))

	_, err = ex.ExtrapolateMany(ctx, nil, "no-such-project")
	assert.True(t, errors.Is(err, common.ErrNotFound))

	items, err := ex.ExtrapolateMany(ctx, nil, project.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestExtrapolator_ReadFailure(t *testing.T) {
	boom := errors.New("locked")
	store := newFakeStore()
	store.projects["p1"] = &model.Project{ID: "p1"}
	store.catalog = []model.CatalogItem{{ID: "i1", UnitPrice: 1}}
	store.factorsErr = boom

	_, err := NewExtrapolator(store).ExtrapolateMany(context.Background(), []string{"i1"}, "p1")
	assert.ErrorIs(t, err, boom)
}

func TestExtrapolator_CustomConfig(t *testing.T) {
	store := newFakeStore()
	store.projects["p1"] = &model.Project{ID: "p1"}
	store.catalog = []model.CatalogItem{{ID: "i1", CategoryCode: "DRY", UnitPrice: 10}}
	store.factors["p1"] = &model.RegionalFactors{
		ProjectID:  "p1",
		Confidence: 0.6,
		CategoryAdjustments: []model.CategoryAdjustment{
			{CategoryCode: "DRY", MedianVariance: 1.5, AvgVariance: 1.5, SampleSize: 2},
		},
	}

	cfg := DefaultConfig()
	cfg.Pricing.MinSampleSize = 2
	cfg.Pricing.LowConfidenceThreshold = 0.7

	got, err := NewExtrapolatorWithConfig(store, cfg).Extrapolate(context.Background(), "i1", "p1", 1)
	require.NoError(t, err)
	assert.Equal(t, 1.5, got.CategoryAdjustmentFactor)
	assert.Contains(t, got.Warning, "Low confidence (60%)")

	got, err = NewExtrapolator(store).Extrapolate(context.Background(), "i1", "p1", 1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.CategoryAdjustmentFactor)
	assert.Empty(t, got.Warning)
}

func TestExtrapolator_IgnoresUncommittedFactors(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	company := db.SeedCompany(nil)
	project := db.SeedProject(company, "73301")
	db.SeedCatalog(company, testutil.Item("cb-1", "DRY", "1/2", 10))
	estimate := db.SeedEstimate(project, testutil.Line("DRY", "1/2", "", 100, 0.08, 0.20, 12))

	err := db.WithTransaction(func(tx service.Transaction) error {
		factors := &model.RegionalFactors{
			ProjectID:        project.ID,
			SourceEstimateID: estimate.ID,
			AggregateTaxRate: 0.08,
			AggregateOPRate:  0.20,
			TotalLineItems:   1,
			TotalItemAmount:  100,
			Confidence:       0.5,
		}
		if err := tx.UpsertRegionalFactors(ctx, factors); err != nil {
			return err
		}
		adjustments := []model.CategoryAdjustment{
			{CategoryCode: "DRY", AvgVariance: 1.2, MedianVariance: 1.2, SampleSize: 1},
		}
		if err := tx.ReplaceCategoryAdjustments(ctx, factors.ID, adjustments); err != nil {
			return err
		}
		return tx.UpsertLearnedTaxRate(ctx, project, factors)
	})
	require.NoError(t, err)

	got, err := NewExtrapolator(db.Storage).Extrapolate(ctx, "cb-1", project.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, model.AdjustmentNone, got.CategoryAdjustmentSource)
	assert.Equal(t, model.RateCompanyDefault, got.TaxSource)
	assert.Equal(t, pricing.BootstrapWarning, got.Warning)
}
