package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/common"
	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/model"
)

func TestEstimateLines_Replace(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	project := seedProject(t, store)

	estimate := &model.Estimate{ProjectID: project.ID, Source: "carrier.xlsx"}
	require.NoError(t, store.CreateEstimate(ctx, estimate))

	first := []model.EstimateLine{
		{CategoryCode: "DRY", SelectionCode: "1/2", ItemAmount: 100, SalesTax: 8, RCV: 129.6, UnitCost: 2.5},
		{CategoryCode: "PNT", SelectionCode: "S", ItemAmount: 50},
	}
	require.NoError(t, store.ReplaceEstimateLines(ctx, estimate.ID, first))

	second := []model.EstimateLine{
		{CategoryCode: "FRM", SelectionCode: "2X4", ItemAmount: 10, Activity: "REPLACE"},
	}
	require.NoError(t, store.ReplaceEstimateLines(ctx, estimate.ID, second))

	lines, err := store.GetEstimateLines(ctx, estimate.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "FRM", lines[0].CategoryCode)
	assert.Equal(t, "REPLACE", lines[0].Activity)
	assert.Equal(t, 1, lines[0].LineNo)
	assert.Equal(t, estimate.ID, lines[0].EstimateID)

	got, err := store.GetEstimate(ctx, estimate.ID)
	require.NoError(t, err)
	assert.Equal(t, project.ID, got.ProjectID)
	assert.Equal(t, "carrier.xlsx", got.Source)
}

func TestEstimate_Errors(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	err := store.CreateEstimate(ctx, &model.Estimate{ProjectID: "missing"})
	assert.ErrorIs(t, err, common.ErrNotFound)

	err = store.ReplaceEstimateLines(ctx, "missing", nil)
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = store.GetEstimate(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)

	lines, err := store.GetEstimateLines(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, lines)
}
