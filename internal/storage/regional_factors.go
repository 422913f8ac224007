package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/model"
	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/service"
)

// ReplaceRegionalFactors persists a learn cycle atomically: the project's
// snapshot is upserted, its category adjustments are replaced wholesale and
// the learned tax rate is mirrored into the project's tax config. On any
// failure nothing is written. IDs and timestamps are filled in on factors.
func (s *SQLiteStorage) ReplaceRegionalFactors(ctx context.Context, project *model.Project, factors *model.RegionalFactors) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateProjectRef(project); err != nil {
		return err
	}
	if err := validateFactors(factors); err != nil {
		return err
	}
	if err := validateAdjustments(factors.CategoryAdjustments); err != nil {
		return err
	}
	if factors.ProjectID != project.ID {
		return fmt.Errorf("%w: factors belong to project %s, not %s", ErrInvalidFactors, factors.ProjectID, project.ID)
	}

	tx, err := s.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := writeLearnCycle(ctx, tx, project, factors); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit regional factors: %w", err)
	}
	return nil
}

// writeLearnCycle applies the writes of one learn cycle through w.
func writeLearnCycle(ctx context.Context, w service.FactorWriter, project *model.Project, factors *model.RegionalFactors) error {
	if err := w.UpsertRegionalFactors(ctx, factors); err != nil {
		return err
	}
	if err := w.ReplaceCategoryAdjustments(ctx, factors.ID, factors.CategoryAdjustments); err != nil {
		return err
	}
	return w.UpsertLearnedTaxRate(ctx, project, factors)
}

func (s *SQLiteStorage) upsertRegionalFactorsTx(ctx context.Context, q queryable, factors *model.RegionalFactors) error {
	now := time.Now()
	id := factors.ID
	if id == "" {
		id = uuid.New().String()
	}

	err := q.QueryRowContext(ctx, `
		INSERT INTO project_regional_factors (
			id, project_id, source_estimate_id, aggregate_tax_rate, aggregate_op_rate,
			total_line_items, total_item_amount, confidence, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id) DO UPDATE SET
			source_estimate_id = excluded.source_estimate_id,
			aggregate_tax_rate = excluded.aggregate_tax_rate,
			aggregate_op_rate = excluded.aggregate_op_rate,
			total_line_items = excluded.total_line_items,
			total_item_amount = excluded.total_item_amount,
			confidence = excluded.confidence,
			updated_at = excluded.updated_at
		RETURNING id
	`, id, factors.ProjectID, factors.SourceEstimateID, factors.AggregateTaxRate, factors.AggregateOPRate,
		factors.TotalLineItems, factors.TotalItemAmount, factors.Confidence, now, now,
	).Scan(&factors.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert regional factors: %w", err)
	}

	if err := q.QueryRowContext(ctx, `
		SELECT created_at FROM project_regional_factors WHERE id = ?
	`, factors.ID).Scan(&factors.CreatedAt); err != nil {
		return fmt.Errorf("failed to read regional factors timestamp: %w", err)
	}
	factors.UpdatedAt = now

	return nil
}

func (s *SQLiteStorage) replaceCategoryAdjustmentsTx(ctx context.Context, q queryable, factorsID string, adjustments []model.CategoryAdjustment) error {
	if _, err := q.ExecContext(ctx, `
		DELETE FROM regional_category_adjustments WHERE regional_factors_id = ?
	`, factorsID); err != nil {
		return fmt.Errorf("failed to clear category adjustments: %w", err)
	}

	for i := range adjustments {
		adj := &adjustments[i]
		adj.ID = uuid.New().String()

		var activity sql.NullString
		if adj.Activity != nil {
			activity = sql.NullString{String: *adj.Activity, Valid: true}
		}

		if _, err := q.ExecContext(ctx, `
			INSERT INTO regional_category_adjustments (
				id, regional_factors_id, category_code, activity,
				avg_variance, median_variance, sample_size
			) VALUES (?, ?, ?, ?, ?, ?, ?)
		`, adj.ID, factorsID, adj.CategoryCode, activity,
			adj.AvgVariance, adj.MedianVariance, adj.SampleSize,
		); err != nil {
			return fmt.Errorf("failed to insert category adjustment %s: %w", adj.CategoryCode, err)
		}
	}
	return nil
}

// upsertLearnedTaxRateTx mirrors the learned rate into the tax config. Location
// fields are copied from the project only when the row is first created and
// manual override fields are never touched.
func (s *SQLiteStorage) upsertLearnedTaxRateTx(ctx context.Context, q queryable, project *model.Project, factors *model.RegionalFactors) error {
	now := time.Now()
	_, err := q.ExecContext(ctx, `
		INSERT INTO project_tax_configs (
			project_id, company_id, tax_zip_code, tax_city, tax_state,
			learned_tax_rate, learned_from_estimate_id, source, confidence, last_updated
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id) DO UPDATE SET
			learned_tax_rate = excluded.learned_tax_rate,
			learned_from_estimate_id = excluded.learned_from_estimate_id,
			confidence = excluded.confidence,
			last_updated = excluded.last_updated
	`, project.ID, project.CompanyID,
		nullString(project.PostalCode), nullString(project.City), nullString(project.State),
		factors.AggregateTaxRate, nullString(factors.SourceEstimateID),
		string(model.RateLearnedFromEstimate), factors.Confidence, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert tax config: %w", err)
	}
	return nil
}

// GetRegionalFactors returns the project's snapshot with its adjustments, or
// nil when the project has never learned.
func (s *SQLiteStorage) GetRegionalFactors(ctx context.Context, projectID string) (*model.RegionalFactors, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(projectID, "projectID"); err != nil {
		return nil, err
	}

	var factors model.RegionalFactors
	err := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, source_estimate_id, aggregate_tax_rate, aggregate_op_rate,
		       total_line_items, total_item_amount, confidence, created_at, updated_at
		FROM project_regional_factors
		WHERE project_id = ?
	`, projectID).Scan(
		&factors.ID,
		&factors.ProjectID,
		&factors.SourceEstimateID,
		&factors.AggregateTaxRate,
		&factors.AggregateOPRate,
		&factors.TotalLineItems,
		&factors.TotalItemAmount,
		&factors.Confidence,
		&factors.CreatedAt,
		&factors.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get regional factors: %w", err)
	}

	adjustments, err := s.getCategoryAdjustments(ctx, factors.ID)
	if err != nil {
		return nil, err
	}
	factors.CategoryAdjustments = adjustments

	return &factors, nil
}

func (s *SQLiteStorage) getCategoryAdjustments(ctx context.Context, factorsID string) ([]model.CategoryAdjustment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category_code, activity, avg_variance, median_variance, sample_size
		FROM regional_category_adjustments
		WHERE regional_factors_id = ?
		ORDER BY category_code, activity IS NOT NULL, activity
	`, factorsID)
	if err != nil {
		return nil, fmt.Errorf("failed to query category adjustments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var adjustments []model.CategoryAdjustment
	for rows.Next() {
		var (
			adj      model.CategoryAdjustment
			activity sql.NullString
		)
		if err := rows.Scan(
			&adj.ID,
			&adj.CategoryCode,
			&activity,
			&adj.AvgVariance,
			&adj.MedianVariance,
			&adj.SampleSize,
		); err != nil {
			return nil, fmt.Errorf("failed to scan category adjustment: %w", err)
		}
		if activity.Valid {
			a := activity.String
			adj.Activity = &a
		}
		adjustments = append(adjustments, adj)
	}

	return adjustments, rows.Err()
}

// CountCategoryAdjustments returns how many adjustment rows the project's
// current snapshot has.
func (s *SQLiteStorage) CountCategoryAdjustments(ctx context.Context, projectID string) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(projectID, "projectID"); err != nil {
		return 0, err
	}

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM regional_category_adjustments a
		JOIN project_regional_factors f ON f.id = a.regional_factors_id
		WHERE f.project_id = ?
	`, projectID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count category adjustments: %w", err)
	}
	return count, nil
}

// GetTaxConfig returns the project's tax config, or nil when none exists.
func (s *SQLiteStorage) GetTaxConfig(ctx context.Context, projectID string) (*model.TaxConfig, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(projectID, "projectID"); err != nil {
		return nil, err
	}

	var (
		cfg                                   model.TaxConfig
		zip, city, state, learnedFrom, source sql.NullString
		learnedRate, manualRate               sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT project_id, company_id, tax_zip_code, tax_city, tax_state,
		       learned_tax_rate, learned_from_estimate_id, manual_override_rate,
		       use_manual_override, source, confidence, last_updated
		FROM project_tax_configs
		WHERE project_id = ?
	`, projectID).Scan(
		&cfg.ProjectID,
		&cfg.CompanyID,
		&zip,
		&city,
		&state,
		&learnedRate,
		&learnedFrom,
		&manualRate,
		&cfg.UseManualOverride,
		&source,
		&cfg.Confidence,
		&cfg.LastUpdated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tax config: %w", err)
	}

	cfg.TaxZipCode = zip.String
	cfg.TaxCity = city.String
	cfg.TaxState = state.String
	cfg.LearnedTaxRate = floatPtr(learnedRate)
	cfg.LearnedFromEstimateID = learnedFrom.String
	cfg.ManualOverrideRate = floatPtr(manualRate)
	cfg.Source = model.RateSource(source.String)

	return &cfg, nil
}

// SetManualTaxOverride sets the project's manual tax rate and whether it is
// used. A nil rate keeps the stored one, so an override can be disabled
// without forgetting it and enabled again later. Enabling with a nil rate
// fails when no rate is stored. The learned rate is left untouched.
func (s *SQLiteStorage) SetManualTaxOverride(ctx context.Context, projectID string, rate *float64, enabled bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(projectID, "projectID"); err != nil {
		return err
	}
	if err := validateTaxOverride(rate); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	project, err := s.getProjectTx(ctx, tx, projectID)
	if err != nil {
		return err
	}

	if enabled && rate == nil {
		var stored sql.NullFloat64
		err := tx.QueryRowContext(ctx, `
			SELECT manual_override_rate FROM project_tax_configs WHERE project_id = ?
		`, project.ID).Scan(&stored)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to read manual tax rate: %w", err)
		}
		if !stored.Valid {
			return fmt.Errorf("%w: enabling an override requires a rate", ErrInvalidTaxOverride)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO project_tax_configs (
			project_id, company_id, tax_zip_code, tax_city, tax_state,
			manual_override_rate, use_manual_override, source, last_updated
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id) DO UPDATE SET
			manual_override_rate = COALESCE(excluded.manual_override_rate, manual_override_rate),
			use_manual_override = excluded.use_manual_override,
			last_updated = excluded.last_updated
	`, project.ID, project.CompanyID,
		nullString(project.PostalCode), nullString(project.City), nullString(project.State),
		nullFloat(rate), enabled, string(model.RateManual), time.Now(),
	); err != nil {
		return fmt.Errorf("failed to set manual tax override: %w", err)
	}

	return tx.Commit()
}
