package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/common"
	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/model"
)

// CreateEstimate records an estimate for an existing project.
func (s *SQLiteStorage) CreateEstimate(ctx context.Context, estimate *model.Estimate) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if estimate == nil {
		return fmt.Errorf("%w: estimate", ErrNilParameter)
	}
	if err := validateString(estimate.ProjectID, "estimate.ProjectID"); err != nil {
		return err
	}

	if err := s.requireExists(ctx, s.db, "projects", estimate.ProjectID); err != nil {
		return err
	}

	if estimate.ID == "" {
		estimate.ID = uuid.New().String()
	}
	if estimate.ImportedAt.IsZero() {
		estimate.ImportedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO estimates (id, project_id, source, imported_at)
		VALUES (?, ?, ?, ?)
	`, estimate.ID, estimate.ProjectID, nullString(estimate.Source), estimate.ImportedAt)
	if err != nil {
		return fmt.Errorf("failed to create estimate: %w", duplicateAsCommon(err, "estimate "+estimate.ID))
	}
	return nil
}

// ReplaceEstimateLines swaps the full line set of an estimate in one
// transaction. Lines without an ID get a generated one and lines without a
// line number are numbered by position.
func (s *SQLiteStorage) ReplaceEstimateLines(ctx context.Context, estimateID string, lines []model.EstimateLine) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(estimateID, "estimateID"); err != nil {
		return err
	}
	if err := validateEstimateLines(lines); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.requireExists(ctx, tx, "estimates", estimateID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM estimate_lines WHERE estimate_id = ?`, estimateID); err != nil {
		return fmt.Errorf("failed to clear estimate lines: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO estimate_lines (
			id, estimate_id, line_no, category_code, selection_code, activity,
			description, item_amount, sales_tax, rcv, unit_cost
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range lines {
		line := &lines[i]
		if line.ID == "" {
			line.ID = uuid.New().String()
		}
		if line.LineNo == 0 {
			line.LineNo = i + 1
		}
		line.EstimateID = estimateID

		if _, err := stmt.ExecContext(ctx,
			line.ID, line.EstimateID, line.LineNo, line.CategoryCode, line.SelectionCode,
			line.Activity, line.Description, line.ItemAmount, line.SalesTax, line.RCV, line.UnitCost,
		); err != nil {
			return fmt.Errorf("failed to insert estimate line %d: %w", line.LineNo, err)
		}
	}

	return tx.Commit()
}

// GetEstimate loads an estimate header.
func (s *SQLiteStorage) GetEstimate(ctx context.Context, estimateID string) (*model.Estimate, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(estimateID, "estimateID"); err != nil {
		return nil, err
	}

	var (
		estimate model.Estimate
		source   sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, source, imported_at
		FROM estimates
		WHERE id = ?
	`, estimateID).Scan(&estimate.ID, &estimate.ProjectID, &source, &estimate.ImportedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: estimate %s", common.ErrNotFound, estimateID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get estimate: %w", err)
	}
	estimate.Source = source.String

	return &estimate, nil
}

// GetEstimateLines returns the lines of an estimate in line order.
func (s *SQLiteStorage) GetEstimateLines(ctx context.Context, estimateID string) ([]model.EstimateLine, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(estimateID, "estimateID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, estimate_id, line_no, category_code, selection_code, activity,
		       description, item_amount, sales_tax, rcv, unit_cost
		FROM estimate_lines
		WHERE estimate_id = ?
		ORDER BY line_no, id
	`, estimateID)
	if err != nil {
		return nil, fmt.Errorf("failed to query estimate lines: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var lines []model.EstimateLine
	for rows.Next() {
		var line model.EstimateLine
		if err := rows.Scan(
			&line.ID,
			&line.EstimateID,
			&line.LineNo,
			&line.CategoryCode,
			&line.SelectionCode,
			&line.Activity,
			&line.Description,
			&line.ItemAmount,
			&line.SalesTax,
			&line.RCV,
			&line.UnitCost,
		); err != nil {
			return nil, fmt.Errorf("failed to scan estimate line: %w", err)
		}
		lines = append(lines, line)
	}

	return lines, rows.Err()
}
