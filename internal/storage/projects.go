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

// CreateCompany inserts a company. An empty ID is generated.
func (s *SQLiteStorage) CreateCompany(ctx context.Context, company *model.Company) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if company == nil {
		return fmt.Errorf("%w: company", ErrNilParameter)
	}
	if err := validateString(company.Name, "company.Name"); err != nil {
		return err
	}

	if company.ID == "" {
		company.ID = uuid.New().String()
	}
	if company.CreatedAt.IsZero() {
		company.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO companies (id, name, default_op_rate, created_at)
		VALUES (?, ?, ?, ?)
	`, company.ID, company.Name, nullFloat(company.DefaultOPRate), company.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create company: %w", duplicateAsCommon(err, "company "+company.ID))
	}
	return nil
}

// CreateProject inserts a project for an existing company.
func (s *SQLiteStorage) CreateProject(ctx context.Context, project *model.Project) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if project == nil {
		return fmt.Errorf("%w: project", ErrNilParameter)
	}
	if err := validateString(project.CompanyID, "project.CompanyID"); err != nil {
		return err
	}
	if err := validateString(project.Name, "project.Name"); err != nil {
		return err
	}

	if err := s.requireExists(ctx, s.db, "companies", project.CompanyID); err != nil {
		return err
	}

	if project.ID == "" {
		project.ID = uuid.New().String()
	}
	if project.CreatedAt.IsZero() {
		project.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, company_id, name, postal_code, city, state, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, project.ID, project.CompanyID, project.Name,
		nullString(project.PostalCode), nullString(project.City), nullString(project.State),
		project.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", duplicateAsCommon(err, "project "+project.ID))
	}
	return nil
}

// GetProject loads a project together with its company.
func (s *SQLiteStorage) GetProject(ctx context.Context, projectID string) (*model.Project, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(projectID, "projectID"); err != nil {
		return nil, err
	}
	return s.getProjectTx(ctx, s.db, projectID)
}

func (s *SQLiteStorage) getProjectTx(ctx context.Context, q queryable, projectID string) (*model.Project, error) {
	var (
		project                 model.Project
		postalCode, city, state sql.NullString
		defaultOPRate           sql.NullFloat64
	)

	err := q.QueryRowContext(ctx, `
		SELECT p.id, p.company_id, p.name, p.postal_code, p.city, p.state, p.created_at,
		       c.id, c.name, c.default_op_rate, c.created_at
		FROM projects p
		JOIN companies c ON c.id = p.company_id
		WHERE p.id = ?
	`, projectID).Scan(
		&project.ID,
		&project.CompanyID,
		&project.Name,
		&postalCode,
		&city,
		&state,
		&project.CreatedAt,
		&project.Company.ID,
		&project.Company.Name,
		&defaultOPRate,
		&project.Company.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: project %s", common.ErrNotFound, projectID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	project.PostalCode = postalCode.String
	project.City = city.String
	project.State = state.String
	project.Company.DefaultOPRate = floatPtr(defaultOPRate)

	return &project, nil
}

// requireExists returns a wrapped common.ErrNotFound when table has no row
// with the given id. table is always a package constant.
func (s *SQLiteStorage) requireExists(ctx context.Context, q queryable, table, id string) error {
	var exists bool
	err := q.QueryRowContext(ctx,
		fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE id = ?)", table), id,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check %s existence: %w", table, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s %s", common.ErrNotFound, table, id)
	}
	return nil
}
