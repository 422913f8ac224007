package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/common"
	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/model"
	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/service"
)

// DefaultCatalogPageSize is used when a caller passes a non-positive page size.
const DefaultCatalogPageSize = 500

// maxInArgs bounds the number of placeholders in one IN (...) query.
const maxInArgs = 500

// CreatePriceList inserts a price list for an existing company. An active
// list becomes the company's only active list; older lists are deactivated
// in the same transaction.
func (s *SQLiteStorage) CreatePriceList(ctx context.Context, priceList *model.PriceList) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if priceList == nil {
		return fmt.Errorf("%w: priceList", ErrNilParameter)
	}
	if err := validateString(priceList.CompanyID, "priceList.CompanyID"); err != nil {
		return err
	}
	if err := validateString(priceList.Name, "priceList.Name"); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.requireExists(ctx, tx, "companies", priceList.CompanyID); err != nil {
		return err
	}

	if priceList.ID == "" {
		priceList.ID = uuid.New().String()
	}
	if priceList.CreatedAt.IsZero() {
		priceList.CreatedAt = time.Now()
	}

	if priceList.IsActive {
		if _, err := tx.ExecContext(ctx, `
			UPDATE price_lists SET is_active = 0 WHERE company_id = ? AND is_active = 1
		`, priceList.CompanyID); err != nil {
			return fmt.Errorf("failed to deactivate price lists: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO price_lists (id, company_id, name, is_active, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, priceList.ID, priceList.CompanyID, priceList.Name, priceList.IsActive, priceList.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create price list: %w", duplicateAsCommon(err, "price list "+priceList.ID))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit price list: %w", err)
	}
	return nil
}

// SaveCatalogItems inserts or replaces catalog items in one transaction.
// Items without an ID get a generated one.
func (s *SQLiteStorage) SaveCatalogItems(ctx context.Context, items []model.CatalogItem) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCatalogItems(items); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.saveCatalogItemsTx(ctx, tx, items); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *SQLiteStorage) saveCatalogItemsTx(ctx context.Context, tx *sql.Tx, items []model.CatalogItem) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO catalog_items (id, price_list_id, category_code, selection_code, activity, description, unit_price)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			price_list_id = excluded.price_list_id,
			category_code = excluded.category_code,
			selection_code = excluded.selection_code,
			activity = excluded.activity,
			description = excluded.description,
			unit_price = excluded.unit_price
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range items {
		item := &items[i]
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		if _, err := stmt.ExecContext(ctx,
			item.ID, item.PriceListID, item.CategoryCode, item.SelectionCode,
			item.Activity, item.Description, item.UnitPrice,
		); err != nil {
			return fmt.Errorf("failed to save catalog item %s: %w", item.ID, err)
		}
	}
	return nil
}

// GetCatalogItem loads one catalog item by ID.
func (s *SQLiteStorage) GetCatalogItem(ctx context.Context, itemID string) (*model.CatalogItem, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(itemID, "itemID"); err != nil {
		return nil, err
	}

	var item model.CatalogItem
	err := s.db.QueryRowContext(ctx, `
		SELECT `+catalogColumns+`
		FROM catalog_items
		WHERE id = ?
	`, itemID).Scan(catalogScanDest(&item)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: catalog item %s", common.ErrNotFound, itemID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog item: %w", err)
	}
	return &item, nil
}

// GetCatalogItems loads items in the order of itemIDs. Duplicate IDs yield
// duplicate items. Any unknown ID makes the whole call fail with
// common.ErrNotFound.
func (s *SQLiteStorage) GetCatalogItems(ctx context.Context, itemIDs []string) ([]model.CatalogItem, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	for i, id := range itemIDs {
		if err := validateString(id, fmt.Sprintf("itemIDs[%d]", i)); err != nil {
			return nil, err
		}
	}

	unique := make([]string, 0, len(itemIDs))
	seen := make(map[string]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	byID := make(map[string]model.CatalogItem, len(unique))
	for start := 0; start < len(unique); start += maxInArgs {
		end := min(start+maxInArgs, len(unique))
		if err := s.loadCatalogChunk(ctx, unique[start:end], byID); err != nil {
			return nil, err
		}
	}

	var missing []string
	items := make([]model.CatalogItem, 0, len(itemIDs))
	for _, id := range itemIDs {
		item, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		items = append(items, item)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: catalog items %s", common.ErrNotFound, strings.Join(missing, ", "))
	}

	return items, nil
}

func (s *SQLiteStorage) loadCatalogChunk(ctx context.Context, ids []string, into map[string]model.CatalogItem) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+catalogColumns+`
		FROM catalog_items
		WHERE id IN (`+placeholders+`)
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to query catalog items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var item model.CatalogItem
		if err := rows.Scan(catalogScanDest(&item)...); err != nil {
			return fmt.Errorf("failed to scan catalog item: %w", err)
		}
		into[item.ID] = item
	}
	return rows.Err()
}

// ForEachActiveCatalogPage streams the items of a company's active price
// lists to fn in pages ordered by item ID. Each page's rows are closed before
// fn runs, so fn may use the store.
func (s *SQLiteStorage) ForEachActiveCatalogPage(ctx context.Context, companyID string, pageSize int, fn service.CatalogPageFunc) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(companyID, "companyID"); err != nil {
		return err
	}
	if fn == nil {
		return fmt.Errorf("%w: fn", ErrNilParameter)
	}
	if pageSize <= 0 {
		pageSize = DefaultCatalogPageSize
	}

	after := ""
	for {
		page, err := s.activeCatalogPage(ctx, companyID, after, pageSize)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			return nil
		}
		if err := fn(page); err != nil {
			return err
		}
		if len(page) < pageSize {
			return nil
		}
		after = page[len(page)-1].ID
	}
}

func (s *SQLiteStorage) activeCatalogPage(ctx context.Context, companyID, after string, limit int) ([]model.CatalogItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ci.id, ci.price_list_id, ci.category_code, ci.selection_code,
		       ci.activity, ci.description, ci.unit_price
		FROM catalog_items ci
		JOIN price_lists pl ON pl.id = ci.price_list_id
		WHERE pl.company_id = ? AND pl.is_active = 1 AND ci.id > ?
		ORDER BY ci.id
		LIMIT ?
	`, companyID, after, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog page: %w", err)
	}
	defer func() { _ = rows.Close() }()

	page := make([]model.CatalogItem, 0, limit)
	for rows.Next() {
		var item model.CatalogItem
		if err := rows.Scan(catalogScanDest(&item)...); err != nil {
			return nil, fmt.Errorf("failed to scan catalog item: %w", err)
		}
		page = append(page, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate catalog page: %w", err)
	}
	return page, nil
}

const catalogColumns = `id, price_list_id, category_code, selection_code, activity, description, unit_price`

func catalogScanDest(item *model.CatalogItem) []any {
	return []any{
		&item.ID,
		&item.PriceListID,
		&item.CategoryCode,
		&item.SelectionCode,
		&item.Activity,
		&item.Description,
		&item.UnitPrice,
	}
}
