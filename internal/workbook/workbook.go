// Package workbook reads normalized estimate lines and catalog items from
// .xlsx files and writes priced quotes back out.
package workbook

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/common"
	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/model"
	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/pricing"
)

// Sheet names.
const (
	LinesSheet         = "Lines"
	CatalogSheet       = "Catalog"
	ExtrapolationSheet = "Extrapolation"
)

// Column keys, matched case-insensitively against the header row.
const (
	colID          = "id"
	colCategory    = "cat"
	colSelection   = "sel"
	colActivity    = "activity"
	colDescription = "description"
	colItemAmount  = "item amount"
	colSalesTax    = "sales tax"
	colRCV         = "rcv"
	colUnitCost    = "unit cost"
	colUnitPrice   = "unit price"
)

var headerAliases = map[string]string{
	"category":       colCategory,
	"category code":  colCategory,
	"selection":      colSelection,
	"selection code": colSelection,
	"act":            colActivity,
	"desc":           colDescription,
	"item_amount":    colItemAmount,
	"itemamount":     colItemAmount,
	"tax":            colSalesTax,
	"sales_tax":      colSalesTax,
	"unit_cost":      colUnitCost,
	"unit_price":     colUnitPrice,
	"price":          colUnitPrice,
}

// ReadEstimateLines loads the Lines sheet. Blank amounts read as zero and
// activities are normalized to their canonical codes.
func ReadEstimateLines(r io.Reader) ([]model.EstimateLine, error) {
	rows, cols, err := readSheet(r, LinesSheet, colCategory, colSelection)
	if err != nil {
		return nil, err
	}

	lines := make([]model.EstimateLine, 0, len(rows))
	for i, row := range rows {
		rowNum := i + 2
		line := model.EstimateLine{
			LineNo:        i + 1,
			CategoryCode:  strings.TrimSpace(cols.get(row, colCategory)),
			SelectionCode: strings.TrimSpace(cols.get(row, colSelection)),
			Activity:      model.NormalizeActivity(cols.get(row, colActivity)),
			Description:   strings.TrimSpace(cols.get(row, colDescription)),
		}

		amounts := []struct {
			key  string
			dest *float64
		}{
			{colItemAmount, &line.ItemAmount},
			{colSalesTax, &line.SalesTax},
			{colRCV, &line.RCV},
			{colUnitCost, &line.UnitCost},
		}
		for _, a := range amounts {
			v, err := parseAmount(cols.get(row, a.key))
			if err != nil {
				return nil, fmt.Errorf("%w: %s row %d column %q: %v", common.ErrInvalidWorkbook, LinesSheet, rowNum, a.key, err)
			}
			*a.dest = v
		}

		lines = append(lines, line)
	}
	return lines, nil
}

// ReadCatalogItems loads the Catalog sheet. Rows without an ID column value
// get an ID assigned when they are saved.
func ReadCatalogItems(r io.Reader) ([]model.CatalogItem, error) {
	rows, cols, err := readSheet(r, CatalogSheet, colCategory, colSelection, colUnitPrice)
	if err != nil {
		return nil, err
	}

	items := make([]model.CatalogItem, 0, len(rows))
	for i, row := range rows {
		price, err := parseAmount(cols.get(row, colUnitPrice))
		if err != nil {
			return nil, fmt.Errorf("%w: %s row %d column %q: %v", common.ErrInvalidWorkbook, CatalogSheet, i+2, colUnitPrice, err)
		}
		items = append(items, model.CatalogItem{
			ID:            strings.TrimSpace(cols.get(row, colID)),
			CategoryCode:  strings.TrimSpace(cols.get(row, colCategory)),
			SelectionCode: strings.TrimSpace(cols.get(row, colSelection)),
			Activity:      model.NormalizeActivity(cols.get(row, colActivity)),
			Description:   strings.TrimSpace(cols.get(row, colDescription)),
			UnitPrice:     price,
		})
	}
	return items, nil
}

// columns maps a column key to its index in the header row.
type columns map[string]int

func (c columns) get(row []string, key string) string {
	idx, ok := c[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func readSheet(r io.Reader, sheet string, required ...string) ([][]string, columns, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", common.ErrInvalidWorkbook, err)
	}
	defer func() { _ = f.Close() }()

	idx, err := f.GetSheetIndex(sheet)
	if err != nil || idx < 0 {
		return nil, nil, fmt.Errorf("%w: missing sheet %q", common.ErrInvalidWorkbook, sheet)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read %s: %v", common.ErrInvalidWorkbook, sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%w: sheet %q has no header row", common.ErrInvalidWorkbook, sheet)
	}

	cols := make(columns)
	for i, h := range rows[0] {
		key := strings.ToLower(strings.TrimSpace(h))
		if alias, ok := headerAliases[key]; ok {
			key = alias
		}
		if _, dup := cols[key]; !dup && key != "" {
			cols[key] = i
		}
	}
	for _, key := range required {
		if _, ok := cols[key]; !ok {
			return nil, nil, fmt.Errorf("%w: sheet %q is missing column %q", common.ErrInvalidWorkbook, sheet, key)
		}
	}

	var data [][]string
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		data = append(data, row)
	}
	return data, cols, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// parseAmount accepts plain numbers and currency formatted cells such as
// "$1,234.50". Blank cells are zero.
func parseAmount(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	s = strings.NewReplacer("$", "", ",", "").Replace(s)
	if s == "" {
		return 0, nil
	}
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = "-" + strings.Trim(s, "()")
	}
	return strconv.ParseFloat(s, 64)
}

var quoteHeaders = []string{
	"Item ID", "Cat", "Sel", "Activity", "Description", "Base Price",
	"Adjustment", "Adjustment Source", "Tax Rate", "O&P Rate",
	"Final Unit Price", "Quantity", "Extended Price", "Warning",
}

// WriteQuote writes items to an Extrapolation sheet followed by a grand total
// row.
func WriteQuote(w io.Writer, items []model.ExtrapolatedItem) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), ExtrapolationSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeRow(f, 1, toAny(quoteHeaders)); err != nil {
		return err
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(quoteHeaders), 1)
	if err := f.SetCellStyle(ExtrapolationSheet, "A1", lastHeader, bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, item := range items {
		row := []any{
			item.Item.ID,
			item.Item.CategoryCode,
			item.Item.SelectionCode,
			item.Item.Activity,
			item.Item.Description,
			item.Item.UnitPrice,
			item.CategoryAdjustmentFactor,
			string(item.CategoryAdjustmentSource),
			item.TaxRate,
			item.OPRate,
			item.FinalUnitPrice,
			item.Quantity,
			item.ExtendedPrice,
			item.Warning,
		}
		if err := writeRow(f, i+2, row); err != nil {
			return err
		}
	}

	totalRow := len(items) + 2
	labelCell, _ := excelize.CoordinatesToCellName(len(quoteHeaders)-2, totalRow)
	totalCell, _ := excelize.CoordinatesToCellName(len(quoteHeaders)-1, totalRow)
	if err := f.SetCellValue(ExtrapolationSheet, labelCell, "Total"); err != nil {
		return fmt.Errorf("failed to write total label: %w", err)
	}
	if err := f.SetCellValue(ExtrapolationSheet, totalCell, pricing.TotalExtended(items)); err != nil {
		return fmt.Errorf("failed to write total: %w", err)
	}
	if err := f.SetCellStyle(ExtrapolationSheet, labelCell, totalCell, bold); err != nil {
		return fmt.Errorf("failed to style total: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, row int, values []any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("failed to address cell: %w", err)
		}
		if err := f.SetCellValue(ExtrapolationSheet, cell, v); err != nil {
			return fmt.Errorf("failed to write cell %s: %w", cell, err)
		}
	}
	return nil
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
