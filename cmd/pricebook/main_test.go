package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/common"
)

// runCLI executes a fresh command tree against dbPath and returns everything
// written to stdout and stderr.
func runCLI(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--db", dbPath, "--log-level", "error"}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeSheet(t *testing.T, path, sheet string, rows ...[]any) {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	require.NoError(t, f.SetSheetName(f.GetSheetName(0), sheet))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
}

func setupCLI(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	return filepath.Join(t.TempDir(), "pricebook.db")
}

func TestCommandFlags(t *testing.T) {
	root := newRootCmd()

	tests := []struct {
		name  string
		path  []string
		flags []string
	}{
		{name: "root", path: nil, flags: []string{"config", "log-level", "log-format", "db"}},
		{name: "company add", path: []string{"company", "add"}, flags: []string{"id", "default-op"}},
		{name: "project add", path: []string{"project", "add"}, flags: []string{"id", "company", "postal-code", "city", "state"}},
		{name: "import lines", path: []string{"import", "lines"}, flags: []string{"project", "id", "source", "learn"}},
		{name: "import catalog", path: []string{"import", "catalog"}, flags: []string{"company", "name", "inactive"}},
		{name: "extrapolate", path: []string{"extrapolate"}, flags: []string{"quantity", "xlsx"}},
		{name: "tax override", path: []string{"tax", "override"}, flags: []string{"rate", "enable", "disable"}},
		{name: "migrate", path: []string{"migrate"}, flags: []string{"status"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, _, err := root.Find(tt.path)
			require.NoError(t, err)
			for _, flag := range tt.flags {
				assert.NotNil(t, cmd.Flag(flag), "missing flag --%s", flag)
			}
		})
	}
}

func TestVersionCommand(t *testing.T) {
	dbPath := setupCLI(t)

	out, err := runCLI(t, dbPath, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "pricebook dev")
}

func TestMigrateCommand(t *testing.T) {
	dbPath := setupCLI(t)

	out, err := runCLI(t, dbPath, "migrate", "--status")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema version: 0")
	assert.Contains(t, out, "Migrations pending")

	out, err = runCLI(t, dbPath, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema version 2")

	out, err = runCLI(t, dbPath, "migrate", "--status")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema version: 2")
	assert.NotContains(t, out, "Migrations pending")
}

func TestLearnAndExtrapolateFlow(t *testing.T) {
	dbPath := setupCLI(t)
	dir := t.TempDir()

	catalogPath := filepath.Join(dir, "catalog.xlsx")
	writeSheet(t, catalogPath, "Catalog",
		[]any{"ID", "Cat", "Sel", "Activity", "Description", "Unit Price"},
		[]any{"cb-dry", "DRY", "1/2", "", "Drywall 1/2", 2.0},
		[]any{"cb-pnt", "PNT", "S", "", "Paint", 1.0},
	)

	linesPath := filepath.Join(dir, "estimate.xlsx")
	dryLine := []any{"DRY", "1/2", "", "Drywall", 100.0, 8.0, 129.6, 2.2}
	writeSheet(t, linesPath, "Lines",
		[]any{"Cat", "Sel", "Activity", "Description", "Item Amount", "Sales Tax", "RCV", "Unit Cost"},
		dryLine, dryLine, dryLine,
	)

	_, err := runCLI(t, dbPath, "company", "add", "Acme Restoration", "--id", "co-1", "--default-op", "0.15")
	require.NoError(t, err)

	_, err = runCLI(t, dbPath, "project", "add", "Smith Residence", "--id", "proj-1", "--company", "co-1",
		"--postal-code", "78701", "--city", "Austin", "--state", "TX")
	require.NoError(t, err)

	t.Run("bootstrap before learning", func(t *testing.T) {
		_, err := runCLI(t, dbPath, "import", "catalog", catalogPath, "--company", "co-1", "--name", "2026 Q1")
		require.NoError(t, err)

		out, err := runCLI(t, dbPath, "extrapolate", "proj-1", "cb-dry")
		require.NoError(t, err)
		assert.Contains(t, out, "Bootstrap mode")
		assert.Contains(t, out, "15.00%")
		assert.Contains(t, out, "$2.30")

		out, err = runCLI(t, dbPath, "factors", "proj-1")
		require.NoError(t, err)
		assert.Contains(t, out, "bootstrap mode")
	})

	t.Run("import and learn", func(t *testing.T) {
		out, err := runCLI(t, dbPath, "import", "lines", linesPath, "--project", "proj-1", "--id", "est-1", "--learn")
		require.NoError(t, err)
		assert.Contains(t, out, "Imported 3 lines as estimate est-1")
		assert.Contains(t, out, "8.00%")
		assert.Contains(t, out, "20.00%")
		assert.Contains(t, out, "Low confidence")

		out, err = runCLI(t, dbPath, "learn", "est-1")
		require.NoError(t, err)
		assert.Contains(t, out, "Regional factors learned")

		out, err = runCLI(t, dbPath, "factors", "proj-1")
		require.NoError(t, err)
		assert.Contains(t, out, "est-1")
		assert.Contains(t, out, "DRY")
		assert.Contains(t, out, "1.1000")
		assert.Contains(t, out, "Austin TX 78701")
	})

	t.Run("extrapolate with learned factors", func(t *testing.T) {
		quotePath := filepath.Join(dir, "quote.xlsx")
		out, err := runCLI(t, dbPath, "extrapolate", "proj-1", "cb-dry", "cb-pnt", "--quantity", "10", "--xlsx", quotePath)
		require.NoError(t, err)
		assert.Contains(t, out, "1.1000 (learned)")
		assert.Contains(t, out, "1.0000 (none)")
		assert.Contains(t, out, "$2.85")
		assert.Contains(t, out, "$28.51")
		assert.NotContains(t, out, "Bootstrap mode")

		_, err = os.Stat(quotePath)
		require.NoError(t, err)
	})

	t.Run("manual tax override", func(t *testing.T) {
		_, err := runCLI(t, dbPath, "tax", "override", "proj-1", "--rate", "0.09", "--enable")
		require.NoError(t, err)

		out, err := runCLI(t, dbPath, "extrapolate", "proj-1", "cb-dry")
		require.NoError(t, err)
		assert.Contains(t, out, "9.00%")
		assert.Contains(t, out, "$2.88")

		_, err = runCLI(t, dbPath, "tax", "override", "proj-1", "--disable")
		require.NoError(t, err)

		out, err = runCLI(t, dbPath, "factors", "proj-1")
		require.NoError(t, err)
		assert.Contains(t, out, "9.00% (disabled)")

		_, err = runCLI(t, dbPath, "tax", "override", "proj-1", "--enable")
		require.NoError(t, err)

		out, err = runCLI(t, dbPath, "extrapolate", "proj-1", "cb-dry")
		require.NoError(t, err)
		assert.Contains(t, out, "$2.88")
	})
}

func TestCommandErrors(t *testing.T) {
	dbPath := setupCLI(t)

	tests := []struct {
		name     string
		args     []string
		contains string
		notFound bool
	}{
		{name: "unknown estimate", args: []string{"learn", "missing"}, notFound: true},
		{name: "unknown project factors", args: []string{"factors", "missing"}, notFound: true},
		{name: "unknown project extrapolate", args: []string{"extrapolate", "missing", "cb-1"}, notFound: true},
		{name: "project for unknown company", args: []string{"project", "add", "X", "--company", "missing"}, notFound: true},
		{name: "tax override needs a mode", args: []string{"tax", "override", "proj-1"}, contains: "enable"},
		{name: "tax override enable and disable", args: []string{"tax", "override", "proj-1", "--enable", "--disable"}, contains: "enable"},
		{name: "extrapolate needs an item", args: []string{"extrapolate", "proj-1"}, contains: "requires at least 2 arg"},
		{name: "missing workbook", args: []string{"import", "lines", "nope.xlsx", "--project", "p"}, contains: "failed to open workbook"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, dbPath, tt.args...)
			require.Error(t, err)
			if tt.notFound {
				assert.ErrorIs(t, err, common.ErrNotFound)
				_, ok := common.UserMessage(err)
				assert.True(t, ok)
			}
			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}
		})
	}
}

func TestInvalidConfig(t *testing.T) {
	dbPath := setupCLI(t)
	t.Setenv("PRICEBOOK_PRICING_MIN_SAMPLE_SIZE", "0")

	_, err := runCLI(t, dbPath, "learn", "est-1")
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}
