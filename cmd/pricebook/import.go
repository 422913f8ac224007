package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/cli"
	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/common"
	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/model"
	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/service"
	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/workbook"
)

// catalogBatchSize is the number of catalog items saved per transaction.
const catalogBatchSize = 200

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import estimate lines or cost book items from a workbook",
	}
	cmd.AddCommand(importLinesCmd())
	cmd.AddCommand(importCatalogCmd())
	return cmd
}

func importLinesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lines <file.xlsx>",
		Short: "Import normalized estimate lines for a project",
		Long: `Import the "Lines" sheet of a workbook as a new estimate for a project.

Columns are matched by header name: Cat, Sel, Activity, Description,
Item Amount, Sales Tax, RCV and Unit Cost. Pass --learn to run a learn
cycle on the new estimate right away.`,
		Args: cobra.ExactArgs(1),
		RunE: runImportLines,
	}

	cmd.Flags().String("project", "", "Project the estimate belongs to")
	cmd.Flags().String("id", "", "Estimate ID (generated when empty)")
	cmd.Flags().String("source", "", "Free-form source label (default: the file name)")
	cmd.Flags().Bool("learn", false, "Learn regional factors from the estimate after importing")
	_ = cmd.MarkFlagRequired("project")

	return cmd
}

func runImportLines(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path := args[0]

	lines, err := readWorkbook(path, workbook.ReadEstimateLines)
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	estimate := &model.Estimate{}
	estimate.ID, _ = cmd.Flags().GetString("id")
	estimate.ProjectID, _ = cmd.Flags().GetString("project")
	estimate.Source, _ = cmd.Flags().GetString("source")
	if estimate.Source == "" {
		estimate.Source = filepath.Base(path)
	}

	err = retryBusy(ctx, "create estimate", func() error {
		return store.CreateEstimate(ctx, estimate)
	})
	if err != nil {
		return notFoundAsUserError(fmt.Errorf("failed to create estimate: %w", err), "Project %s does not exist", estimate.ProjectID)
	}
	err = retryBusy(ctx, "save estimate lines", func() error {
		return store.ReplaceEstimateLines(ctx, estimate.ID, lines)
	})
	if err != nil {
		return fmt.Errorf("failed to save estimate lines: %w", err)
	}

	slog.Info("Imported estimate", "estimate_id", estimate.ID, "project_id", estimate.ProjectID, "lines", len(lines))

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d lines as estimate %s", len(lines), estimate.ID)))

	if learn, _ := cmd.Flags().GetBool("learn"); !learn {
		return nil
	}

	cfg, err := loadEngineConfig()
	if err != nil {
		return err
	}
	factors, err := learnEstimate(ctx, store, cfg, estimate.ID)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, cli.FormatLearnSummary(factors, cfg.Pricing.LowConfidenceThreshold))
	return nil
}

func importCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog <file.xlsx>",
		Short: "Import a cost book into a new price list",
		Long: `Import the "Catalog" sheet of a workbook into a new price list.

Columns are matched by header name: ID, Cat, Sel, Activity, Description
and Unit Price. Rows that carry an ID replace the item with that ID.
The new list replaces the company's active cost book unless --inactive
is given.`,
		Args: cobra.ExactArgs(1),
		RunE: runImportCatalog,
	}

	cmd.Flags().String("company", "", "Company that owns the cost book")
	cmd.Flags().String("name", "", "Price list name (default: the file name)")
	cmd.Flags().Bool("inactive", false, "Create the price list as inactive")
	_ = cmd.MarkFlagRequired("company")

	return cmd
}

func runImportCatalog(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path := args[0]

	items, err := readWorkbook(path, workbook.ReadCatalogItems)
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	inactive, _ := cmd.Flags().GetBool("inactive")
	priceList := &model.PriceList{IsActive: !inactive}
	priceList.CompanyID, _ = cmd.Flags().GetString("company")
	priceList.Name, _ = cmd.Flags().GetString("name")
	if priceList.Name == "" {
		priceList.Name = filepath.Base(path)
	}

	if err := store.CreatePriceList(ctx, priceList); err != nil {
		return notFoundAsUserError(fmt.Errorf("failed to create price list: %w", err), "Company %s does not exist", priceList.CompanyID)
	}

	for i := range items {
		items[i].PriceListID = priceList.ID
	}

	if err := saveCatalogItems(cmd, store, items); err != nil {
		return err
	}

	slog.Info("Imported cost book", "price_list_id", priceList.ID, "company_id", priceList.CompanyID, "items", len(items))
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Imported %d items into price list %s (%s)", len(items), priceList.Name, priceList.ID)))
	return nil
}

// saveCatalogItems saves items in batches and reports progress on stderr.
func saveCatalogItems(cmd *cobra.Command, store service.Storage, items []model.CatalogItem) error {
	if len(items) == 0 {
		return nil
	}

	bar := cli.NewProgressBar(cmd.ErrOrStderr(), len(items), "Saving catalog items")
	for start := 0; start < len(items); start += catalogBatchSize {
		end := min(start+catalogBatchSize, len(items))
		batch := items[start:end]
		err := retryBusy(cmd.Context(), "save catalog items", func() error {
			return store.SaveCatalogItems(cmd.Context(), batch)
		})
		if err != nil {
			return fmt.Errorf("failed to save catalog items: %w", err)
		}
		if err := bar.Add(end - start); err != nil {
			slog.Debug("Failed to update progress bar", "error", err)
		}
	}
	return nil
}

func readWorkbook[T any](path string, read func(r io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := read(f)
	if err != nil {
		return nil, common.NewUserError(fmt.Sprintf("Could not read %s", filepath.Base(path)), err)
	}
	return rows, nil
}
