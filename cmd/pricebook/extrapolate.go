package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/cli"
	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/config"
	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/engine"
	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/workbook"
)

func extrapolateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extrapolate <project-id> <item-id>...",
		Short: "Price cost book items for a project's market",
		Long: `Price one or more cost book items using the project's learned regional
factors. Projects without learned factors are priced in bootstrap mode
from the company defaults.`,
		Args: cobra.MinimumNArgs(2),
		RunE: runExtrapolate,
	}

	cmd.Flags().Float64P("quantity", "q", 1, "Quantity applied to every item")
	cmd.Flags().String("xlsx", "", "Also write the quote to this workbook")

	return cmd
}

func runExtrapolate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	projectID, itemIDs := args[0], args[1:]
	quantity, _ := cmd.Flags().GetFloat64("quantity")
	xlsxPath, _ := cmd.Flags().GetString("xlsx")

	cfg, err := loadEngineConfig()
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	items, err := engine.NewExtrapolatorWithConfig(store, cfg).ExtrapolateManyQuantity(ctx, itemIDs, projectID, quantity)
	if err != nil {
		return notFoundAsUserError(err, "Project %s or one of the items does not exist", projectID)
	}

	fmt.Fprint(cmd.OutOrStdout(), cli.FormatExtrapolation(items))

	if xlsxPath == "" {
		return nil
	}

	xlsxPath = config.ExpandPath(xlsxPath)
	f, err := os.Create(xlsxPath)
	if err != nil {
		return fmt.Errorf("failed to create workbook: %w", err)
	}
	if err := workbook.WriteQuote(f, items); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close workbook: %w", err)
	}

	slog.Info("Wrote quote workbook", "path", xlsxPath, "items", len(items))
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Quote written to "+xlsxPath))
	return nil
}
