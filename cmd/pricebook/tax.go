package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/cli"
)

func taxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tax",
		Short: "Manage project tax settings",
	}
	cmd.AddCommand(taxOverrideCmd())
	return cmd
}

func taxOverrideCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "override <project-id>",
		Short: "Set or toggle a manual tax rate for a project",
		Long: `Set a manual tax rate that takes precedence over the learned rate.

--disable keeps the stored rate but stops using it. --enable without
--rate turns the stored rate back on and fails when none is stored.`,
		Args: cobra.ExactArgs(1),
		RunE: runTaxOverride,
	}

	cmd.Flags().Float64("rate", 0, "Manual tax rate, e.g. 0.0825")
	cmd.Flags().Bool("enable", false, "Use the manual rate")
	cmd.Flags().Bool("disable", false, "Stop using the manual rate")
	cmd.MarkFlagsMutuallyExclusive("enable", "disable")
	cmd.MarkFlagsOneRequired("enable", "disable")

	return cmd
}

func runTaxOverride(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	projectID := args[0]
	enabled, _ := cmd.Flags().GetBool("enable")

	var rate *float64
	if cmd.Flags().Changed("rate") {
		r, _ := cmd.Flags().GetFloat64("rate")
		rate = &r
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	err = retryBusy(ctx, "set tax override", func() error {
		return store.SetManualTaxOverride(ctx, projectID, rate, enabled)
	})
	if err != nil {
		return notFoundAsUserError(err, "Project %s does not exist", projectID)
	}

	state := "disabled"
	if enabled {
		state = "enabled"
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Manual tax override %s for project %s", state, projectID)))
	return nil
}
