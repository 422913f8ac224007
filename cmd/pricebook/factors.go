package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/cli"
)

func factorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "factors <project-id>",
		Short: "Show a project's learned regional factors",
		Args:  cobra.ExactArgs(1),
		RunE:  runFactors,
	}
}

func runFactors(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	projectID := args[0]

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if _, err := store.GetProject(ctx, projectID); err != nil {
		return notFoundAsUserError(err, "Project %s does not exist", projectID)
	}

	factors, err := store.GetRegionalFactors(ctx, projectID)
	if err != nil {
		return err
	}
	taxConfig, err := store.GetTaxConfig(ctx, projectID)
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), cli.FormatFactors(projectID, factors, taxConfig))
	return nil
}
