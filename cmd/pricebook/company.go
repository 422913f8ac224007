package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/cli"
	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/model"
)

func companyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "company",
		Short: "Manage companies",
	}
	cmd.AddCommand(companyAddCmd())
	return cmd
}

func companyAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a company",
		Long: `Add a company that owns projects and a cost book.

The default O&P rate is used for projects that have not learned
regional factors yet.`,
		Args: cobra.ExactArgs(1),
		RunE: runCompanyAdd,
	}

	cmd.Flags().String("id", "", "Company ID (generated when empty)")
	cmd.Flags().Float64("default-op", 0, "Default overhead and profit rate, e.g. 0.20")

	return cmd
}

func runCompanyAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	company := &model.Company{Name: args[0]}
	company.ID, _ = cmd.Flags().GetString("id")
	if cmd.Flags().Changed("default-op") {
		rate, _ := cmd.Flags().GetFloat64("default-op")
		company.DefaultOPRate = &rate
	}

	if err := store.CreateCompany(ctx, company); err != nil {
		return fmt.Errorf("failed to add company: %w", err)
	}

	slog.Debug("Created company", "company_id", company.ID)
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Added company %s (%s)", company.Name, company.ID)))
	return nil
}

func projectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}
	cmd.AddCommand(projectAddCmd())
	return cmd
}

func projectAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a project for a company",
		Args:  cobra.ExactArgs(1),
		RunE:  runProjectAdd,
	}

	cmd.Flags().String("id", "", "Project ID (generated when empty)")
	cmd.Flags().String("company", "", "Owning company ID")
	cmd.Flags().String("postal-code", "", "Job site postal code")
	cmd.Flags().String("city", "", "Job site city")
	cmd.Flags().String("state", "", "Job site state")
	_ = cmd.MarkFlagRequired("company")

	return cmd
}

func runProjectAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	project := &model.Project{Name: args[0]}
	project.ID, _ = cmd.Flags().GetString("id")
	project.CompanyID, _ = cmd.Flags().GetString("company")
	project.PostalCode, _ = cmd.Flags().GetString("postal-code")
	project.City, _ = cmd.Flags().GetString("city")
	project.State, _ = cmd.Flags().GetString("state")

	if err := store.CreateProject(ctx, project); err != nil {
		return notFoundAsUserError(fmt.Errorf("failed to add project: %w", err), "Company %s does not exist", project.CompanyID)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Added project %s (%s)", project.Name, project.ID)))
	return nil
}
