package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/cli"
	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/engine"
	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/model"
	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/service"
)

func learnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "learn <estimate-id>",
		Short: "Learn regional factors from an imported estimate",
		Long: `Learn the tax rate, O&P rate and per-category price variance of an
estimate's market and store them as the project's regional factors.

The previous factors of the project are replaced as a whole. If anything
fails, the project keeps its previous factors.`,
		Args: cobra.ExactArgs(1),
		RunE: runLearn,
	}
}

func runLearn(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadEngineConfig()
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	factors, err := learnEstimate(ctx, store, cfg, args[0])
	if err != nil {
		return notFoundAsUserError(err, "Estimate %s or its project does not exist", args[0])
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatLearnSummary(factors, cfg.Pricing.LowConfidenceThreshold))
	return nil
}

// learnEstimate runs a learn cycle. A learn replaces the project's factors as
// a whole, so a cycle that hit a busy database is simply run again.
func learnEstimate(ctx context.Context, store service.Storage, cfg engine.Config, estimateID string) (*model.RegionalFactors, error) {
	learner := engine.NewLearnerWithConfig(store, cfg)

	var factors *model.RegionalFactors
	err := retryBusy(ctx, "learn", func() error {
		var err error
		factors, err = learner.Learn(ctx, estimateID)
		return err
	})
	return factors, err
}
