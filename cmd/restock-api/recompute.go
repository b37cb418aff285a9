package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonnyWalker81/restock/backend/internal/logger"
)

var recomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Rebuild stored analytics snapshots",
	Long: `Recompute analytics for every product of one user, or of all users when
--user is omitted. Run it off-peak to refresh snapshots after a bulk import or
a change to the seasonal settings.`,
	RunE: runRecompute,
}

var (
	recomputeUser        string
	recomputeConcurrency int
)

func init() {
	recomputeCmd.Flags().StringVar(&recomputeUser, "user", "", "Only recompute this user's products")
	recomputeCmd.Flags().IntVar(&recomputeConcurrency, "concurrency", 0, "Keys recomputed in parallel (overrides config)")
}

func runRecompute(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	svc := a.analytics
	if recomputeConcurrency > 0 {
		svc = a.newAnalyticsService(recomputeConcurrency)
	}

	result, err := svc.RecomputeAll(cmd.Context(), recomputeUser)
	if err != nil {
		return fmt.Errorf("recompute failed: %w", err)
	}

	a.log.Info("recompute finished",
		logger.String("user_id", recomputeUser),
		logger.Int("processed", result.Processed),
		logger.Int("failed", result.Failed),
		logger.Duration("duration", result.Duration),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "processed %d keys, %d failed, in %s\n", result.Processed, result.Failed, result.Duration)

	if result.Failed > 0 {
		return fmt.Errorf("%d keys failed to recompute", result.Failed)
	}
	return nil
}
