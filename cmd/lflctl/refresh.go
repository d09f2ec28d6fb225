package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/okian/lookingforlove/internal/domain/stats"
)

var refreshStatsCmd = &cobra.Command{
	Use:   "refresh-stats",
	Short: "Recompute and store the statistics snapshot",
	Args:  cobra.NoArgs,
	RunE:  runRefreshStats,
}

func init() {
	rootCmd.AddCommand(refreshStatsCmd)
}

func runRefreshStats(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	s, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.close()

	snap, err := stats.NewAggregator(s.users, s.matches, s.stats).Refresh(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}
