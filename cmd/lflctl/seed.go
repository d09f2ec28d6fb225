package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/lookingforlove/internal/seed"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert synthetic member profiles",
	Args:  cobra.NoArgs,
	RunE:  runSeed,
}

var (
	seedUsers   int
	seedWorkers int
)

func init() {
	seedCmd.Flags().IntVar(&seedUsers, "users", 100, "Number of profiles to generate")
	seedCmd.Flags().IntVar(&seedWorkers, "workers", 8, "Concurrent writes")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	s, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.close()

	n, err := seed.Seed(ctx, s.users, seedUsers, seed.WithWorkers(seedWorkers))
	if err != nil {
		return fmt.Errorf("seeded %d of %d profiles: %w", n, seedUsers, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d profiles\n", n)
	return nil
}
