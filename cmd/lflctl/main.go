// Package main provides lflctl, the maintenance CLI for LookingForLove stores.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/lookingforlove/internal/adapters/repository"
	"github.com/okian/lookingforlove/internal/adapters/repository/postgres"
	"github.com/okian/lookingforlove/internal/config"
	"github.com/okian/lookingforlove/pkg/logger"
)

// ErrPostgresRequired is returned by commands that only make sense against a persistent store.
var ErrPostgresRequired = errors.New("command requires store=postgres")

// stores groups the repositories a command operates on.
type stores struct {
	users   repository.UserDirectory
	matches repository.MatchStore
	stats   repository.StatisticsStore
	close   func()
}

var cfg *config.Config

// openStores connects to the configured backend. Tests replace it.
var openStores = func(ctx context.Context, c *config.Config) (*stores, error) {
	if c.Store != config.StorePostgres {
		return nil, ErrPostgresRequired
	}
	db, err := postgres.Connect(ctx, c.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return &stores{users: db.Users(), matches: db.Matches(), stats: db.Statistics(), close: db.Close}, nil
}

var rootCmd = &cobra.Command{
	Use:           "lflctl",
	Short:         "LookingForLove maintenance CLI",
	Long:          "lflctl migrates the schema, refreshes statistics, promotes members, seeds synthetic profiles and issues bearer tokens.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := logger.InitWithFormat(os.Stderr, "text"); err != nil {
			return err
		}
		loaded, err := config.Load(cmd.Context())
		if err != nil {
			return err
		}
		cfg = loaded
		return logger.SetLevelString(cfg.LogLevel)
	},
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
