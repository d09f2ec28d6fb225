package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/lookingforlove/internal/adapters/repository/postgres"
	"github.com/okian/lookingforlove/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the PostgreSQL schema",
	Long:  "Create the users, matches and statistics tables if they do not exist. Safe to run repeatedly.",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	if cfg.Store != config.StorePostgres {
		return ErrPostgresRequired
	}
	ctx := cmd.Context()
	db, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
	return nil
}
