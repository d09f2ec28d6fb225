package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/lookingforlove/internal/adapters/identity"
)

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Issue a bearer token for a member",
	Long:  "Issue a bearer token signed with the configured jwt_secret. The member is not looked up.",
	Args:  cobra.ExactArgs(1),
	RunE:  runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	issuer, err := identity.NewIssuer(cfg.JWTSecret, identity.WithExpiration(cfg.JWTExpiration()))
	if err != nil {
		return err
	}
	token, err := issuer.IssueToken(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
