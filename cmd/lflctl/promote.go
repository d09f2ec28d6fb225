package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/lookingforlove/internal/domain/types"
)

var promoteCmd = &cobra.Command{
	Use:   "promote <email>",
	Short: "Change the membership tier of the member with the given email",
	Args:  cobra.ExactArgs(1),
	RunE:  runPromote,
}

var promoteTier string

func init() {
	promoteCmd.Flags().StringVar(&promoteTier, "tier", string(types.Product), "Target tier: free, paid or product")
	rootCmd.AddCommand(promoteCmd)
}

func runPromote(cmd *cobra.Command, args []string) error {
	tier, err := types.ParseTier(promoteTier)
	if err != nil {
		return fmt.Errorf("--tier %q: %w", promoteTier, err)
	}

	ctx := cmd.Context()
	s, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.close()

	u, err := s.users.FindByEmail(ctx, args[0])
	if err != nil {
		return err
	}
	u, err = s.users.SetTier(ctx, u.ID, tier)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) is now %s\n", u.ContactInfo.Email, u.ID, u.MembershipTier)
	return nil
}
