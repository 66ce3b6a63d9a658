package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"intuitive/internal/domain/service"
	"intuitive/internal/errors"
	"intuitive/internal/infra/auth/firebase"
)

var (
	tokenUID           string
	tokenPremium       bool
	tokenAssertionOnly bool
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a custom assertion and exchange it for an ID token",
	Long: `token signs a custom assertion for --uid with the configured service
account and exchanges it at the identity provider. The printed ID token can be
sent as "Authorization: Bearer <token>" for manual testing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		minter, err := firebase.NewAssertionMinter(cfg)
		if err != nil {
			return err
		}

		assertion, err := minter.MintAssertion(tokenUID, service.CustomClaims{PremiumAccount: tokenPremium})
		if err != nil {
			return err
		}
		if tokenAssertionOnly {
			fmt.Fprintln(cmd.OutOrStdout(), assertion)

			return nil
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Firebase.RequestTimeout)
		defer cancel()

		idToken, err := firebase.NewAssertionExchanger(cfg).ExchangeAssertion(ctx, assertion)
		if err != nil {
			return errors.Wrap(err, "exchange assertion")
		}

		fmt.Fprintln(cmd.OutOrStdout(), idToken)

		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUID, "uid", "", "subject to mint the assertion for")
	tokenCmd.Flags().BoolVar(&tokenPremium, "premium", false, "set the premium_account developer claim")
	tokenCmd.Flags().BoolVar(&tokenAssertionOnly, "assertion-only", false, "print the signed assertion without exchanging it")
	_ = tokenCmd.MarkFlagRequired("uid")
}
