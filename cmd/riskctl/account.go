package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	paidAmount    string
	paidReference string
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage user accounts",
}

var accountMarkPaidCmd = &cobra.Command{
	Use:   "mark-paid <username>",
	Short: "Record a payment for an account subscription",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := decimal.NewFromString(paidAmount)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", paidAmount, err)
		}

		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()

		user, err := a.acc.GetUserByUsername(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		sub, err := a.acc.MarkSubscriptionPaid(cmd.Context(), user.ID, amount, paidReference)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Account %s marked as paid (amount %s)\n", user.Username, sub.Amount.StringFixed(2))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(accountCmd)
	accountCmd.AddCommand(accountMarkPaidCmd)

	accountMarkPaidCmd.Flags().StringVar(&paidAmount, "amount", "0", "Amount paid")
	accountMarkPaidCmd.Flags().StringVar(&paidReference, "reference", "", "Payment reference")
}
