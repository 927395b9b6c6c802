package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var maintenanceMessage string

var appCmd = &cobra.Command{
	Use:   "app",
	Short: "Application-wide access switches",
}

var maintenanceCmd = &cobra.Command{
	Use:       "maintenance on|off",
	Short:     "Turn maintenance mode on or off",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		on, err := parseSwitch(args[0])
		if err != nil {
			return err
		}
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.access.SetMaintenance(cmd.Context(), on, maintenanceMessage); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Maintenance mode %s\n", args[0])
		return nil
	},
}

var forcePaymentCmd = &cobra.Command{
	Use:       "force-payment on|off",
	Short:     "Block expired trials instead of warning them",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		on, err := parseSwitch(args[0])
		if err != nil {
			return err
		}
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.access.SetForcePayment(cmd.Context(), on); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Force payment %s\n", args[0])
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the current access switches",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()

		ctl, err := a.access.Control(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "maintenance:   %t\n", ctl.MaintenanceMode)
		fmt.Fprintf(out, "force payment: %t\n", ctl.ForcePayment)
		fmt.Fprintf(out, "message:       %s\n", ctl.Message)
		fmt.Fprintf(out, "version:       %s\n", ctl.Version)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(appCmd)
	appCmd.AddCommand(maintenanceCmd, forcePaymentCmd, statusCmd)

	maintenanceCmd.Flags().StringVar(&maintenanceMessage, "message", "", "Message shown to blocked clients")
}
