package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Manage device trials",
}

var deviceActivateCmd = &cobra.Command{
	Use:   "activate <device-id>",
	Short: "Re-enable a device",
	Args:  cobra.ExactArgs(1),
	RunE:  deviceAction(func(a *app, cmd *cobra.Command, id string) error { return a.access.SetActive(cmd.Context(), id, true) }, "activated"),
}

var deviceDeactivateCmd = &cobra.Command{
	Use:   "deactivate <device-id>",
	Short: "Disable a device",
	Args:  cobra.ExactArgs(1),
	RunE:  deviceAction(func(a *app, cmd *cobra.Command, id string) error { return a.access.SetActive(cmd.Context(), id, false) }, "deactivated"),
}

var deviceMarkPaidCmd = &cobra.Command{
	Use:   "mark-paid <device-id>",
	Short: "Mark a device as paid",
	Args:  cobra.ExactArgs(1),
	RunE:  deviceAction(func(a *app, cmd *cobra.Command, id string) error { return a.access.MarkPaid(cmd.Context(), id) }, "marked as paid"),
}

var deviceShowCmd = &cobra.Command{
	Use:   "show <device-id>",
	Short: "Print a device and its access decision",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()

		d, err := a.access.Device(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		dec, err := a.access.CheckAccess(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "device:     %s\n", d.DeviceID)
		fmt.Fprintf(out, "active:     %t\n", d.IsActive)
		fmt.Fprintf(out, "paid:       %t\n", d.IsPaid)
		fmt.Fprintf(out, "trial left: %d days\n", dec.TrialDaysLeft)
		fmt.Fprintf(out, "access:     %t (%s)\n", dec.Access, dec.Reason)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deviceCmd)
	deviceCmd.AddCommand(deviceActivateCmd, deviceDeactivateCmd, deviceMarkPaidCmd, deviceShowCmd)
}

func deviceAction(fn func(a *app, cmd *cobra.Command, id string) error, done string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()

		if err := fn(a, cmd, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Device %s %s\n", args[0], done)
		return nil
	}
}
