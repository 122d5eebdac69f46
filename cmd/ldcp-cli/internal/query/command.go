// Package query implements the "query" command group: the device/*
// operations that don't touch settings, scanning or firmware.
package query

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/litra-tech/ldcp-go/cmd/ldcp-cli/internal/cliutil"
	"github.com/litra-tech/ldcp-go/pkg/ldcperr"
)

// NewQueryCommand builds the "query" command and its subcommands.
func NewQueryCommand(flags *cliutil.Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Read device identity and clock state",
	}

	cmd.AddCommand(
		newInfoCommand(flags),
		newTimestampCommand(flags),
		newResetTimestampCommand(flags),
		newLowPowerCommand(flags),
		newRebootCommand(flags),
	)
	return cmd
}

func newInfoCommand(flags *cliutil.Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print model name, serial number and firmware version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, closer, err := cliutil.OpenClient(cmd.Context(), *flags)
			if err != nil {
				return err
			}
			defer closer()

			info, code := client.QueryInfo(cmd.Context())
			if code.IsError() {
				return fmt.Errorf("query info: %s", code)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "model:    %s\nserial:   %s\nfirmware: %s\n",
				info.ModelName, info.SerialNumber, info.FirmwareVersion)
			return nil
		},
	}
}

func newTimestampCommand(flags *cliutil.Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "timestamp",
		Short: "Read the device's free-running clock, in milliseconds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, closer, err := cliutil.OpenClient(cmd.Context(), *flags)
			if err != nil {
				return err
			}
			defer closer()

			ts, code := client.ReadTimestamp(cmd.Context())
			if code.IsError() {
				return fmt.Errorf("read timestamp: %s", code)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\n", ts)
			return nil
		},
	}
}

func newResetTimestampCommand(flags *cliutil.Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-timestamp",
		Short: "Reset the device's free-running clock to zero",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, closer, err := cliutil.OpenClient(cmd.Context(), *flags)
			if err != nil {
				return err
			}
			defer closer()

			if code := client.ResetTimestamp(cmd.Context()); code.IsError() {
				return fmt.Errorf("reset timestamp: %s", code)
			}
			return nil
		},
	}
}

func newLowPowerCommand(flags *cliutil.Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "low-power",
		Short: "Enter or exit the device's low-power mode",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "enter",
			Args:  cobra.NoArgs,
			Short: "Enter low-power mode",
			RunE: func(cmd *cobra.Command, _ []string) error {
				client, closer, err := cliutil.OpenClient(cmd.Context(), *flags)
				if err != nil {
					return err
				}
				defer closer()
				if code := client.EnterLowPower(cmd.Context()); code.IsError() {
					return fmt.Errorf("enter low power: %s", code)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "exit",
			Args:  cobra.NoArgs,
			Short: "Exit low-power mode",
			RunE: func(cmd *cobra.Command, _ []string) error {
				client, closer, err := cliutil.OpenClient(cmd.Context(), *flags)
				if err != nil {
					return err
				}
				defer closer()
				if code := client.ExitLowPower(cmd.Context()); code.IsError() {
					return fmt.Errorf("exit low power: %s", code)
				}
				return nil
			},
		},
	)
	return cmd
}

func newRebootCommand(flags *cliutil.Flags) *cobra.Command {
	var toBootloader bool
	cmd := &cobra.Command{
		Use:   "reboot",
		Short: "Reboot the device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, closer, err := cliutil.OpenClient(cmd.Context(), *flags)
			if err != nil {
				return err
			}
			defer closer()

			var code ldcperr.Code
			if toBootloader {
				code = client.RebootToBootloader()
			} else {
				code = client.Reboot()
			}
			if code.IsError() {
				return fmt.Errorf("reboot: %s", code)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&toBootloader, "bootloader", false, "reboot into the firmware update bootloader")
	return cmd
}
