// Package settings implements the "settings" command group: generic
// get/set/persist by entry name, over the settings/read, settings/write and
// settings/persist methods.
package settings

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/litra-tech/ldcp-go/cmd/ldcp-cli/internal/cliutil"
)

// NewSettingsCommand builds the "settings" command and its subcommands.
func NewSettingsCommand(flags *cliutil.Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read, write and persist device settings by entry name",
	}

	cmd.AddCommand(newGetCommand(flags), newSetCommand(flags), newPersistCommand(flags))
	return cmd
}

func newGetCommand(flags *cliutil.Flags) *cobra.Command {
	return &cobra.Command{
		Use:     "get <entry-name>",
		Short:   "Read a setting and print its JSON value",
		Args:    cobra.ExactArgs(1),
		Example: "  ldcp-cli settings get rangefinder.echo_mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, closer, err := cliutil.OpenClient(cmd.Context(), *flags)
			if err != nil {
				return err
			}
			defer closer()

			raw, code := client.ReadSetting(cmd.Context(), args[0])
			if code.IsError() {
				return fmt.Errorf("read %s: %s", args[0], code)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(raw))
			return nil
		},
	}
}

func newSetCommand(flags *cliutil.Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "set <entry-name> <json-value>",
		Short: "Write a setting from a JSON-encoded value",
		Args:  cobra.ExactArgs(2),
		Example: "" +
			"  ldcp-cli settings set scan.frequency 15\n" +
			"  ldcp-cli settings set filters.shadow_filter.enabled true\n" +
			"  ldcp-cli settings set connectivity.ethernet.ipv4_address \\\"10.0.0.2\\\"",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, closer, err := cliutil.OpenClient(cmd.Context(), *flags)
			if err != nil {
				return err
			}
			defer closer()

			var value interface{}
			if err := json.Unmarshal([]byte(args[1]), &value); err != nil {
				return fmt.Errorf("parse value %q as JSON: %w", args[1], err)
			}

			if code := client.WriteSetting(cmd.Context(), args[0], value); code.IsError() {
				return fmt.Errorf("write %s: %s", args[0], code)
			}
			return nil
		},
	}
}

func newPersistCommand(flags *cliutil.Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "persist <entry-name>",
		Short: "Commit a previously written setting to non-volatile storage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, closer, err := cliutil.OpenClient(cmd.Context(), *flags)
			if err != nil {
				return err
			}
			defer closer()

			if code := client.PersistSetting(cmd.Context(), args[0]); code.IsError() {
				return fmt.Errorf("persist %s: %s", args[0], code)
			}
			return nil
		},
	}
}
