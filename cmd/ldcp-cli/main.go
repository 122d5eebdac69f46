// Command ldcp-cli is a thin command-line driver over the ldcp-go client
// library: one subcommand per façade method group, for scripting and
// manual poking at a rangefinder without writing Go.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/litra-tech/ldcp-go/cmd/ldcp-cli/internal/cliutil"
	"github.com/litra-tech/ldcp-go/cmd/ldcp-cli/internal/firmware"
	"github.com/litra-tech/ldcp-go/cmd/ldcp-cli/internal/query"
	"github.com/litra-tech/ldcp-go/cmd/ldcp-cli/internal/scan"
	"github.com/litra-tech/ldcp-go/cmd/ldcp-cli/internal/settings"
)

// newRootCommand builds the ldcp-cli root command and wires the global
// connection flags every subcommand consumes through cliutil.Flags.
func newRootCommand() *cobra.Command {
	flags := &cliutil.Flags{}

	cmd := &cobra.Command{
		Use:   "ldcp-cli",
		Short: "Command-line client for LDCP-speaking rangefinders",
		Example: "  ldcp-cli --device 10.0.0.2 query info\n" +
			"  ldcp-cli --device 10.0.0.2 scan stream --count 10",
	}

	cmd.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&flags.Device, "device", "", "device address, overrides the config file")
	cmd.PersistentFlags().Uint16Var(&flags.Port, "port", 0, "control port, overrides the config file")

	cmd.AddCommand(
		query.NewQueryCommand(flags),
		settings.NewSettingsCommand(flags),
		scan.NewScanCommand(flags),
		firmware.NewFirmwareCommand(flags),
	)
	return cmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
