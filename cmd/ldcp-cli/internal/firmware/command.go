// Package firmware implements the "firmware" command group: raw
// pass-throughs for the five firmware/* methods, for driving update
// orchestration from an external tool while this client stays out of the
// chunking/hashing business.
package firmware

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/litra-tech/ldcp-go/cmd/ldcp-cli/internal/cliutil"
	"github.com/litra-tech/ldcp-go/pkg/facade"
	"github.com/litra-tech/ldcp-go/pkg/ldcperr"
)

// NewFirmwareCommand builds the "firmware" command and its subcommands.
func NewFirmwareCommand(flags *cliutil.Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "firmware",
		Short: "Send raw firmware/* requests (chunking and hashing are external)",
	}

	cmd.AddCommand(
		newPassthroughCommand(flags, "begin-update", "firmware/beginUpdate", (*facade.Client).FirmwareBeginUpdate),
		newPassthroughCommand(flags, "write-data", "firmware/writeData", (*facade.Client).FirmwareWriteData),
		newPassthroughCommand(flags, "verify-hash", "firmware/verifyHash", (*facade.Client).FirmwareVerifyHash),
		newPassthroughCommand(flags, "end-update", "firmware/endUpdate", (*facade.Client).FirmwareEndUpdate),
		newPassthroughCommand(flags, "commit-update", "firmware/commitUpdate", (*facade.Client).FirmwareCommitUpdate),
	)
	return cmd
}

func newPassthroughCommand(flags *cliutil.Flags, use, method string, call func(*facade.Client, context.Context, interface{}) (json.RawMessage, ldcperr.Code)) *cobra.Command {
	var rawParams string
	cmd := &cobra.Command{
		Use:   use + " [json-params]",
		Short: fmt.Sprintf("Send a %s request and print the raw result", method),
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				rawParams = args[0]
			}

			var params interface{}
			if rawParams != "" {
				if err := json.Unmarshal([]byte(rawParams), &params); err != nil {
					return fmt.Errorf("parse params as JSON: %w", err)
				}
			}

			client, closer, err := cliutil.OpenClient(cmd.Context(), *flags)
			if err != nil {
				return err
			}
			defer closer()

			result, code := call(client, cmd.Context(), params)
			if code.IsError() {
				return fmt.Errorf("%s: %s", method, code)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(result))
			return nil
		},
	}
	return cmd
}
