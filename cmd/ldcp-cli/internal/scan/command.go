// Package scan implements the "scan" command group: starting and stopping
// measurement/streaming, printing reassembled frames, and capturing them to
// a file for later playback with pkg/record.
package scan

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/litra-tech/ldcp-go/cmd/ldcp-cli/internal/cliutil"
	"github.com/litra-tech/ldcp-go/pkg/record"
)

// NewScanCommand builds the "scan" command and its subcommands.
func NewScanCommand(flags *cliutil.Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Control measurement and streaming, and read scan frames",
	}

	cmd.AddCommand(
		newStartMeasurementCommand(flags),
		newStopMeasurementCommand(flags),
		newStreamCommand(flags),
		newCaptureCommand(flags),
	)
	return cmd
}

func newStartMeasurementCommand(flags *cliutil.Flags) *cobra.Command {
	var frameCount int
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Open the data channel and start measurement and streaming",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, _, closer, err := cliutil.OpenDataChannel(cmd.Context(), *flags)
			if err != nil {
				return err
			}
			defer closer()

			if code := client.StartMeasurement(cmd.Context()); code.IsError() {
				return fmt.Errorf("start measurement: %s", code)
			}
			if code := client.StartStreaming(cmd.Context(), frameCount); code.IsError() {
				return fmt.Errorf("start streaming: %s", code)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&frameCount, "frames", 0, "number of frames to stream before stopping on its own (0 = continuous)")
	return cmd
}

func newStopMeasurementCommand(flags *cliutil.Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop streaming and measurement",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, closer, err := cliutil.OpenClient(cmd.Context(), *flags)
			if err != nil {
				return err
			}
			defer closer()

			if code := client.StopStreaming(cmd.Context()); code.IsError() {
				return fmt.Errorf("stop streaming: %s", code)
			}
			if code := client.StopMeasurement(cmd.Context()); code.IsError() {
				return fmt.Errorf("stop measurement: %s", code)
			}
			return nil
		},
	}
}

func newStreamCommand(flags *cliutil.Flags) *cobra.Command {
	var echoes int
	var count int
	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Print reassembled scan frames as they arrive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, sess, closer, err := cliutil.OpenDataChannel(cmd.Context(), *flags)
			if err != nil {
				return err
			}
			defer closer()

			for i := 0; count <= 0 || i < count; i++ {
				frame, code := sess.ReadScanFrame(cmd.Context(), echoes)
				if code.IsError() {
					return fmt.Errorf("read scan frame: %s", code)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "frame %d: timestamp=%d layers=%d\n",
					i, frame.Timestamp, len(frame.Layers))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&echoes, "echoes", 1, "number of echoes to keep per measurement")
	cmd.Flags().IntVar(&count, "count", 0, "number of frames to print before exiting (0 = until interrupted or the session errors)")
	return cmd
}

func newCaptureCommand(flags *cliutil.Flags) *cobra.Command {
	var echoes int
	var count int
	cmd := &cobra.Command{
		Use:   "capture <file>",
		Short: "Record reassembled scan frames to a file for offline playback",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, sess, closer, err := cliutil.OpenDataChannel(cmd.Context(), *flags)
			if err != nil {
				return err
			}
			defer closer()

			rec, err := record.Create(args[0])
			if err != nil {
				return err
			}
			defer rec.Close()

			for i := 0; count <= 0 || i < count; i++ {
				frame, code := sess.ReadScanFrame(cmd.Context(), echoes)
				if code.IsError() {
					return fmt.Errorf("read scan frame: %s", code)
				}
				if err := rec.Write(frame); err != nil {
					return fmt.Errorf("capture: %w", err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "captured %d frame(s) to %s\n", count, args[0])
			return nil
		},
	}
	cmd.Flags().IntVar(&echoes, "echoes", 1, "number of echoes to keep per measurement")
	cmd.Flags().IntVar(&count, "count", 10, "number of frames to capture")
	return cmd
}
