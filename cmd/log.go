package cmd

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/simtim-dev/eagleview/internal/telemetry"
	"github.com/simtim-dev/eagleview/internal/ui"
)

var flagLogTail int

var logCmd = &cobra.Command{
	Use:   "log <flight-log>",
	Short: "Inspect a recorded flight log",
	Long: `Print the samples recorded by watch --record: one row per tick
with the flow status and the telemetry visible at that moment.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		samples, err := telemetry.ReadLog(args[0])
		if err != nil {
			return fmt.Errorf("read flight log: %w", err)
		}
		if len(samples) == 0 {
			ui.PrintInfo("Flight log is empty")
			return nil
		}

		if flagLogTail > 0 && len(samples) > flagLogTail {
			samples = samples[len(samples)-flagLogTail:]
		}

		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"Time", "Room", "Flow", "Received", "Position", "Bearing"})
		for _, s := range samples {
			flow := "-"
			if s.Receiving {
				flow = "live"
			}
			position, bearing := "-", "-"
			if s.Telemetry != nil {
				position = fmt.Sprintf("%.5f, %.5f", s.Telemetry.Latitude, s.Telemetry.Longitude)
				bearing = fmt.Sprintf("%.0f°", s.Telemetry.Bearing)
			}
			t.AppendRow(table.Row{
				time.UnixMilli(s.At).Format("15:04:05.000"),
				s.RoomID,
				flow,
				s.BytesReceived,
				position,
				bearing,
			})
		}
		fmt.Println(t.Render())

		return nil
	},
}

func init() {
	rootCmd.AddCommand(logCmd)
	logCmd.Flags().IntVar(&flagLogTail, "tail", 0, "Show only the last N samples")
}
