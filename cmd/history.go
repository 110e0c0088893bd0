package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simtim-dev/eagleview/internal/history"
	"github.com/simtim-dev/eagleview/internal/ui"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recently watched streams",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := history.NewStore()
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		_, rooms := store.Load()
		ui.RenderHistoryTable(rooms)
		return nil
	},
}

var historyRemoveCmd = &cobra.Command{
	Use:   "remove <room-id>",
	Short: "Remove a stream from the history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := history.NewStore()
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		if err := store.Remove(args[0]); err != nil {
			return err
		}
		ui.PrintSuccess(fmt.Sprintf("Removed %s from history", args[0]))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyRemoveCmd)
}
