package cmd

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/simtim-dev/eagleview/internal/ui"
	"github.com/simtim-dev/eagleview/internal/version"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "eagleview",
	Short:   "Watch live drone video streams from the terminal",
	Long:    `EagleView is a command-line viewer for live drone video streams delivered over WebRTC. Point it at a stream's room ID or share link and it connects to the signaling server, negotiates a peer connection with the drone's ground station, and shows live connection status and telemetry while the video flows.`,
	Version: version.Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		os.Exit(0)
	}()

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}
