package cmd

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/simtim-dev/eagleview/internal/config"
	"github.com/simtim-dev/eagleview/internal/roomid"
	"github.com/simtim-dev/eagleview/internal/signaling"
	"github.com/simtim-dev/eagleview/internal/telemetry"
	"github.com/simtim-dev/eagleview/internal/ui"
	"github.com/simtim-dev/eagleview/internal/viewer"
)

var (
	flagWatchDomain   string
	flagWatchSTUN     string
	flagWatchTURN     string
	flagWatchTURNUser string
	flagWatchTURNPass string
	flagWatchName     string
	flagWatchEmail    string
	flagWatchRecord   string
)

var watchCmd = &cobra.Command{
	Use:     "watch <room-id|url>",
	Aliases: []string{"w"},
	Short:   "Watch a live drone stream",
	Long: `Connect to a live drone stream and show its status and telemetry.

Examples:
  eagleview watch ABCD1234
  eagleview watch https://webrtc.simtim.dev/live?stream=ABCD1234
  eagleview watch ABCD1234 --name "Ground Ops" --record flight.log`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		roomID, notice, err := parseRoomInput(args[0])
		if err != nil {
			return err
		}
		return watchStream(roomID, notice)
	},
}

func watchStream(roomID, notice string) error {
	cfg, err := config.Load(config.Options{
		Domain:      flagWatchDomain,
		STUNServer:  flagWatchSTUN,
		TURNServer:  flagWatchTURN,
		TURNUser:    flagWatchTURNUser,
		TURNPass:    flagWatchTURNPass,
		ViewerName:  flagWatchName,
		ViewerEmail: flagWatchEmail,
		RecordPath:  flagWatchRecord,
	})
	if err != nil {
		return err
	}

	hist, identity := loadIdentity(cfg)

	banner := ui.RoomBanner{
		RoomID:   roomID,
		RoomLink: cfg.GetRoomLink(roomID),
		Notice:   notice,
	}
	fmt.Println(banner.View())
	fmt.Println()

	stopSpinner := ui.RunConnectionSpinner("Connecting to server...")
	cfg.FetchSTUNServers(context.Background())

	client := signaling.NewClient(cfg.WebSocketURL)
	if err := client.Connect(); err != nil {
		stopSpinner()
		return viewer.WrapError("connect", viewer.ErrSignalingFailed, err.Error())
	}
	defer client.Close()
	stopSpinner()

	handler := signaling.NewHandler(client)
	go handler.Start()

	var recorder *telemetry.Recorder
	if cfg.RecordPath != "" {
		recorder, err = telemetry.NewRecorder(cfg.RecordPath)
		if err != nil {
			return fmt.Errorf("open flight log: %w", err)
		}
		defer recorder.Close()
	}

	var v *viewer.Viewer
	statusUI := ui.NewStatusUI(ui.StatusActions{
		Retry: func() { v.Retry() },
		Leave: func() { v.Leave() },
	})

	sink := &summarySink{next: statusUI}
	v = viewer.New(cfg, client, handler, viewer.Options{
		Sink:     sink,
		History:  hist,
		Recorder: recorder,
		Viewer:   identity,
	})

	started := time.Now()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	v.Join(roomID)
	runDone := make(chan struct{})
	go func() {
		v.Run(ctx)
		close(runDone)
	}()

	statusUI.Start()
	defer statusUI.Stop()
	statusUI.Wait()

	// Stop the loop before closing the handler channels it reads from.
	cancel()
	<-runDone
	handler.Close()

	last, roster, streamed := sink.summary()
	fmt.Println()
	ui.RenderSessionSummary(ui.SessionSummary{
		RoomID:    roomID,
		Publisher: last.PublisherName,
		Duration:  time.Since(started),
		Received:  last.BytesReceived,
		Streamed:  streamed,
	})
	if len(roster) > 0 {
		fmt.Println(ui.RosterTableView(roster))
	}
	if !streamed {
		if reason := viewer.FailureReason(last.State); reason != nil {
			ui.PrintWarning(reason.Error())
		}
	}

	return nil
}

// parseRoomInput accepts a bare room ID or a share link and returns the
// normalized room ID. Share links carry the ID in the stream, room or r
// query parameter, falling back to the last path segment.
func parseRoomInput(input string) (string, string, error) {
	if input == "" {
		return "", "", fmt.Errorf("room ID cannot be empty")
	}

	raw := input
	if strings.Contains(input, "://") {
		extracted, err := extractRoomIDFromURL(input)
		if err != nil {
			return "", "", err
		}
		ui.PrintSuccess(fmt.Sprintf("Extracted room ID: %s", extracted))
		raw = extracted
	}

	id, notice := roomid.Normalize(raw)
	if !roomid.Valid(id) {
		return "", "", fmt.Errorf("no valid room ID in %q", input)
	}
	return id, notice, nil
}

func extractRoomIDFromURL(urlStr string) (string, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "", fmt.Errorf("parse URL: %w", err)
	}

	for _, key := range []string{"stream", "room", "r"} {
		if v := parsedURL.Query().Get(key); v != "" {
			return v, nil
		}
	}

	path := strings.TrimSuffix(parsedURL.Path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 && i+1 < len(path) {
		return path[i+1:], nil
	}

	return "", fmt.Errorf("could not extract room ID from URL: %s", urlStr)
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&flagWatchDomain, "domain", "", "Custom domain")
	watchCmd.Flags().StringVarP(&flagWatchSTUN, "stun", "s", "", "Custom STUN server")
	watchCmd.Flags().StringVarP(&flagWatchTURN, "turn", "t", "", "Custom TURN server")
	watchCmd.Flags().StringVar(&flagWatchTURNUser, "turn-user", "", "TURN username")
	watchCmd.Flags().StringVar(&flagWatchTURNPass, "turn-pass", "", "TURN password")
	watchCmd.Flags().StringVarP(&flagWatchName, "name", "n", "", "Viewer name announced to the room")
	watchCmd.Flags().StringVar(&flagWatchEmail, "email", "", "Viewer email announced to the room")
	watchCmd.Flags().StringVar(&flagWatchRecord, "record", "", "Record telemetry and flow samples to a flight-log file")
}
