package ui

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/simtim-dev/eagleview/internal/signaling"
	"github.com/simtim-dev/eagleview/internal/telemetry"
	"github.com/simtim-dev/eagleview/internal/viewer"
)

// StatusActions are the user-initiated session operations the status
// view can trigger. All are optional.
type StatusActions struct {
	Retry func()
	Leave func()
}

// StatusUI is the live session view. It implements viewer.Sink: the
// viewer loop pushes updates through a buffered channel, the bubbletea
// model renders them. Updates are dropped rather than ever blocking the
// loop.
type StatusUI struct {
	program *tea.Program
	model   *statusModel
	updates chan tea.Msg
	wg      sync.WaitGroup
}

// Messages bridged from the viewer loop into the model.
type (
	snapshotMsg  viewer.Snapshot
	telemetryMsg telemetry.Telemetry
	fleetMsg     map[string]telemetry.Telemetry
	overlayMsg   []byte
	rosterMsg    []signaling.ViewerInfo
	staleMsg     bool
	noticeMsg    string
)

// NewStatusUI creates the live status view for one watch session.
func NewStatusUI(actions StatusActions) *StatusUI {
	updates := make(chan tea.Msg, 100)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	model := &statusModel{
		spinner: s,
		updates: updates,
		actions: actions,
	}

	return &StatusUI{
		model:   model,
		updates: updates,
	}
}

// Start runs the UI in a goroutine. Inline mode, no alt screen, so
// prior terminal output stays visible.
func (ui *StatusUI) Start() {
	ui.wg.Add(1)
	go func() {
		defer ui.wg.Done()
		ui.program = tea.NewProgram(ui.model)
		if _, err := ui.program.Run(); err != nil {
			fmt.Printf("UI error: %v\n", err)
		}
	}()
}

// Stop quits the UI and waits for the terminal to be released.
func (ui *StatusUI) Stop() {
	if ui.program != nil {
		ui.program.Quit()
	}
	ui.wg.Wait()
}

// Wait blocks until the user quits the view.
func (ui *StatusUI) Wait() {
	ui.wg.Wait()
}

func (ui *StatusUI) push(msg tea.Msg) {
	select {
	case ui.updates <- msg:
	default:
	}
}

// viewer.Sink implementation.

func (ui *StatusUI) Update(snap viewer.Snapshot) { ui.push(snapshotMsg(snap)) }

func (ui *StatusUI) TelemetryUpdated(t telemetry.Telemetry) { ui.push(telemetryMsg(t)) }

func (ui *StatusUI) FleetUpdated(f map[string]telemetry.Telemetry) { ui.push(fleetMsg(f)) }

func (ui *StatusUI) GeoJSONUpdated(doc []byte) { ui.push(overlayMsg(doc)) }

func (ui *StatusUI) RosterUpdated(v []signaling.ViewerInfo) { ui.push(rosterMsg(v)) }

func (ui *StatusUI) DataStale(stale bool) { ui.push(staleMsg(stale)) }

func (ui *StatusUI) Notice(msg string) { ui.push(noticeMsg(msg)) }

const maxNotices = 3

type statusModel struct {
	spinner  spinner.Model
	updates  chan tea.Msg
	actions  StatusActions
	snap     viewer.Snapshot
	tele     *telemetry.Telemetry
	trail    [][2]float64
	fleet    int
	overlays int
	roster   []signaling.ViewerInfo
	stale    bool
	notices  []string
	quitting bool
}

func (m *statusModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForUpdates())
}

func (m *statusModel) listenForUpdates() tea.Cmd {
	return func() tea.Msg {
		return <-m.updates
	}
}

func (m *statusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			if m.actions.Leave != nil {
				m.actions.Leave()
			}
			return m, tea.Quit
		case "r":
			if m.actions.Retry != nil {
				m.actions.Retry()
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case snapshotMsg:
		m.snap = viewer.Snapshot(msg)
		cmds = append(cmds, m.listenForUpdates())

	case telemetryMsg:
		t := telemetry.Telemetry(msg)
		m.tele = &t
		m.recordTrail(t)
		cmds = append(cmds, m.listenForUpdates())

	case fleetMsg:
		m.fleet = len(msg)
		cmds = append(cmds, m.listenForUpdates())

	case overlayMsg:
		m.overlays++
		cmds = append(cmds, m.listenForUpdates())

	case rosterMsg:
		m.roster = msg
		cmds = append(cmds, m.listenForUpdates())

	case staleMsg:
		m.stale = bool(msg)
		cmds = append(cmds, m.listenForUpdates())

	case noticeMsg:
		m.notices = append(m.notices, string(msg))
		if len(m.notices) > maxNotices {
			m.notices = m.notices[len(m.notices)-maxNotices:]
		}
		cmds = append(cmds, m.listenForUpdates())
	}

	return m, tea.Batch(cmds...)
}

func (m *statusModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(fmt.Sprintf("\n%s %s\n\n", IconDrone, TitleStyle.Render("EagleView")))
	b.WriteString(m.statusLine())
	b.WriteString("\n")

	if m.snap.RoomID != "" {
		b.WriteString(fmt.Sprintf("  %s Room:      %s\n", IconRoom, BoldStyle.Render(m.snap.RoomID)))
	}
	if m.snap.PublisherName != "" {
		b.WriteString(fmt.Sprintf("  %s Publisher: %s\n", IconPeer, m.snap.PublisherName))
	}
	if m.snap.ViewerCount > 0 {
		b.WriteString(fmt.Sprintf("  %s Viewers:   %d\n", IconWeb, m.snap.ViewerCount))
	}
	if m.snap.BytesReceived > 0 {
		b.WriteString(fmt.Sprintf("  %s Received:  %s\n", IconVideo, formatBytes(m.snap.BytesReceived)))
	}
	if m.fleet > 0 {
		b.WriteString(fmt.Sprintf("  %s Fleet:     %d other drones\n", IconSatellite, m.fleet))
	}

	if m.tele != nil {
		b.WriteString("\n")
		b.WriteString(m.telemetryView())
	} else if m.snap.RoomID != "" {
		b.WriteString("\n  " + MutedStyle.Render(IconSatellite+" Waiting for location data") + "\n")
	}

	if len(m.notices) > 0 {
		b.WriteString("\n")
		for _, n := range m.notices {
			b.WriteString(MutedStyle.Render("  • "+n) + "\n")
		}
	}

	b.WriteString("\n" + MutedStyle.Render("Press r to retry, q to quit"))
	b.WriteString("\n")

	return b.String()
}

func (m *statusModel) statusLine() string {
	switch m.snap.State {
	case viewer.StateStreaming:
		line := fmt.Sprintf("%s %s", IconVideo, SuccessStyle.Render("LIVE"))
		if m.snap.FrozenFrame || !m.snap.Receiving {
			line += WarningStyle.Render("  (holding last frame)")
		}
		return line
	case viewer.StateRoomFull:
		return fmt.Sprintf("%s %s", IconError, ErrorStyle.Render("Room is full"))
	case viewer.StateNoSignal:
		return fmt.Sprintf("%s %s", IconError, ErrorStyle.Render("Cannot reach the stream"))
	case viewer.StateNoStreamConnection:
		return fmt.Sprintf("%s %s", IconWarning, WarningStyle.Render("Connected, but no video arriving"))
	case viewer.StateAttemptingSignal:
		return fmt.Sprintf("%s %s", m.spinner.View(), "Connecting to stream...")
	case viewer.StateAttemptingStream:
		return fmt.Sprintf("%s %s", m.spinner.View(), "Waiting for video...")
	default:
		return fmt.Sprintf("%s %s", IconWaiting, MutedStyle.Render("No stream selected"))
	}
}

func (m *statusModel) telemetryView() string {
	t := m.tele
	var b strings.Builder

	pos := fmt.Sprintf("  %s Position:  %.6f, %.6f", IconSatellite, t.Latitude, t.Longitude)
	if t.AltitudeAHL != nil {
		pos += fmt.Sprintf("  %.1fm AHL", *t.AltitudeAHL)
	}
	b.WriteString(pos + "\n")

	b.WriteString(fmt.Sprintf("  %s Attitude:  bearing %.0f°  pitch %.0f°  roll %.0f°\n",
		IconCompass, t.Bearing, t.Pitch, t.Roll))

	if t.Battery != nil {
		b.WriteString(fmt.Sprintf("  %s Battery:   %.0f%%\n", IconBattery, *t.Battery))
	}

	if len(m.trail) > 1 {
		b.WriteString(MutedStyle.Render(fmt.Sprintf("  %s Trail:     %d points", IconWeb, len(m.trail))) + "\n")
	}

	if m.stale {
		b.WriteString("  " + WarningStyle.Render(IconWarning+" Telemetry stale") + "\n")
	}

	return b.String()
}

// maxTrailPoints caps the remembered coordinate trail.
const maxTrailPoints = 200

func (m *statusModel) recordTrail(t telemetry.Telemetry) {
	point := [2]float64{t.Latitude, t.Longitude}
	if n := len(m.trail); n > 0 && m.trail[n-1] == point {
		return
	}
	m.trail = append(m.trail, point)
	if len(m.trail) > maxTrailPoints {
		m.trail = m.trail[1:]
	}
}
