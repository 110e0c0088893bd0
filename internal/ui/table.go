package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/simtim-dev/eagleview/internal/history"
	"github.com/simtim-dev/eagleview/internal/signaling"
)

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.Style().Color.Header = text.Colors{text.FgCyan, text.Bold}
	return t
}

// HistoryTableView renders the recent rooms list.
func HistoryTableView(entries []history.Entry) string {
	if len(entries) == 0 {
		return MutedStyle.Render("No recent streams")
	}

	t := newTable()
	t.AppendHeader(table.Row{"#", "Stream", "Room ID", "Last Watched"})
	for i, e := range entries {
		t.AppendRow(table.Row{
			i + 1,
			truncateString(e.Name, 30),
			e.RoomID,
			time.UnixMilli(e.Timestamp).Format("2006-01-02 15:04"),
		})
	}
	return t.Render()
}

// RenderHistoryTable outputs the recent rooms list to stdout.
func RenderHistoryTable(entries []history.Entry) {
	fmt.Println(HistoryTableView(entries))
}

// RosterTableView renders the current viewer roster.
func RosterTableView(viewers []signaling.ViewerInfo) string {
	if len(viewers) == 0 {
		return MutedStyle.Render("No other viewers")
	}

	t := newTable()
	t.AppendHeader(table.Row{"#", "Viewer", "Email"})
	for i, v := range viewers {
		name := v.Name
		if name == "" {
			name = "anonymous"
		}
		t.AppendRow(table.Row{i + 1, truncateString(name, 30), v.Email})
	}
	return t.Render()
}

// SessionSummary is what gets printed after a watch session ends.
type SessionSummary struct {
	RoomID    string
	Publisher string
	Duration  time.Duration
	Received  uint64
	Streamed  bool
}

func SessionSummaryView(s SessionSummary) string {
	status := "never connected"
	if s.Streamed {
		status = "streamed"
	}

	t := newTable()
	t.AppendHeader(table.Row{"Session", "Value"})
	t.AppendRows([]table.Row{
		{"Room", s.RoomID},
		{"Publisher", s.Publisher},
		{"Status", status},
		{"Duration", s.Duration.Round(time.Second).String()},
		{"Received", formatBytes(s.Received)},
	})
	return t.Render()
}

// RenderSessionSummary outputs the end-of-session summary to stdout.
func RenderSessionSummary(s SessionSummary) {
	fmt.Println(SessionSummaryView(s))
}

// RoomBanner is the pre-join box showing where we are about to connect.
type RoomBanner struct {
	RoomID   string
	RoomLink string
	Notice   string
}

func (r *RoomBanner) View() string {
	content := fmt.Sprintf("%s Watching stream\n\n%s Room ID:    %s\n%s Room Link:  %s",
		IconDrone,
		IconCopy, BoldStyle.Foreground(Primary).Render(r.RoomID),
		IconWeb, MutedStyle.Render(r.RoomLink),
	)
	if r.Notice != "" {
		content += "\n\n" + WarningStyle.Render(IconWarning+" "+r.Notice)
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Primary).
		Padding(1, 2)

	return box.Render(content)
}
