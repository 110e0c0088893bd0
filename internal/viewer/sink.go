package viewer

import (
	"github.com/simtim-dev/eagleview/internal/signaling"
	"github.com/simtim-dev/eagleview/internal/telemetry"
)

// Snapshot is the rendered view of the session at one instant. The
// state value is authoritative; the rest is context for display.
type Snapshot struct {
	State         State
	RoomID        string
	PublisherName string
	ViewerCount   int
	Receiving     bool
	BytesReceived uint64
	StreamOpen    bool

	// FrozenFrame: the live feed stopped but the last picture is being
	// held rather than cleared.
	FrozenFrame bool
}

// Sink receives everything the viewer loop wants rendered. All methods
// are invoked from the single loop goroutine; implementations must not
// block.
type Sink interface {
	// Update delivers the freshly computed snapshot. Called every tick
	// and after any event that may change state.
	Update(snap Snapshot)

	// TelemetryUpdated delivers the publisher drone's latest telemetry.
	TelemetryUpdated(t telemetry.Telemetry)

	// FleetUpdated delivers other drones' telemetry keyed by drone ID.
	FleetUpdated(fleet map[string]telemetry.Telemetry)

	// GeoJSONUpdated delivers a complete map overlay document.
	GeoJSONUpdated(doc []byte)

	// RosterUpdated delivers the current viewer list.
	RosterUpdated(viewers []signaling.ViewerInfo)

	// DataStale flags telemetry older than the staleness threshold.
	DataStale(stale bool)

	// Notice surfaces a short, human-readable event description.
	Notice(msg string)
}

// nopSink keeps the loop unconditional about rendering.
type nopSink struct{}

func (nopSink) Update(Snapshot)                             {}
func (nopSink) TelemetryUpdated(telemetry.Telemetry)        {}
func (nopSink) FleetUpdated(map[string]telemetry.Telemetry) {}
func (nopSink) GeoJSONUpdated([]byte)                       {}
func (nopSink) RosterUpdated([]signaling.ViewerInfo)        {}
func (nopSink) DataStale(bool)                              {}
func (nopSink) Notice(string)                               {}
