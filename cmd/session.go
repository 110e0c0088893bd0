package cmd

import (
	"sync"

	"github.com/simtim-dev/eagleview/internal/config"
	"github.com/simtim-dev/eagleview/internal/history"
	"github.com/simtim-dev/eagleview/internal/signaling"
	"github.com/simtim-dev/eagleview/internal/telemetry"
	"github.com/simtim-dev/eagleview/internal/viewer"
)

// loadIdentity resolves the viewer identity: explicit flags win, then
// whatever was remembered from a previous run. New explicit values are
// remembered for next time.
func loadIdentity(cfg *config.Config) (*history.Store, signaling.ViewerInfo) {
	hist, err := history.NewStore()
	if err != nil {
		return nil, signaling.ViewerInfo{Name: cfg.ViewerName, Email: cfg.ViewerEmail}
	}

	remembered, _ := hist.Load()
	identity := signaling.ViewerInfo{
		Name:  cfg.ViewerName,
		Email: cfg.ViewerEmail,
	}
	if identity.Name == "" {
		identity.Name = remembered.Name
	}
	if identity.Email == "" {
		identity.Email = remembered.Email
	}

	if cfg.ViewerName != "" || cfg.ViewerEmail != "" {
		hist.RememberIdentity(history.Identity{Name: identity.Name, Email: identity.Email})
	}

	return hist, identity
}

// summarySink tees viewer updates to the live UI while keeping the last
// snapshot and roster for the end-of-session summary.
type summarySink struct {
	next viewer.Sink

	mu       sync.Mutex
	last     viewer.Snapshot
	roster   []signaling.ViewerInfo
	streamed bool
}

func (s *summarySink) Update(snap viewer.Snapshot) {
	s.mu.Lock()
	s.last = snap
	if snap.Receiving {
		s.streamed = true
	}
	s.mu.Unlock()
	s.next.Update(snap)
}

func (s *summarySink) summary() (viewer.Snapshot, []signaling.ViewerInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.roster, s.streamed
}

func (s *summarySink) TelemetryUpdated(t telemetry.Telemetry) { s.next.TelemetryUpdated(t) }

func (s *summarySink) FleetUpdated(f map[string]telemetry.Telemetry) { s.next.FleetUpdated(f) }

func (s *summarySink) GeoJSONUpdated(doc []byte) { s.next.GeoJSONUpdated(doc) }

func (s *summarySink) RosterUpdated(v []signaling.ViewerInfo) {
	s.mu.Lock()
	s.roster = v
	s.mu.Unlock()
	s.next.RosterUpdated(v)
}

func (s *summarySink) DataStale(stale bool) { s.next.DataStale(stale) }

func (s *summarySink) Notice(msg string) { s.next.Notice(msg) }
