package viewer

import (
	"time"

	"github.com/pion/webrtc/v4"
)

// StatsSource is the slice of the peer connection the flow monitor
// needs. *webrtc.PeerConnection satisfies it; tests substitute a fake.
type StatsSource interface {
	GetStats() webrtc.StatsReport
}

// FlowMonitor decides whether video data is actually flowing by
// sampling the inbound video stream's cumulative byte counter. Events
// say what the connection claims; the byte counter says what is true.
type FlowMonitor struct {
	lastBytes  uint64
	lastSample time.Time
	primed     bool
}

// Sample reads the current inbound byte count and compares it against
// the previous sample. The first sample after a Reset only establishes
// the baseline and always reports false, so a counter carried over from
// a previous connection can never fake data flow.
//
// A nil source (no peer connection) reports false and leaves the
// baseline untouched.
func (m *FlowMonitor) Sample(src StatsSource, now time.Time) bool {
	if src == nil {
		return false
	}

	bytes, ok := inboundBytes(src.GetStats())
	if !ok {
		return false
	}

	receiving := m.primed && bytes > m.lastBytes
	m.lastBytes = bytes
	m.lastSample = now
	m.primed = true
	return receiving
}

// BytesReceived returns the most recently sampled counter value.
func (m *FlowMonitor) BytesReceived() uint64 {
	return m.lastBytes
}

// Reset discards the baseline. Must be called whenever the peer
// connection is replaced or torn down; a stale baseline compared across
// connection instances would report nonsense.
func (m *FlowMonitor) Reset() {
	m.lastBytes = 0
	m.lastSample = time.Time{}
	m.primed = false
}

// inboundBytes extracts the cumulative received byte counter of the
// inbound video stream from a stats report. Only video RTP bytes count:
// the ICE transport total also grows from STUN keepalives and
// data-channel telemetry, so it can claim a stream that sends no video.
func inboundBytes(report webrtc.StatsReport) (uint64, bool) {
	for _, stats := range report {
		if s, ok := stats.(webrtc.InboundRTPStreamStats); ok && s.Kind == "video" {
			return s.BytesReceived, true
		}
	}
	return 0, false
}
