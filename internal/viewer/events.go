package viewer

import "github.com/pion/webrtc/v4"

// peerEvent is anything a peer connection callback posts into the
// viewer loop. Every event carries the generation of the connection
// that produced it; the loop drops events from superseded generations,
// so a dying connection's callbacks are provably no-ops.
type peerEvent interface {
	generation() uint64
}

type trackEvent struct {
	gen   uint64
	kind  string
	codec string
	ssrc  uint32
}

type peerStateEvent struct {
	gen   uint64
	state webrtc.PeerConnectionState
}

type localCandidateEvent struct {
	gen       uint64
	candidate webrtc.ICECandidateInit
}

type channelMessageEvent struct {
	gen   uint64
	label string
	data  []byte
}

// reconnectDueEvent fires when the short post-failure delay elapses.
type reconnectDueEvent struct {
	gen uint64
}

func (e trackEvent) generation() uint64          { return e.gen }
func (e peerStateEvent) generation() uint64      { return e.gen }
func (e localCandidateEvent) generation() uint64 { return e.gen }
func (e channelMessageEvent) generation() uint64 { return e.gen }
func (e reconnectDueEvent) generation() uint64   { return e.gen }
