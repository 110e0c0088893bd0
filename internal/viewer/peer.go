package viewer

import (
	"errors"
	"io"
	"log/slog"

	"github.com/pion/webrtc/v4"
)

// Well-known data channel labels the publisher opens towards viewers.
const (
	ChannelDroneData = "drone_data"
	ChannelGeoJSON   = "geojson_data"
	ChannelFleet     = "telemetry_drone_data"
)

// PeerSession owns exactly one peer connection and its data channels.
// The viewer never holds two at once: a replacement is always preceded
// by closing the previous instance.
type PeerSession struct {
	pc     *webrtc.PeerConnection
	gen    uint64
	events chan<- peerEvent
}

// newPeerSession creates a peer connection configured with the given
// ICE servers and wires its callbacks to post generation-tagged events
// into the viewer loop.
func newPeerSession(iceServers []webrtc.ICEServer, gen uint64, events chan<- peerEvent) (*PeerSession, error) {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{
		ICEServers: iceServers,
	})
	if err != nil {
		return nil, NewError("create peer connection", err)
	}

	p := &PeerSession{pc: pc, gen: gen, events: events}

	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		codec := track.Codec().MimeType
		slog.Info("remote track attached",
			"kind", track.Kind().String(), "codec", codec, "ssrc", uint32(track.SSRC()))

		p.post(trackEvent{
			gen:   gen,
			kind:  track.Kind().String(),
			codec: codec,
			ssrc:  uint32(track.SSRC()),
		})

		// Drain RTP so the transport keeps flowing; the byte counters
		// sampled by the flow monitor are the only consumer of media.
		go p.drainTrack(track)
	})

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		p.post(localCandidateEvent{gen: gen, candidate: c.ToJSON()})
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		slog.Debug("peer connection state", "state", state.String(), "gen", gen)
		p.post(peerStateEvent{gen: gen, state: state})
	})

	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		label := dc.Label()
		switch label {
		case ChannelDroneData, ChannelGeoJSON, ChannelFleet:
		default:
			slog.Debug("ignoring unknown data channel", "label", label)
			return
		}

		dc.OnMessage(func(msg webrtc.DataChannelMessage) {
			p.post(channelMessageEvent{gen: gen, label: label, data: msg.Data})
		})
	})

	return p, nil
}

func (p *PeerSession) drainTrack(track *webrtc.TrackRemote) {
	for {
		if _, _, err := track.ReadRTP(); err != nil {
			if !errors.Is(err, io.EOF) {
				slog.Debug("track read ended", "error", err)
			}
			return
		}
	}
}

// post delivers an event to the viewer loop without ever blocking a
// pion callback goroutine. Once the loop has stopped consuming, the
// connection is on its way down and dropped events are harmless.
func (p *PeerSession) post(ev peerEvent) {
	select {
	case p.events <- ev:
	default:
		slog.Debug("viewer loop busy, dropping peer event", "gen", ev.generation())
	}
}

// HandleOffer applies the publisher's offer and produces the local
// answer. Trickle ICE: the answer is returned immediately and
// candidates follow via OnICECandidate as they are gathered.
func (p *PeerSession) HandleOffer(offer webrtc.SessionDescription) (*webrtc.SessionDescription, error) {
	if err := p.pc.SetRemoteDescription(offer); err != nil {
		return nil, NewError("set remote description", err)
	}

	answer, err := p.pc.CreateAnswer(nil)
	if err != nil {
		return nil, NewError("create answer", err)
	}

	if err := p.pc.SetLocalDescription(answer); err != nil {
		return nil, NewError("set local description", err)
	}

	return p.pc.LocalDescription(), nil
}

// AddRemoteCandidate applies a trickled ICE candidate from the
// publisher side.
func (p *PeerSession) AddRemoteCandidate(candidate webrtc.ICECandidateInit) error {
	if err := p.pc.AddICECandidate(candidate); err != nil {
		return NewError("add ICE candidate", err)
	}
	return nil
}

// ConnectionState returns the current peer connection state.
func (p *PeerSession) ConnectionState() webrtc.PeerConnectionState {
	return p.pc.ConnectionState()
}

// GetStats implements StatsSource.
func (p *PeerSession) GetStats() webrtc.StatsReport {
	return p.pc.GetStats()
}

// Close tears down the peer connection. Data channels close with it.
// Session-level sticky flags are untouched; that is the caller's call.
func (p *PeerSession) Close() {
	if err := p.pc.Close(); err != nil {
		slog.Debug("peer connection close", "error", err)
	}
}

// needsReconnect reports whether a peer connection in this state must
// be replaced rather than waited on.
func needsReconnect(state webrtc.PeerConnectionState) bool {
	switch state {
	case webrtc.PeerConnectionStateDisconnected,
		webrtc.PeerConnectionStateFailed,
		webrtc.PeerConnectionStateClosed:
		return true
	default:
		return false
	}
}

// buildICEServers assembles the pion ICE server list from configured
// STUN and optional TURN endpoints.
func buildICEServers(stunURLs, turnURLs []string, turnUser, turnPass string) []webrtc.ICEServer {
	servers := []webrtc.ICEServer{{URLs: stunURLs}}
	if len(turnURLs) > 0 {
		servers = append(servers, webrtc.ICEServer{
			URLs:       turnURLs,
			Username:   turnUser,
			Credential: turnPass,
		})
	}
	return servers
}
