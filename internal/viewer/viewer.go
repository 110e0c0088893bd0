// Package viewer implements the WebRTC viewer core: one logical room
// session driven by a single event-loop goroutine. Socket events, peer
// connection callbacks and periodic ticks all funnel into that loop, so
// session state needs no locking; each event runs to completion before
// the next.
package viewer

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/simtim-dev/eagleview/internal/config"
	"github.com/simtim-dev/eagleview/internal/history"
	"github.com/simtim-dev/eagleview/internal/signaling"
	"github.com/simtim-dev/eagleview/internal/telemetry"
)

const (
	// tickInterval drives flow sampling and state recomputation.
	tickInterval = 500 * time.Millisecond

	// Stale telemetry detection: checked every staleCheckInterval,
	// telemetry older than staleThreshold is flagged.
	staleCheckInterval = 2 * time.Second
	staleThreshold     = 5 * time.Second

	// peerReconnectDelay waits out transient disconnected/failed states
	// before replacing the peer connection.
	peerReconnectDelay = time.Second

	// socketReconnectDelay separates socket recovery from the follow-up
	// peer-level reconnect.
	socketReconnectDelay = 500 * time.Millisecond
)

// conn is the slice of the signaling client the loop depends on.
type conn interface {
	Send(event string, payload any) error
	IsConnected() bool
	Connect() error
}

// Options configures optional collaborators.
type Options struct {
	Sink     Sink
	History  *history.Store
	Recorder *telemetry.Recorder
	Viewer   signaling.ViewerInfo
}

// Viewer runs one room membership end to end. All fields below are
// owned by the Run loop goroutine.
type Viewer struct {
	cfg     *config.Config
	conn    conn
	drops   <-chan struct{}
	handler *signaling.Handler
	sink    Sink
	hist    *history.Store
	rec     *telemetry.Recorder
	now     func() time.Time

	identity signaling.ViewerInfo

	session *Session
	peer    *PeerSession
	peerGen uint64
	flow    FlowMonitor

	assembler       *telemetry.ChunkAssembler
	lastTelemetry   *telemetry.Telemetry
	lastTelemetryAt time.Time
	dataStale       bool

	pendingReconnect bool
	frozenFrame      bool
	lastState        State
	lastReceiving    bool

	peerEvents chan peerEvent
	commands   chan func()
}

// New wires a viewer around an already constructed signaling client and
// handler. Call Join before Run (or from another goroutine afterwards).
func New(cfg *config.Config, client *signaling.Client, handler *signaling.Handler, opts Options) *Viewer {
	sink := opts.Sink
	if sink == nil {
		sink = nopSink{}
	}
	return &Viewer{
		cfg:        cfg,
		conn:       client,
		drops:      client.Drops(),
		handler:    handler,
		sink:       sink,
		hist:       opts.History,
		rec:        opts.Recorder,
		identity:   opts.Viewer,
		now:        time.Now,
		assembler:  telemetry.NewChunkAssembler(),
		lastState:  StateNoStream,
		peerEvents: make(chan peerEvent, 128),
		commands:   make(chan func(), 16),
	}
}

// Join starts a membership attempt. Safe before Run; once the loop is
// running, use the command channel via Rejoin instead.
func (v *Viewer) Join(roomID string) {
	v.session = NewSession(roomID, v.identity, v.now())
	v.sendJoin()
}

// Rejoin switches to a different room through the running loop.
func (v *Viewer) Rejoin(roomID string) {
	v.command(func() {
		v.closePeer(false)
		v.frozenFrame = false
		v.session = NewSession(roomID, v.identity, v.now())
		v.sendJoin()
		v.recompute()
	})
}

// Leave asks the loop to leave the room and destroy the session.
func (v *Viewer) Leave() {
	v.command(func() { v.leave() })
}

// Retry asks the loop to run a manual, user-initiated retry: the peer
// connection is always fully discarded and all flow/timing state reset.
func (v *Viewer) Retry() {
	v.command(func() { v.manualRetry() })
}

func (v *Viewer) command(fn func()) {
	select {
	case v.commands <- fn:
	default:
		slog.Warn("viewer command dropped, loop not consuming")
	}
}

// Run processes events until ctx is cancelled. It owns all mutable
// session state; nothing outside the loop may touch it.
func (v *Viewer) Run(ctx context.Context) {
	tick := time.NewTicker(tickInterval)
	stale := time.NewTicker(staleCheckInterval)
	defer tick.Stop()
	defer stale.Stop()

	v.recompute()

	for {
		select {
		case <-ctx.Done():
			v.leave()
			return

		case payload := <-v.handler.Joined:
			v.handleJoined(payload)

		case payload := <-v.handler.PublisherJoined:
			v.handlePublisherJoined(payload)

		case <-v.handler.PublisherLeft:
			v.handlePublisherLeft()

		case viewers := <-v.handler.ViewersUpdated:
			v.handleViewersUpdated(viewers)

		case payload := <-v.handler.Offer:
			v.handleOffer(payload)

		case payload := <-v.handler.RemoteCandidate:
			v.handleRemoteCandidate(payload)

		case payload := <-v.handler.ServerError:
			v.handleServerError(payload)

		case <-v.drops:
			v.handleSocketDrop()

		case ev := <-v.peerEvents:
			v.handlePeerEvent(ev)

		case fn := <-v.commands:
			fn()

		case <-tick.C:
			v.handleTick()

		case <-stale.C:
			v.handleStaleCheck()
		}
	}
}

// --- signaling events ---

func (v *Viewer) handleJoined(payload *signaling.JoinedPayload) {
	if v.session == nil || v.session.RoomID != payload.RoomID {
		slog.Debug("joined event for inactive room", "roomId", payload.RoomID)
		return
	}

	v.session.PublisherName = payload.PublisherName
	v.session.Viewers = payload.Viewers
	v.session.RoomFull = false
	v.pendingReconnect = false

	if v.hist != nil {
		if err := v.hist.Add(payload.RoomID, payload.PublisherName); err != nil {
			slog.Debug("history update failed", "error", err)
		}
	}
	v.sink.RosterUpdated(payload.Viewers)

	if payload.HasPublisher {
		v.startStream()
	} else {
		// Nobody is broadcasting. Waiting out the timeout would only
		// delay the inevitable: clear the watchers and fail now.
		v.session.SignalingReady = false
		v.session.SignalingFailed = true
		v.session.SignalingStartedAt = time.Time{}
		v.sink.Notice(ErrNoPublisher.Error() + " " + payload.RoomID)
	}

	v.recompute()
}

func (v *Viewer) handlePublisherJoined(payload *signaling.PublisherPayload) {
	if v.session == nil {
		return
	}
	v.session.PublisherName = payload.PublisherName
	v.session.SignalingFailed = false
	if v.hist != nil {
		if err := v.hist.Add(v.session.RoomID, payload.PublisherName); err != nil {
			slog.Debug("history update failed", "error", err)
		}
	}
	v.sink.Notice("publisher joined: " + payload.PublisherName)
	v.startStream()
	v.recompute()
}

func (v *Viewer) handlePublisherLeft() {
	if v.session == nil {
		return
	}
	v.sink.Notice("publisher disconnected")
	v.closePeer(true)
	v.session.SignalingReady = false
	v.session.SignalingFailed = true
	v.session.SignalingStartedAt = time.Time{}
	v.recompute()
}

func (v *Viewer) handleViewersUpdated(viewers []signaling.ViewerInfo) {
	if v.session == nil {
		return
	}
	v.session.Viewers = viewers
	v.sink.RosterUpdated(viewers)
	v.recompute()
}

func (v *Viewer) handleOffer(payload *signaling.OfferPayload) {
	if v.session == nil || v.peer == nil {
		slog.Debug("offer with no active peer, dropping")
		return
	}

	var offer webrtc.SessionDescription
	if err := json.Unmarshal(payload.Offer, &offer); err != nil {
		slog.Warn("undecodable offer", "error", err)
		return
	}

	answer, err := v.peer.HandleOffer(offer)
	if err != nil {
		slog.Error("offer handling failed", "error", err)
		return
	}

	answerJSON, err := json.Marshal(answer)
	if err != nil {
		slog.Error("answer marshal failed", "error", err)
		return
	}

	v.conn.Send(signaling.EventAnswer, signaling.AnswerPayload{
		RoomID:   v.session.RoomID,
		Answer:   answerJSON,
		TargetID: payload.SenderID,
	})
}

func (v *Viewer) handleRemoteCandidate(payload *signaling.CandidatePayload) {
	if v.peer == nil {
		return
	}
	var candidate webrtc.ICECandidateInit
	if err := json.Unmarshal(payload.Candidate, &candidate); err != nil {
		slog.Warn("undecodable remote candidate", "error", err)
		return
	}
	if err := v.peer.AddRemoteCandidate(candidate); err != nil {
		slog.Warn("remote candidate rejected", "error", err)
	}
}

func (v *Viewer) handleServerError(payload *signaling.ErrorPayload) {
	if v.session == nil {
		return
	}

	if payload.Code == signaling.ErrorCodeRoomFull {
		v.session.RoomFull = true
		v.closePeer(false)
		v.sink.Notice(ErrRoomFull.Error())
		v.recompute()
		return
	}

	slog.Warn("server error", "message", payload.Message, "code", payload.Code)
	v.session.SignalingReady = false
	v.session.SignalingFailed = true
	v.session.SignalingStartedAt = time.Time{}
	v.sink.Notice(payload.Message)
	v.recompute()
}

// --- peer events ---

func (v *Viewer) handlePeerEvent(ev peerEvent) {
	// Events from a superseded peer connection are no-ops, full stop.
	if ev.generation() != v.peerGen || v.peer == nil {
		slog.Debug("dropping stale peer event", "gen", ev.generation(), "current", v.peerGen)
		return
	}

	switch e := ev.(type) {
	case trackEvent:
		v.handleTrack(e)
	case peerStateEvent:
		v.handlePeerState(e)
	case localCandidateEvent:
		v.handleLocalCandidate(e)
	case channelMessageEvent:
		v.handleChannelMessage(e)
	case reconnectDueEvent:
		v.reconnectPeer(false)
	}
}

func (v *Viewer) handleTrack(e trackEvent) {
	if e.kind != "video" {
		return
	}
	v.frozenFrame = false
	v.sink.Notice("receiving " + e.codec + " video")
	v.recompute()
}

func (v *Viewer) handlePeerState(e peerStateEvent) {
	switch e.state {
	case webrtc.PeerConnectionStateConnected:
		// Nothing latches here: only flowing bytes prove streaming.

	case webrtc.PeerConnectionStateDisconnected, webrtc.PeerConnectionStateFailed:
		// Frequently transient. Give the connection a moment before
		// tearing it down; the generation tag voids the timer if the
		// connection is replaced meanwhile.
		gen := e.gen
		time.AfterFunc(peerReconnectDelay, func() {
			select {
			case v.peerEvents <- reconnectDueEvent{gen: gen}:
			default:
			}
		})

	case webrtc.PeerConnectionStateClosed:
		// Terminal for this instance only, not for the session.
	}
	v.recompute()
}

func (v *Viewer) handleLocalCandidate(e localCandidateEvent) {
	if v.session == nil {
		return
	}
	candidateJSON, err := json.Marshal(e.candidate)
	if err != nil {
		return
	}
	v.conn.Send(signaling.EventICECandidate, signaling.CandidatePayload{
		RoomID:    v.session.RoomID,
		Candidate: candidateJSON,
	})
}

func (v *Viewer) handleChannelMessage(e channelMessageEvent) {
	switch e.label {
	case ChannelDroneData:
		rec, err := telemetry.Decode(e.data)
		if err != nil {
			slog.Warn("undecodable telemetry", "error", err)
			return
		}
		v.lastTelemetry = &rec
		v.lastTelemetryAt = v.now()
		if v.dataStale {
			v.dataStale = false
			v.sink.DataStale(false)
		}
		v.sink.TelemetryUpdated(rec)

	case ChannelGeoJSON:
		v.handleGeoJSON(e.data)

	case ChannelFleet:
		fleet, err := telemetry.DecodeFleet(e.data)
		if err != nil {
			slog.Warn("undecodable fleet telemetry", "error", err)
			return
		}
		v.sink.FleetUpdated(fleet)
	}
}

func (v *Viewer) handleGeoJSON(data []byte) {
	if !telemetry.IsChunk(data) {
		if !json.Valid(data) {
			slog.Warn("invalid geojson document, dropping")
			return
		}
		v.sink.GeoJSONUpdated(data)
		return
	}

	var env telemetry.ChunkEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		slog.Warn("undecodable geojson chunk", "error", err)
		return
	}
	doc, done, err := v.assembler.Add(env)
	if err != nil {
		slog.Warn("geojson reassembly failed", "id", env.ID, "error", err)
		return
	}
	if done {
		v.sink.GeoJSONUpdated(doc)
	}
}

// --- timers ---

func (v *Viewer) handleTick() {
	var src StatsSource
	if v.peer != nil {
		src = v.peer
	}
	receiving := v.flow.Sample(src, v.now())

	if receiving && v.session != nil {
		v.session.WasStreaming = true
		v.session.StreamOpen = true
		v.frozenFrame = false
	}

	if v.rec != nil && v.session != nil {
		v.rec.Record(telemetry.Sample{
			RoomID:        v.session.RoomID,
			Receiving:     receiving,
			BytesReceived: v.flow.BytesReceived(),
			Telemetry:     v.lastTelemetry,
		})
	}

	v.recomputeWith(receiving)
}

func (v *Viewer) handleStaleCheck() {
	if v.lastTelemetryAt.IsZero() {
		return
	}
	stale := v.now().Sub(v.lastTelemetryAt) > staleThreshold
	if stale != v.dataStale {
		v.dataStale = stale
		v.sink.DataStale(stale)
	}
}

// --- session operations ---

func (v *Viewer) sendJoin() {
	if v.session == nil {
		return
	}
	v.conn.Send(signaling.EventJoinAsViewer, signaling.JoinRequest{
		RoomID: v.session.RoomID,
		Name:   v.session.Viewer.Name,
		Email:  v.session.Viewer.Email,
	})
}

// startStream discards any previous peer connection and negotiates a
// fresh one. Never are two peer connections alive for one session.
func (v *Viewer) startStream() {
	if v.session == nil {
		return
	}

	v.closePeer(false)

	v.peerGen++
	turnUser, turnPass := v.cfg.GetTURNCredentials()
	servers := buildICEServers(
		v.cfg.GetSTUNServers(), v.cfg.GetTURNServers(), turnUser, turnPass)
	peer, err := newPeerSession(servers, v.peerGen, v.peerEvents)
	if err != nil {
		slog.Error("peer connection setup failed", "error", NewError("start stream", err))
		v.session.SignalingFailed = true
		v.sink.Notice(ErrPeerFailed.Error())
		return
	}

	v.peer = peer
	v.session.SignalingReady = true
	v.session.SignalingFailed = false
	v.session.StreamingStartedAt = v.now()

	v.conn.Send(signaling.EventRequestStream, signaling.StreamRequest{
		RoomID: v.session.RoomID,
	})
}

// closePeer tears down the current peer connection. keepFrame preserves
// the last picture for display instead of clearing it, the involuntary
// disconnect behavior; a manual leave passes false.
func (v *Viewer) closePeer(keepFrame bool) {
	if v.peer != nil {
		if keepFrame && v.session != nil && v.session.WasStreaming {
			v.frozenFrame = true
		}
		v.peer.Close()
		v.peer = nil
	}
	// Baseline never survives a connection instance.
	v.flow.Reset()
	v.assembler.Reset()
	v.lastReceiving = false
}

// leave is the explicit, user-initiated exit: notify the server, cancel
// everything, destroy the session. No freeze-frame.
func (v *Viewer) leave() {
	if v.session == nil {
		slog.Debug("leave ignored", "error", ErrNoSession)
		return
	}
	v.conn.Send(signaling.EventLeaveRoom, signaling.LeaveRequest{
		RoomID: v.session.RoomID,
	})

	v.closePeer(false)
	v.session = nil
	v.pendingReconnect = false
	v.frozenFrame = false
	v.lastTelemetry = nil
	v.lastTelemetryAt = time.Time{}
	if v.dataStale {
		v.dataStale = false
		v.sink.DataStale(false)
	}
	v.recompute()
}

// --- state ---

// recompute re-evaluates state using the most recent flow sample;
// receiving itself is only re-measured on the tick.
func (v *Viewer) recompute() {
	v.recomputeWith(v.lastReceiving && v.peer != nil)
}

func (v *Viewer) recomputeWith(receiving bool) {
	v.lastReceiving = receiving
	state := Compute(v.session.Facts(receiving, v.now()))
	snap := v.snapshot(state, receiving)
	v.lastState = state
	v.sink.Update(snap)
}

func (v *Viewer) snapshot(state State, receiving bool) Snapshot {
	snap := Snapshot{
		State:         state,
		Receiving:     receiving,
		BytesReceived: v.flow.BytesReceived(),
		FrozenFrame:   v.frozenFrame,
	}
	if v.session != nil {
		snap.RoomID = v.session.RoomID
		snap.PublisherName = v.session.PublisherName
		snap.ViewerCount = len(v.session.Viewers)
		snap.StreamOpen = v.session.StreamOpen
	}
	return snap
}

// State returns the most recently computed state. Loop-internal, but
// harmless to read for tests and the final summary.
func (v *Viewer) State() State {
	return v.lastState
}
