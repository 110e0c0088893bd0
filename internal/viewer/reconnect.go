package viewer

import (
	"log/slog"
	"time"
)

// Reconnection policy. Transport loss never destroys the session; the
// supervisor rebuilds connections underneath it. Socket recovery always
// precedes peer recovery, because a peer negotiation without a working
// signaling channel cannot complete.

// handleSocketDrop reacts to the signaling connection going down. With
// no active session there is nothing worth rebuilding.
func (v *Viewer) handleSocketDrop() {
	if v.session == nil {
		return
	}

	slog.Warn("signaling connection lost, reconnecting", "roomId", v.session.RoomID)
	v.pendingReconnect = true
	v.closePeer(true)
	v.session.SignalingReady = false
	v.session.SignalingStartedAt = v.now()
	v.recompute()

	go v.redial()
}

// Redial policy: retry immediately, no backoff. A dropped socket is
// usually a blip and the next dial succeeds at once; the short constant
// pause only keeps a dead network from being spun on. After the attempt
// budget the user still has the manual retry.
const (
	redialAttempts = 20
	redialPause    = 500 * time.Millisecond
)

// redial re-establishes the socket off-loop, then hands control back to
// the loop goroutine.
func (v *Viewer) redial() {
	for i := 1; i <= redialAttempts; i++ {
		err := v.conn.Connect()
		if err == nil {
			v.command(func() { v.socketReconnected() })
			return
		}
		slog.Warn("signaling reconnect failed", "attempt", i, "error", err)
		time.Sleep(redialPause)
	}
	v.command(func() {
		v.pendingReconnect = false
		if v.session != nil {
			v.session.SignalingFailed = true
		}
		slog.Warn("reconnect abandoned", "error", ErrSignalingFailed)
		v.sink.Notice("lost connection to server")
		v.recompute()
	})
}

// socketReconnected runs on the loop once the socket is back. The
// server forgot us on disconnect, so membership is re-announced, and
// after a short settle delay the peer connection is rebuilt.
func (v *Viewer) socketReconnected() {
	if v.session == nil || !v.pendingReconnect {
		return
	}
	v.pendingReconnect = false
	v.sink.Notice("reconnected to server")

	v.session.SignalingStartedAt = v.now()
	v.sendJoin()

	gen := v.peerGen
	time.AfterFunc(socketReconnectDelay, func() {
		v.command(func() {
			// A newer join/stream flow may have started meanwhile.
			if v.peerGen != gen {
				return
			}
			v.reconnectPeer(false)
		})
	})
}

// reconnectPeer replaces the peer connection. Automatic invocations
// (manual=false) bail out when the current connection recovered on its
// own; a user-initiated retry replaces it unconditionally.
func (v *Viewer) reconnectPeer(manual bool) {
	if v.session == nil {
		return
	}

	if !v.conn.IsConnected() {
		// Wrong layer broken. Fix the socket first; the peer rebuild is
		// scheduled from socketReconnected.
		v.handleSocketDrop()
		return
	}

	if !manual && v.peer != nil && !needsReconnect(v.peer.ConnectionState()) {
		slog.Debug("peer connection recovered, skipping reconnect")
		return
	}

	slog.Info("rebuilding peer connection", "roomId", v.session.RoomID, "manual", manual)
	v.startStream()
	v.recompute()
}

// manualRetry is the user's retry action: clear every failure latch and
// run the join flow from the top.
func (v *Viewer) manualRetry() {
	if v.session == nil {
		slog.Debug("retry ignored", "error", ErrNoSession)
		return
	}
	v.session.ResetForJoin(v.now())
	v.closePeer(false)
	v.frozenFrame = false

	if !v.conn.IsConnected() {
		v.pendingReconnect = true
		go v.redial()
		v.recompute()
		return
	}

	v.sendJoin()
	v.recompute()
}
