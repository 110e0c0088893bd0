package viewer

import "time"

// State is the discrete UI state derived from session and transport
// facts. It is never stored: every tick recomputes it from scratch.
type State int

const (
	// StateNoStream: no room ID set (initial, or after a manual leave).
	StateNoStream State = iota
	// StateRoomFull: the server rejected the join for capacity.
	StateRoomFull
	// StateAttemptingSignal: joining, signaling not yet established.
	StateAttemptingSignal
	// StateNoSignal: signaling never came up within the timeout, or the
	// server reported there is nothing to connect to.
	StateNoSignal
	// StateAttemptingStream: signaling up, waiting for video bytes.
	StateAttemptingStream
	// StateNoStreamConnection: signaling up but video never arrived.
	StateNoStreamConnection
	// StateStreaming: video is flowing, or the streaming view was
	// entered earlier and not explicitly left.
	StateStreaming
)

func (s State) String() string {
	switch s {
	case StateNoStream:
		return "no-stream"
	case StateRoomFull:
		return "room-full"
	case StateAttemptingSignal:
		return "attempting-signalling-connection"
	case StateNoSignal:
		return "no-signalling-connection"
	case StateAttemptingStream:
		return "attempting-stream-connection"
	case StateNoStreamConnection:
		return "no-stream-connection"
	case StateStreaming:
		return "streaming"
	default:
		return "unknown"
	}
}

// Connection timeouts. Soft limits: crossing one changes the displayed
// state and surfaces a retry affordance, it never tears the session down.
const (
	SignalingTimeout = 5 * time.Second
	StreamingTimeout = 5 * time.Second
)

// Facts is everything the state computation may look at.
type Facts struct {
	RoomID          string
	RoomFull        bool
	StreamOpen      bool
	SignalingReady  bool
	SignalingFailed bool
	Receiving       bool

	SignalingStartedAt time.Time
	StreamingStartedAt time.Time
	Now                time.Time
}

// Compute derives the UI state. Precedence, top to bottom: absence of a
// room ID, the sticky streaming view, room-full rejection, signaling
// establishment (with timeout), then data flow (with timeout). The
// StreamOpen override is what makes brief reconnect dips invisible.
func Compute(f Facts) State {
	if f.RoomID == "" {
		return StateNoStream
	}
	if f.StreamOpen {
		return StateStreaming
	}
	if f.RoomFull {
		return StateRoomFull
	}

	if !f.SignalingReady {
		if f.SignalingFailed {
			return StateNoSignal
		}
		if !f.SignalingStartedAt.IsZero() && f.Now.Sub(f.SignalingStartedAt) >= SignalingTimeout {
			return StateNoSignal
		}
		return StateAttemptingSignal
	}

	if f.Receiving {
		return StateStreaming
	}
	if !f.StreamingStartedAt.IsZero() && f.Now.Sub(f.StreamingStartedAt) >= StreamingTimeout {
		return StateNoStreamConnection
	}
	return StateAttemptingStream
}
