package viewer

import (
	"time"

	"github.com/simtim-dev/eagleview/internal/signaling"
)

// Session is this client's membership in one room. It is created on a
// join request and destroyed only by an explicit leave; transient
// transport loss never destroys it, which is what separates "session"
// from "connection".
type Session struct {
	RoomID        string
	PublisherName string
	Viewer        signaling.ViewerInfo
	Viewers       []signaling.ViewerInfo

	// RoomFull latches a capacity rejection until the next join attempt.
	RoomFull bool

	// WasStreaming: has video ever flowed during this session.
	WasStreaming bool

	// StreamOpen: the streaming view was entered and not explicitly
	// left. While set, the UI state stays STREAMING across reconnect
	// dips.
	StreamOpen bool

	// Signaling establishment facts for the state computation.
	SignalingReady     bool
	SignalingFailed    bool
	SignalingStartedAt time.Time
	StreamingStartedAt time.Time
}

// NewSession starts a membership attempt for roomID.
func NewSession(roomID string, viewer signaling.ViewerInfo, now time.Time) *Session {
	return &Session{
		RoomID:             roomID,
		Viewer:             viewer,
		SignalingStartedAt: now,
	}
}

// Facts projects the session into the state machine's input.
func (s *Session) Facts(receiving bool, now time.Time) Facts {
	if s == nil {
		return Facts{Now: now}
	}
	return Facts{
		RoomID:             s.RoomID,
		RoomFull:           s.RoomFull,
		StreamOpen:         s.StreamOpen,
		SignalingReady:     s.SignalingReady,
		SignalingFailed:    s.SignalingFailed,
		Receiving:          receiving,
		SignalingStartedAt: s.SignalingStartedAt,
		StreamingStartedAt: s.StreamingStartedAt,
		Now:                now,
	}
}

// ResetForJoin clears per-attempt failure latches ahead of a fresh join
// or a manual retry, keeping identity and sticky streaming flags.
func (s *Session) ResetForJoin(now time.Time) {
	s.RoomFull = false
	s.SignalingReady = false
	s.SignalingFailed = false
	s.SignalingStartedAt = now
	s.StreamingStartedAt = time.Time{}
}
