package viewer

import (
	"errors"
	"fmt"
)

var (
	ErrSignalingFailed = errors.New("signaling server unreachable")
	ErrNoPublisher     = errors.New("no publisher in room")
	ErrRoomFull        = errors.New("room is full")
	ErrPeerFailed      = errors.New("peer connection failed")
	ErrTimeout         = errors.New("timeout")
	ErrNoSession       = errors.New("no active session")
)

// FailureReason maps a failure state to the sentinel error behind it,
// or nil for states that are not failures. The summary view uses it to
// explain why a session ended without video.
func FailureReason(s State) error {
	switch s {
	case StateRoomFull:
		return ErrRoomFull
	case StateNoSignal:
		return ErrSignalingFailed
	case StateNoStreamConnection:
		return ErrTimeout
	default:
		return nil
	}
}

// SessionError wraps a failure with the operation that produced it.
type SessionError struct {
	Op      string
	Err     error
	Details string
}

func (e *SessionError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %v (%s)", e.Op, e.Err, e.Details)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

func NewError(op string, err error) *SessionError {
	return &SessionError{Op: op, Err: err}
}

func WrapError(op string, err error, details string) *SessionError {
	return &SessionError{Op: op, Err: err, Details: details}
}
