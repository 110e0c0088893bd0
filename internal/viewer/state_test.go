package viewer

import (
	"testing"
	"time"
)

func TestComputeState(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		facts Facts
		want  State
	}{
		{
			name:  "no room id",
			facts: Facts{Now: base},
			want:  StateNoStream,
		},
		{
			name: "no room id even with stream open",
			facts: Facts{
				StreamOpen: true,
				Now:        base,
			},
			want: StateNoStream,
		},
		{
			name: "stream open overrides everything else",
			facts: Facts{
				RoomID:     "ABCD1234",
				StreamOpen: true,
				RoomFull:   true,
				Now:        base,
			},
			want: StateStreaming,
		},
		{
			name: "stream open hides a signaling dip",
			facts: Facts{
				RoomID:             "ABCD1234",
				StreamOpen:         true,
				SignalingReady:     false,
				SignalingStartedAt: base.Add(-10 * time.Second),
				Now:                base,
			},
			want: StateStreaming,
		},
		{
			name: "room full",
			facts: Facts{
				RoomID:   "ABCD1234",
				RoomFull: true,
				Now:      base,
			},
			want: StateRoomFull,
		},
		{
			name: "signaling in progress",
			facts: Facts{
				RoomID:             "ABCD1234",
				SignalingStartedAt: base.Add(-time.Second),
				Now:                base,
			},
			want: StateAttemptingSignal,
		},
		{
			name: "signaling just under the timeout",
			facts: Facts{
				RoomID:             "ABCD1234",
				SignalingStartedAt: base.Add(-SignalingTimeout + time.Millisecond),
				Now:                base,
			},
			want: StateAttemptingSignal,
		},
		{
			name: "signaling exactly at the timeout",
			facts: Facts{
				RoomID:             "ABCD1234",
				SignalingStartedAt: base.Add(-SignalingTimeout),
				Now:                base,
			},
			want: StateNoSignal,
		},
		{
			name: "signaling failed fast",
			facts: Facts{
				RoomID:             "ABCD1234",
				SignalingFailed:    true,
				SignalingStartedAt: base.Add(-time.Second),
				Now:                base,
			},
			want: StateNoSignal,
		},
		{
			name: "receiving means streaming",
			facts: Facts{
				RoomID:             "ABCD1234",
				SignalingReady:     true,
				Receiving:          true,
				StreamingStartedAt: base.Add(-time.Second),
				Now:                base,
			},
			want: StateStreaming,
		},
		{
			name: "waiting for first bytes",
			facts: Facts{
				RoomID:             "ABCD1234",
				SignalingReady:     true,
				StreamingStartedAt: base.Add(-time.Second),
				Now:                base,
			},
			want: StateAttemptingStream,
		},
		{
			name: "bytes never arrived",
			facts: Facts{
				RoomID:             "ABCD1234",
				SignalingReady:     true,
				StreamingStartedAt: base.Add(-StreamingTimeout),
				Now:                base,
			},
			want: StateNoStreamConnection,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compute(tt.facts); got != tt.want {
				t.Errorf("Compute() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStateString(t *testing.T) {
	if got := StateAttemptingSignal.String(); got != "attempting-signalling-connection" {
		t.Errorf("String() = %q", got)
	}
	if got := State(99).String(); got != "unknown" {
		t.Errorf("String() = %q, want unknown", got)
	}
}
