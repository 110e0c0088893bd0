package signaling

import (
	"encoding/json"
	"testing"
	"time"
)

func rawMessage(t *testing.T, event string, payload any) *Message {
	t.Helper()
	msg, err := NewMessage(event, payload)
	if err != nil {
		t.Fatalf("NewMessage(%q): %v", event, err)
	}
	return msg
}

func TestDispatchJoined(t *testing.T) {
	h := NewHandler(nil)

	h.Dispatch(rawMessage(t, EventJoinedAsViewer, JoinedPayload{
		RoomID:        "ABC123",
		PublisherName: "Eagle One",
		HasPublisher:  true,
		Viewers:       []ViewerInfo{{Name: "alice"}},
	}))

	select {
	case got := <-h.Joined:
		if got.RoomID != "ABC123" || got.PublisherName != "Eagle One" || !got.HasPublisher {
			t.Errorf("unexpected joined payload: %+v", got)
		}
		if len(got.Viewers) != 1 || got.Viewers[0].Name != "alice" {
			t.Errorf("unexpected roster: %+v", got.Viewers)
		}
	default:
		t.Fatal("joined payload not routed")
	}
}

func TestDispatchErrorCodes(t *testing.T) {
	tests := []struct {
		name     string
		payload  any
		wantCode string
		wantMsg  string
	}{
		{
			name:     "room full",
			payload:  ErrorPayload{Message: "room is at capacity", Code: ErrorCodeRoomFull},
			wantCode: ErrorCodeRoomFull,
			wantMsg:  "room is at capacity",
		},
		{
			name:    "generic error",
			payload: ErrorPayload{Message: "no publisher in room"},
			wantMsg: "no publisher in room",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(nil)
			h.Dispatch(rawMessage(t, EventError, tt.payload))

			select {
			case got := <-h.ServerError:
				if got.Code != tt.wantCode || got.Message != tt.wantMsg {
					t.Errorf("got %+v, want code=%q message=%q", got, tt.wantCode, tt.wantMsg)
				}
			default:
				t.Fatal("error payload not routed")
			}
		})
	}
}

func TestDispatchMalformedErrorPayload(t *testing.T) {
	h := NewHandler(nil)
	h.Dispatch(&Message{Event: EventError, Data: json.RawMessage(`"not an object"`)})

	select {
	case got := <-h.ServerError:
		if got.Message == "" {
			t.Error("malformed error payload should still surface a message")
		}
	default:
		t.Fatal("malformed error payload dropped entirely")
	}
}

func TestDispatchUnknownEventIgnored(t *testing.T) {
	h := NewHandler(nil)
	h.Dispatch(&Message{Event: "totally-new-event"})

	select {
	case <-h.Joined:
		t.Fatal("unknown event routed to Joined")
	case <-h.ServerError:
		t.Fatal("unknown event routed to ServerError")
	default:
	}
}

func TestCloseStopsRouting(t *testing.T) {
	client := NewClient("wss://example.invalid/ws")
	h := NewHandler(client)

	done := make(chan struct{})
	go func() {
		h.Start()
		close(done)
	}()

	h.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after Close")
	}

	// Idempotent.
	h.Close()
}

func TestDispatchCandidate(t *testing.T) {
	h := NewHandler(nil)
	h.Dispatch(rawMessage(t, EventICECandidate, CandidatePayload{
		Candidate: json.RawMessage(`{"candidate":"candidate:1 1 UDP 1 1.2.3.4 5000 typ host"}`),
	}))

	select {
	case got := <-h.RemoteCandidate:
		if len(got.Candidate) == 0 {
			t.Error("candidate payload lost")
		}
	default:
		t.Fatal("candidate not routed")
	}
}
