package signaling

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Handler routes incoming signaling messages to appropriate channels.
type Handler struct {
	client          *Client
	Joined          chan *JoinedPayload
	PublisherJoined chan *PublisherPayload
	PublisherLeft   chan struct{}
	ViewersUpdated  chan []ViewerInfo
	Offer           chan *OfferPayload
	RemoteCandidate chan *CandidatePayload
	ServerError     chan *ErrorPayload

	done      chan struct{}
	closeOnce sync.Once
}

// NewHandler creates a new message handler.
func NewHandler(client *Client) *Handler {
	return &Handler{
		client:          client,
		Joined:          make(chan *JoinedPayload, 1),
		PublisherJoined: make(chan *PublisherPayload, 1),
		PublisherLeft:   make(chan struct{}, 1),
		ViewersUpdated:  make(chan []ViewerInfo, 4),
		Offer:           make(chan *OfferPayload, 4),
		RemoteCandidate: make(chan *CandidatePayload, 32),
		ServerError:     make(chan *ErrorPayload, 1),
		done:            make(chan struct{}),
	}
}

// Start begins listening to incoming messages and routing them. It
// returns when the handler is closed or the client's incoming channel
// is drained shut.
func (h *Handler) Start() {
	for {
		select {
		case msg, ok := <-h.client.Incoming():
			if !ok {
				return
			}
			h.Dispatch(msg)
		case <-h.done:
			return
		}
	}
}

// Dispatch routes one server message to its event channel. Unknown
// events and undecodable payloads are logged and dropped; they never
// tear down the session.
func (h *Handler) Dispatch(msg *Message) {
	switch msg.Event {

	case EventJoinedAsViewer:
		var payload JoinedPayload
		if h.decode(msg, &payload) {
			h.Joined <- &payload
		}

	case EventPublisherJoined:
		var payload PublisherPayload
		if h.decode(msg, &payload) {
			h.PublisherJoined <- &payload
		}

	case EventPublisherLeft:
		h.PublisherLeft <- struct{}{}

	case EventViewersUpdated:
		var viewers []ViewerInfo
		if h.decode(msg, &viewers) {
			h.ViewersUpdated <- viewers
		}

	case EventOffer:
		var payload OfferPayload
		if h.decode(msg, &payload) {
			h.Offer <- &payload
		}

	case EventICECandidate:
		var payload CandidatePayload
		if h.decode(msg, &payload) {
			h.RemoteCandidate <- &payload
		}

	case EventError:
		var payload ErrorPayload
		if !h.decode(msg, &payload) {
			payload = ErrorPayload{Message: "unknown error from server"}
		}
		h.ServerError <- &payload

	default:
		slog.Debug("ignoring unknown signaling event", "event", msg.Event)
	}
}

func (h *Handler) decode(msg *Message, v any) bool {
	if err := json.Unmarshal(msg.Data, v); err != nil {
		slog.Warn("failed to decode signaling payload", "event", msg.Event, "error", err)
		return false
	}
	return true
}

// Close stops the routing loop. The event channels stay open so a
// consumer mid-read never sees a phantom zero-value event; they are
// simply abandoned. Safe to call more than once.
func (h *Handler) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}
