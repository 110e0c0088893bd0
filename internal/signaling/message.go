package signaling

import "encoding/json"

// Message represents all WebSocket messages between the viewer and the
// signaling server. Data holds the event-specific payload.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client-to-server event names.
const (
	EventJoinAsViewer  = "join-as-viewer"
	EventLeaveRoom     = "leave-room"
	EventRequestStream = "request-stream"
	EventAnswer        = "answer"
	EventICECandidate  = "ice-candidate"
)

// Server-to-client event names.
const (
	EventJoinedAsViewer  = "joined-as-viewer"
	EventPublisherJoined = "publisher-joined"
	EventPublisherLeft   = "publisher-left"
	EventViewersUpdated  = "viewers-updated"
	EventOffer           = "offer"
	EventError           = "error"
)

// Error codes pushed by the server. Anything else is a generic failure.
const (
	ErrorCodeRoomFull = "ROOM_FULL"
)

// ViewerInfo identifies one viewer in the room roster. Both fields are
// optional.
type ViewerInfo struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// JoinRequest is the join-as-viewer payload.
type JoinRequest struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
}

// LeaveRequest is the leave-room payload.
type LeaveRequest struct {
	RoomID string `json:"roomId"`
}

// StreamRequest is the request-stream payload.
type StreamRequest struct {
	RoomID string `json:"roomId"`
}

// AnswerPayload carries the viewer's SDP answer back to the publisher.
type AnswerPayload struct {
	RoomID   string          `json:"roomId"`
	Answer   json.RawMessage `json:"answer"`
	TargetID string          `json:"targetId"`
}

// CandidatePayload carries a trickled ICE candidate in either direction.
type CandidatePayload struct {
	RoomID    string          `json:"roomId,omitempty"`
	Candidate json.RawMessage `json:"candidate"`
}

// JoinedPayload is the server's joined-as-viewer response.
type JoinedPayload struct {
	RoomID        string       `json:"roomId"`
	PublisherName string       `json:"publisherName"`
	Viewers       []ViewerInfo `json:"viewers"`
	HasPublisher  bool         `json:"hasPublisher"`
}

// PublisherPayload is the publisher-joined payload.
type PublisherPayload struct {
	PublisherName string `json:"publisherName"`
}

// OfferPayload is the server-relayed SDP offer from the publisher.
type OfferPayload struct {
	Offer    json.RawMessage `json:"offer"`
	SenderID string          `json:"senderId"`
}

// ErrorPayload represents error messages pushed by the server.
type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// NewMessage marshals payload into a Message for the given event.
func NewMessage(event string, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Event: event, Data: data}, nil
}
