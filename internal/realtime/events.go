package realtime

import "encoding/json"

// Client -> server events.
const (
	EventJoin        = "join"
	EventLeave       = "leave"
	EventSendMessage = "sendMessage"
)

// Server -> client events.
const (
	EventReceiveMessage      = "receiveMessage"
	EventReceiveNotification = "receiveNotification"
	EventNewBooking          = "new-booking"
	EventJoined              = "joined"
	EventMessageSent         = "messageSent"
	EventError               = "error"
)

// Frame is the wire envelope in both directions.
type Frame struct {
	Event     string `json:"event"`
	RequestID string `json:"request_id,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

type inboundFrame struct {
	Event     string          `json:"event"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type joinedPayload struct {
	UserID string `json:"user_id"`
}
