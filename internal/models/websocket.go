package models

// WebSocket event types pushed to dashboard clients.
const (
	WSEventModEvent = "mod_event.new"
	WSEventPing     = "ping"
)

// WSMessage is the envelope for messages on the dashboard event feed.
type WSMessage struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}
