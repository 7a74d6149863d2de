package ws

import (
	"time"

	"gowa-hub/internal/waclient"
)

// Registry-level event kinds. Every kind is delivered twice per subscriber:
// once under the bare kind and once under kind:tenantId:label. Message events
// additionally go out under message:tenantId:label:chatId.
const (
	EventQR               = "qr"
	EventStatus           = "status"
	EventMessage          = "message"
	EventSessionDestroyed = "session_destroyed"
)

// WsEvent is the wire envelope pushed to websocket subscribers.
type WsEvent struct {
	Event     string      `json:"event"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// ScopedEvent builds the session-scoped channel name for a kind.
func ScopedEvent(kind, tenantID, label string) string {
	return kind + ":" + tenantID + ":" + label
}

// ChatScopedEvent builds the chat-scoped channel name for message events.
func ChatScopedEvent(kind, tenantID, label, chatID string) string {
	return kind + ":" + tenantID + ":" + label + ":" + chatID
}

// StatusData is the normalized projection of every session state transition.
type StatusData struct {
	TenantID string `json:"tenantId"`
	Label    string `json:"label"`
	Status   string `json:"status"`
	HasQR    bool   `json:"hasQr"`
}

// QRData carries a freshly issued pairing code.
type QRData struct {
	TenantID string `json:"tenantId"`
	Label    string `json:"label"`
	QR       string `json:"qr"`
}

// MessageData is a message event with its owning session identity attached.
type MessageData struct {
	TenantID string           `json:"tenantId"`
	Label    string           `json:"label"`
	Message  waclient.Message `json:"message"`
}

// SessionDestroyedData marks a key as torn down and free for reuse.
type SessionDestroyedData struct {
	TenantID string `json:"tenantId"`
	Label    string `json:"label"`
}
