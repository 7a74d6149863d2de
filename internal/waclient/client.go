// Package waclient defines the contract this service expects from the
// underlying chat-protocol client. The real client (network transport,
// authentication, media download) lives outside this codebase; everything here
// is written against this interface so the service can be exercised with a
// fake in tests and swapped between client implementations.
package waclient

import (
	"context"
	"time"
)

// Chat is one conversation (direct or group) visible to a session.
type Chat struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IsGroup     bool   `json:"isGroup"`
	UnreadCount int    `json:"unreadCount"`
}

// Message is the normalized view of one chat message.
type Message struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chatId"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Body      string    `json:"body"`
	Type      string    `json:"type"`
	FromMe    bool      `json:"fromMe"`
	Timestamp time.Time `json:"timestamp"`
	HasMedia  bool      `json:"hasMedia"`
}

// Contact is one address-book entry known to a session.
type Contact struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PushName    string `json:"pushName"`
	IsMyContact bool   `json:"isMyContact"`
	IsGroup     bool   `json:"isGroup"`
}

// Media carries a downloaded or to-be-sent binary payload.
type Media struct {
	Data     []byte
	Mimetype string
	Filename string
}

// SendOptions shapes an outgoing message beyond plain text.
type SendOptions struct {
	Media   *Media
	Caption string
	Voice   bool
}

// EventHandler receives the client's raw event stream. Events are the structs
// in events.go plus GenericEvent for everything else.
type EventHandler func(evt interface{})

// Client is the external chat-protocol client bound to one credential
// directory. Initialize is asynchronous from the caller's point of view:
// progress is reported through the event handler, not the return value.
//
// GetMessageByID is best-effort: clients without direct addressing return
// (nil, nil). DownloadMedia may likewise return (nil, nil) while the remote
// side is still staging the artifact; absence of data is not an error.
type Client interface {
	Initialize(ctx context.Context) error
	Destroy(ctx context.Context) error
	AddEventHandler(h EventHandler)

	GetChats(ctx context.Context) ([]Chat, error)
	GetChatByID(ctx context.Context, chatID string) (*Chat, error)
	GetMessageByID(ctx context.Context, messageID string) (*Message, error)
	FetchMessages(ctx context.Context, chatID string, limit int) ([]Message, error)
	SendMessage(ctx context.Context, chatID, content string, opts SendOptions) (*Message, error)
	GetContacts(ctx context.Context) ([]Contact, error)
	DownloadMedia(ctx context.Context, msg *Message) (*Media, error)
}

// Factory builds a client whose credentials live under credDir.
type Factory func(credDir string) (Client, error)

var defaultFactory Factory

// RegisterFactory installs the process-wide client implementation, usually
// from the implementation package's init. Last registration wins.
func RegisterFactory(f Factory) {
	defaultFactory = f
}

// DefaultFactory returns the registered implementation, or nil when none is
// linked into the binary.
func DefaultFactory() Factory {
	return defaultFactory
}
