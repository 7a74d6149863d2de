package waclient

import (
	"context"
	"fmt"
	"sync"
)

// FetchCall records one FetchMessages invocation.
type FetchCall struct {
	ChatID string
	Limit  int
}

// DownloadResult scripts one DownloadMedia answer.
type DownloadResult struct {
	Media *Media
	Err   error
}

// Fake is an in-memory Client for tests and local development. Configure the
// exported fields before use; drive session events through Emit.
type Fake struct {
	mu sync.Mutex

	InitErr    error
	DestroyErr error

	Chats          []Chat
	MessagesByChat map[string][]Message // ordered oldest to newest
	ContactList    []Contact

	// SupportsDirectLookup makes GetMessageByID answer from MessagesByChat
	// instead of reporting no direct addressing.
	SupportsDirectLookup bool

	// DownloadScript is consumed one entry per DownloadMedia call; once
	// drained, MediaByMessage answers (nil data when absent).
	DownloadScript []DownloadResult
	MediaByMessage map[string]*Media

	handlers      []EventHandler
	initCalls     int
	destroyCalls  int
	downloadCalls int
	fetchCalls    []FetchCall
	sent          []Message
}

var _ Client = (*Fake)(nil)

func NewFake() *Fake {
	return &Fake{
		MessagesByChat: make(map[string][]Message),
		MediaByMessage: make(map[string]*Media),
	}
}

func (f *Fake) Initialize(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initCalls++
	return f.InitErr
}

func (f *Fake) Destroy(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyCalls++
	return f.DestroyErr
}

func (f *Fake) AddEventHandler(h EventHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers = append(f.handlers, h)
}

// Emit delivers a raw event to every registered handler, synchronously.
func (f *Fake) Emit(evt interface{}) {
	f.mu.Lock()
	handlers := append([]EventHandler(nil), f.handlers...)
	f.mu.Unlock()
	for _, h := range handlers {
		h(evt)
	}
}

func (f *Fake) GetChats(ctx context.Context) ([]Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Chat(nil), f.Chats...), nil
}

func (f *Fake) GetChatByID(ctx context.Context, chatID string) (*Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.Chats {
		if f.Chats[i].ID == chatID {
			chat := f.Chats[i]
			return &chat, nil
		}
	}
	return nil, nil
}

func (f *Fake) GetMessageByID(ctx context.Context, messageID string) (*Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.SupportsDirectLookup {
		return nil, nil
	}
	for _, msgs := range f.MessagesByChat {
		for i := range msgs {
			if msgs[i].ID == messageID {
				msg := msgs[i]
				return &msg, nil
			}
		}
	}
	return nil, nil
}

func (f *Fake) FetchMessages(ctx context.Context, chatID string, limit int) ([]Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls = append(f.fetchCalls, FetchCall{ChatID: chatID, Limit: limit})

	msgs := f.MessagesByChat[chatID]
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return append([]Message(nil), msgs...), nil
}

func (f *Fake) SendMessage(ctx context.Context, chatID, content string, opts SendOptions) (*Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	msg := Message{
		ID:       fmt.Sprintf("true_%s_SENT%d", chatID, len(f.sent)+1),
		ChatID:   chatID,
		Body:     content,
		FromMe:   true,
		HasMedia: opts.Media != nil,
	}
	f.sent = append(f.sent, msg)
	return &msg, nil
}

func (f *Fake) GetContacts(ctx context.Context) ([]Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Contact(nil), f.ContactList...), nil
}

func (f *Fake) DownloadMedia(ctx context.Context, msg *Message) (*Media, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloadCalls++

	if len(f.DownloadScript) > 0 {
		step := f.DownloadScript[0]
		f.DownloadScript = f.DownloadScript[1:]
		return step.Media, step.Err
	}
	return f.MediaByMessage[msg.ID], nil
}

func (f *Fake) InitCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.initCalls
}

func (f *Fake) DestroyCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.destroyCalls
}

func (f *Fake) DownloadCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.downloadCalls
}

func (f *Fake) FetchLog() []FetchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FetchCall(nil), f.fetchCalls...)
}

func (f *Fake) Sent() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Message(nil), f.sent...)
}
