package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"gowa-hub/internal/model"
	"gowa-hub/internal/waclient"
	"gowa-hub/internal/ws"
)

var (
	ErrCapacityExceeded = errors.New("session capacity exceeded")
	ErrSessionNotFound  = errors.New("session not found")
)

// SessionSnapshot is the read-side view of one session handed to handlers
// and websocket subscribers.
type SessionSnapshot struct {
	TenantID string `json:"tenantId"`
	Label    string `json:"label"`
	Status   string `json:"status"`
	HasQR    bool   `json:"hasQr"`
	SelfID   string `json:"selfId,omitempty"`
}

// DetectedSession is one credential directory found on disk.
type DetectedSession struct {
	TenantID string `json:"tenantId"`
	Label    string `json:"label"`
	Active   bool   `json:"active"`
}

// RestoreResult is the per-entry outcome of RestoreAll.
type RestoreResult struct {
	TenantID string `json:"tenantId"`
	Label    string `json:"label"`
	Status   string `json:"status"`
}

// Registry owns every live session. It is the only writer of session state;
// client events and explicit API calls both funnel through it.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session

	root     string
	capacity int
	factory  waclient.Factory
	hub      *ws.Hub
}

func NewRegistry(root string, capacity int, factory waclient.Factory, hub *ws.Hub) *Registry {
	return &Registry{
		sessions: make(map[string]*model.Session),
		root:     root,
		capacity: capacity,
		factory:  factory,
		hub:      hub,
	}
}

// Init registers a new session for the key and kicks off asynchronous client
// initialization. Calling it again for a live key is not an error: the
// current snapshot comes back and no second client is created. Completion is
// observed through events, never through this call's return value.
func (r *Registry) Init(ctx context.Context, tenantID, label string) (SessionSnapshot, error) {
	key := model.SessionKey(tenantID, label)

	r.mu.Lock()
	if sess, ok := r.sessions[key]; ok {
		snap := snapshotOf(sess)
		r.mu.Unlock()
		return snap, nil
	}
	// Capacity check and insert stay under one lock so concurrent Init
	// calls cannot push the registry past the bound.
	if len(r.sessions) >= r.capacity {
		r.mu.Unlock()
		return SessionSnapshot{}, ErrCapacityExceeded
	}

	credDir := filepath.Join(r.root, model.SessionDirName(tenantID, label))
	client, err := r.factory(credDir)
	if err != nil {
		r.mu.Unlock()
		return SessionSnapshot{}, fmt.Errorf("create client for %s: %w", key, err)
	}

	sess := &model.Session{
		TenantID: tenantID,
		Label:    label,
		Status:   model.StatusInitializing,
		Client:   client,
	}
	r.sessions[key] = sess
	snap := snapshotOf(sess)
	r.mu.Unlock()

	client.AddEventHandler(r.eventHandler(tenantID, label))

	go func() {
		if err := client.Initialize(context.Background()); err != nil {
			log.Printf("session %s: initialize failed: %v", key, err)
			r.applyStatus(tenantID, label, model.StatusDisconnected, "")
		}
	}()

	r.emitStatus(tenantID, label, snap.Status, snap.HasQR)
	return snap, nil
}

// Destroy tears the session down and frees the key. Client teardown and
// directory removal are best-effort: failures are logged so a misbehaving
// client can still be removed from the registry. Destroying an absent key
// succeeds and still emits session_destroyed.
func (r *Registry) Destroy(ctx context.Context, tenantID, label string) error {
	key := model.SessionKey(tenantID, label)

	r.mu.Lock()
	sess, existed := r.sessions[key]
	delete(r.sessions, key)
	r.mu.Unlock()

	if existed && sess.Client != nil {
		if err := sess.Client.Destroy(ctx); err != nil {
			log.Printf("session %s: client teardown failed: %v", key, err)
		}
	}

	credDir := filepath.Join(r.root, model.SessionDirName(tenantID, label))
	if err := os.RemoveAll(credDir); err != nil {
		log.Printf("session %s: failed to remove credential dir: %v", key, err)
	}

	r.hub.Emit(ws.EventSessionDestroyed, tenantID, label, "", ws.SessionDestroyedData{
		TenantID: tenantID,
		Label:    label,
	})
	return nil
}

// Status is a pure read; an absent key reports not_found rather than erroring.
func (r *Registry) Status(tenantID, label string) SessionSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if sess, ok := r.sessions[model.SessionKey(tenantID, label)]; ok {
		return snapshotOf(sess)
	}
	return SessionSnapshot{TenantID: tenantID, Label: label, Status: model.StatusNotFound}
}

// Session returns the live session for chat/media operations.
func (r *Registry) Session(tenantID, label string) (*model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sess, ok := r.sessions[model.SessionKey(tenantID, label)]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Sessions returns a snapshot of every registered session.
func (r *Registry) Sessions() []SessionSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]SessionSnapshot, 0, len(r.sessions))
	for _, sess := range r.sessions {
		out = append(out, snapshotOf(sess))
	}
	return out
}

// DetectPersisted scans the credential root for session directories.
// Directories that do not match the naming convention are skipped.
func (r *Registry) DetectPersisted() ([]DetectedSession, error) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan session root: %w", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var detected []DetectedSession
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		tenantID, label, ok := model.ParseSessionDir(entry.Name())
		if !ok {
			continue
		}
		_, active := r.sessions[model.SessionKey(tenantID, label)]
		detected = append(detected, DetectedSession{TenantID: tenantID, Label: label, Active: active})
	}
	return detected, nil
}

// RestoreAll re-initializes every persisted session that is not already
// active. One entry failing never stops the rest; each entry reports
// restored, already_active or error:<message>.
func (r *Registry) RestoreAll(ctx context.Context) ([]RestoreResult, error) {
	detected, err := r.DetectPersisted()
	if err != nil {
		return nil, err
	}

	results := make([]RestoreResult, 0, len(detected))
	for _, d := range detected {
		res := RestoreResult{TenantID: d.TenantID, Label: d.Label}
		switch {
		case d.Active:
			res.Status = "already_active"
		default:
			if _, err := r.Init(ctx, d.TenantID, d.Label); err != nil {
				res.Status = "error:" + err.Error()
			} else {
				res.Status = "restored"
			}
		}
		results = append(results, res)
	}
	return results, nil
}

// StatusSnapshotEvents feeds the hub's registration-time snapshot: one status
// event per registered session.
func (r *Registry) StatusSnapshotEvents() []ws.WsEvent {
	sessions := r.Sessions()
	events := make([]ws.WsEvent, 0, len(sessions))
	for _, s := range sessions {
		events = append(events, ws.WsEvent{
			Event: ws.EventStatus,
			Data: ws.StatusData{
				TenantID: s.TenantID,
				Label:    s.Label,
				Status:   s.Status,
				HasQR:    s.HasQR,
			},
		})
	}
	return events
}

// eventHandler translates one client's raw events into registry state changes
// and websocket events. Delivery goes through the hub's buffered channels, so
// a slow subscriber never stalls the session's own event processing.
func (r *Registry) eventHandler(tenantID, label string) waclient.EventHandler {
	return func(evt interface{}) {
		switch e := evt.(type) {
		case waclient.QREvent:
			r.applyQR(tenantID, label, e.Code)

		case waclient.AuthenticatedEvent:
			r.applyStatus(tenantID, label, model.StatusAuthed, "")

		case waclient.ReadyEvent:
			r.applyStatus(tenantID, label, model.StatusReady, e.SelfID)

		case waclient.AuthFailureEvent:
			log.Printf("session %s__%s: auth failure: %s", tenantID, label, e.Reason)
			r.applyStatus(tenantID, label, model.StatusAuthFailure, "")

		case waclient.DisconnectedEvent:
			r.applyStatus(tenantID, label, model.StatusDisconnected, "")

		case waclient.MessageEvent:
			r.hub.Emit(ws.EventMessage, tenantID, label, e.Message.ChatID, ws.MessageData{
				TenantID: tenantID,
				Label:    label,
				Message:  e.Message,
			})

		case waclient.GenericEvent:
			// Passthrough catalog: republished under its own name, scoped
			// the same way as the core kinds.
			r.hub.Emit(e.Name, tenantID, label, "", e.Data)
		}
	}
}

func (r *Registry) applyQR(tenantID, label, code string) {
	key := model.SessionKey(tenantID, label)

	r.mu.Lock()
	sess, ok := r.sessions[key]
	if ok {
		sess.LastQR = code
		sess.Status = model.StatusScanning
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	r.hub.Emit(ws.EventQR, tenantID, label, "", ws.QRData{TenantID: tenantID, Label: label, QR: code})
	r.emitStatus(tenantID, label, model.StatusScanning, true)
}

func (r *Registry) applyStatus(tenantID, label, status, selfID string) {
	key := model.SessionKey(tenantID, label)

	r.mu.Lock()
	sess, ok := r.sessions[key]
	hasQR := false
	if ok {
		sess.Status = status
		if status == model.StatusAuthed || status == model.StatusReady {
			sess.LastQR = ""
		}
		if selfID != "" {
			sess.SelfID = selfID
		}
		hasQR = sess.HasQR()
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	r.emitStatus(tenantID, label, status, hasQR)
}

func (r *Registry) emitStatus(tenantID, label, status string, hasQR bool) {
	r.hub.Emit(ws.EventStatus, tenantID, label, "", ws.StatusData{
		TenantID: tenantID,
		Label:    label,
		Status:   status,
		HasQR:    hasQR,
	})
}

func snapshotOf(sess *model.Session) SessionSnapshot {
	return SessionSnapshot{
		TenantID: sess.TenantID,
		Label:    sess.Label,
		Status:   sess.Status,
		HasQR:    sess.HasQR(),
		SelfID:   sess.SelfID,
	}
}
