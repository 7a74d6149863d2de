package ws

import (
	"testing"
	"time"
)

func recvEvent(t *testing.T, sub *Subscriber) WsEvent {
	t.Helper()
	select {
	case evt, ok := <-sub.Events():
		if !ok {
			t.Fatalf("subscriber channel closed unexpectedly")
		}
		return evt
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event")
	}
	return WsEvent{}
}

func TestEmitDeliversGlobalAndScopedCopies(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	sub := hub.Register()
	defer hub.Unregister(sub)

	hub.Emit(EventMessage, "acme", "support", "123@c.us", MessageData{TenantID: "acme", Label: "support"})

	want := []string{
		"message",
		"message:acme:support",
		"message:acme:support:123@c.us",
	}
	for _, name := range want {
		evt := recvEvent(t, sub)
		if evt.Event != name {
			t.Fatalf("expected channel %q, got %q", name, evt.Event)
		}
		if evt.Timestamp.IsZero() {
			t.Fatalf("event timestamp not set")
		}
	}
}

func TestEmitWithoutChatSkipsChatChannel(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	sub := hub.Register()
	defer hub.Unregister(sub)

	hub.Emit(EventStatus, "acme", "support", "", StatusData{Status: "ready"})

	if evt := recvEvent(t, sub); evt.Event != "status" {
		t.Fatalf("expected global copy, got %q", evt.Event)
	}
	if evt := recvEvent(t, sub); evt.Event != "status:acme:support" {
		t.Fatalf("expected scoped copy, got %q", evt.Event)
	}

	select {
	case evt := <-sub.Events():
		t.Fatalf("unexpected third copy: %q", evt.Event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEverySubscriberReceivesBroadcasts(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	a := hub.Register()
	b := hub.Register()
	defer hub.Unregister(a)
	defer hub.Unregister(b)

	hub.Publish(WsEvent{Event: "qr", Data: "code"})

	for _, sub := range []*Subscriber{a, b} {
		if evt := recvEvent(t, sub); evt.Event != "qr" {
			t.Fatalf("expected qr event, got %q", evt.Event)
		}
	}
}

func TestSnapshotPrecedesLiveEvents(t *testing.T) {
	hub := NewHub()
	hub.SetSnapshot(func() []WsEvent {
		return []WsEvent{
			{Event: EventStatus, Data: StatusData{TenantID: "acme", Label: "support", Status: "ready"}},
		}
	})
	go hub.Run()

	sub := hub.Register()
	defer hub.Unregister(sub)

	hub.Publish(WsEvent{Event: "message"})

	first := recvEvent(t, sub)
	if first.Event != EventStatus {
		t.Fatalf("snapshot must arrive before live events, got %q", first.Event)
	}
	data, ok := first.Data.(StatusData)
	if !ok || data.Status != "ready" {
		t.Fatalf("wrong snapshot payload: %+v", first.Data)
	}

	if second := recvEvent(t, sub); second.Event != "message" {
		t.Fatalf("expected live event after snapshot, got %q", second.Event)
	}
}

func TestSlowSubscriberIsIsolated(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	stuck := hub.Register()
	healthy := hub.Register()

	received := make(chan int, 1)
	go func() {
		count := 0
		for range healthy.Events() {
			count++
			if count == 400 {
				received <- count
				return
			}
		}
		received <- count
	}()

	// Overflow the stuck subscriber's buffer; the healthy one keeps
	// receiving and the emitter is never blocked.
	for i := 0; i < 400; i++ {
		hub.Publish(WsEvent{Event: "status"})
	}

	select {
	case count := <-received:
		if count != 400 {
			t.Fatalf("healthy subscriber received %d of 400 events", count)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("healthy subscriber starved by a stuck peer")
	}

	// The hub eventually drops the stuck subscriber by closing its channel.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-stuck.Events():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("stuck subscriber was never dropped")
		}
	}
}
