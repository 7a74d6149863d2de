package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gowa-hub/internal/model"
	"gowa-hub/internal/waclient"
	"gowa-hub/internal/ws"
)

func newTestRegistry(t *testing.T, capacity int) (*Registry, string, *[]*waclient.Fake) {
	t.Helper()

	root := t.TempDir()
	created := &[]*waclient.Fake{}

	factory := func(credDir string) (waclient.Client, error) {
		fake := waclient.NewFake()
		*created = append(*created, fake)
		return fake, nil
	}

	hub := ws.NewHub()
	go hub.Run()

	reg := NewRegistry(root, capacity, factory, hub)
	hub.SetSnapshot(reg.StatusSnapshotEvents)
	return reg, root, created
}

func TestInitRespectsCapacity(t *testing.T) {
	reg, _, _ := newTestRegistry(t, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := reg.Init(ctx, "acme", fmt.Sprintf("line-%d", i)); err != nil {
			t.Fatalf("Init %d failed: %v", i, err)
		}
	}

	_, err := reg.Init(ctx, "acme", "line-overflow")
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}

	if got := len(reg.Sessions()); got != 2 {
		t.Fatalf("registry mutated by rejected init: %d sessions", got)
	}
	if reg.Status("acme", "line-overflow").Status != model.StatusNotFound {
		t.Fatalf("rejected key should not be registered")
	}
}

func TestInitIsIdempotent(t *testing.T) {
	reg, _, created := newTestRegistry(t, 5)
	ctx := context.Background()

	first, err := reg.Init(ctx, "acme", "support")
	if err != nil {
		t.Fatalf("first Init failed: %v", err)
	}
	if first.Status != model.StatusInitializing {
		t.Fatalf("expected initializing status, got %q", first.Status)
	}

	second, err := reg.Init(ctx, "acme", "support")
	if err != nil {
		t.Fatalf("second Init failed: %v", err)
	}
	if second.Status != first.Status || second.HasQR != first.HasQR {
		t.Fatalf("second Init should return the current snapshot, got %+v", second)
	}

	if len(*created) != 1 {
		t.Fatalf("expected exactly one client, got %d", len(*created))
	}
}

func TestDestroyRemovesSessionAndCredentials(t *testing.T) {
	reg, root, created := newTestRegistry(t, 5)
	ctx := context.Background()

	if _, err := reg.Init(ctx, "acme", "support"); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	credDir := filepath.Join(root, model.SessionDirName("acme", "support"))
	if err := os.MkdirAll(credDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if err := reg.Destroy(ctx, "acme", "support"); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}

	if got := reg.Status("acme", "support").Status; got != model.StatusNotFound {
		t.Fatalf("expected not_found after destroy, got %q", got)
	}
	if _, err := os.Stat(credDir); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("credential dir should be removed, stat err: %v", err)
	}
	if (*created)[0].DestroyCalls() != 1 {
		t.Fatalf("client teardown not invoked")
	}

	detected, err := reg.DetectPersisted()
	if err != nil {
		t.Fatalf("DetectPersisted failed: %v", err)
	}
	for _, d := range detected {
		if d.TenantID == "acme" && d.Label == "support" {
			t.Fatalf("destroyed session still detected: %+v", d)
		}
	}
}

func TestDestroyIsIdempotent(t *testing.T) {
	reg, _, _ := newTestRegistry(t, 5)

	if err := reg.Destroy(context.Background(), "ghost", "never-existed"); err != nil {
		t.Fatalf("destroying an absent session should succeed, got %v", err)
	}
}

func TestDestroySwallowsTeardownFailure(t *testing.T) {
	root := t.TempDir()
	fake := waclient.NewFake()
	fake.DestroyErr = errors.New("client is stuck")

	hub := ws.NewHub()
	go hub.Run()

	reg := NewRegistry(root, 5, func(string) (waclient.Client, error) { return fake, nil }, hub)

	ctx := context.Background()
	if _, err := reg.Init(ctx, "acme", "support"); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := reg.Destroy(ctx, "acme", "support"); err != nil {
		t.Fatalf("Destroy must not propagate teardown errors, got %v", err)
	}
	if got := reg.Status("acme", "support").Status; got != model.StatusNotFound {
		t.Fatalf("stuck session must still be removed, status %q", got)
	}
}

func TestDetectPersistedSkipsForeignDirs(t *testing.T) {
	reg, root, _ := newTestRegistry(t, 5)

	for _, dir := range []string{
		model.SessionDirName("acme", "support"),
		model.SessionDirName("beta", "sales"),
		"session",
		"not-a-session",
	} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	if err := os.WriteFile(filepath.Join(root, "stray.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write stray file: %v", err)
	}

	if _, err := reg.Init(context.Background(), "acme", "support"); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	detected, err := reg.DetectPersisted()
	if err != nil {
		t.Fatalf("DetectPersisted failed: %v", err)
	}
	if len(detected) != 3 {
		t.Fatalf("expected 3 detected sessions, got %d: %+v", len(detected), detected)
	}

	byKey := make(map[string]DetectedSession)
	for _, d := range detected {
		byKey[model.SessionKey(d.TenantID, d.Label)] = d
	}
	if !byKey["acme__support"].Active {
		t.Fatalf("acme__support should be active")
	}
	if byKey["beta__sales"].Active {
		t.Fatalf("beta__sales should be inactive")
	}
	if _, ok := byKey["default__default"]; !ok {
		t.Fatalf("legacy 'session' dir should map to default identities")
	}
}

func TestRestoreAllContinuesPastFailures(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{
		model.SessionDirName("acme", "support"),
		model.SessionDirName("broken", "main"),
	} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}

	factory := func(credDir string) (waclient.Client, error) {
		if strings.Contains(credDir, "broken") {
			return nil, errors.New("credentials corrupted")
		}
		return waclient.NewFake(), nil
	}

	hub := ws.NewHub()
	go hub.Run()
	reg := NewRegistry(root, 5, factory, hub)

	ctx := context.Background()
	if _, err := reg.Init(ctx, "acme", "support"); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	results, err := reg.RestoreAll(ctx)
	if err != nil {
		t.Fatalf("RestoreAll failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	statuses := make(map[string]string)
	for _, r := range results {
		statuses[model.SessionKey(r.TenantID, r.Label)] = r.Status
	}
	if statuses["acme__support"] != "already_active" {
		t.Fatalf("expected already_active, got %q", statuses["acme__support"])
	}
	if !strings.HasPrefix(statuses["broken__main"], "error:") {
		t.Fatalf("expected error:<msg>, got %q", statuses["broken__main"])
	}
}

func TestRestoreAllCountsRestored(t *testing.T) {
	reg, root, _ := newTestRegistry(t, 5)

	for _, dir := range []string{
		model.SessionDirName("acme", "support"),
		model.SessionDirName("beta", "sales"),
	} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}

	ctx := context.Background()
	if _, err := reg.Init(ctx, "acme", "support"); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	results, err := reg.RestoreAll(ctx)
	if err != nil {
		t.Fatalf("RestoreAll failed: %v", err)
	}

	restored := 0
	for _, r := range results {
		if r.Status == "restored" {
			restored++
		}
	}
	if len(results) != 2 || restored != 1 {
		t.Fatalf("expected total 2 restored 1, got total %d restored %d", len(results), restored)
	}
}

func TestClientEventsDriveStatus(t *testing.T) {
	reg, _, created := newTestRegistry(t, 5)

	if _, err := reg.Init(context.Background(), "acme", "support"); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	fake := (*created)[0]

	fake.Emit(waclient.QREvent{Code: "qr-payload-1"})
	snap := reg.Status("acme", "support")
	if snap.Status != model.StatusScanning || !snap.HasQR {
		t.Fatalf("after qr expected scanning with qr, got %+v", snap)
	}

	fake.Emit(waclient.AuthenticatedEvent{})
	snap = reg.Status("acme", "support")
	if snap.Status != model.StatusAuthed || snap.HasQR {
		t.Fatalf("after auth expected authenticated without qr, got %+v", snap)
	}

	fake.Emit(waclient.ReadyEvent{SelfID: "12345@c.us"})
	snap = reg.Status("acme", "support")
	if snap.Status != model.StatusReady || snap.SelfID != "12345@c.us" {
		t.Fatalf("after ready expected ready with self id, got %+v", snap)
	}

	// Disconnect is not terminal: the session stays registered.
	fake.Emit(waclient.DisconnectedEvent{Reason: "phone offline"})
	snap = reg.Status("acme", "support")
	if snap.Status != model.StatusDisconnected {
		t.Fatalf("expected disconnected, got %+v", snap)
	}
	if _, err := reg.Session("acme", "support"); err != nil {
		t.Fatalf("disconnected session must remain registered: %v", err)
	}
}
