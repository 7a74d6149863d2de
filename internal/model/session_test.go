package model

import "testing"

func TestSessionDirNameRoundTrip(t *testing.T) {
	name := SessionDirName("acme", "support")
	if name != "session-acme__support" {
		t.Fatalf("unexpected dir name: %q", name)
	}

	tenant, label, ok := ParseSessionDir(name)
	if !ok || tenant != "acme" || label != "support" {
		t.Fatalf("round trip failed: %q %q %v", tenant, label, ok)
	}
}

func TestParseSessionDirLegacyNames(t *testing.T) {
	tenant, label, ok := ParseSessionDir("session")
	if !ok || tenant != "default" || label != "default" {
		t.Fatalf("bare legacy dir: got %q %q %v", tenant, label, ok)
	}

	tenant, label, ok = ParseSessionDir("session-oldclient")
	if !ok || tenant != "oldclient" || label != "default" {
		t.Fatalf("singular legacy dir: got %q %q %v", tenant, label, ok)
	}
}

func TestParseSessionDirRejectsForeignNames(t *testing.T) {
	for _, name := range []string{
		"uploads",
		"session-",
		"session-__",
		"sessions-acme__support",
		".git",
	} {
		if _, _, ok := ParseSessionDir(name); ok {
			t.Fatalf("%q should not parse as a session dir", name)
		}
	}
}

func TestSessionKey(t *testing.T) {
	if got := SessionKey("acme", "support"); got != "acme__support" {
		t.Fatalf("unexpected key: %q", got)
	}
}

func TestHasQR(t *testing.T) {
	s := &Session{}
	if s.HasQR() {
		t.Fatalf("empty session must not report a QR")
	}
	s.LastQR = "payload"
	if !s.HasQR() {
		t.Fatalf("session with LastQR must report a QR")
	}
}
