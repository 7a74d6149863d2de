package model

import (
	"strings"

	"gowa-hub/internal/waclient"
)

// Session status values. A session stays registered through disconnected and
// auth_failure (both can recover with a fresh QR); only an explicit destroy
// removes it.
const (
	StatusInitializing = "initializing"
	StatusScanning     = "scanning"
	StatusAuthed       = "authenticated"
	StatusReady        = "ready"
	StatusDisconnected = "disconnected"
	StatusAuthFailure  = "auth_failure"
	StatusNotFound     = "not_found"
)

// Session is the single record for one (tenant, label) identity. The registry
// is its only writer; handlers read snapshots through registry accessors.
type Session struct {
	TenantID string
	Label    string
	Status   string
	LastQR   string
	SelfID   string
	Client   waclient.Client
}

func (s *Session) HasQR() bool {
	return s.LastQR != ""
}

// SessionKey is the composite registry key for a tenant/label pair.
func SessionKey(tenantID, label string) string {
	return tenantID + "__" + label
}

const dirPrefix = "session-"

// SessionDirName is the credential directory naming convention:
// session-<tenantId>__<label>.
func SessionDirName(tenantID, label string) string {
	return dirPrefix + tenantID + "__" + label
}

// ParseSessionDir parses a credential directory name back into its identity.
// Legacy names are mapped to reserved defaults: a bare "session" directory is
// (default, default) and "session-<x>" without the separator is (<x>, default).
// Anything else is not a session directory.
func ParseSessionDir(name string) (tenantID, label string, ok bool) {
	if name == "session" {
		return "default", "default", true
	}
	if !strings.HasPrefix(name, dirPrefix) {
		return "", "", false
	}
	rest := name[len(dirPrefix):]
	if rest == "" {
		return "", "", false
	}
	if tenant, lbl, found := strings.Cut(rest, "__"); found {
		if tenant == "" || lbl == "" {
			return "", "", false
		}
		return tenant, lbl, true
	}
	return rest, "default", true
}
