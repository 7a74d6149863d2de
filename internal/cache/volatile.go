package cache

import (
	"sync"
	"time"
)

// Entry is one cached media payload with its serving metadata.
type Entry struct {
	Data     []byte
	Mimetype string
	Filename string
}

type volatileEntry struct {
	entry    Entry
	storedAt time.Time
}

// Volatile is the in-memory tier. Entries older than the TTL are treated as
// absent on read; a janitor sweep reclaims write-once keys that are never
// read again.
type Volatile struct {
	mu      sync.Mutex
	entries map[string]volatileEntry
	ttl     time.Duration

	now func() time.Time
}

func NewVolatile(ttl time.Duration) *Volatile {
	return &Volatile{
		entries: make(map[string]volatileEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (v *Volatile) Get(key string) (Entry, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	e, ok := v.entries[key]
	if !ok {
		return Entry{}, false
	}
	if v.now().Sub(e.storedAt) >= v.ttl {
		delete(v.entries, key)
		return Entry{}, false
	}
	return e.entry, true
}

func (v *Volatile) Put(key string, entry Entry) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.entries[key] = volatileEntry{entry: entry, storedAt: v.now()}
}

func (v *Volatile) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.entries)
}

// Sweep drops every expired entry and reports how many were removed.
func (v *Volatile) Sweep() int {
	v.mu.Lock()
	defer v.mu.Unlock()

	removed := 0
	for key, e := range v.entries {
		if v.now().Sub(e.storedAt) >= v.ttl {
			delete(v.entries, key)
			removed++
		}
	}
	return removed
}

// StartJanitor sweeps at the given interval until stop is closed.
func (v *Volatile) StartJanitor(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				v.Sweep()
			case <-stop:
				return
			}
		}
	}()
}
