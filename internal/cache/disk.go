package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gowa-hub/internal/helper"
)

// DiskStore is the persistent tier: one payload file plus one JSON metadata
// sidecar per message id under the cache root. Entries are never evicted;
// the first writer for a key wins and later duplicates are ignored.
type DiskStore struct {
	root string
}

type diskMeta struct {
	Mimetype string `json:"mimetype"`
	Filename string `json:"filename"`
}

func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create cache root: %w", err)
	}
	return &DiskStore{root: root}, nil
}

func (d *DiskStore) paths(key string) (payload, meta string) {
	safe := helper.SanitizeKey(key)
	return filepath.Join(d.root, safe+".bin"), filepath.Join(d.root, safe+".json")
}

func (d *DiskStore) Has(key string) bool {
	payload, _ := d.paths(key)
	_, err := os.Stat(payload)
	return err == nil
}

func (d *DiskStore) Get(key string) (Entry, bool) {
	payload, meta := d.paths(key)

	data, err := os.ReadFile(payload)
	if err != nil {
		return Entry{}, false
	}

	entry := Entry{Data: data}
	if raw, err := os.ReadFile(meta); err == nil {
		var m diskMeta
		if err := json.Unmarshal(raw, &m); err == nil {
			entry.Mimetype = m.Mimetype
			entry.Filename = m.Filename
		}
	}
	return entry, true
}

// Put writes the payload and sidecar. A concurrent duplicate write for the
// same key loses silently; the stored bytes stay as the first writer left
// them.
func (d *DiskStore) Put(key string, entry Entry) error {
	payload, meta := d.paths(key)

	f, err := os.OpenFile(payload, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil
		}
		return fmt.Errorf("write media payload: %w", err)
	}
	if _, err := f.Write(entry.Data); err != nil {
		f.Close()
		os.Remove(payload)
		return fmt.Errorf("write media payload: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write media payload: %w", err)
	}

	raw, err := json.Marshal(diskMeta{Mimetype: entry.Mimetype, Filename: entry.Filename})
	if err != nil {
		return fmt.Errorf("marshal media metadata: %w", err)
	}
	if err := os.WriteFile(meta, raw, 0o644); err != nil {
		return fmt.Errorf("write media metadata: %w", err)
	}
	return nil
}
