package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path"

	"gowa-hub/internal/cache"
	"gowa-hub/internal/waclient"
)

// ErrMediaUnavailable means the origin no longer has the artifact and no
// cached copy exists. It maps to 410 Gone, not an internal error: media aging
// out of the source's retention is expected.
var ErrMediaUnavailable = errors.New("media no longer available")

// MediaService is the tiered media path: volatile cache, disk store, origin
// fetch through the downloader. Disk hits promote into the volatile tier;
// origin hits write through to both.
type MediaService struct {
	volatile *cache.Volatile
	disk     *cache.DiskStore

	// fetch is swappable in tests.
	fetch func(ctx context.Context, client waclient.Client, messageID string) (*waclient.Media, error)
}

func NewMediaService(volatile *cache.Volatile, disk *cache.DiskStore) *MediaService {
	return &MediaService{
		volatile: volatile,
		disk:     disk,
		fetch: func(ctx context.Context, client waclient.Client, messageID string) (*waclient.Media, error) {
			return NewDownloader(client).Fetch(ctx, messageID)
		},
	}
}

// Get resolves messageID to media bytes for the given session client.
// Concurrent duplicate fetches for the same uncached key are tolerated; the
// disk tier keeps whichever write landed first.
func (m *MediaService) Get(ctx context.Context, client waclient.Client, messageID string) (cache.Entry, error) {
	if entry, ok := m.volatile.Get(messageID); ok {
		return entry, nil
	}

	if entry, ok := m.disk.Get(messageID); ok {
		m.volatile.Put(messageID, entry)
		return entry, nil
	}

	media, err := m.fetch(ctx, client, messageID)
	if err != nil {
		// A prior request may have raced its write in while we were
		// fetching; serve that before giving up.
		if entry, ok := m.disk.Get(messageID); ok {
			m.volatile.Put(messageID, entry)
			return entry, nil
		}
		return cache.Entry{}, fmt.Errorf("%w: %s: %v", ErrMediaUnavailable, messageID, err)
	}

	entry := cache.Entry{
		Data:     media.Data,
		Mimetype: media.Mimetype,
		Filename: mediaFilename(messageID, media),
	}
	m.volatile.Put(messageID, entry)
	if err := m.disk.Put(messageID, entry); err != nil {
		log.Printf("media %s: disk write failed: %v", messageID, err)
	}
	return entry, nil
}

func mediaFilename(messageID string, media *waclient.Media) string {
	if media.Filename != "" {
		return media.Filename
	}
	return path.Base(messageID)
}
