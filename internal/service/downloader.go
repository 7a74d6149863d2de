package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"gowa-hub/internal/waclient"
)

var (
	ErrMessageNotFound = errors.New("message not found")
	ErrEmptyMedia      = errors.New("media download returned no data")
)

// Widening fetch windows for the targeted chat scan. The transport only
// exposes "fetch the N most recent messages of a chat", so the scan widens
// until the target shows up or the largest window is exhausted.
var scanWindows = []int{120, 300, 600, 1200}

const (
	globalScanLimit  = 50
	downloadAttempts = 5
	backoffBase      = 400 * time.Millisecond
	jitterMax        = 150 * time.Millisecond
)

// Downloader resolves a message id to media bytes through a cost-ascending
// lookup, then downloads with bounded retry. The remote side may report an
// empty result while it is still staging the artifact, so "success with no
// data" retries the same as a transport error.
type Downloader struct {
	client waclient.Client

	// sleep is swappable in tests.
	sleep func(time.Duration)
}

func NewDownloader(client waclient.Client) *Downloader {
	return &Downloader{client: client, sleep: time.Sleep}
}

// Fetch locates the message and downloads its media.
func (d *Downloader) Fetch(ctx context.Context, messageID string) (*waclient.Media, error) {
	msg, err := d.locate(ctx, messageID)
	if err != nil {
		return nil, err
	}
	return d.download(ctx, msg)
}

// locate runs the three lookup stages, short-circuiting on the first hit.
func (d *Downloader) locate(ctx context.Context, messageID string) (*waclient.Message, error) {
	// Stage 1: direct addressing, if the client supports it.
	if msg, err := d.client.GetMessageByID(ctx, messageID); err == nil && msg != nil {
		return msg, nil
	}

	// Stage 2: the id embeds its chat as the second underscore segment
	// (<ownFlag>_<chatId>_<suffix>); scan that chat with widening windows.
	if chatID := chatIDFromMessageID(messageID); chatID != "" {
		for _, window := range scanWindows {
			msgs, err := d.client.FetchMessages(ctx, chatID, window)
			if err != nil {
				return nil, fmt.Errorf("scan chat %s: %w", chatID, err)
			}
			for i := range msgs {
				if msgs[i].ID == messageID {
					return &msgs[i], nil
				}
			}
		}
	}

	// Stage 3: global fallback across every chat's recent messages.
	chats, err := d.client.GetChats(ctx)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	for _, chat := range chats {
		msgs, err := d.client.FetchMessages(ctx, chat.ID, globalScanLimit)
		if err != nil {
			continue
		}
		for i := range msgs {
			if msgs[i].ID == messageID {
				return &msgs[i], nil
			}
		}
	}

	return nil, ErrMessageNotFound
}

// download retries with exponential backoff plus jitter. The last observed
// failure surfaces once the budget is spent.
func (d *Downloader) download(ctx context.Context, msg *waclient.Message) (*waclient.Media, error) {
	backoff := backoffBase
	var lastErr error

	for attempt := 0; attempt < downloadAttempts; attempt++ {
		if attempt > 0 {
			delay := backoff + time.Duration(rand.Int63n(int64(jitterMax)))
			backoff *= 2
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
			d.sleep(delay)
		}

		media, err := d.client.DownloadMedia(ctx, msg)
		if err != nil {
			lastErr = err
			continue
		}
		if media == nil || len(media.Data) == 0 {
			lastErr = ErrEmptyMedia
			continue
		}
		return media, nil
	}

	return nil, fmt.Errorf("download media %s: %w", msg.ID, lastErr)
}

// chatIDFromMessageID extracts the embedded chat id, or "" when the id does
// not follow the <ownFlag>_<chatId>_<suffix> convention.
func chatIDFromMessageID(messageID string) string {
	parts := strings.SplitN(messageID, "_", 3)
	if len(parts) < 3 {
		return ""
	}
	return parts[1]
}
