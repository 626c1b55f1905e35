package testsupport

import (
	"context"
	"testing"

	"github.com/AdemFabio/denoise/internal/config"
	"github.com/AdemFabio/denoise/internal/queue"
)

// MustOpenStore opens the queue store for the config, failing the test on
// error and closing it again at cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// NewClip enqueues a clip with a 30s start offset, directories taken from
// the config, and the config's default duration and height cap.
func NewClip(t testing.TB, store *queue.Store, cfg *config.Config, clipID string) *queue.Item {
	t.Helper()

	item, err := store.NewClip(context.Background(), queue.ClipRequest{
		ClipID:      clipID,
		Start:       30,
		Duration:    cfg.Manifest.ClipDuration,
		DownloadDir: cfg.Paths.DownloadDir,
		CroppedDir:  cfg.Paths.CroppedDir,
		MaxHeight:   cfg.Fetch.MaxHeight,
	})
	if err != nil {
		t.Fatalf("store.NewClip: %v", err)
	}
	return item
}
