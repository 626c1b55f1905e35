package manifest_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/AdemFabio/denoise/internal/logging"
	"github.com/AdemFabio/denoise/internal/manifest"
	"github.com/AdemFabio/denoise/internal/queue"
	"github.com/AdemFabio/denoise/internal/services"
	"github.com/AdemFabio/denoise/internal/testsupport"
)

func TestIngestCentersAcceptedRows(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ing := manifest.NewIngestor(cfg, store, logging.NewNop())

	csvData := "a1b2c3d4e5f,10,20,0.5,0.5\n"
	summary, err := ing.Ingest(context.Background(), strings.NewReader(csvData), manifest.Options{})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if summary.Accepted != 1 || summary.Rows != 1 {
		t.Fatalf("summary %+v, want 1 accepted of 1", summary)
	}

	item, err := store.GetByClipID(context.Background(), "a1b2c3d4e5f")
	if err != nil {
		t.Fatalf("GetByClipID: %v", err)
	}
	if item.Start != 13.5 {
		t.Fatalf("start %v, want centered 13.5", item.Start)
	}
	if item.Duration != cfg.Manifest.ClipDuration {
		t.Fatalf("duration %v, want %v", item.Duration, cfg.Manifest.ClipDuration)
	}
	if item.Status != queue.StatusPending || item.Priority != queue.PriorityFetch {
		t.Fatalf("item %s/%d, want pending fetch work", item.Status, item.Priority)
	}
	if item.DownloadDir != cfg.Paths.DownloadDir || item.CroppedDir != cfg.Paths.CroppedDir {
		t.Fatalf("dirs %s / %s do not match configuration", item.DownloadDir, item.CroppedDir)
	}
}

func TestIngestSkipsShortRows(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ing := manifest.NewIngestor(cfg, store, logging.NewNop())

	csvData := strings.Join([]string{
		"shortclip001,5,7,0.5,0.5",
		"longclip0001,5,15,0.5,0.5",
	}, "\n")
	summary, err := ing.Ingest(context.Background(), strings.NewReader(csvData), manifest.Options{})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if summary.Accepted != 1 || summary.TooShort != 1 {
		t.Fatalf("summary %+v, want 1 accepted and 1 too short", summary)
	}
	if _, err := store.GetByClipID(context.Background(), "shortclip001"); !errors.Is(err, queue.ErrNotFound) {
		t.Fatalf("expected short row not queued, got %v", err)
	}
}

func TestIngestCountsInvalidRows(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ing := manifest.NewIngestor(cfg, store, logging.NewNop())

	csvData := strings.Join([]string{
		"bad/clip,0,10,0.5,0.5",
		"goodclip0001,abc,10,0.5,0.5",
		"alsobad00001,20,10,0.5,0.5",
		"onlyid",
		"worksfine001,0,10,0.5,0.5",
	}, "\n")

	var outcomes []manifest.Outcome
	summary, err := ing.Ingest(context.Background(), strings.NewReader(csvData), manifest.Options{
		OnRow: func(o manifest.Outcome) { outcomes = append(outcomes, o) },
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if summary.Invalid != 4 || summary.Accepted != 1 {
		t.Fatalf("summary %+v, want 4 invalid and 1 accepted", summary)
	}
	if len(outcomes) != 5 {
		t.Fatalf("observed %d outcomes, want 5", len(outcomes))
	}
	if outcomes[0].Disposition != manifest.RowInvalid || outcomes[0].Detail == "" {
		t.Fatalf("first outcome %+v, want invalid with detail", outcomes[0])
	}
	if outcomes[4].Disposition != manifest.RowAccepted || outcomes[4].ClipID != "worksfine001" {
		t.Fatalf("last outcome %+v, want accepted worksfine001", outcomes[4])
	}
}

func TestIngestCountsDuplicates(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.NewClip(t, store, cfg, "existingclip")
	ing := manifest.NewIngestor(cfg, store, logging.NewNop())

	csvData := strings.Join([]string{
		"existingclip,0,10,0.5,0.5",
		"freshclip001,0,10,0.5,0.5",
		"freshclip001,2,12,0.5,0.5",
	}, "\n")
	summary, err := ing.Ingest(context.Background(), strings.NewReader(csvData), manifest.Options{})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if summary.Duplicates != 2 || summary.Accepted != 1 {
		t.Fatalf("summary %+v, want 2 duplicates and 1 accepted", summary)
	}
}

func TestIngestHonorsLimit(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ing := manifest.NewIngestor(cfg, store, logging.NewNop())

	var rows []string
	for _, id := range []string{"clipaaaaaaa", "clipbbbbbbb", "clipccccccc", "clipddddddd"} {
		rows = append(rows, id+",0,10,0.5,0.5")
	}
	summary, err := ing.Ingest(context.Background(), strings.NewReader(strings.Join(rows, "\n")), manifest.Options{Limit: 2})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if summary.Accepted != 2 {
		t.Fatalf("accepted %d, want limit 2", summary.Accepted)
	}
	if summary.Rows != 2 {
		t.Fatalf("rows %d, want reading to stop at the limit", summary.Rows)
	}
	items, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("queued %d items, want 2", len(items))
	}
}

func TestIngestOverridesSplitDirs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ing := manifest.NewIngestor(cfg, store, logging.NewNop())

	opts := manifest.Options{
		DownloadDir: cfg.Paths.DownloadDir + "-val",
		CroppedDir:  cfg.Paths.CroppedDir + "-val",
	}
	if _, err := ing.Ingest(context.Background(), strings.NewReader("valclip00001,0,10,0.5,0.5\n"), opts); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	item, err := store.GetByClipID(context.Background(), "valclip00001")
	if err != nil {
		t.Fatalf("GetByClipID: %v", err)
	}
	if item.DownloadDir != opts.DownloadDir || item.CroppedDir != opts.CroppedDir {
		t.Fatalf("dirs %s / %s, want the overrides", item.DownloadDir, item.CroppedDir)
	}
}

func TestIngestAbortsOnMalformedCSV(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ing := manifest.NewIngestor(cfg, store, logging.NewNop())

	csvData := "okclip000001,0,10,0.5,0.5\n\"unterminated,0,10\n"
	_, err := ing.Ingest(context.Background(), strings.NewReader(csvData), manifest.Options{})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for malformed CSV, got %v", err)
	}
}

func TestValidClipID(t *testing.T) {
	valid := []string{"dQw4w9WgXcQ", "abc_DEF-123", "a"}
	for _, id := range valid {
		if !manifest.ValidClipID(id) {
			t.Fatalf("expected %q valid", id)
		}
	}
	invalid := []string{"", "with space", "dot.dot", "slash/id", "..", "tilde~"}
	for _, id := range invalid {
		if manifest.ValidClipID(id) {
			t.Fatalf("expected %q invalid", id)
		}
	}
}
