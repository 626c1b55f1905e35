package crop_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/AdemFabio/denoise/internal/crop"
	"github.com/AdemFabio/denoise/internal/logging"
	"github.com/AdemFabio/denoise/internal/queue"
	"github.com/AdemFabio/denoise/internal/services"
	"github.com/AdemFabio/denoise/internal/testsupport"
)

type fakeEngine struct {
	result crop.Result
	err    error
	calls  int
}

func (f *fakeEngine) Crop(ctx context.Context, videoPath, croppedDir string) (crop.Result, error) {
	f.calls++
	if f.err != nil {
		return crop.Result{}, f.err
	}
	result := f.result
	if result.Outcome == crop.OutcomeCropped && result.OutputPath != "" {
		testFile, err := os.Create(result.OutputPath)
		if err != nil {
			return crop.Result{}, err
		}
		testFile.Close()
	}
	return result, nil
}

func TestCropperCompletesHandoff(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewClip(t, store, cfg, "a1b2c3d4e5f")
	testsupport.WriteFile(t, item.DownloadVideoPath(), 256)
	testsupport.WriteFile(t, item.DownloadAudioPath(), 128)
	item.VideoPath = item.DownloadVideoPath()
	item.AudioPath = item.DownloadAudioPath()

	engine := &fakeEngine{result: crop.Result{
		Outcome:    crop.OutcomeCropped,
		OutputPath: item.CroppedVideoPath(),
		Frames:     75,
		Keyframes:  2,
		Window:     crop.Window{Height: 120, Width: 90},
	}}
	handler := crop.NewHandlerWithEngine(cfg, store, logging.NewNop(), engine)

	if err := handler.Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if _, err := os.Stat(item.DownloadVideoPath()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected downloaded video removed, stat err %v", err)
	}
	if _, err := os.Stat(item.DownloadAudioPath()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected downloaded audio moved away, stat err %v", err)
	}
	if _, err := os.Stat(item.CroppedAudioPath()); err != nil {
		t.Fatalf("expected audio relocated next to the crop: %v", err)
	}
	if item.CroppedPath != item.CroppedVideoPath() {
		t.Fatalf("cropped path %s, want %s", item.CroppedPath, item.CroppedVideoPath())
	}
	if item.AudioPath != item.CroppedAudioPath() {
		t.Fatalf("audio path %s, want relocated %s", item.AudioPath, item.CroppedAudioPath())
	}
	if item.ProgressPercent != 100 || item.ProgressStage != "Cropped" {
		t.Fatalf("unexpected progress %q %.0f", item.ProgressStage, item.ProgressPercent)
	}
}

func TestCropperRejectionLeavesDownloads(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewClip(t, store, cfg, "a1b2c3d4e5f")
	testsupport.WriteFile(t, item.DownloadVideoPath(), 256)
	testsupport.WriteFile(t, item.DownloadAudioPath(), 128)

	engine := &fakeEngine{result: crop.Result{
		Outcome:      crop.OutcomeRejected,
		Frames:       75,
		Keyframes:    2,
		RejectReason: "keyframe 74: detected 2 faces, need exactly 1",
	}}
	handler := crop.NewHandlerWithEngine(cfg, store, logging.NewNop(), engine)

	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if item.Status != queue.StatusRejected {
		t.Fatalf("status %s, want rejected", item.Status)
	}
	if item.RejectReason == "" {
		t.Fatal("expected reject reason recorded")
	}
	if _, err := os.Stat(item.DownloadVideoPath()); err != nil {
		t.Fatalf("expected downloaded video kept for review: %v", err)
	}
	if _, err := os.Stat(item.DownloadAudioPath()); err != nil {
		t.Fatalf("expected downloaded audio kept for review: %v", err)
	}
}

func TestCropperMissingVideoFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewClip(t, store, cfg, "a1b2c3d4e5f")

	handler := crop.NewHandlerWithEngine(cfg, store, logging.NewNop(), &fakeEngine{})
	err := handler.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestCropperPassesThroughEngineErrors(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewClip(t, store, cfg, "a1b2c3d4e5f")
	testsupport.WriteFile(t, item.DownloadVideoPath(), 256)
	testsupport.WriteFile(t, item.DownloadAudioPath(), 128)

	wrapped := services.Wrap(services.ErrExtractionTimeout, "crop", "detect faces", "Face detection exceeded crop.detect_timeout", context.DeadlineExceeded)
	handler := crop.NewHandlerWithEngine(cfg, store, logging.NewNop(), &fakeEngine{err: wrapped})

	err := handler.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrExtractionTimeout) {
		t.Fatalf("expected timeout passthrough, got %v", err)
	}
}

func TestCropperHealthCheck(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithToolStubs("ffmpeg", "ffprobe", "denoise-detector"))
	store := testsupport.MustOpenStore(t, cfg)

	handler := crop.NewHandlerWithEngine(cfg, store, logging.NewNop(), &fakeEngine{})
	if health := handler.HealthCheck(context.Background()); !health.Ready {
		t.Fatalf("expected healthy cropper, got %+v", health)
	}

	noEngine := crop.NewHandlerWithEngine(cfg, store, logging.NewNop(), nil)
	if health := noEngine.HealthCheck(context.Background()); health.Ready {
		t.Fatal("expected unhealthy cropper without engine")
	}
}
