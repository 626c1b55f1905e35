package crop

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"log/slog"

	"github.com/AdemFabio/denoise/internal/config"
	"github.com/AdemFabio/denoise/internal/fileutil"
	"github.com/AdemFabio/denoise/internal/logging"
	"github.com/AdemFabio/denoise/internal/queue"
	"github.com/AdemFabio/denoise/internal/services"
	"github.com/AdemFabio/denoise/internal/stage"
)

// Handler manages the crop workflow stage.
type Handler struct {
	store  *queue.Store
	cfg    *config.Config
	logger *slog.Logger
	engine Cropper
}

// NewHandler constructs the crop handler using the production engine.
func NewHandler(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Handler {
	var engine Cropper
	if built, err := NewEngine(cfg); err != nil {
		logger.Warn("crop engine unavailable", logging.Error(err))
	} else {
		engine = built
	}
	return NewHandlerWithEngine(cfg, store, logger, engine)
}

// NewHandlerWithEngine allows injecting the engine (used in tests).
func NewHandlerWithEngine(cfg *config.Config, store *queue.Store, logger *slog.Logger, engine Cropper) *Handler {
	stageLogger := logging.NewComponentLogger(logger, "cropper")
	return &Handler{store: store, cfg: cfg, logger: stageLogger, engine: engine}
}

func (h *Handler) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, h.logger)
	item.InitProgress("Cropping", "Preparing crop")

	if strings.TrimSpace(item.ClipID) == "" {
		return services.Wrap(services.ErrValidation, "crop", "validate item", "Queue item carries no clip id", nil)
	}
	if strings.TrimSpace(item.CroppedDir) == "" {
		item.CroppedDir = h.cfg.Paths.CroppedDir
	}
	if err := os.MkdirAll(item.CroppedDir, 0o755); err != nil {
		return services.Wrap(
			services.ErrConfiguration,
			"crop",
			"ensure cropped dir",
			"Failed to create cropped directory; set paths.cropped_dir to a writable location",
			err,
		)
	}
	logger.Info("starting crop preparation", logging.String("clip_id", item.ClipID))
	return nil
}

func (h *Handler) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, h.logger)

	videoPath := item.VideoPath
	if strings.TrimSpace(videoPath) == "" {
		videoPath = item.DownloadVideoPath()
	}
	audioPath := item.AudioPath
	if strings.TrimSpace(audioPath) == "" {
		audioPath = item.DownloadAudioPath()
	}
	if !fileExists(videoPath) {
		return services.Wrap(services.ErrNotFound, "crop", "locate video", "Downloaded video is missing; retry the clip to refetch it", nil)
	}
	if !fileExists(audioPath) {
		return services.Wrap(services.ErrNotFound, "crop", "locate audio", "Downloaded audio is missing; retry the clip to refetch it", nil)
	}
	if h.engine == nil {
		return services.Wrap(services.ErrConfiguration, "crop", "run engine", "Crop engine unavailable; check tools.detector", nil)
	}

	h.applyProgress(ctx, item, "Cropping", "Detecting and tracking face", 10)
	result, err := h.engine.Crop(ctx, videoPath, item.CroppedDir)
	if err != nil {
		return err
	}
	if result.Outcome == OutcomeRejected {
		item.SetRejected(result.RejectReason)
		logger.Info(
			"clip rejected",
			logging.String("clip_id", item.ClipID),
			logging.String("reason", result.RejectReason),
		)
		return nil
	}

	h.applyProgress(ctx, item, "Cropping", "Relocating audio", 90)
	if err := os.Remove(videoPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return services.Wrap(services.ErrIOFailure, "crop", "remove downloaded video", "Failed to delete the downloaded video after cropping", err)
	}
	if err := fileutil.MoveFile(audioPath, item.CroppedAudioPath()); err != nil {
		return services.Wrap(services.ErrIOFailure, "crop", "relocate audio", "Failed to move the audio next to the cropped video", err)
	}

	item.VideoPath = ""
	item.AudioPath = item.CroppedAudioPath()
	item.CroppedPath = result.OutputPath
	item.SetProgress("Cropped", "Face crop completed", 100)
	logger.Info(
		"crop completed",
		logging.String("cropped", result.OutputPath),
		logging.Int("frames", result.Frames),
		logging.Int("keyframes", result.Keyframes),
		logging.Int("window_height", result.Window.Height),
		logging.Int("window_width", result.Window.Width),
	)
	return nil
}

// HealthCheck verifies crop stage dependencies.
func (h *Handler) HealthCheck(ctx context.Context) stage.Health {
	const name = "cropper"
	if h.cfg == nil {
		return stage.NotReady(name, "configuration unavailable")
	}
	if strings.TrimSpace(h.cfg.Paths.CroppedDir) == "" {
		return stage.NotReady(name, "cropped directory not configured")
	}
	if h.engine == nil {
		return stage.NotReady(name, "crop engine unavailable")
	}
	detector := h.cfg.DetectorCommand()
	if len(detector) == 0 || strings.TrimSpace(detector[0]) == "" {
		return stage.NotReady(name, "detector command not configured")
	}
	if _, err := exec.LookPath(detector[0]); err != nil {
		return stage.NotReady(name, fmt.Sprintf("detector binary %q not found", detector[0]))
	}
	for _, binary := range []string{h.cfg.FFmpegBinary(), h.cfg.FFprobeBinary()} {
		binary = strings.TrimSpace(binary)
		if binary == "" {
			continue
		}
		if _, err := exec.LookPath(binary); err != nil {
			return stage.NotReady(name, fmt.Sprintf("binary %q not found", binary))
		}
	}
	return stage.Ready(name)
}

func (h *Handler) applyProgress(ctx context.Context, item *queue.Item, stageName, message string, percent float64) {
	copy := *item
	copy.SetProgress(stageName, message, percent)
	if err := h.store.UpdateProgress(ctx, &copy); err != nil {
		logging.WithContext(ctx, h.logger).Warn("failed to persist progress", logging.Error(err))
		return
	}
	*item = copy
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
