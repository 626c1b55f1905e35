package fetch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"log/slog"

	"github.com/AdemFabio/denoise/internal/config"
	"github.com/AdemFabio/denoise/internal/logging"
	"github.com/AdemFabio/denoise/internal/queue"
	"github.com/AdemFabio/denoise/internal/services"
	"github.com/AdemFabio/denoise/internal/services/ffmpeg"
	"github.com/AdemFabio/denoise/internal/services/ytdlp"
	"github.com/AdemFabio/denoise/internal/stage"
)

// Handler manages the segment download workflow.
type Handler struct {
	store     *queue.Store
	cfg       *config.Config
	logger    *slog.Logger
	resolver  ytdlp.Resolver
	extractor ffmpeg.Extractor
}

// NewHandler constructs the fetch handler using default dependencies.
func NewHandler(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Handler {
	var resolver ytdlp.Resolver
	if client, err := ytdlp.New(cfg.YtdlpBinary(), cfg.Fetch.MaxHeight, cfg.Fetch.ResolveTimeout); err != nil {
		logger.Warn("yt-dlp client unavailable", logging.Error(err))
	} else {
		resolver = client
	}
	var extractor ffmpeg.Extractor
	if client, err := ffmpeg.New(cfg.FFmpegBinary(), cfg.Fetch.ExtractTimeout); err != nil {
		logger.Warn("ffmpeg client unavailable", logging.Error(err))
	} else {
		extractor = client
	}
	return NewHandlerWithDependencies(cfg, store, logger, resolver, extractor)
}

// NewHandlerWithDependencies allows injecting all collaborators (used in tests).
func NewHandlerWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, resolver ytdlp.Resolver, extractor ffmpeg.Extractor) *Handler {
	stageLogger := logging.NewComponentLogger(logger, "fetcher")
	return &Handler{store: store, cfg: cfg, logger: stageLogger, resolver: resolver, extractor: extractor}
}

func (h *Handler) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, h.logger)
	item.InitProgress("Fetching", "Preparing download")

	if strings.TrimSpace(item.ClipID) == "" {
		return services.Wrap(services.ErrValidation, "fetch", "validate item", "Queue item carries no clip id", nil)
	}
	if strings.TrimSpace(item.DownloadDir) == "" {
		item.DownloadDir = h.cfg.Paths.DownloadDir
	}
	if strings.TrimSpace(item.CroppedDir) == "" {
		item.CroppedDir = h.cfg.Paths.CroppedDir
	}
	if err := os.MkdirAll(item.DownloadDir, 0o755); err != nil {
		return services.Wrap(
			services.ErrConfiguration,
			"fetch",
			"ensure download dir",
			"Failed to create download directory; set paths.download_dir to a writable location",
			err,
		)
	}
	logger.Info(
		"starting fetch preparation",
		logging.String("clip_id", item.ClipID),
		logging.Float64("start_seconds", item.Start),
		logging.Float64("duration_seconds", item.Duration),
	)
	return nil
}

func (h *Handler) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, h.logger)
	videoPath := item.DownloadVideoPath()
	audioPath := item.DownloadAudioPath()

	if err := h.reconcileDownloads(logger, videoPath, audioPath); err != nil {
		if errors.Is(err, services.ErrAlreadyExists) {
			item.VideoPath = videoPath
			item.AudioPath = audioPath
			item.SetProgress("Fetched", "Segments already downloaded", 100)
			logger.Info("segments already on disk", logging.String("video", videoPath))
			return nil
		}
		return err
	}

	if h.resolver == nil {
		return services.Wrap(services.ErrConfiguration, "fetch", "resolve stream urls", "yt-dlp client unavailable; check tools.ytdlp", nil)
	}
	if h.extractor == nil {
		return services.Wrap(services.ErrConfiguration, "fetch", "extract segments", "ffmpeg client unavailable; check tools.ffmpeg", nil)
	}

	h.applyProgress(ctx, item, "Fetching", "Resolving stream urls", 5)
	urls, err := h.resolver.Resolve(ctx, item.ClipID, item.MaxHeight)
	if err != nil {
		return services.Wrap(
			services.ErrSourceUnavailable,
			"fetch",
			"resolve stream urls",
			"Stream resolution failed; the source may be private, removed, or region locked",
			err,
		)
	}
	logger.Info("resolved stream urls", logging.Bool("combined", urls.Combined()))

	h.applyProgress(ctx, item, "Fetching", "Extracting video segment", 25)
	err = h.extractor.ExtractSegment(ctx, ffmpeg.Segment{
		InputURL: urls.Video,
		Start:    item.Start,
		Duration: item.Duration,
		Kind:     ffmpeg.StreamVideo,
		Output:   videoPath,
	})
	if err != nil {
		return classifyExtract("video", err)
	}

	h.applyProgress(ctx, item, "Fetching", "Extracting audio segment", 65)
	err = h.extractor.ExtractSegment(ctx, ffmpeg.Segment{
		InputURL: urls.Audio,
		Start:    item.Start,
		Duration: item.Duration,
		Kind:     ffmpeg.StreamAudio,
		Output:   audioPath,
	})
	if err != nil {
		// Never leave a lone video behind: replays treat a complete pair
		// as done, so a half pair must disappear with the failure.
		_ = os.Remove(videoPath)
		return classifyExtract("audio", err)
	}

	item.VideoPath = videoPath
	item.AudioPath = audioPath
	item.SetProgress("Fetched", "Segments downloaded", 100)
	logger.Info("fetch completed", logging.String("video", videoPath), logging.String("audio", audioPath))
	return nil
}

// HealthCheck verifies fetch stage dependencies.
func (h *Handler) HealthCheck(ctx context.Context) stage.Health {
	const name = "fetcher"
	if h.cfg == nil {
		return stage.NotReady(name, "configuration unavailable")
	}
	if strings.TrimSpace(h.cfg.Paths.DownloadDir) == "" {
		return stage.NotReady(name, "download directory not configured")
	}
	if h.resolver == nil {
		return stage.NotReady(name, "yt-dlp client unavailable")
	}
	if h.extractor == nil {
		return stage.NotReady(name, "ffmpeg client unavailable")
	}
	if binary := strings.TrimSpace(h.cfg.YtdlpBinary()); binary != "" {
		if _, err := exec.LookPath(binary); err != nil {
			return stage.NotReady(name, fmt.Sprintf("yt-dlp binary %q not found", binary))
		}
	}
	if binary := strings.TrimSpace(h.cfg.FFmpegBinary()); binary != "" {
		if _, err := exec.LookPath(binary); err != nil {
			return stage.NotReady(name, fmt.Sprintf("ffmpeg binary %q not found", binary))
		}
	}
	return stage.Ready(name)
}

// reconcileDownloads applies the idempotence guard. A complete pair on disk
// surfaces ErrAlreadyExists, which Execute treats as success; a lone partial
// from an interrupted run is removed so the fetch starts clean.
func (h *Handler) reconcileDownloads(logger *slog.Logger, videoPath, audioPath string) error {
	videoExists := fileExists(videoPath)
	audioExists := fileExists(audioPath)
	switch {
	case videoExists && audioExists:
		return services.Wrap(services.ErrAlreadyExists, "fetch", "check downloads", "Target segments already present", nil)
	case videoExists != audioExists:
		orphan := videoPath
		if audioExists {
			orphan = audioPath
		}
		logger.Warn("removing orphaned partial download", logging.String("path", orphan))
		if err := os.Remove(orphan); err != nil && !errors.Is(err, os.ErrNotExist) {
			return services.Wrap(services.ErrIOFailure, "fetch", "remove orphaned partial", "Failed to remove stale partial download", err)
		}
	}
	return nil
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

func classifyExtract(what string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(
			services.ErrExtractionTimeout,
			"fetch",
			"extract "+what+" segment",
			"Extraction exceeded fetch.extract_timeout; raise the timeout or check network throughput",
			err,
		)
	}
	return services.Wrap(
		services.ErrExtractionFailed,
		"fetch",
		"extract "+what+" segment",
		"ffmpeg could not extract the segment; check stream availability",
		err,
	)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
