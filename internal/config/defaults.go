package config

const (
	defaultDownloadDir = "~/.local/share/denoise/downloaded"
	defaultCroppedDir  = "~/.local/share/denoise/cropped"
	defaultLogDir      = "~/.local/share/denoise/logs"

	defaultYtdlpBinary   = "yt-dlp"
	defaultFFmpegBinary  = "ffmpeg"
	defaultFFprobeBinary = "ffprobe"

	defaultMaxHeight      = 360
	defaultResolveTimeout = 60
	defaultExtractTimeout = 300

	defaultDetectPoints  = 2
	defaultDetectTimeout = 120

	defaultClipDuration = 3.0

	defaultWorkers           = 2
	defaultQueuePollInterval = 5
	defaultHeartbeatInterval = 15
	defaultHeartbeatTimeout  = 120

	defaultLogFormat = "auto"
	defaultLogLevel  = "info"
)

// defaultDetectorCommand returns the argv for the companion face detector.
func defaultDetectorCommand() []string {
	return []string{"denoise-detector"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DownloadDir: defaultDownloadDir,
			CroppedDir:  defaultCroppedDir,
			LogDir:      defaultLogDir,
		},
		Tools: Tools{
			Ytdlp:    defaultYtdlpBinary,
			FFmpeg:   defaultFFmpegBinary,
			FFprobe:  defaultFFprobeBinary,
			Detector: defaultDetectorCommand(),
		},
		Fetch: Fetch{
			MaxHeight:      defaultMaxHeight,
			ResolveTimeout: defaultResolveTimeout,
			ExtractTimeout: defaultExtractTimeout,
		},
		Crop: Crop{
			DetectPoints:  defaultDetectPoints,
			DetectTimeout: defaultDetectTimeout,
		},
		Manifest: Manifest{
			ClipDuration: defaultClipDuration,
		},
		Workflow: Workflow{
			Workers:           defaultWorkers,
			QueuePollInterval: defaultQueuePollInterval,
			HeartbeatInterval: defaultHeartbeatInterval,
			HeartbeatTimeout:  defaultHeartbeatTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
