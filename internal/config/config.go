package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the dataset and log directory configuration. The download
// and cropped directories are defaults; manifest submissions may override
// them per clip so separate dataset splits can live in separate trees.
type Paths struct {
	DownloadDir string `toml:"download_dir"`
	CroppedDir  string `toml:"cropped_dir"`
	LogDir      string `toml:"log_dir"`
}

// Tools names the external binaries the pipeline shells out to. Detector is
// an argv vector so wrapper scripts with fixed arguments can be configured.
type Tools struct {
	Ytdlp    string   `toml:"ytdlp"`
	FFmpeg   string   `toml:"ffmpeg"`
	FFprobe  string   `toml:"ffprobe"`
	Detector []string `toml:"detector"`
}

// Fetch contains segment download settings.
type Fetch struct {
	MaxHeight      int `toml:"max_height"`
	ResolveTimeout int `toml:"resolve_timeout"`
	ExtractTimeout int `toml:"extract_timeout"`
}

// Crop contains face tracking settings.
type Crop struct {
	DetectPoints  int `toml:"detect_points"`
	DetectTimeout int `toml:"detect_timeout"`
}

// Manifest contains manifest ingestion settings.
type Manifest struct {
	ClipDuration float64 `toml:"clip_duration"`
}

// Workflow contains daemon worker and timing configuration.
type Workflow struct {
	Workers           int `toml:"workers"`
	QueuePollInterval int `toml:"queue_poll_interval"`
	HeartbeatInterval int `toml:"heartbeat_interval"`
	HeartbeatTimeout  int `toml:"heartbeat_timeout"`
}

// Logging selects the log format and verbosity.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for the dataset pipeline.
//
// Sections group settings by subsystem:
//   - Paths: dataset directories and log location
//   - Tools: external binary names (yt-dlp, ffmpeg, ffprobe, detector)
//   - Fetch: stream resolution and extraction budgets
//   - Crop: face detection sampling and budget
//   - Manifest: clip window length and filtering
//   - Workflow: worker count, polling, and heartbeats
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Tools    Tools    `toml:"tools"`
	Fetch    Fetch    `toml:"fetch"`
	Crop     Crop     `toml:"crop"`
	Manifest Manifest `toml:"manifest"`
	Workflow Workflow `toml:"workflow"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path of the per-user config file.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/denoise/config.toml")
}

// Load resolves the configuration file location, merges its contents over
// the defaults, then normalizes and validates the result. The returned
// string is the path Load settled on; exists reports whether a file was
// actually read from it.
func Load(path string) (*Config, string, bool, error) {
	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	cfg := Default()
	if exists {
		raw, err := os.ReadFile(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(raw, &cfg); err != nil {
			return nil, "", false, fmt.Errorf("decode config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

// resolveConfigPath picks the config file to use: an explicit path (flag or
// DENOISE_CONFIG) wins, then the per-user file, then denoise.toml in the
// working directory. With no file anywhere it settles on the per-user path
// and reports exists false.
func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = strings.TrimSpace(os.Getenv("DENOISE_CONFIG"))
	}
	if path != "" {
		return statConfigPath(path)
	}

	userPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("denoise.toml")
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{userPath, projectPath} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true, nil
		}
	}
	return userPath, false, nil
}

func statConfigPath(path string) (string, bool, error) {
	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	switch _, err := os.Stat(expanded); {
	case err == nil:
		return expanded, true, nil
	case errors.Is(err, fs.ErrNotExist):
		return expanded, false, nil
	default:
		return "", false, fmt.Errorf("stat config path: %w", err)
	}
}

// EnsureDirectories creates the download, cropped, and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DownloadDir, c.Paths.CroppedDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// YtdlpBinary returns the stream resolver executable name.
func (c *Config) YtdlpBinary() string {
	return c.Tools.Ytdlp
}

// FFmpegBinary returns the ffmpeg executable name used for extraction and encoding.
func (c *Config) FFmpegBinary() string {
	return c.Tools.FFmpeg
}

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string {
	return c.Tools.FFprobe
}

// DetectorCommand returns the detector argv vector (command plus fixed arguments).
func (c *Config) DetectorCommand() []string {
	out := make([]string, len(c.Tools.Detector))
	copy(out, c.Tools.Detector)
	return out
}

// expandPath turns a leading ~ into the user home directory and makes the
// result a cleaned absolute path. An empty value stays empty.
func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return "", nil
	}
	if pathValue == "~" || strings.HasPrefix(pathValue, "~/") || strings.HasPrefix(pathValue, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("find home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath applies the same ~ and relative-path expansion Load uses, for
// paths arriving through CLI flags.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes the embedded sample configuration to path, creating
// parent directories as needed.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample file: %w", err)
	}
	return nil
}
