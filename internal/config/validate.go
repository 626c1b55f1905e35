package config

import (
	"errors"
	"fmt"
	"sort"
)

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTools(); err != nil {
		return err
	}
	if err := c.validateFetch(); err != nil {
		return err
	}
	if err := c.validateCrop(); err != nil {
		return err
	}
	if err := c.validateManifest(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.DownloadDir == c.Paths.CroppedDir {
		return errors.New("paths.download_dir and paths.cropped_dir must differ")
	}
	return nil
}

func (c *Config) validateTools() error {
	if c.Tools.Ytdlp == "" {
		return errors.New("tools.ytdlp must be set")
	}
	if c.Tools.FFmpeg == "" {
		return errors.New("tools.ffmpeg must be set")
	}
	if c.Tools.FFprobe == "" {
		return errors.New("tools.ffprobe must be set")
	}
	if len(c.Tools.Detector) == 0 {
		return errors.New("tools.detector must name the face detector command")
	}
	return nil
}

func (c *Config) validateFetch() error {
	if c.Fetch.MaxHeight < 144 {
		return errors.New("fetch.max_height must be at least 144")
	}
	return ensurePositiveMap(map[string]int{
		"fetch.resolve_timeout": c.Fetch.ResolveTimeout,
		"fetch.extract_timeout": c.Fetch.ExtractTimeout,
	})
}

func (c *Config) validateCrop() error {
	// Fewer than two samples makes center interpolation undefined.
	if c.Crop.DetectPoints < 2 {
		return errors.New("crop.detect_points must be at least 2")
	}
	return ensurePositiveMap(map[string]int{
		"crop.detect_timeout": c.Crop.DetectTimeout,
	})
}

func (c *Config) validateManifest() error {
	if c.Manifest.ClipDuration <= 0 {
		return errors.New("manifest.clip_duration must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.Workers < 1 {
		return errors.New("workflow.workers must be at least 1")
	}
	if err := ensurePositiveMap(map[string]int{
		"workflow.queue_poll_interval": c.Workflow.QueuePollInterval,
		"workflow.heartbeat_interval":  c.Workflow.HeartbeatInterval,
		"workflow.heartbeat_timeout":   c.Workflow.HeartbeatTimeout,
	}); err != nil {
		return err
	}
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must exceed workflow.heartbeat_interval")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("logging.format must be auto, console, or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error (got %q)", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive (seconds)", key)
		}
	}
	return nil
}
