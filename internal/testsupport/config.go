package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/AdemFabio/denoise/internal/config"
)

// ConfigOption adjusts the generated test configuration. Options receive
// the temp root so they can place files next to the configured directories.
type ConfigOption func(t testing.TB, base string, cfg *config.Config)

// NewConfig returns a config rooted in a per-test temp directory: download,
// cropped, and log dirs all live under it. The worker pool is pinned to one
// so queue assertions stay deterministic.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DownloadDir = filepath.Join(base, "downloaded")
	cfg.Paths.CroppedDir = filepath.Join(base, "cropped")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Workflow.Workers = 1

	for _, opt := range opts {
		opt(t, base, &cfg)
	}
	return &cfg
}

// WithToolStubs puts always-succeeding stand-ins for the named
// executables on PATH for the duration of the test. With no names it stubs
// yt-dlp, ffmpeg, and ffprobe.
func WithToolStubs(names ...string) ConfigOption {
	return func(t testing.TB, base string, _ *config.Config) {
		t.Helper()

		if len(names) == 0 {
			names = []string{"yt-dlp", "ffmpeg", "ffprobe"}
		}
		stubDir := filepath.Join(base, "bin")
		if err := os.MkdirAll(stubDir, 0o755); err != nil {
			t.Fatalf("mkdir stub bin dir: %v", err)
		}
		for _, name := range names {
			stub := filepath.Join(stubDir, name)
			if err := os.WriteFile(stub, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
				t.Fatalf("install stub %s: %v", name, err)
			}
		}

		prev := os.Getenv("PATH")
		if err := os.Setenv("PATH", stubDir+string(os.PathListSeparator)+prev); err != nil {
			t.Fatalf("prepend stub dir to PATH: %v", err)
		}
		t.Cleanup(func() { _ = os.Setenv("PATH", prev) })
	}
}

// TempRoot recovers the temp root NewConfig built the directory tree under.
func TempRoot(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DownloadDir)
}
