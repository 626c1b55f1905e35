package preflight

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/AdemFabio/denoise/internal/config"
	"github.com/AdemFabio/denoise/internal/deps"
	"github.com/AdemFabio/denoise/internal/queue"
)

// CheckDirectoryAccess confirms path exists, is a directory, and grants
// read, write, and search permission.
func CheckDirectoryAccess(name, path string) Result {
	fail := func(problem string) Result {
		return Result{Name: name, Detail: path + " (" + problem + ")"}
	}

	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		return fail("missing")
	case err != nil:
		return fail("stat failed: " + err.Error())
	case !info.IsDir():
		return fail("not a directory")
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return fail("permission denied: " + err.Error())
	}
	return Result{Name: name, Passed: true, Detail: path + " (writable)"}
}

// CheckQueueDatabase inspects the queue database file. A database that does
// not exist yet passes: the first open creates it.
func CheckQueueDatabase(ctx context.Context, cfg *config.Config) Result {
	const name = "Queue database"
	if cfg == nil {
		return Result{Name: name, Detail: "configuration unavailable"}
	}
	dbPath := queue.DatabasePath(cfg)
	health := queue.CheckHealth(ctx, dbPath)
	if !health.DatabaseExists {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", dbPath)}
	}
	if health.Error != "" {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %s)", dbPath, health.Error)}
	}
	if len(health.MissingColumns) > 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: missing columns %s)", dbPath, strings.Join(health.MissingColumns, ", "))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d items)", dbPath, health.TotalItems)}
}

// CheckSystemDeps evaluates the external tools the pipeline shells out to.
// Both the daemon startup gate and `denoise doctor` use this to avoid
// duplicating the requirements list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	if cfg == nil {
		return nil
	}
	detector := ""
	if argv := cfg.DetectorCommand(); len(argv) > 0 {
		detector = argv[0]
	}
	return deps.CheckBinaries([]deps.Requirement{
		{
			Name:        "yt-dlp",
			Command:     cfg.YtdlpBinary(),
			Description: "Required to resolve source stream urls",
		},
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Required for segment extraction and crop encoding",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Required to inspect media streams",
		},
		{
			Name:        "Face detector",
			Command:     detector,
			Description: "Required to locate faces at keyframes",
		},
	})
}
