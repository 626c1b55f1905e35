// Package ffmpeg wraps bounded ffmpeg segment extraction.
package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/AdemFabio/denoise/internal/services"
)

// StreamKind selects which stream an extraction keeps.
type StreamKind string

const (
	StreamVideo StreamKind = "video"
	StreamAudio StreamKind = "audio"
)

// Segment describes one bounded extraction from a stream URL.
type Segment struct {
	InputURL string
	Start    float64
	Duration float64
	Kind     StreamKind
	Output   string
}

// Extractor defines the behaviour required by the fetch handler.
type Extractor interface {
	ExtractSegment(ctx context.Context, seg Segment) error
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec services.Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps ffmpeg CLI interactions for segment extraction.
type Client struct {
	binary  string
	timeout time.Duration
	exec    services.Executor
}

// New constructs an ffmpeg client. extractTimeoutSeconds bounds each
// ExtractSegment run; zero disables the per-run timeout.
func New(binary string, extractTimeoutSeconds int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("ffmpeg binary required")
	}
	client := &Client{
		binary:  binary,
		timeout: time.Duration(extractTimeoutSeconds) * time.Second,
		exec:    services.CommandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// ExtractSegment runs one bounded ffmpeg extraction. On any failure the
// partial output file is removed before returning. A run that hits the
// per-run timeout returns an error satisfying
// errors.Is(err, context.DeadlineExceeded).
func (c *Client) ExtractSegment(ctx context.Context, seg Segment) error {
	if strings.TrimSpace(seg.InputURL) == "" {
		return errors.New("extract: input url required")
	}
	if strings.TrimSpace(seg.Output) == "" {
		return errors.New("extract: output path required")
	}
	if seg.Duration <= 0 {
		return errors.New("extract: duration must be positive")
	}
	if seg.Kind != StreamVideo && seg.Kind != StreamAudio {
		return fmt.Errorf("extract: unknown stream kind %q", seg.Kind)
	}

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	tail := &lineTail{}
	err := c.exec.Run(runCtx, c.binary, buildArgs(seg), tail.Add)
	if err == nil {
		return nil
	}

	_ = os.Remove(seg.Output)

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("extract %s segment: run exceeded %s: %w", seg.Kind, c.timeout, context.DeadlineExceeded)
	}
	if detail := tail.String(); detail != "" {
		return fmt.Errorf("extract %s segment: %w: %s", seg.Kind, err, detail)
	}
	return fmt.Errorf("extract %s segment: %w", seg.Kind, err)
}

func buildArgs(seg Segment) []string {
	args := []string{
		"-y",
		"-v", "error",
		"-ss", formatSeconds(seg.Start),
		"-i", seg.InputURL,
		"-t", formatSeconds(seg.Duration),
	}
	switch seg.Kind {
	case StreamVideo:
		args = append(args, "-map", "0:v", "-c:v", "libx264")
	case StreamAudio:
		args = append(args, "-vn", "-c:a", "aac")
	}
	return append(args, seg.Output)
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// lineTail keeps the last few output lines for error detail.
type lineTail struct {
	mu    sync.Mutex
	lines []string
}

const tailLines = 5

func (t *lineTail) Add(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, line)
	if len(t.lines) > tailLines {
		t.lines = t.lines[len(t.lines)-tailLines:]
	}
}

func (t *lineTail) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Join(t.lines, "; ")
}
