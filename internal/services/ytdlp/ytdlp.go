// Package ytdlp wraps yt-dlp stream URL resolution.
package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/AdemFabio/denoise/internal/services"
)

const watchBaseURL = "https://www.youtube.com/watch?v="

// StreamURLs carries the resolved direct stream addresses for one clip.
// Video and Audio may be identical when the source only offers a combined
// stream.
type StreamURLs struct {
	Video string
	Audio string
}

// Combined reports whether one URL serves both streams.
func (u StreamURLs) Combined() bool {
	return u.Video == u.Audio
}

// Resolver defines the behaviour required by the fetch handler. maxHeight
// caps the video formats considered for this call; zero or negative falls
// back to the client default.
type Resolver interface {
	Resolve(ctx context.Context, clipID string, maxHeight int) (StreamURLs, error)
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

// Client wraps yt-dlp CLI interactions.
type Client struct {
	binary         string
	maxHeight      int
	resolveTimeout time.Duration
	exec           services.Executor
}

// New constructs a yt-dlp client. maxHeight bounds the video formats the
// resolver may pick; resolveTimeoutSeconds bounds each Resolve call.
func New(binary string, maxHeight, resolveTimeoutSeconds int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("yt-dlp binary required")
	}
	if maxHeight <= 0 {
		return nil, errors.New("max height must be positive")
	}
	client := &Client{
		binary:         binary,
		maxHeight:      maxHeight,
		resolveTimeout: time.Duration(resolveTimeoutSeconds) * time.Second,
		exec:           services.CommandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Resolve asks yt-dlp for the direct stream URLs of a clip. Two printed
// URLs map to (video, audio); a single combined URL serves as both.
func (c *Client) Resolve(ctx context.Context, clipID string, maxHeight int) (StreamURLs, error) {
	clipID = strings.TrimSpace(clipID)
	if clipID == "" {
		return StreamURLs{}, errors.New("clip id required")
	}

	if maxHeight <= 0 {
		maxHeight = c.maxHeight
	}
	format := fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best[height<=%d]", maxHeight, maxHeight)
	args := []string{
		"-g",
		"-f", format,
		"--no-playlist",
		watchBaseURL + clipID,
	}

	resolveCtx := ctx
	if c.resolveTimeout > 0 {
		var cancel context.CancelFunc
		resolveCtx, cancel = context.WithTimeout(ctx, c.resolveTimeout)
		defer cancel()
	}

	// yt-dlp prints the stream URLs on stdout and chatter on stderr; the
	// executor merges both, so keep only URL lines.
	var (
		mu   sync.Mutex
		urls []string
	)
	err := c.exec.Run(resolveCtx, c.binary, args, func(line string) {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://") {
			mu.Lock()
			urls = append(urls, line)
			mu.Unlock()
		}
	})
	if err != nil {
		return StreamURLs{}, fmt.Errorf("resolve %s: %w", clipID, err)
	}

	switch len(urls) {
	case 2:
		return StreamURLs{Video: urls[0], Audio: urls[1]}, nil
	case 1:
		return StreamURLs{Video: urls[0], Audio: urls[0]}, nil
	default:
		return StreamURLs{}, fmt.Errorf("resolve %s: expected video and audio stream urls, got %d", clipID, len(urls))
	}
}
