package frames

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

// EncoderOptions configures an Encoder run.
type EncoderOptions struct {
	Binary string
	Width  int
	Height int
	// FPS is the output frame rate; it should match the source clip so
	// audio laid back alongside stays in sync.
	FPS    float64
	Output string
}

// Encoder feeds RGB24 frames of a fixed geometry into ffmpeg, producing an
// H.264 MP4. Odd input dimensions are padded by one black pixel on the
// right or bottom edge, since yuv420p requires even geometry.
type Encoder struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr *tailBuffer
	size   int

	mu     sync.Mutex
	closed bool
}

// NewEncoder starts the ffmpeg encode process. Frames written afterwards
// must match the configured geometry exactly.
func NewEncoder(ctx context.Context, opts EncoderOptions) (*Encoder, error) {
	binary := strings.TrimSpace(opts.Binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("frames: invalid encode geometry %dx%d", opts.Width, opts.Height)
	}
	if opts.FPS <= 0 {
		return nil, fmt.Errorf("frames: invalid encode frame rate %v", opts.FPS)
	}
	if strings.TrimSpace(opts.Output) == "" {
		return nil, fmt.Errorf("frames: encode output path is required")
	}

	args := []string{
		"-y",
		"-v", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-s", fmt.Sprintf("%dx%d", opts.Width, opts.Height),
		"-r", strconv.FormatFloat(opts.FPS, 'f', -1, 64),
		"-i", "-",
	}
	if opts.Width%2 != 0 || opts.Height%2 != 0 {
		args = append(args, "-vf", "pad=ceil(iw/2)*2:ceil(ih/2)*2:0:0:black")
	}
	args = append(args,
		"-pix_fmt", "yuv420p",
		"-c:v", "libx264",
		opts.Output,
	)

	cmd := exec.CommandContext(ctx, binary, args...)
	stderr := newTailBuffer()
	cmd.Stderr = stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("frames: stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("frames: start encoder: %w", err)
	}
	return &Encoder{
		cmd:    cmd,
		stdin:  stdin,
		stderr: stderr,
		size:   Size(opts.Width, opts.Height),
	}, nil
}

// Write sends one frame to the encoder.
func (e *Encoder) Write(frame *Frame) error {
	if frame == nil || len(frame.Pix) != e.size {
		return fmt.Errorf("frames: frame does not match encoder geometry")
	}
	if _, err := e.stdin.Write(frame.Pix); err != nil {
		return fmt.Errorf("frames: write frame: %w: %s", err, e.stderr.Tail())
	}
	return nil
}

// Close flushes the stream and waits for ffmpeg to finish the file.
func (e *Encoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	e.stdin.Close()
	if err := e.cmd.Wait(); err != nil {
		tail := e.stderr.Tail()
		if tail != "" {
			return fmt.Errorf("frames: encoder exited: %w: %s", err, tail)
		}
		return fmt.Errorf("frames: encoder exited: %w", err)
	}
	return nil
}
