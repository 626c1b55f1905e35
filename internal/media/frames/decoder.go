package frames

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Decoder streams RGB24 frames out of a video file via ffmpeg.
type Decoder struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *tailBuffer
	width  int
	height int
	closed bool
}

// NewDecoder starts an ffmpeg process decoding path into raw RGB24 frames of
// the given geometry. The caller must drain frames with Next and then Close.
func NewDecoder(ctx context.Context, binary, path string, width, height int) (*Decoder, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("frames: invalid decode geometry %dx%d", width, height)
	}

	cmd := exec.CommandContext(ctx, binary,
		"-v", "error",
		"-i", path,
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-",
	)
	stderr := newTailBuffer()
	cmd.Stderr = stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("frames: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("frames: start decoder: %w", err)
	}
	return &Decoder{
		cmd:    cmd,
		stdout: stdout,
		stderr: stderr,
		width:  width,
		height: height,
	}, nil
}

// Next returns the next decoded frame, or io.EOF once the stream ends. A
// short read mid-frame is reported as a decode error, not EOF.
func (d *Decoder) Next() (*Frame, error) {
	frame, err := New(d.width, d.height)
	if err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(d.stdout, frame.Pix); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("frames: truncated frame: %s", d.stderr.Tail())
		}
		return nil, fmt.Errorf("frames: read frame: %w", err)
	}
	return frame, nil
}

// Close reaps the decoder process. Call after Next returned io.EOF; closing
// mid-stream forces ffmpeg to exit and reports its complaint.
func (d *Decoder) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.stdout.Close()
	if err := d.cmd.Wait(); err != nil {
		tail := d.stderr.Tail()
		if tail != "" {
			return fmt.Errorf("frames: decoder exited: %w: %s", err, tail)
		}
		return fmt.Errorf("frames: decoder exited: %w", err)
	}
	return nil
}

// DecodeAll reads every frame of path into memory. The clips this tool
// handles are a few seconds long, so whole-clip buffers stay small.
func DecodeAll(ctx context.Context, binary, path string, width, height int) ([]*Frame, error) {
	decoder, err := NewDecoder(ctx, binary, path, width, height)
	if err != nil {
		return nil, err
	}
	var decoded []*Frame
	for {
		frame, err := decoder.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			decoder.Close()
			return nil, err
		}
		decoded = append(decoded, frame)
	}
	if err := decoder.Close(); err != nil {
		return nil, err
	}
	return decoded, nil
}
