package ffmpeg_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/AdemFabio/denoise/internal/services/ffmpeg"
)

type fakeExecutor struct {
	err    error
	delay  time.Duration
	binary string
	args   []string
	lines  []string
}

func (f *fakeExecutor) Run(ctx context.Context, binary string, args []string, onLine func(string)) error {
	f.binary = binary
	f.args = args
	for _, line := range f.lines {
		if onLine != nil {
			onLine(line)
		}
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.err
}

func TestExtractVideoArgs(t *testing.T) {
	exec := &fakeExecutor{}
	client, err := ffmpeg.New("ffmpeg", 300, ffmpeg.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	out := filepath.Join(t.TempDir(), "clip.mp4")
	err = client.ExtractSegment(context.Background(), ffmpeg.Segment{
		InputURL: "https://cdn.example/video.m3u8",
		Start:    42.5,
		Duration: 3,
		Kind:     ffmpeg.StreamVideo,
		Output:   out,
	})
	if err != nil {
		t.Fatalf("ExtractSegment: %v", err)
	}

	joined := strings.Join(exec.args, " ")
	for _, want := range []string{"-ss 42.5", "-t 3", "-map 0:v", "-c:v libx264", out} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q in args, got %v", want, exec.args)
		}
	}
}

func TestExtractAudioArgs(t *testing.T) {
	exec := &fakeExecutor{}
	client, err := ffmpeg.New("ffmpeg", 300, ffmpeg.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	out := filepath.Join(t.TempDir(), "clip.aac")
	err = client.ExtractSegment(context.Background(), ffmpeg.Segment{
		InputURL: "https://cdn.example/audio.m4a",
		Start:    0,
		Duration: 3,
		Kind:     ffmpeg.StreamAudio,
		Output:   out,
	})
	if err != nil {
		t.Fatalf("ExtractSegment: %v", err)
	}

	joined := strings.Join(exec.args, " ")
	for _, want := range []string{"-vn", "-c:a aac"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q in args, got %v", want, exec.args)
		}
	}
	if strings.Contains(joined, "-map 0:v") {
		t.Fatalf("audio extraction must not map video: %v", exec.args)
	}
}

func TestExtractFailureRemovesPartialOutput(t *testing.T) {
	exec := &fakeExecutor{err: errors.New("exit status 1"), lines: []string{"connection reset"}}
	client, err := ffmpeg.New("ffmpeg", 300, ffmpeg.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	out := filepath.Join(t.TempDir(), "partial.mp4")
	if err := os.WriteFile(out, []byte("partial"), 0o644); err != nil {
		t.Fatal(err)
	}

	err = client.ExtractSegment(context.Background(), ffmpeg.Segment{
		InputURL: "https://cdn.example/video",
		Duration: 3,
		Kind:     ffmpeg.StreamVideo,
		Output:   out,
	})
	if err == nil {
		t.Fatal("expected extraction failure")
	}
	if !strings.Contains(err.Error(), "connection reset") {
		t.Fatalf("expected output tail in error, got %v", err)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Fatalf("expected partial output removed, stat err: %v", statErr)
	}
}

func TestExtractTimeoutClassification(t *testing.T) {
	exec := &fakeExecutor{delay: 5 * time.Second}
	client, err := ffmpeg.New("ffmpeg", 1, ffmpeg.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	short, cancel := context.WithCancel(context.Background())
	defer cancel()
	start := time.Now()
	err = client.ExtractSegment(short, ffmpeg.Segment{
		InputURL: "https://cdn.example/video",
		Duration: 3,
		Kind:     ffmpeg.StreamVideo,
		Output:   filepath.Join(t.TempDir(), "out.mp4"),
	})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded classification, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("timeout did not bound the run, took %s", elapsed)
	}
}

func TestExtractValidation(t *testing.T) {
	client, err := ffmpeg.New("ffmpeg", 300, ffmpeg.WithExecutor(&fakeExecutor{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	if err := client.ExtractSegment(ctx, ffmpeg.Segment{Duration: 3, Kind: ffmpeg.StreamVideo, Output: "x"}); err == nil {
		t.Fatal("expected error for missing input url")
	}
	if err := client.ExtractSegment(ctx, ffmpeg.Segment{InputURL: "u", Duration: 0, Kind: ffmpeg.StreamVideo, Output: "x"}); err == nil {
		t.Fatal("expected error for zero duration")
	}
	if err := client.ExtractSegment(ctx, ffmpeg.Segment{InputURL: "u", Duration: 3, Kind: "subtitle", Output: "x"}); err == nil {
		t.Fatal("expected error for unknown stream kind")
	}
	if _, err := ffmpeg.New("", 300); err == nil {
		t.Fatal("expected error for empty binary")
	}
}
