package main

import (
	"io"
	"strings"
	"testing"

	"github.com/AdemFabio/denoise/internal/deps"
)

func TestRenderStatusLinePadsLabel(t *testing.T) {
	got := renderStatusLine("Daemon", statusError, "Not running", false)
	want := statusIndent + "Daemon:" + strings.Repeat(" ", statusLabelWidth-len("Daemon:")) + " [ERROR] Not running"
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineOmitsEmptyMessage(t *testing.T) {
	got := renderStatusLine("Workers", statusInfo, "", false)
	if !strings.HasSuffix(got, "[INFO]") {
		t.Fatalf("expected bare [INFO] suffix, got %q", got)
	}
}

func TestRenderStatusLineColors(t *testing.T) {
	cases := []struct {
		kind  statusKind
		color string
	}{
		{statusOK, ansiGreen},
		{statusWarn, ansiYellow},
		{statusError, ansiRed},
		{statusInfo, ansiBlue},
	}
	for _, tc := range cases {
		got := renderStatusLine("Daemon", tc.kind, "detail", true)
		if !strings.HasPrefix(got, tc.color) || !strings.HasSuffix(got, ansiReset) {
			t.Fatalf("kind %d: expected %q wrapping, got %q", tc.kind, tc.color, got)
		}
	}
}

func TestRenderSectionHeader(t *testing.T) {
	lines := renderSectionHeader("  Queue Status ", false)
	if len(lines) != 2 {
		t.Fatalf("expected header and rule, got %v", lines)
	}
	if lines[0] != "== Queue Status ==" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if len(lines[1]) != len(lines[0]) || strings.Trim(lines[1], "-") != "" {
		t.Fatalf("unexpected rule %q", lines[1])
	}
}

func TestDependencyLines(t *testing.T) {
	statuses := []deps.Status{
		{Name: "Face detector", Available: false},
		{Name: "FFmpeg", Available: true, Command: "ffmpeg"},
		{Name: "Scene classifier", Available: false, Optional: true, Detail: "not configured"},
	}
	lines := dependencyLines(statuses, false)
	wantParts := [][]string{
		{"Summary:", "[ERROR] 1 required tools missing"},
		{"Face detector:", "[ERROR] not available"},
		{"FFmpeg:", "[OK] Ready (command: ffmpeg)"},
		{"Scene classifier:", "[WARN] not configured"},
		{"Missing dependencies:", "Face detector"},
	}
	if len(lines) != len(wantParts) {
		t.Fatalf("expected %d lines, got %d: %v", len(wantParts), len(lines), lines)
	}
	for i, parts := range wantParts {
		for _, part := range parts {
			if !strings.Contains(lines[i], part) {
				t.Fatalf("line %d missing %q: %q", i, part, lines[i])
			}
		}
	}
}

func TestDependencyLinesAllAvailable(t *testing.T) {
	statuses := []deps.Status{
		{Name: "FFmpeg", Available: true, Command: "ffmpeg"},
		{Name: "FFprobe", Available: true, Command: "ffprobe"},
	}
	lines := dependencyLines(statuses, false)
	if len(lines) != 3 {
		t.Fatalf("expected summary plus one line per tool, got %v", lines)
	}
	if !strings.Contains(lines[0], "[OK] All required tools available") {
		t.Fatalf("unexpected summary %q", lines[0])
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}
