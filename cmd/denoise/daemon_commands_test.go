package main

import (
	"strings"
	"testing"

	"github.com/AdemFabio/denoise/internal/testsupport"
)

func TestDaemonStatusOffline(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"daemon", "status"}, env.configPath)
	if err != nil {
		t.Fatalf("daemon status: %v", err)
	}
	requireContains(t, out, "System Status")
	requireContains(t, out, "Daemon:")
	requireContains(t, out, "Stopped")
	requireContains(t, out, "All required tools available")
	requireContains(t, out, "Dataset Paths")
	requireContains(t, out, "Queue is empty")
}

func TestDaemonStatusShowsQueueCounts(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.NewClip(t, env.store, env.cfg, "statusclip01")

	out, _, err := runCLI(t, []string{"daemon", "status"}, env.configPath)
	if err != nil {
		t.Fatalf("daemon status: %v", err)
	}
	requireContains(t, out, "Queue Status")
	requireContains(t, out, "Pending")
	if strings.Contains(out, "Queue is empty") {
		t.Fatalf("expected queue counts, got empty message:\n%s", out)
	}
}

func TestDaemonStopWhenNotRunning(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"daemon", "stop"}, env.configPath)
	if err != nil {
		t.Fatalf("daemon stop: %v", err)
	}
	requireContains(t, out, "Daemon is not running")
}
