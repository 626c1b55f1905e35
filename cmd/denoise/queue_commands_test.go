package main

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/AdemFabio/denoise/internal/queue"
	"github.com/AdemFabio/denoise/internal/testsupport"
)

func markStatus(t *testing.T, env *cliTestEnv, item *queue.Item, status queue.Status) {
	t.Helper()
	item.Status = status
	if err := env.store.Update(context.Background(), item); err != nil {
		t.Fatalf("move %s to %s: %v", item.ClipID, status, err)
	}
}

func reloadItem(t *testing.T, env *cliTestEnv, id int64) *queue.Item {
	t.Helper()
	item, err := env.store.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("reload item %d: %v", id, err)
	}
	return item
}

func TestQueueStatusAndListOutput(t *testing.T) {
	env := setupCLITestEnv(t)

	testsupport.NewClip(t, env.store, env.cfg, "alphaclip")
	beta := testsupport.NewClip(t, env.store, env.cfg, "betaclip")
	markStatus(t, env, beta, queue.StatusFailed)

	out, _, err := runCLI(t, []string{"queue", "status"}, env.configPath)
	if err != nil {
		t.Fatalf("run queue status: %v", err)
	}
	requireContains(t, out, "Pending")
	requireContains(t, out, "Failed")

	out, _, err = runCLI(t, []string{"queue", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("run queue list: %v", err)
	}
	requireContains(t, out, "alphaclip")
	requireContains(t, out, "betaclip")
}

func TestQueueStatusEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"queue", "status"}, env.configPath)
	if err != nil {
		t.Fatalf("run queue status: %v", err)
	}
	requireContains(t, out, "Queue is empty")
}

func TestQueueListFiltersByStatus(t *testing.T) {
	env := setupCLITestEnv(t)

	testsupport.NewClip(t, env.store, env.cfg, "waitingclip")
	done := testsupport.NewClip(t, env.store, env.cfg, "doneclip")
	markStatus(t, env, done, queue.StatusCompleted)

	out, _, err := runCLI(t, []string{"queue", "list", "--status", "completed"}, env.configPath)
	if err != nil {
		t.Fatalf("run queue list --status: %v", err)
	}
	requireContains(t, out, "doneclip")
	if strings.Contains(out, "waitingclip") {
		t.Fatalf("completed filter leaked pending rows: %s", out)
	}

	_, _, err = runCLI(t, []string{"queue", "list", "--status", "bogus"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "unknown status") {
		t.Fatalf("bogus status should be rejected, got %v", err)
	}
}

func TestQueueShowByIDAndClipID(t *testing.T) {
	env := setupCLITestEnv(t)

	item := testsupport.NewClip(t, env.store, env.cfg, "showclip")

	out, _, err := runCLI(t, []string{"queue", "show", fmt.Sprintf("%d", item.ID)}, env.configPath)
	if err != nil {
		t.Fatalf("run queue show by id: %v", err)
	}
	requireContains(t, out, "showclip")
	requireContains(t, out, "Pending")

	out, _, err = runCLI(t, []string{"queue", "show", "showclip"}, env.configPath)
	if err != nil {
		t.Fatalf("run queue show by clip id: %v", err)
	}
	requireContains(t, out, fmt.Sprintf("%d", item.ID))
}

func TestQueueShowNotFound(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"queue", "show", "9999"}, env.configPath)
	if err != nil {
		t.Fatalf("run queue show: %v", err)
	}
	requireContains(t, out, "Item 9999 not found")
}

func TestQueueRetryThenClear(t *testing.T) {
	env := setupCLITestEnv(t)

	broken := testsupport.NewClip(t, env.store, env.cfg, "retryclip")
	markStatus(t, env, broken, queue.StatusFailed)

	out, _, err := runCLI(t, []string{"queue", "retry"}, env.configPath)
	if err != nil {
		t.Fatalf("run queue retry: %v", err)
	}
	requireContains(t, out, "Retried 1 failed items")

	if got := reloadItem(t, env, broken.ID); got.Status != queue.StatusPending {
		t.Fatalf("retried item should be pending, got %s", got.Status)
	}

	markStatus(t, env, broken, queue.StatusFailed)
	out, _, err = runCLI(t, []string{"queue", "clear", "--failed"}, env.configPath)
	if err != nil {
		t.Fatalf("run queue clear --failed: %v", err)
	}
	requireContains(t, out, "Cleared 1 failed items")

	testsupport.NewClip(t, env.store, env.cfg, "leftoverclip")
	out, _, err = runCLI(t, []string{"queue", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("run queue clear: %v", err)
	}
	requireContains(t, out, "Cleared 1 queue items")
}

func TestQueueClearCompletedSubcommand(t *testing.T) {
	env := setupCLITestEnv(t)

	finished := testsupport.NewClip(t, env.store, env.cfg, "finishedclip")
	markStatus(t, env, finished, queue.StatusCompleted)

	out, _, err := runCLI(t, []string{"queue", "clear-completed"}, env.configPath)
	if err != nil {
		t.Fatalf("run queue clear-completed: %v", err)
	}
	requireContains(t, out, "Cleared 1 completed items")
}

func TestQueueRetrySingleItem(t *testing.T) {
	env := setupCLITestEnv(t)

	broken := testsupport.NewClip(t, env.store, env.cfg, "pickedclip")
	markStatus(t, env, broken, queue.StatusFailed)

	out, _, err := runCLI(t, []string{"queue", "retry", fmt.Sprintf("%d", broken.ID)}, env.configPath)
	if err != nil {
		t.Fatalf("run queue retry with id: %v", err)
	}
	requireContains(t, out, fmt.Sprintf("Item %d reset for retry", broken.ID))
}

func TestQueueRetryRejectsNonFailedItems(t *testing.T) {
	env := setupCLITestEnv(t)

	item := testsupport.NewClip(t, env.store, env.cfg, "healthyclip")

	out, _, err := runCLI(t, []string{"queue", "retry", fmt.Sprintf("%d", item.ID)}, env.configPath)
	if err != nil {
		t.Fatalf("run queue retry: %v", err)
	}
	requireContains(t, out, fmt.Sprintf("Item %d is not in failed state", item.ID))

	out, _, err = runCLI(t, []string{"queue", "retry", "4242"}, env.configPath)
	if err != nil {
		t.Fatalf("run queue retry with missing id: %v", err)
	}
	requireContains(t, out, "Item 4242 not found")
}

func TestQueueRetryBadArgument(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"queue", "retry", "abc"}, env.configPath)
	if err == nil {
		t.Fatal("non-numeric id should be rejected")
	}
	if !strings.Contains(err.Error(), "invalid item id") {
		t.Fatalf("unexpected retry error: %v", err)
	}
}

func TestQueueResetStuck(t *testing.T) {
	env := setupCLITestEnv(t)

	stuck := testsupport.NewClip(t, env.store, env.cfg, "stuckclip")
	markStatus(t, env, stuck, queue.StatusFetching)

	out, _, err := runCLI(t, []string{"queue", "reset-stuck"}, env.configPath)
	if err != nil {
		t.Fatalf("run queue reset-stuck: %v", err)
	}
	requireContains(t, out, "Reset 1 items")

	if got := reloadItem(t, env, stuck.ID); got.Status != queue.StatusPending {
		t.Fatalf("reset item should be pending, got %s", got.Status)
	}
}

func TestQueueHealthCounters(t *testing.T) {
	env := setupCLITestEnv(t)

	testsupport.NewClip(t, env.store, env.cfg, "healthclip")

	out, _, err := runCLI(t, []string{"queue", "health"}, env.configPath)
	if err != nil {
		t.Fatalf("run queue health: %v", err)
	}
	requireContains(t, out, "Total: 1")
	requireContains(t, out, "Pending: 1")
	requireContains(t, out, "Rejected: 0")
}
