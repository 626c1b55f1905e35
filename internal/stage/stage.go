// Package stage defines the contract between the workflow manager and the
// pipeline stages it dispatches claimed clips to.
package stage

import (
	"context"

	"github.com/AdemFabio/denoise/internal/queue"
)

// Handler processes one claimed clip. Prepare runs first under the same
// claim and is the place for cheap validation and progress reset; Execute
// does the work. Execute may resolve the item itself (the crop stage sets
// rejected) instead of advancing it, and must tolerate re-runs: a clip whose
// heartbeat went stale is handed to another worker.
type Handler interface {
	Prepare(context.Context, *queue.Item) error
	Execute(context.Context, *queue.Item) error
	HealthCheck(context.Context) Health
}

// Health reports whether a stage can currently do useful work, with a
// detail naming what is missing when it cannot.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Ready reports a stage fit to process clips.
func Ready(name string) Health {
	return Health{Name: name, Ready: true}
}

// NotReady reports a stage that would fail every clip handed to it.
func NotReady(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}
