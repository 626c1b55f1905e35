// Package queue persists pipeline clips in SQLite and exposes helpers for
// driving their lifecycle.
//
// A row is a task: its status encodes which stage the clip is waiting for or
// running (pending → fetching → fetched → cropping → completed, with rejected
// and failed as terminal side states). Claiming moves a row to its processing
// status atomically so concurrent workers never share a clip; heartbeats and
// reclaim transitions return abandoned work to its waiting status, which gives
// the pipeline at-least-once semantics.
//
// The database is treated as transient storage for in-flight work rather than
// a long-term archive. Schema changes are applied through the embedded
// migrations on Open.
//
// Treat this package as the single source of truth for queue semantics; when
// you add new statuses or fields, update the migrations and the transition
// tables in models.go together.
package queue
