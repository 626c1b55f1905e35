// Package services defines shared utilities consumed by the workflow stage
// handlers and external tool clients.
//
// Key responsibilities:
//   - Context helpers that stamp queue item IDs, clip IDs, stage names, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent queue statuses.
//   - A thin command executor abstraction that makes external tool invocation
//     testable.
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
