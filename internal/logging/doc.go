// Package logging configures slog for the daemon and CLI.
//
// Two handler formats are supported: a compact console format for terminals
// and a JSON format for log files and non-interactive output. Helpers attach
// standardized attributes (component, item_id, clip_id, stage) and derive
// logger fields from request-scoped context values.
package logging
