// Package workflow advances queue items through the two processing stages.
//
// The Manager runs a small pool of workers. Each worker claims the highest
// priority waiting item (crop work outranks fetch work, so clips drain
// through the pipeline instead of piling up half-done), runs the stage
// handler for the claimed status, and persists the outcome: the follow-up
// status on success, rejected when the single-face gate said no, failed with
// an operator message otherwise. A heartbeat loop runs beside every
// execution, and one worker doubles as the reclaimer that returns work from
// crashed owners to its waiting status once the heartbeat goes stale.
//
// Delivery is at least once. Handlers are written to be re-runnable: a
// replayed fetch fast-forwards over files already on disk and a replayed
// crop recomputes deterministically from the same inputs.
package workflow
