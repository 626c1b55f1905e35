// Package daemon coordinates the long-running denoise process.
//
// It wires configuration, queue storage, and the workflow manager into a
// single lifecycle with flock-based locking so only one instance processes
// the queue. Startup recovers rows a crashed run left in a processing
// status before workers begin claiming.
//
// Keep orchestration logic here: stage behavior lives in the fetch and crop
// packages while the daemon focuses on startup, shutdown, and recovery.
package daemon
