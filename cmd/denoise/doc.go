// Package main hosts the denoise CLI entrypoint and command graph.
//
// The Cobra-based command tree covers manifest submission, queue
// maintenance, daemon control, and configuration scaffolding. Commands talk
// to the queue database directly; the daemon shares it safely through WAL
// mode and a busy timeout, so no control socket is needed. Configuration
// resolution happens once per invocation and is shared across subcommands.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
