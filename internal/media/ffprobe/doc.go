// Package ffprobe provides a typed wrapper around ffprobe stream output.
//
// This package has no denoise-specific dependencies and could be extracted
// as a standalone library.
//
// Inspect executes ffprobe over a file and decodes the stream report.
// Helper methods locate the video stream and parse its frame rate and
// dimensions, which the crop engine needs before decoding frames.
package ffprobe
