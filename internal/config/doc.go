// Package config loads, normalizes, and validates denoise configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob
// the daemon and CLI need: dataset directories, external tool binaries,
// extraction budgets, detection sampling, and workflow timing.
//
// Always obtain settings through this package so downstream code receives
// sanitized absolute paths, canonical log formats, and clear validation
// errors.
package config
