// Package preflight provides readiness checks for the external tools and
// filesystem paths the pipeline depends on.
//
// These checks run in two contexts:
//   - Daemon startup calls RunAll and refuses to start when a check fails,
//     so a missing binary or unwritable directory surfaces immediately
//     instead of failing every queue item.
//   - The CLI "denoise doctor" command renders the same results as a table.
package preflight
