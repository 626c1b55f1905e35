package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers attached via Wrap. Stages branch on them with errors.Is,
// so keep them stable: fetch treats ErrAlreadyExists as success, and the
// extraction markers separate tool exits from wall-clock kills.
var (
	ErrAlreadyExists     = errors.New("already exists")
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrExtractionTimeout = errors.New("extraction timeout")
	ErrExtractionFailed  = errors.New("extraction failed")
	ErrIOFailure         = errors.New("io failure")
	ErrValidation        = errors.New("validation error")
	ErrConfiguration     = errors.New("configuration error")
	ErrNotFound          = errors.New("not found")
	ErrTransient         = errors.New("transient failure")
)

// Wrap tags err with marker and prefixes the stage, operation, and
// operator-facing message. A nil marker falls back to ErrTransient, and a
// nil err still produces a tagged error carrying the detail.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	detail := joinDetail(stage, operation, message)
	if err == nil {
		return fmt.Errorf("%w: %s", marker, detail)
	}
	return fmt.Errorf("%w: %s: %w", marker, detail, err)
}

// FailureMessage condenses a stage error into the operator-facing message
// stored on the queue row.
func FailureMessage(err error) string {
	if err == nil {
		return ""
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return "stage failure"
}

func joinDetail(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			kept = append(kept, part)
		}
	}
	if len(kept) == 0 {
		return "service failure"
	}
	return strings.Join(kept, ": ")
}
