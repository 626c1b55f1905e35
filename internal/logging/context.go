package logging

import (
	"context"
	"log/slog"

	"github.com/AdemFabio/denoise/internal/services"
)

// Shared structured logging keys. FieldComponent is special to the console
// handler, which renders it as a message prefix rather than a key=value
// pair.
const (
	FieldComponent     = "component"
	FieldItemID        = "item_id"
	FieldClipID        = "clip_id"
	FieldStage         = "stage"
	FieldWorker        = "worker"
	FieldCorrelationID = "correlation_id"
)

// WithContext augments the logger with the pipeline identifiers carried by
// ctx: queue item id, clip id, stage name, and correlation id. Identifiers
// absent from the context are left off.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if ctx == nil {
		return logger
	}

	args := make([]any, 0, 4)
	if id, ok := services.ItemIDFromContext(ctx); ok {
		args = append(args, slog.Int64(FieldItemID, id))
	}
	if clip, ok := services.ClipIDFromContext(ctx); ok {
		args = append(args, slog.String(FieldClipID, clip))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		args = append(args, slog.String(FieldStage, stage))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		args = append(args, slog.String(FieldCorrelationID, rid))
	}
	if len(args) == 0 {
		return logger
	}
	return logger.With(args...)
}
