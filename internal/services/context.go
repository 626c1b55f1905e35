package services

import "context"

// Unexported struct types keep the context keys collision-free without
// string comparisons.
type (
	itemIDKey    struct{}
	clipIDKey    struct{}
	stageKey     struct{}
	requestIDKey struct{}
)

// WithItemID stores the queue item id in ctx.
func WithItemID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, itemIDKey{}, id)
}

// ItemIDFromContext reports the queue item id, if one was stored.
func ItemIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(itemIDKey{}).(int64)
	return id, ok
}

// WithClipID stores the manifest clip id in ctx. Blank ids leave ctx
// unchanged.
func WithClipID(ctx context.Context, clipID string) context.Context {
	return withString(ctx, clipIDKey{}, clipID)
}

// ClipIDFromContext reports the manifest clip id, if one was stored.
func ClipIDFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, clipIDKey{})
}

// WithStage stores the pipeline stage name in ctx. Blank names leave ctx
// unchanged.
func WithStage(ctx context.Context, stage string) context.Context {
	return withString(ctx, stageKey{}, stage)
}

// StageFromContext reports the pipeline stage name, if one was stored.
func StageFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, stageKey{})
}

// WithRequestID stores a correlation id in ctx. Blank ids leave ctx
// unchanged.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withString(ctx, requestIDKey{}, id)
}

// RequestIDFromContext reports the correlation id, if one was stored.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, requestIDKey{})
}

func withString(ctx context.Context, key any, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func stringFrom(ctx context.Context, key any) (string, bool) {
	value, ok := ctx.Value(key).(string)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}
