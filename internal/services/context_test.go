package services_test

import (
	"context"
	"testing"

	"github.com/AdemFabio/denoise/internal/services"
)

func TestItemIDRoundTrip(t *testing.T) {
	ctx := services.WithItemID(context.Background(), 42)
	id, ok := services.ItemIDFromContext(ctx)
	if !ok || id != 42 {
		t.Fatalf("unexpected item id: %v %v", id, ok)
	}
	if _, ok := services.ItemIDFromContext(context.Background()); ok {
		t.Fatal("expected no item id on a fresh context")
	}
}

func TestStringValuesRoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		set   func(context.Context, string) context.Context
		get   func(context.Context) (string, bool)
		value string
	}{
		{"clip", services.WithClipID, services.ClipIDFromContext, "dQw4w9WgXcQ"},
		{"stage", services.WithStage, services.StageFromContext, "crop"},
		{"request", services.WithRequestID, services.RequestIDFromContext, "req-123"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := tc.get(tc.set(context.Background(), tc.value))
			if !ok || got != tc.value {
				t.Fatalf("got %q %v, want %q", got, ok, tc.value)
			}
			if _, ok := tc.get(tc.set(context.Background(), "")); ok {
				t.Fatal("expected blank value to leave context unchanged")
			}
		})
	}
}
