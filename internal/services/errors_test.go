package services_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/AdemFabio/denoise/internal/services"
)

func TestWrapTagsAndChains(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExtractionFailed, "fetch", "extract-video", "ffmpeg exited", base)

	for _, want := range []error{services.ErrExtractionFailed, base} {
		if !errors.Is(err, want) {
			t.Fatalf("expected %v in chain, got %v", want, err)
		}
	}
	msg := err.Error()
	for _, fragment := range []string{"fetch", "extract-video", "ffmpeg exited", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in %q", fragment, msg)
		}
	}
}

func TestWrapNilMarkerAndDetail(t *testing.T) {
	err := services.Wrap(nil, "crop", "decode", "pipe closed", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}

	bare := services.Wrap(services.ErrValidation, "", "", "", nil)
	if !strings.Contains(bare.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", bare.Error())
	}
}

func TestFailureMessage(t *testing.T) {
	if msg := services.FailureMessage(nil); msg != "" {
		t.Fatalf("expected empty message for nil error, got %q", msg)
	}
	err := services.Wrap(services.ErrSourceUnavailable, "fetch", "resolve", "no formats", nil)
	if msg := services.FailureMessage(err); !strings.Contains(msg, "no formats") {
		t.Fatalf("expected detail in message, got %q", msg)
	}
}
