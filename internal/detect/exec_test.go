package detect_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/AdemFabio/denoise/internal/detect"
	"github.com/AdemFabio/denoise/internal/media/frames"
)

func writeDetectorScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "detector.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func makeBatch(t *testing.T, count int) []*frames.Frame {
	t.Helper()
	batch := make([]*frames.Frame, 0, count)
	for i := 0; i < count; i++ {
		frame, err := frames.New(4, 4)
		if err != nil {
			t.Fatalf("frames.New: %v", err)
		}
		batch = append(batch, frame)
	}
	return batch
}

func TestExecDetectorParsesResponses(t *testing.T) {
	script := writeDetectorScript(t, `
echo '{"boxes": [[0, 0, 2.5, 2.5]]}'
echo '{"boxes": [[1, 1, 3, 3], [0, 0, 1, 1]]}'
cat > /dev/null
`)
	detector, err := detect.NewExecDetector([]string{script})
	if err != nil {
		t.Fatalf("NewExecDetector: %v", err)
	}

	results, err := detector.DetectFaces(context.Background(), makeBatch(t, 2))
	if err != nil {
		t.Fatalf("DetectFaces: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if len(results[0]) != 1 || len(results[1]) != 2 {
		t.Fatalf("unexpected box counts: %d, %d", len(results[0]), len(results[1]))
	}
	if results[0][0].Bottom != 2.5 {
		t.Fatalf("unexpected box: %+v", results[0][0])
	}
}

func TestExecDetectorEmptyBoxes(t *testing.T) {
	script := writeDetectorScript(t, `
echo '{"boxes": []}'
cat > /dev/null
`)
	detector, err := detect.NewExecDetector([]string{script})
	if err != nil {
		t.Fatalf("NewExecDetector: %v", err)
	}

	results, err := detector.DetectFaces(context.Background(), makeBatch(t, 1))
	if err != nil {
		t.Fatalf("DetectFaces: %v", err)
	}
	if len(results) != 1 || len(results[0]) != 0 {
		t.Fatalf("expected one empty result, got %#v", results)
	}
}

func TestExecDetectorShortResponse(t *testing.T) {
	script := writeDetectorScript(t, `
echo '{"boxes": []}'
cat > /dev/null
`)
	detector, err := detect.NewExecDetector([]string{script})
	if err != nil {
		t.Fatalf("NewExecDetector: %v", err)
	}

	if _, err := detector.DetectFaces(context.Background(), makeBatch(t, 3)); err == nil {
		t.Fatal("expected error for short response")
	}
}

func TestExecDetectorReportsFailure(t *testing.T) {
	script := writeDetectorScript(t, `
echo "model load failed" >&2
exit 3
`)
	detector, err := detect.NewExecDetector([]string{script})
	if err != nil {
		t.Fatalf("NewExecDetector: %v", err)
	}

	if _, err := detector.DetectFaces(context.Background(), makeBatch(t, 1)); err == nil {
		t.Fatal("expected error from failing detector")
	}
}

func TestExecDetectorRejectsDegenerateBoxes(t *testing.T) {
	script := writeDetectorScript(t, `
echo '{"boxes": [[5, 5, 5, 10]]}'
cat > /dev/null
`)
	detector, err := detect.NewExecDetector([]string{script})
	if err != nil {
		t.Fatalf("NewExecDetector: %v", err)
	}

	if _, err := detector.DetectFaces(context.Background(), makeBatch(t, 1)); err == nil {
		t.Fatal("expected degenerate box to be rejected")
	}
}

func TestNewExecDetectorRequiresCommand(t *testing.T) {
	if _, err := detect.NewExecDetector(nil); err == nil {
		t.Fatal("expected error for empty argv")
	}
	if _, err := detect.NewExecDetector([]string{"  ", ""}); err == nil {
		t.Fatal("expected error for blank argv")
	}
}

func TestFuncAdapter(t *testing.T) {
	called := false
	detector := detect.Func(func(ctx context.Context, batch []*frames.Frame) ([][]detect.Box, error) {
		called = true
		return make([][]detect.Box, len(batch)), nil
	})

	results, err := detector.DetectFaces(context.Background(), makeBatch(t, 2))
	if err != nil {
		t.Fatalf("DetectFaces: %v", err)
	}
	if !called || len(results) != 2 {
		t.Fatalf("adapter not invoked correctly: called=%v results=%d", called, len(results))
	}
}
