package detect

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/AdemFabio/denoise/internal/media/frames"
)

const maxResponseLine = 1024 * 1024

type batchHeader struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	Frames int `json:"frames"`
}

type frameResponse struct {
	Boxes [][4]float64 `json:"boxes"`
}

// ExecDetector runs an external detector command per batch. The command
// receives one JSON header line followed by the raw RGB24 frames on stdin
// and must answer with one JSON line per frame on stdout, of the form
// {"boxes": [[top, left, bottom, right], ...]}.
type ExecDetector struct {
	argv []string
}

// NewExecDetector builds a detector from a command argv.
func NewExecDetector(argv []string) (*ExecDetector, error) {
	cleaned := make([]string, 0, len(argv))
	for _, arg := range argv {
		if trimmed := strings.TrimSpace(arg); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		return nil, errors.New("detect: detector command is empty")
	}
	return &ExecDetector{argv: cleaned}, nil
}

// DetectFaces implements Detector.
func (d *ExecDetector) DetectFaces(ctx context.Context, batch []*frames.Frame) ([][]Box, error) {
	if len(batch) == 0 {
		return nil, nil
	}
	width, height := batch[0].Width, batch[0].Height
	for i, frame := range batch {
		if frame == nil || frame.Width != width || frame.Height != height {
			return nil, fmt.Errorf("detect: frame %d does not match batch geometry", i)
		}
	}

	cmd := exec.CommandContext(ctx, d.argv[0], d.argv[1:]...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("detect: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("detect: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("detect: start detector: %w", err)
	}

	writeErr := make(chan error, 1)
	go func() {
		defer stdin.Close()
		header, err := json.Marshal(batchHeader{Width: width, Height: height, Frames: len(batch)})
		if err != nil {
			writeErr <- err
			return
		}
		if _, err := stdin.Write(append(header, '\n')); err != nil {
			writeErr <- err
			return
		}
		for _, frame := range batch {
			if _, err := stdin.Write(frame.Pix); err != nil {
				writeErr <- err
				return
			}
		}
		writeErr <- nil
	}()

	results := make([][]Box, 0, len(batch))
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), maxResponseLine)
	var scanFailure error
	for len(results) < len(batch) && scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var response frameResponse
		if err := json.Unmarshal([]byte(line), &response); err != nil {
			scanFailure = fmt.Errorf("detect: parse detector response: %w", err)
			break
		}
		boxes := make([]Box, 0, len(response.Boxes))
		for _, raw := range response.Boxes {
			box := Box{Top: raw[0], Left: raw[1], Bottom: raw[2], Right: raw[3]}
			if !box.Valid() {
				scanFailure = fmt.Errorf("detect: detector returned degenerate box %s", box)
				break
			}
			boxes = append(boxes, box)
		}
		if scanFailure != nil {
			break
		}
		results = append(results, boxes)
	}
	if scanFailure == nil {
		scanFailure = scanner.Err()
	}

	// Unblock a stuck writer before reaping the process.
	if scanFailure != nil {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
	}
	wErr := <-writeErr
	waitErr := cmd.Wait()

	if scanFailure != nil {
		return nil, scanFailure
	}
	// A detector that answered every frame and exited cleanly succeeded even
	// if it stopped reading stdin early.
	if len(results) == len(batch) && waitErr == nil {
		return results, nil
	}
	if waitErr != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return nil, fmt.Errorf("detect: detector exited: %w: %s", waitErr, detail)
		}
		return nil, fmt.Errorf("detect: detector exited: %w", waitErr)
	}
	if wErr != nil {
		return nil, fmt.Errorf("detect: send frames: %w", wErr)
	}
	return nil, fmt.Errorf("detect: detector answered %d of %d frames", len(results), len(batch))
}
