package crop

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/AdemFabio/denoise/internal/config"
	"github.com/AdemFabio/denoise/internal/detect"
	"github.com/AdemFabio/denoise/internal/media/ffprobe"
	"github.com/AdemFabio/denoise/internal/media/frames"
	"github.com/AdemFabio/denoise/internal/services"
)

// Outcome states what the engine did with a clip.
type Outcome string

const (
	// OutcomeCropped means the cropped video was written.
	OutcomeCropped Outcome = "cropped"
	// OutcomeRejected means a keyframe failed the single-face gate. No
	// output was written and the inputs were left in place.
	OutcomeRejected Outcome = "rejected"
)

// Result reports one engine run.
type Result struct {
	Outcome      Outcome
	OutputPath   string
	Frames       int
	Keyframes    int
	Window       Window
	RejectReason string
}

// Cropper produces a face-centered crop of one downloaded clip.
type Cropper interface {
	Crop(ctx context.Context, videoPath, croppedDir string) (Result, error)
}

// Engine is the production Cropper. It shells out to ffprobe and ffmpeg for
// media handling and to the configured detector command for face boxes.
type Engine struct {
	ffmpegBinary  string
	ffprobeBinary string
	detector      detect.Detector
	detectPoints  int
	detectTimeout time.Duration
}

// NewEngine builds the engine with the configured external detector.
func NewEngine(cfg *config.Config) (*Engine, error) {
	detector, err := detect.NewExecDetector(cfg.DetectorCommand())
	if err != nil {
		return nil, err
	}
	return NewEngineWithDetector(cfg, detector), nil
}

// NewEngineWithDetector allows injecting the detector (used in tests).
func NewEngineWithDetector(cfg *config.Config, detector detect.Detector) *Engine {
	return &Engine{
		ffmpegBinary:  cfg.FFmpegBinary(),
		ffprobeBinary: cfg.FFprobeBinary(),
		detector:      detector,
		detectPoints:  cfg.Crop.DetectPoints,
		detectTimeout: time.Duration(cfg.Crop.DetectTimeout) * time.Second,
	}
}

// Crop runs the full pipeline for one clip: probe, decode, detect, gate,
// track, crop, encode. The output lands in croppedDir as
// cropped_{basename}.mp4. Rejections return a Result, not an error.
func (e *Engine) Crop(ctx context.Context, videoPath, croppedDir string) (Result, error) {
	clipName := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	outputPath := filepath.Join(croppedDir, "cropped_"+clipName+".mp4")

	probe, err := ffprobe.Inspect(ctx, e.ffprobeBinary, videoPath)
	if err != nil {
		return Result{}, services.Wrap(services.ErrValidation, "crop", "probe video", "Downloaded video is unreadable", err)
	}
	stream, ok := probe.FirstVideoStream()
	if !ok {
		return Result{}, services.Wrap(services.ErrValidation, "crop", "probe video", "Downloaded file has no video stream", nil)
	}
	if stream.Width <= 0 || stream.Height <= 0 {
		return Result{}, services.Wrap(
			services.ErrValidation,
			"crop",
			"probe video",
			fmt.Sprintf("Video stream reports invalid geometry %dx%d", stream.Width, stream.Height),
			nil,
		)
	}
	fps := stream.FrameRate()
	if fps <= 0 {
		return Result{}, services.Wrap(services.ErrValidation, "crop", "probe video", "Video stream reports no frame rate", nil)
	}

	clipFrames, err := frames.DecodeAll(ctx, e.ffmpegBinary, videoPath, stream.Width, stream.Height)
	if err != nil {
		return Result{}, services.Wrap(services.ErrValidation, "crop", "decode frames", "Failed to decode the downloaded video", err)
	}
	n := len(clipFrames)
	if n < 2 {
		return Result{}, services.Wrap(
			services.ErrValidation,
			"crop",
			"decode frames",
			fmt.Sprintf("Clip decoded to %d frames; need at least 2", n),
			nil,
		)
	}

	indices := Keyframes(n, e.detectPoints)
	keyFrames := make([]*frames.Frame, len(indices))
	for i, idx := range indices {
		keyFrames[i] = clipFrames[idx]
	}

	detections, err := e.detectFaces(ctx, keyFrames)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Result{}, services.Wrap(services.ErrExtractionTimeout, "crop", "detect faces", "Face detection exceeded crop.detect_timeout", err)
		}
		return Result{}, services.Wrap(services.ErrExtractionFailed, "crop", "detect faces", "Face detector failed", err)
	}
	if len(detections) != len(indices) {
		return Result{}, services.Wrap(
			services.ErrExtractionFailed,
			"crop",
			"detect faces",
			fmt.Sprintf("Detector answered %d of %d keyframes", len(detections), len(indices)),
			nil,
		)
	}

	centers := make([]Point, len(indices))
	var window Window
	for i, boxes := range detections {
		if len(boxes) != 1 {
			return Result{
				Outcome:      OutcomeRejected,
				Frames:       n,
				Keyframes:    len(indices),
				RejectReason: fmt.Sprintf("keyframe %d: detected %d faces, need exactly 1", indices[i], len(boxes)),
			}, nil
		}
		row, col := boxes[0].Center()
		centers[i] = Point{Row: row, Col: col}
		if i == 0 {
			h, w := boxes[0].Size()
			if h <= 0 || w <= 0 {
				return Result{}, services.Wrap(
					services.ErrValidation,
					"crop",
					"freeze window",
					fmt.Sprintf("First keyframe face box has no area (%dx%d)", h, w),
					nil,
				)
			}
			window = Window{Height: h, Width: w}
		}
	}

	track := BuildTrack(n, indices, centers)
	if track == nil {
		return Result{}, services.Wrap(services.ErrValidation, "crop", "build track", "Center track construction failed", nil)
	}

	if err := os.MkdirAll(croppedDir, 0o755); err != nil {
		return Result{}, services.Wrap(services.ErrIOFailure, "crop", "ensure cropped dir", "Failed to create cropped directory", err)
	}
	encoder, err := frames.NewEncoder(ctx, frames.EncoderOptions{
		Binary: e.ffmpegBinary,
		Width:  window.Width,
		Height: window.Height,
		FPS:    fps,
		Output: outputPath,
	})
	if err != nil {
		return Result{}, services.Wrap(services.ErrExtractionFailed, "crop", "start encoder", "Failed to start the ffmpeg encoder", err)
	}

	out, err := frames.New(window.Width, window.Height)
	if err != nil {
		encoder.Close()
		os.Remove(outputPath)
		return Result{}, services.Wrap(services.ErrValidation, "crop", "allocate window", "Crop window has invalid geometry", err)
	}
	for t, frame := range clipFrames {
		clear(out.Pix)
		top, left := window.Origin(track[t])
		out.CopyRegion(frame, top, left, 0, 0, window.Height, window.Width)
		if err := encoder.Write(out); err != nil {
			encoder.Close()
			os.Remove(outputPath)
			return Result{}, services.Wrap(services.ErrExtractionFailed, "crop", "encode frames", "Failed while streaming cropped frames", err)
		}
	}
	if err := encoder.Close(); err != nil {
		os.Remove(outputPath)
		return Result{}, services.Wrap(services.ErrExtractionFailed, "crop", "finalize output", "Encoder did not finish cleanly", err)
	}

	return Result{
		Outcome:    OutcomeCropped,
		OutputPath: outputPath,
		Frames:     n,
		Keyframes:  len(indices),
		Window:     window,
	}, nil
}

func (e *Engine) detectFaces(ctx context.Context, keyFrames []*frames.Frame) ([][]detect.Box, error) {
	if e.detector == nil {
		return nil, errors.New("no detector configured")
	}
	if e.detectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.detectTimeout)
		defer cancel()
	}
	return e.detector.DetectFaces(ctx, keyFrames)
}
