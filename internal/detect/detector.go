package detect

import (
	"context"

	"github.com/AdemFabio/denoise/internal/media/frames"
)

// Detector finds faces in a batch of frames, returning one box list per
// input frame in order.
type Detector interface {
	DetectFaces(ctx context.Context, batch []*frames.Frame) ([][]Box, error)
}

// Func adapts a plain function to the Detector interface.
type Func func(ctx context.Context, batch []*frames.Frame) ([][]Box, error)

// DetectFaces implements Detector.
func (f Func) DetectFaces(ctx context.Context, batch []*frames.Frame) ([][]Box, error) {
	return f(ctx, batch)
}
