package detect

import "fmt"

// Box is a face bounding box in pixel coordinates. Rows grow downward, so
// Top < Bottom; columns grow rightward, so Left < Right. Detectors report
// fractional coordinates and they stay fractional until a center or size is
// taken, where values truncate toward zero the way the downstream crop
// arithmetic expects.
type Box struct {
	Top    float64
	Left   float64
	Bottom float64
	Right  float64
}

// Center returns the box midpoint as integer (row, col).
func (b Box) Center() (int, int) {
	return int((b.Top + b.Bottom) / 2), int((b.Left + b.Right) / 2)
}

// Size returns the integer (height, width) of the box.
func (b Box) Size() (int, int) {
	return int(b.Bottom - b.Top), int(b.Right - b.Left)
}

// Valid reports whether the box has positive area.
func (b Box) Valid() bool {
	return b.Bottom > b.Top && b.Right > b.Left
}

func (b Box) String() string {
	return fmt.Sprintf("[%.1f %.1f %.1f %.1f]", b.Top, b.Left, b.Bottom, b.Right)
}
