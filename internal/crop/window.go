package crop

// Window is the crop geometry. It is frozen from the first keyframe's face
// box and never resized, so the output video has stable dimensions even when
// the detector reports differently sized boxes later in the clip.
type Window struct {
	Height int
	Width  int
}

// Origin returns the top-left corner of the window centered on p. The corner
// may fall outside the source frame near edges; the frame copy clips the
// overhang and leaves it black.
func (w Window) Origin(p Point) (top, left int) {
	return p.Row - w.Height/2, p.Col - w.Width/2
}
