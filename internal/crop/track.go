package crop

// Point is an integer (row, col) position in frame coordinates.
type Point struct {
	Row int
	Col int
}

// BuildTrack expands per-keyframe face centers into one center per frame.
// Between consecutive keyframes the center moves linearly, truncated to
// integer pixels; from the final keyframe onward every frame holds that
// keyframe's center, so the track always covers all n frames.
func BuildTrack(n int, indices []int, centers []Point) []Point {
	if n <= 0 || len(indices) == 0 || len(indices) != len(centers) {
		return nil
	}
	track := make([]Point, n)
	for s := 0; s < len(indices)-1; s++ {
		i0, i1 := indices[s], indices[s+1]
		if i0 < 0 || i1 > n-1 || i1 <= i0 {
			return nil
		}
		from, to := centers[s], centers[s+1]
		for t := i0; t < i1; t++ {
			frac := float64(t-i0) / float64(i1-i0)
			track[t] = Point{
				Row: int(float64(from.Row) + frac*float64(to.Row-from.Row)),
				Col: int(float64(from.Col) + frac*float64(to.Col-from.Col)),
			}
		}
	}
	last := len(indices) - 1
	if indices[last] < 0 || indices[last] > n-1 {
		return nil
	}
	for t := indices[last]; t < n; t++ {
		track[t] = centers[last]
	}
	return track
}
