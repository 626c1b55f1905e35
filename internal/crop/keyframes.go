package crop

import "math"

// Keyframes returns k = min(points, n) frame indices spread evenly over
// [0, n-1]. The first index is always 0 and the last is always n-1, so the
// detector sees both ends of the clip. Indices are strictly increasing
// because the spacing never drops below one frame.
func Keyframes(n, points int) []int {
	if n <= 0 || points <= 0 {
		return nil
	}
	k := points
	if k > n {
		k = n
	}
	if k == 1 {
		return []int{0}
	}
	indices := make([]int, k)
	step := float64(n-1) / float64(k-1)
	for i := range indices {
		indices[i] = int(math.Round(float64(i) * step))
	}
	return indices
}
