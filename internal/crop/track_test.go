package crop_test

import (
	"reflect"
	"testing"

	"github.com/AdemFabio/denoise/internal/crop"
)

func TestBuildTrackInterpolatesBetweenKeyframes(t *testing.T) {
	track := crop.BuildTrack(75, []int{0, 74}, []crop.Point{{Row: 100, Col: 100}, {Row: 110, Col: 120}})
	if len(track) != 75 {
		t.Fatalf("track length %d, want 75", len(track))
	}
	if track[0] != (crop.Point{Row: 100, Col: 100}) {
		t.Fatalf("track[0] = %+v", track[0])
	}
	if track[37] != (crop.Point{Row: 105, Col: 110}) {
		t.Fatalf("track[37] = %+v, want midpoint (105, 110)", track[37])
	}
	if track[74] != (crop.Point{Row: 110, Col: 120}) {
		t.Fatalf("track[74] = %+v, want final keyframe center", track[74])
	}
}

func TestBuildTrackTruncatesTowardZero(t *testing.T) {
	track := crop.BuildTrack(5, []int{0, 4}, []crop.Point{{Row: 0, Col: 0}, {Row: 2, Col: 3}})
	want := []crop.Point{
		{Row: 0, Col: 0},
		{Row: 0, Col: 0},
		{Row: 1, Col: 1},
		{Row: 1, Col: 2},
		{Row: 2, Col: 3},
	}
	if !reflect.DeepEqual(track, want) {
		t.Fatalf("track = %v, want %v", track, want)
	}
}

func TestBuildTrackCoversEveryFrame(t *testing.T) {
	indices := crop.Keyframes(30, 4)
	centers := []crop.Point{{Row: 10, Col: 10}, {Row: 20, Col: 10}, {Row: 20, Col: 30}, {Row: 40, Col: 50}}
	track := crop.BuildTrack(30, indices, centers)
	if len(track) != 30 {
		t.Fatalf("track length %d, want 30", len(track))
	}
	if track[29] != centers[3] {
		t.Fatalf("track[29] = %+v, want final center %+v", track[29], centers[3])
	}
	for i, idx := range indices {
		if track[idx] != centers[i] {
			t.Fatalf("track[%d] = %+v, want keyframe center %+v", idx, track[idx], centers[i])
		}
	}
}

func TestBuildTrackSingleKeyframe(t *testing.T) {
	track := crop.BuildTrack(4, []int{0}, []crop.Point{{Row: 7, Col: 9}})
	for i, p := range track {
		if p != (crop.Point{Row: 7, Col: 9}) {
			t.Fatalf("track[%d] = %+v, want constant center", i, p)
		}
	}
}

func TestBuildTrackRejectsMalformedInput(t *testing.T) {
	if track := crop.BuildTrack(10, []int{0, 9}, []crop.Point{{}}); track != nil {
		t.Fatal("expected nil track for mismatched centers")
	}
	if track := crop.BuildTrack(0, []int{0}, []crop.Point{{}}); track != nil {
		t.Fatal("expected nil track for empty clip")
	}
	if track := crop.BuildTrack(5, []int{3, 1}, []crop.Point{{}, {}}); track != nil {
		t.Fatal("expected nil track for unordered indices")
	}
}

func TestWindowOrigin(t *testing.T) {
	w := crop.Window{Height: 100, Width: 80}
	top, left := w.Origin(crop.Point{Row: 105, Col: 110})
	if top != 55 || left != 70 {
		t.Fatalf("Origin = (%d, %d), want (55, 70)", top, left)
	}

	tall := crop.Window{Height: 200, Width: 200}
	top, left = tall.Origin(crop.Point{Row: 50, Col: 50})
	if top != -50 || left != -50 {
		t.Fatalf("Origin = (%d, %d), want (-50, -50) for a window overhanging the edge", top, left)
	}
}
