package crop_test

import (
	"reflect"
	"testing"

	"github.com/AdemFabio/denoise/internal/crop"
)

func TestKeyframesSpreadEvenly(t *testing.T) {
	got := crop.Keyframes(10, 4)
	want := []int{0, 3, 6, 9}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Keyframes(10, 4) = %v, want %v", got, want)
	}

	got = crop.Keyframes(6, 4)
	want = []int{0, 2, 3, 5}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Keyframes(6, 4) = %v, want %v", got, want)
	}

	got = crop.Keyframes(75, 38)
	if len(got) != 38 || got[0] != 0 || got[37] != 74 {
		t.Fatalf("Keyframes(75, 38) = %v", got)
	}
}

func TestKeyframesClampToFrameCount(t *testing.T) {
	got := crop.Keyframes(3, 8)
	want := []int{0, 1, 2}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Keyframes(3, 8) = %v, want %v", got, want)
	}
}

func TestKeyframesCoverEndsAndIncrease(t *testing.T) {
	for _, n := range []int{2, 5, 30, 75, 100} {
		for _, points := range []int{2, 3, 5, 38} {
			indices := crop.Keyframes(n, points)
			k := points
			if k > n {
				k = n
			}
			if len(indices) != k {
				t.Fatalf("Keyframes(%d, %d) returned %d indices, want %d", n, points, len(indices), k)
			}
			if indices[0] != 0 || indices[len(indices)-1] != n-1 {
				t.Fatalf("Keyframes(%d, %d) = %v does not cover both ends", n, points, indices)
			}
			for i := 1; i < len(indices); i++ {
				if indices[i] <= indices[i-1] {
					t.Fatalf("Keyframes(%d, %d) = %v is not strictly increasing", n, points, indices)
				}
			}
		}
	}
}

func TestKeyframesDegenerateInputs(t *testing.T) {
	if got := crop.Keyframes(1, 5); !reflect.DeepEqual(got, []int{0}) {
		t.Fatalf("Keyframes(1, 5) = %v, want [0]", got)
	}
	if got := crop.Keyframes(0, 5); got != nil {
		t.Fatalf("Keyframes(0, 5) = %v, want nil", got)
	}
	if got := crop.Keyframes(5, 0); got != nil {
		t.Fatalf("Keyframes(5, 0) = %v, want nil", got)
	}
}
