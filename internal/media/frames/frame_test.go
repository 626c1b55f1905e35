package frames

import (
	"bytes"
	"testing"
)

func fillSequential(f *Frame) {
	for i := range f.Pix {
		f.Pix[i] = byte(i % 251)
	}
}

func TestNewRejectsInvalidGeometry(t *testing.T) {
	if _, err := New(0, 10); err == nil {
		t.Fatal("expected error for zero width")
	}
	if _, err := New(10, -1); err == nil {
		t.Fatal("expected error for negative height")
	}
}

func TestCopyRegionFullyInside(t *testing.T) {
	src, err := New(8, 6)
	if err != nil {
		t.Fatal(err)
	}
	fillSequential(src)
	dst, err := New(4, 4)
	if err != nil {
		t.Fatal(err)
	}

	dst.CopyRegion(src, 1, 2, 0, 0, 4, 4)

	for r := 0; r < 4; r++ {
		want := src.Row(r + 1)[2*bytesPerPixel : 6*bytesPerPixel]
		got := dst.Row(r)
		if !bytes.Equal(got, want) {
			t.Fatalf("row %d mismatch", r)
		}
	}
}

func TestCopyRegionClipsAndPadsBlack(t *testing.T) {
	src, err := New(4, 4)
	if err != nil {
		t.Fatal(err)
	}
	for i := range src.Pix {
		src.Pix[i] = 0xFF
	}
	dst, err := New(4, 4)
	if err != nil {
		t.Fatal(err)
	}

	// Source window starts above and left of the frame: rows -2..1,
	// cols -2..1. Only the overlapping quadrant carries pixels.
	dst.CopyRegion(src, -2, -2, 0, 0, 4, 4)

	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			px := dst.Row(r)[c*bytesPerPixel]
			inside := r >= 2 && c >= 2
			if inside && px != 0xFF {
				t.Fatalf("expected source pixel at (%d,%d)", r, c)
			}
			if !inside && px != 0 {
				t.Fatalf("expected black padding at (%d,%d)", r, c)
			}
		}
	}
}

func TestCopyRegionBeyondBottomRight(t *testing.T) {
	src, err := New(4, 4)
	if err != nil {
		t.Fatal(err)
	}
	for i := range src.Pix {
		src.Pix[i] = 0x7F
	}
	dst, err := New(4, 4)
	if err != nil {
		t.Fatal(err)
	}

	// Window hangs off the bottom-right corner: rows 2..5, cols 2..5.
	dst.CopyRegion(src, 2, 2, 0, 0, 4, 4)

	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			px := dst.Row(r)[c*bytesPerPixel]
			inside := r < 2 && c < 2
			if inside && px != 0x7F {
				t.Fatalf("expected source pixel at (%d,%d)", r, c)
			}
			if !inside && px != 0 {
				t.Fatalf("expected black padding at (%d,%d)", r, c)
			}
		}
	}
}

func TestSize(t *testing.T) {
	if got := Size(640, 360); got != 640*360*3 {
		t.Fatalf("unexpected frame size: %d", got)
	}
}
