package frames

import "fmt"

const bytesPerPixel = 3

// Frame holds one RGB24 frame in row-major order, three bytes per pixel.
type Frame struct {
	Width  int
	Height int
	Pix    []byte
}

// New allocates a zeroed (black) frame of the given geometry.
func New(width, height int) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("frames: invalid geometry %dx%d", width, height)
	}
	return &Frame{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*bytesPerPixel),
	}, nil
}

// Size returns the byte length of one frame of the given geometry.
func Size(width, height int) int {
	return width * height * bytesPerPixel
}

// Row returns the pixel bytes of one row, sliced from the frame's buffer.
func (f *Frame) Row(row int) []byte {
	stride := f.Width * bytesPerPixel
	return f.Pix[row*stride : (row+1)*stride]
}

// CopyRegion copies a rectangle from src into f at the given destination
// offset, clipping against both frames. Pixels outside src stay untouched,
// which on a zeroed frame means black padding.
func (f *Frame) CopyRegion(src *Frame, srcRow, srcCol, dstRow, dstCol, height, width int) {
	if src == nil || height <= 0 || width <= 0 {
		return
	}
	for r := 0; r < height; r++ {
		sr := srcRow + r
		dr := dstRow + r
		if sr < 0 || sr >= src.Height || dr < 0 || dr >= f.Height {
			continue
		}
		sc, dc, w := srcCol, dstCol, width
		if sc < 0 {
			dc -= sc
			w += sc
			sc = 0
		}
		if dc < 0 {
			sc -= dc
			w += dc
			dc = 0
		}
		if over := sc + w - src.Width; over > 0 {
			w -= over
		}
		if over := dc + w - f.Width; over > 0 {
			w -= over
		}
		if w <= 0 {
			continue
		}
		srcRowPix := src.Row(sr)
		dstRowPix := f.Row(dr)
		copy(dstRowPix[dc*bytesPerPixel:(dc+w)*bytesPerPixel], srcRowPix[sc*bytesPerPixel:(sc+w)*bytesPerPixel])
	}
}
