package ffprobe

import (
	"testing"
)

func TestFirstVideoStream(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "audio", Index: 0},
			{CodecType: "video", Index: 1, Width: 640, Height: 360, RFrameRate: "30000/1001"},
			{CodecType: "video", Index: 2, Width: 1920, Height: 1080},
		},
	}

	video, ok := result.FirstVideoStream()
	if !ok {
		t.Fatal("expected a video stream")
	}
	if video.Index != 1 {
		t.Fatalf("expected first video stream at index 1, got %d", video.Index)
	}
	if video.Width != 640 || video.Height != 360 {
		t.Fatalf("unexpected dimensions: %dx%d", video.Width, video.Height)
	}
	rate := video.FrameRate()
	if rate < 29.96 || rate > 29.98 {
		t.Fatalf("unexpected frame rate: %v", rate)
	}
}

func TestFrameRateFallsBackToAverage(t *testing.T) {
	stream := Stream{RFrameRate: "0/0", AvgFrameRate: "25"}
	if rate := stream.FrameRate(); rate != 25 {
		t.Fatalf("expected avg fallback 25, got %v", rate)
	}
}

func TestNoVideoStream(t *testing.T) {
	result := Result{Streams: []Stream{{CodecType: "audio"}}}
	if _, ok := result.FirstVideoStream(); ok {
		t.Fatal("did not expect a video stream")
	}
}

func TestParseRatio(t *testing.T) {
	cases := []struct {
		input string
		want  float64
	}{
		{"25", 25},
		{"30000/1001", 30000.0 / 1001.0},
		{"", 0},
		{"bad", 0},
		{"1/0", 0},
	}
	for _, tc := range cases {
		if got := parseRatio(tc.input); got != tc.want {
			t.Fatalf("parseRatio(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}
