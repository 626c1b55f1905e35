// Package frames decodes and encodes raw RGB24 video frames through ffmpeg
// pipes.
//
// A Decoder streams frames out of any container ffmpeg can read; an Encoder
// accepts frames of a fixed geometry and produces an H.264 MP4. Both run
// ffmpeg as a child process and speak rawvideo over stdin/stdout, so no
// codec work happens in Go.
package frames
