// Package detect defines the face detection boundary used by the crop
// engine.
//
// Detection itself happens in an external process (any command that speaks
// the frame protocol can serve), so the Go side stays free of model
// dependencies. ExecDetector sends a JSON header plus raw RGB24 frames on
// stdin and reads one JSON line of boxes per frame from stdout.
package detect
