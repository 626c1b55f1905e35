// Package crop turns a downloaded clip into a single-face training sample.
//
// The engine probes the clip, decodes every frame, and runs the face
// detector on a handful of evenly spaced keyframes. A clip is accepted only
// when every keyframe shows exactly one face; anything else is a rejection,
// which is a normal outcome rather than an error. Accepted clips get a
// fixed-size window, frozen from the first keyframe's face box, that glides
// along a linearly interpolated center track and is re-encoded as
// cropped_{clip_id}.mp4. The stage handler then deletes the downloaded video
// and relocates the audio next to the cropped output.
package crop
