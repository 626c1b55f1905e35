// Package fetch implements the download stage: resolving a clip's stream
// URLs with yt-dlp and extracting the bounded video and audio segments with
// ffmpeg.
//
// The stage is idempotent. A complete pair already on disk fast-forwards the
// item without touching the network; a lone partial from an interrupted run
// is removed and refetched in the same execution. Either way a finished
// fetch leaves exactly {clip_id}.mp4 and {clip_id}.aac in the download
// directory.
package fetch
