package queue

import (
	"path/filepath"
	"strings"
	"time"
)

// Status represents the lifecycle of a queued clip.
type Status string

const (
	StatusPending   Status = "pending"
	StatusFetching  Status = "fetching"
	StatusFetched   Status = "fetched"
	StatusCropping  Status = "cropping"
	StatusCompleted Status = "completed"
	StatusRejected  Status = "rejected"
	StatusFailed    Status = "failed"
)

// Priority orders claims within the queue; higher values claim first.
// Exactly two levels are used: crop work outranks fetch work so finished
// downloads drain before new ones begin.
type Priority int

const (
	PriorityFetch Priority = 1
	PriorityCrop  Priority = 2
)

var allStatuses = []Status{
	StatusPending,
	StatusFetching,
	StatusFetched,
	StatusCropping,
	StatusCompleted,
	StatusRejected,
	StatusFailed,
}

type statusTransition struct {
	from Status
	to   Status
}

// claimTransitions moves waiting rows into their processing status.
var claimTransitions = []statusTransition{
	{from: StatusPending, to: StatusFetching},
	{from: StatusFetched, to: StatusCropping},
}

// reclaimTransitions returns abandoned processing rows to their waiting
// status so another worker can pick them up.
var reclaimTransitions = []statusTransition{
	{from: StatusFetching, to: StatusPending},
	{from: StatusCropping, to: StatusFetched},
}

// doneTransitions is the default stage advance applied when a handler
// finishes without choosing a terminal status itself.
var doneTransitions = map[Status]Status{
	StatusFetching: StatusFetched,
	StatusCropping: StatusCompleted,
}

// ClaimedStatus returns the processing status a waiting row moves to when
// claimed.
func ClaimedStatus(waiting Status) (Status, bool) {
	for _, tr := range claimTransitions {
		if tr.from == waiting {
			return tr.to, true
		}
	}
	return "", false
}

// DoneStatus returns the status a processing row advances to when its stage
// completes normally.
func DoneStatus(processing Status) (Status, bool) {
	next, ok := doneTransitions[processing]
	return next, ok
}

// DatabaseHealth is the result of probing the queue database file directly,
// without opening a Store.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TableExists      bool
	ColumnsPresent   []string
	MissingColumns   []string
	IntegrityCheck   bool
	TotalItems       int
	Error            string
}

// HealthSummary describes aggregated queue counts per key lifecycle state.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Completed  int
	Rejected   int
	Failed     int
}

// Item represents a queued clip persisted in SQLite.
type Item struct {
	ID              int64
	ClipID          string
	Start           float64
	Duration        float64
	DownloadDir     string
	CroppedDir      string
	MaxHeight       int
	Priority        Priority
	Status          Status
	VideoPath       string
	AudioPath       string
	CroppedPath     string
	ErrorMessage    string
	RejectReason    string
	ProgressStage   string
	ProgressPercent float64
	ProgressMessage string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	LastHeartbeat   *time.Time
}

// AllStatuses lists every status in lifecycle order.
func AllStatuses() []Status {
	return append([]Status(nil), allStatuses...)
}

// ParseStatus normalizes user input into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == normalized {
			return status, true
		}
	}
	return "", false
}

// IsProcessing returns true when the status reflects an in-flight stage.
func (i Item) IsProcessing() bool {
	return IsProcessingStatus(i.Status)
}

// IsProcessingStatus reports whether a status reflects an in-flight stage.
func IsProcessingStatus(status Status) bool {
	switch status {
	case StatusFetching, StatusCropping:
		return true
	default:
		return false
	}
}

// IsTerminalStatus reports whether a status ends the clip's lifecycle.
func IsTerminalStatus(status Status) bool {
	switch status {
	case StatusCompleted, StatusRejected, StatusFailed:
		return true
	default:
		return false
	}
}

// DownloadVideoPath returns the fetch target for the clip's video segment.
func (i Item) DownloadVideoPath() string {
	return filepath.Join(i.DownloadDir, i.ClipID+".mp4")
}

// DownloadAudioPath returns the fetch target for the clip's audio segment.
func (i Item) DownloadAudioPath() string {
	return filepath.Join(i.DownloadDir, i.ClipID+".aac")
}

// CroppedVideoPath returns the crop engine's output target.
func (i Item) CroppedVideoPath() string {
	return filepath.Join(i.CroppedDir, "cropped_"+i.ClipID+".mp4")
}

// CroppedAudioPath returns where the audio segment lands after handoff.
func (i Item) CroppedAudioPath() string {
	return filepath.Join(i.CroppedDir, i.ClipID+".aac")
}

// InitProgress resets progress fields for a new stage. ErrorMessage is
// cleared so stale failures do not linger across re-runs.
func (i *Item) InitProgress(stage, message string) {
	i.ProgressStage = stage
	i.ProgressMessage = message
	i.ProgressPercent = 0
	i.ErrorMessage = ""
}

// SetProgress updates all three progress fields together.
func (i *Item) SetProgress(stage, message string, percent float64) {
	i.ProgressStage = stage
	i.ProgressMessage = message
	i.ProgressPercent = percent
}

// SetFailed moves the item to failed and records message for operators.
func (i *Item) SetFailed(message string) {
	i.Status = StatusFailed
	i.ErrorMessage = message
	i.ProgressPercent = 0
	i.ProgressMessage = message
	i.ProgressStage = "Failed"
	i.LastHeartbeat = nil
}

// SetRejected marks the item as rejected by the single-face gate. Rejection
// is an expected outcome, not an error; the reason names the keyframe that
// failed the gate.
func (i *Item) SetRejected(reason string) {
	i.Status = StatusRejected
	i.RejectReason = reason
	i.ProgressStage = "Rejected"
	i.ProgressMessage = reason
	i.LastHeartbeat = nil
}
