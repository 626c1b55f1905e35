package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/AdemFabio/denoise/internal/queue"
)

var statusTitle = cases.Title(language.Und)

func buildQueueStatusRows(stats map[queue.Status]int) [][]string {
	rows := make([][]string, 0, len(stats))
	for _, status := range queue.AllStatuses() {
		count, ok := stats[status]
		if !ok {
			continue
		}
		rows = append(rows, []string{formatStatusLabel(string(status)), fmt.Sprintf("%d", count)})
	}
	return rows
}

func buildQueueListRows(items []*queue.Item) [][]string {
	if len(items) == 0 {
		return nil
	}
	sorted := make([]*queue.Item, len(items))
	copy(sorted, items)

	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].ID > sorted[j].ID
		}
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	rows := make([][]string, 0, len(sorted))
	for _, item := range sorted {
		rows = append(rows, []string{
			fmt.Sprintf("%d", item.ID),
			item.ClipID,
			formatStatusLabel(string(item.Status)),
			formatProgress(item),
			formatDisplayTime(item.CreatedAt),
		})
	}
	return rows
}

func buildItemDetailRows(item *queue.Item) [][]string {
	rows := [][]string{
		{"ID", fmt.Sprintf("%d", item.ID)},
		{"Clip", item.ClipID},
		{"Status", formatStatusLabel(string(item.Status))},
		{"Priority", fmt.Sprintf("%d", item.Priority)},
		{"Progress", formatProgress(item)},
		{"Interval", fmt.Sprintf("%.2fs + %.2fs", item.Start, item.Duration)},
		{"Max height", fmt.Sprintf("%d", item.MaxHeight)},
		{"Created", formatDisplayTime(item.CreatedAt)},
		{"Updated", formatDisplayTime(item.UpdatedAt)},
	}
	if item.LastHeartbeat != nil {
		rows = append(rows, []string{"Heartbeat", formatDisplayTime(*item.LastHeartbeat)})
	}
	if path := strings.TrimSpace(item.VideoPath); path != "" {
		rows = append(rows, []string{"Video", path})
	}
	if path := strings.TrimSpace(item.AudioPath); path != "" {
		rows = append(rows, []string{"Audio", path})
	}
	if path := strings.TrimSpace(item.CroppedPath); path != "" {
		rows = append(rows, []string{"Cropped", path})
	}
	if reason := strings.TrimSpace(item.RejectReason); reason != "" {
		rows = append(rows, []string{"Reject reason", reason})
	}
	if message := strings.TrimSpace(item.ErrorMessage); message != "" {
		rows = append(rows, []string{"Error", message})
	}
	return rows
}

func formatStatusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return ""
	}
	return statusTitle.String(strings.ReplaceAll(status, "_", " "))
}

func formatProgress(item *queue.Item) string {
	stage := strings.TrimSpace(item.ProgressStage)
	if stage == "" {
		return "-"
	}
	if item.ProgressPercent <= 0 {
		return stage
	}
	return fmt.Sprintf("%s (%d%%)", stage, int(item.ProgressPercent))
}

func formatDisplayTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04")
}
