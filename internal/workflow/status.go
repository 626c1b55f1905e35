package workflow

import (
	"context"

	"github.com/AdemFabio/denoise/internal/logging"
	"github.com/AdemFabio/denoise/internal/queue"
	"github.com/AdemFabio/denoise/internal/stage"
)

// StatusSummary is a point-in-time snapshot of the pipeline.
type StatusSummary struct {
	Running     bool
	LastError   string
	LastItem    *queue.Item
	QueueStats  map[queue.Status]int
	StageHealth map[string]stage.Health
}

// Status reports queue counts, per-stage health, and the most recently
// processed item and error.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	summary := StatusSummary{Running: m.running}
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	if m.lastItem != nil {
		clone := *m.lastItem
		summary.LastItem = &clone
	}
	stages := make([]pipelineStage, 0, len(m.stages))
	for _, stg := range m.stages {
		stages = append(stages, stg)
	}
	m.mu.RUnlock()

	stats, err := m.store.Stats(ctx)
	if err != nil {
		m.logger.Warn("failed to read queue stats", logging.Error(err))
	}
	summary.QueueStats = stats

	summary.StageHealth = make(map[string]stage.Health, len(stages))
	for _, stg := range stages {
		if stg.handler == nil {
			continue
		}
		summary.StageHealth[stg.name] = stg.handler.HealthCheck(ctx)
	}
	return summary
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastErr = err
}

func (m *Manager) setLastItem(item *queue.Item) {
	var snapshot *queue.Item
	if item != nil {
		clone := *item
		snapshot = &clone
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastItem = snapshot
}
