package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/AdemFabio/denoise/internal/logging"
	"github.com/AdemFabio/denoise/internal/queue"
	"github.com/AdemFabio/denoise/internal/services"
	"github.com/AdemFabio/denoise/internal/stage"
)

func (m *Manager) processItem(ctx context.Context, workerLogger *slog.Logger, item *queue.Item) error {
	stg, ok := m.stageForStatus(item.Status)
	if !ok {
		workerLogger.Warn("no stage configured for status", logging.String("status", string(item.Status)))
		m.idle(ctx)
		return nil
	}

	stageCtx := services.WithItemID(ctx, item.ID)
	stageCtx = services.WithClipID(stageCtx, item.ClipID)
	stageCtx = services.WithStage(stageCtx, stg.name)
	stageCtx = services.WithRequestID(stageCtx, uuid.NewString())

	return m.executeStage(stageCtx, logging.WithContext(stageCtx, workerLogger), stg, item)
}

func (m *Manager) executeStage(ctx context.Context, stageLogger *slog.Logger, stg pipelineStage, item *queue.Item) error {
	started := time.Now()
	stageLogger.Info("stage started", logging.String("processing_status", string(stg.processingStatus)))

	if stg.handler == nil {
		return m.failMissingHandler(ctx, stageLogger, stg, item)
	}

	if err := stg.handler.Prepare(ctx, item); err != nil {
		return m.failStage(ctx, stg.name, item, err)
	}
	if err := m.persistItem(ctx, stageLogger, item, "persist stage preparation"); err != nil {
		return err
	}

	execErr := m.executeWithHeartbeat(ctx, stg.handler, item)
	switch {
	case errors.Is(execErr, context.Canceled):
		stageLogger.Debug("stage cut short by shutdown")
		return execErr
	case execErr != nil:
		return m.failStage(ctx, stg.name, item, execErr)
	}

	m.finalizeStageSuccess(item, stg)
	if err := m.persistItem(ctx, stageLogger, item, "persist stage result"); err != nil {
		return err
	}

	stageLogger.Info(
		"stage completed",
		logging.String("status_after", string(item.Status)),
		logging.String("progress_stage", strings.TrimSpace(item.ProgressStage)),
		logging.Duration("stage_duration", time.Since(started)),
	)
	m.setLastItem(item)
	return nil
}

func (m *Manager) failMissingHandler(ctx context.Context, stageLogger *slog.Logger, stg pipelineStage, item *queue.Item) error {
	stageLogger.Warn("missing stage handler", logging.String(logging.FieldStage, stg.name))
	item.SetFailed(fmt.Sprintf("stage %s missing handler", stg.name))
	if err := m.store.Update(ctx, item); err != nil {
		stageLogger.Error("could not record missing handler failure", logging.Error(err))
	}
	err := errors.New("stage handler unavailable")
	m.setLastError(err)
	return err
}

// failStage records err as the stage outcome and surfaces it to the worker.
func (m *Manager) failStage(ctx context.Context, stageName string, item *queue.Item, err error) error {
	m.handleStageFailure(ctx, stageName, item, err)
	m.setLastError(err)
	return err
}

func (m *Manager) persistItem(ctx context.Context, stageLogger *slog.Logger, item *queue.Item, op string) error {
	err := m.store.Update(ctx, item)
	if err == nil {
		return nil
	}
	wrapped := fmt.Errorf("%s: %w", op, err)
	stageLogger.Error("failed to persist item", logging.Error(wrapped))
	m.setLastError(wrapped)
	return wrapped
}

// finalizeStageSuccess applies the follow-up status after a clean Execute.
// Handlers may have resolved the item themselves (the crop stage sets
// rejected); only items still marked processing advance to the stage's done
// status. Fetched items are bumped to crop priority so claimed clips finish
// before new downloads start.
func (m *Manager) finalizeStageSuccess(item *queue.Item, stg pipelineStage) {
	if item.Status == stg.processingStatus || item.Status == "" {
		item.Status = stg.doneStatus
	}
	item.LastHeartbeat = nil
	if item.Status == queue.StatusFetched {
		item.Priority = queue.PriorityCrop
	}
	if item.Status == queue.StatusCompleted {
		if item.ProgressPercent < 100 {
			item.ProgressPercent = 100
		}
		if strings.TrimSpace(item.ProgressStage) == "" {
			item.ProgressStage = "Completed"
		}
		if strings.TrimSpace(item.ProgressMessage) == "" {
			item.ProgressMessage = "Completed"
		}
	}
}

// executeWithHeartbeat runs Execute while a heartbeat goroutine stamps the
// item row, and does not return until that goroutine has stopped.
func (m *Manager) executeWithHeartbeat(ctx context.Context, handler stage.Handler, item *queue.Item) error {
	beatCtx, stopBeats := context.WithCancel(ctx)
	var beats sync.WaitGroup
	beats.Add(1)
	go m.heartbeat.StartLoop(beatCtx, &beats, item.ID)
	defer beats.Wait()
	defer stopBeats()

	return handler.Execute(ctx, item)
}
