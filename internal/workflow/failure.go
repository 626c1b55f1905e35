package workflow

import (
	"context"
	"errors"

	"github.com/AdemFabio/denoise/internal/logging"
	"github.com/AdemFabio/denoise/internal/queue"
	"github.com/AdemFabio/denoise/internal/services"
)

func (m *Manager) handleStageFailure(ctx context.Context, stageName string, item *queue.Item, stageErr error) {
	message := failureMessage(stageName, stageErr)
	item.SetFailed(message)

	logger := logging.WithContext(ctx, m.logger)
	logger.Error("stage failed",
		logging.String(logging.FieldStage, stageName),
		logging.String("error_message", message),
		logging.Error(stageErr),
	)

	switch err := m.store.Update(ctx, item); {
	case err == nil:
	case errors.Is(err, context.Canceled):
		logger.Debug("shutdown interrupted failure update")
	default:
		logger.Error("failed to persist stage failure", logging.Error(err))
	}
	m.setLastItem(item)
}

// failureMessage picks the operator-facing text stored on the item.
func failureMessage(stageName string, stageErr error) string {
	if msg := services.FailureMessage(stageErr); msg != "" && msg != "stage failure" {
		return msg
	}
	if stageName == "" {
		return "workflow failed without error detail"
	}
	return stageName + " failed without error detail"
}
