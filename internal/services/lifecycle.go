package services

import (
	"context"

	"go.uber.org/zap"

	"assignmint.com/assignmint/internal/events"
	model "assignmint.com/assignmint/internal/models"
	repository "assignmint.com/assignmint/internal/repositories"
)

// lifecycle bundles what every task-mutating service needs: the store for
// transactions, the repositories, the notification emitter and the event
// publisher for post-commit fan-out.
type lifecycle struct {
	store         *repository.Store
	tasks         *repository.TaskRepository
	notifications *NotificationService
	publisher     events.Publisher
	logger        *zap.Logger
}

func newLifecycle(
	store *repository.Store,
	notifications *NotificationService,
	publisher events.Publisher,
	logger *zap.Logger,
) lifecycle {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return lifecycle{
		store:         store,
		tasks:         repository.NewTaskRepository(store.DB()),
		notifications: notifications,
		publisher:     publisher,
		logger:        logger,
	}
}

// publish runs after commit; a failed publish is logged and never undoes the
// transition.
func (l *lifecycle) publish(ctx context.Context, eventType events.EventType, task *model.Task, actorID, expertID string) {
	event := events.TaskEvent{
		Type:        eventType,
		TaskID:      task.ID,
		Status:      task.Status,
		ActorID:     actorID,
		RequesterID: task.RequesterID,
		ExpertID:    expertID,
		Version:     task.Version,
		OccurredAt:  task.UpdatedAt,
	}
	if err := l.publisher.Publish(ctx, event); err != nil {
		l.logger.Warn("failed to publish task event",
			zap.String("task_id", task.ID),
			zap.String("event", string(eventType)),
			zap.Error(err),
		)
	}
}
