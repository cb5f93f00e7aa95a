package services

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "assignmint.com/assignmint/internal/errors"
	model "assignmint.com/assignmint/internal/models"
	repository "assignmint.com/assignmint/internal/repositories"
)

const defaultNotificationLimit = 20

type NotificationService struct {
	store  *repository.Store
	repo   *repository.NotificationRepository
	tasks  *repository.TaskRepository
	logger *zap.Logger
}

func NewNotificationService(store *repository.Store, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		store:  store,
		repo:   repository.NewNotificationRepository(store.DB()),
		tasks:  repository.NewTaskRepository(store.DB()),
		logger: logger,
	}
}

// emit appends a notification inside the caller's transaction so it commits
// or rolls back together with the task change that caused it.
func (s *NotificationService) emit(ctx context.Context, tx *gorm.DB, n *model.Notification, now time.Time) error {
	if err := s.repo.WithTx(tx).Create(ctx, n, now); err != nil {
		return err
	}
	s.logger.Debug("notification queued",
		zap.String("user_id", n.UserID),
		zap.String("type", string(n.Type)),
		zap.String("task_id", n.TaskID),
	)
	return nil
}

func (s *NotificationService) ListForUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]model.Notification, error) {
	if userID == "" {
		return nil, apperrors.ErrUnauthorized
	}
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	return s.repo.ListForUser(ctx, userID, unreadOnly, limit)
}

// MarkRead flips the read flag. Only the recipient may do so.
func (s *NotificationService) MarkRead(ctx context.Context, notificationID, userID string) error {
	return s.store.Transaction(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		n, err := repo.FindByID(ctx, notificationID)
		if err != nil {
			return err
		}
		if n.UserID != userID {
			return apperrors.ErrForbidden.WithMessage("notification belongs to another user")
		}
		if n.Read {
			return nil
		}
		return repo.MarkRead(ctx, notificationID)
	})
}

// ListForTask returns the notifications a task produced for userID, oldest
// first. Only the requester and the assigned expert may look.
func (s *NotificationService) ListForTask(ctx context.Context, taskID, userID string) ([]model.Notification, error) {
	if userID == "" {
		return nil, apperrors.ErrUnauthorized
	}

	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.RequesterID != userID && task.ExpertID() != userID {
		return nil, apperrors.ErrForbidden.WithMessage("only task participants can view its notifications")
	}

	all, err := s.repo.ListForTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	mine := make([]model.Notification, 0, len(all))
	for _, n := range all {
		if n.UserID == userID {
			mine = append(mine, n)
		}
	}
	return mine, nil
}
