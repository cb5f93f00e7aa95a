package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"assignmint.com/assignmint/internal/constants"
	apperrors "assignmint.com/assignmint/internal/errors"
	"assignmint.com/assignmint/internal/events"
	model "assignmint.com/assignmint/internal/models"
	repository "assignmint.com/assignmint/internal/repositories"
)

const maxFeedPageSize = 100

type FeedFilter struct {
	Subject   string
	Urgency   string
	MaxBudget *float64
	Sort      constants.SortKey
	Limit     int
	// Query narrows the feed to tasks sharing any keyword with it.
	Query string
}

type ExpertProfile struct {
	ID   string
	Name string
}

type MatchingService struct {
	lifecycle
	hub          *SubscriptionHub
	feedPageSize int
}

func NewMatchingService(
	store *repository.Store,
	notifications *NotificationService,
	hub *SubscriptionHub,
	publisher events.Publisher,
	feedPageSize int,
	logger *zap.Logger,
) *MatchingService {
	if feedPageSize <= 0 {
		feedPageSize = 20
	}
	return &MatchingService{
		lifecycle:    newLifecycle(store, notifications, publisher, logger),
		hub:          hub,
		feedPageSize: feedPageSize,
	}
}

// ListAvailable returns open manual-match tasks for the expert feed.
func (s *MatchingService) ListAvailable(ctx context.Context, f FeedFilter) ([]model.Task, error) {
	filter, sort, limit, err := s.feedQuery(f)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.Query(filter, sort, limit).Next(ctx)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}

// SubscribeAvailable streams feed snapshots to callback until the returned
// function is called.
func (s *MatchingService) SubscribeAvailable(f FeedFilter, callback func(TaskSnapshot)) (func(), error) {
	filter, sort, limit, err := s.feedQuery(f)
	if err != nil {
		return nil, err
	}
	return s.hub.Subscribe(filter, sort, limit, callback)
}

// FeedClosed is closed when live feed delivery stops for good.
func (s *MatchingService) FeedClosed() <-chan struct{} {
	return s.hub.Done()
}

func (s *MatchingService) feedQuery(f FeedFilter) (repository.TaskFilter, constants.SortKey, int, error) {
	active := true
	filter := repository.TaskFilter{
		MatchingType: constants.MatchingManual,
		Statuses:     []constants.TaskStatus{constants.StatusAwaitingExpert},
		IsActive:     &active,
		MaxBudget:    f.MaxBudget,
	}

	if subject := strings.TrimSpace(f.Subject); subject != "" && subject != constants.FilterAll {
		filter.Subject = subject
	}
	if urgency := strings.TrimSpace(f.Urgency); urgency != "" && urgency != constants.FilterAll {
		if !constants.Urgency(urgency).Valid() {
			return filter, "", 0, apperrors.ErrValidation.WithMessage("urgency must be one of high, medium, low, all")
		}
		filter.Urgency = constants.Urgency(urgency)
	}
	if f.MaxBudget != nil && *f.MaxBudget <= 0 {
		return filter, "", 0, apperrors.ErrValidation.WithMessage("maxBudget must be positive")
	}

	sort := f.Sort
	switch sort {
	case "":
		sort = constants.SortRecent
	case constants.SortRecent, constants.SortPriceAsc, constants.SortPriceDesc, constants.SortDeadlineAsc:
	default:
		return filter, "", 0, apperrors.ErrValidation.WithMessage(fmt.Sprintf("unknown sort %q", sort))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = s.feedPageSize
	}
	if limit > maxFeedPageSize {
		limit = maxFeedPageSize
	}

	if terms := searchTerms(f.Query); len(terms) > 0 {
		filter.Keywords = terms
		if limit > maxSearchResults {
			limit = maxSearchResults
		}
	}
	return filter, sort, limit, nil
}

// Accept assigns the task to the expert. The availability check and the write
// happen in one transaction, so of several concurrent accepts exactly one
// wins and the rest get ErrTaskUnavailable.
func (s *MatchingService) Accept(ctx context.Context, taskID string, expert ExpertProfile) (*model.Task, error) {
	if strings.TrimSpace(expert.ID) == "" {
		return nil, apperrors.ErrUnauthorized
	}

	var accepted *model.Task
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		tasks := s.tasks.WithTx(tx)
		task, err := tasks.FindByID(ctx, taskID)
		if err != nil {
			return err
		}

		if task.Status != constants.StatusAwaitingExpert || task.AssignedExpertID != nil {
			return apperrors.ErrTaskUnavailable
		}
		if task.RequesterID == expert.ID {
			return apperrors.ErrForbidden.WithMessage("requesters cannot accept their own task")
		}

		now := s.store.Now()
		task.Status = constants.StatusWorking
		task.Assign(expert.ID, expert.Name, now)
		task.SyncVisibility()

		if err := tasks.Update(ctx, task, now); err != nil {
			return err
		}

		expertID := expert.ID
		if err := s.notifications.emit(ctx, tx, &model.Notification{
			UserID:   task.RequesterID,
			Type:     constants.NotificationTaskAccepted,
			Title:    "Expert Found!",
			Message:  fmt.Sprintf("%s has accepted your task: %q", displayName(expert.Name, "An expert"), task.Title),
			TaskID:   task.ID,
			ExpertID: &expertID,
		}, now); err != nil {
			return err
		}

		accepted = task
		return nil
	})
	if err != nil {
		s.logger.Debug("accept rejected",
			zap.String("task_id", taskID),
			zap.String("expert_id", expert.ID),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("task accepted", zap.String("task_id", accepted.ID), zap.String("expert_id", expert.ID))
	s.publish(ctx, events.EventTaskAccepted, accepted, expert.ID, expert.ID)
	return accepted, nil
}

func displayName(name, fallback string) string {
	if strings.TrimSpace(name) == "" {
		return fallback
	}
	return name
}
