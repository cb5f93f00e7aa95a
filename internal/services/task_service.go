package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"assignmint.com/assignmint/internal/constants"
	apperrors "assignmint.com/assignmint/internal/errors"
	"assignmint.com/assignmint/internal/events"
	model "assignmint.com/assignmint/internal/models"
	repository "assignmint.com/assignmint/internal/repositories"
)

const defaultUserTaskLimit = 50

type CreateTaskInput struct {
	Title        string
	Description  string
	Subject      string
	Tags         []string
	Urgency      constants.Urgency
	Budget       float64
	Deadline     time.Time
	MatchingType constants.MatchingType
}

type Requester struct {
	ID   string
	Name string
}

type TaskStats struct {
	Total       int `json:"total"`
	Active      int `json:"active"`
	Completed   int `json:"completed"`
	Cancelled   int `json:"cancelled"`
	Disputed    int `json:"disputed"`
	Overdue     int `json:"overdue"`
	ManualMatch int `json:"manualMatch"`
	AutoMatch   int `json:"autoMatch"`
}

type TaskService struct {
	lifecycle
}

func NewTaskService(
	store *repository.Store,
	notifications *NotificationService,
	publisher events.Publisher,
	logger *zap.Logger,
) *TaskService {
	return &TaskService{lifecycle: newLifecycle(store, notifications, publisher, logger)}
}

// Create posts a new task. Manual tasks go straight to the public feed; auto
// tasks wait for an external assigner in pending_assignment.
func (s *TaskService) Create(ctx context.Context, requester Requester, in CreateTaskInput) (*model.Task, error) {
	if strings.TrimSpace(requester.ID) == "" {
		return nil, apperrors.ErrUnauthorized
	}

	now := s.store.Now()
	if !in.Deadline.IsZero() && !in.Deadline.After(now) {
		return nil, apperrors.ErrValidation.WithMessage("deadline must be in the future")
	}

	task := &model.Task{
		Title:         strings.TrimSpace(in.Title),
		Description:   strings.TrimSpace(in.Description),
		Subject:       strings.TrimSpace(in.Subject),
		Urgency:       in.Urgency,
		Budget:        in.Budget,
		Deadline:      in.Deadline.UTC(),
		MatchingType:  in.MatchingType,
		RequesterID:   requester.ID,
		RequesterName: requester.Name,
	}
	if task.Urgency == "" {
		task.Urgency = constants.UrgencyMedium
	}
	if task.MatchingType == "" {
		task.MatchingType = constants.MatchingManual
	}

	tags := in.Tags
	if len(tags) == 0 {
		tags = GenerateTags(task.Title, task.Description, task.Subject)
	}
	task.Tags = datatypes.JSONSlice[string](tags)
	task.SearchKeywords = SearchKeywords(task.Title, task.Subject, task.Description, tags)

	if task.MatchingType == constants.MatchingAuto {
		task.Status = constants.StatusPendingAssignment
	} else {
		task.Status = constants.StatusAwaitingExpert
	}
	task.SyncVisibility()

	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		return s.tasks.WithTx(tx).Create(ctx, task, now)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("task created",
		zap.String("task_id", task.ID),
		zap.String("requester_id", task.RequesterID),
		zap.String("matching_type", string(task.MatchingType)),
	)
	s.publish(ctx, events.EventTaskCreated, task, requester.ID, "")
	return task, nil
}

func (s *TaskService) Get(ctx context.Context, id string) (*model.Task, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.ErrValidation.WithMessage("task id is required")
	}
	return s.tasks.FindByID(ctx, id)
}

func (s *TaskService) RecordView(ctx context.Context, id string) error {
	return s.tasks.IncrementViewCount(ctx, id)
}

// ListForUser returns the requester's posted tasks or the expert's assigned
// tasks, newest first.
func (s *TaskService) ListForUser(ctx context.Context, userID string, role constants.Role, limit int) ([]model.Task, error) {
	filter, err := userFilter(userID, role)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultUserTaskLimit
	}
	return s.tasks.Query(filter, constants.SortRecent, limit).Next(ctx)
}

func (s *TaskService) Stats(ctx context.Context, userID string, role constants.Role) (TaskStats, error) {
	filter, err := userFilter(userID, role)
	if err != nil {
		return TaskStats{}, err
	}

	tasks, err := s.tasks.Query(filter, constants.SortRecent, 200).All(ctx)
	if err != nil {
		return TaskStats{}, err
	}

	now := s.store.Now()
	var stats TaskStats
	for i := range tasks {
		task := &tasks[i]
		stats.Total++

		switch task.Status {
		case constants.StatusWorking, constants.StatusPendingReview, constants.StatusAwaitingExpert,
			constants.StatusPendingAssignment, constants.StatusRevisionRequested:
			stats.Active++
		case constants.StatusCompleted, constants.StatusPaymentReceived:
			stats.Completed++
		case constants.StatusCancelled:
			stats.Cancelled++
		case constants.StatusDisputed:
			stats.Disputed++
		}

		if task.Deadline.Before(now) && !task.Status.IsTerminal() {
			stats.Overdue++
		}

		if task.MatchingType == constants.MatchingManual {
			stats.ManualMatch++
		} else {
			stats.AutoMatch++
		}
	}
	return stats, nil
}

func userFilter(userID string, role constants.Role) (repository.TaskFilter, error) {
	if strings.TrimSpace(userID) == "" {
		return repository.TaskFilter{}, apperrors.ErrUnauthorized
	}
	switch role {
	case constants.RoleRequester:
		return repository.TaskFilter{RequesterID: userID}, nil
	case constants.RoleExpert:
		return repository.TaskFilter{AssignedExpertID: userID}, nil
	default:
		return repository.TaskFilter{}, apperrors.ErrValidation.WithMessage("role must be requester or expert")
	}
}
