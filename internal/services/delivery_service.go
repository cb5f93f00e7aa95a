package services

import (
	"context"
	"fmt"
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

const maxReasonLength = 1000

type DeliveryPayload struct {
	Files   []model.DeliveryFile
	Message string
}

type Actor struct {
	ID   string
	Role constants.Role
}

type ActionData struct {
	Reason string
	Notes  string
}

type DeliveryService struct {
	lifecycle
}

func NewDeliveryService(
	store *repository.Store,
	notifications *NotificationService,
	publisher events.Publisher,
	logger *zap.Logger,
) *DeliveryService {
	return &DeliveryService{lifecycle: newLifecycle(store, notifications, publisher, logger)}
}

// SubmitDelivery records the assigned expert's work and moves the task to
// pending_review.
func (s *DeliveryService) SubmitDelivery(ctx context.Context, taskID, expertID string, payload DeliveryPayload) (*model.Task, error) {
	if strings.TrimSpace(expertID) == "" {
		return nil, apperrors.ErrUnauthorized
	}
	if len(payload.Files) == 0 && strings.TrimSpace(payload.Message) == "" {
		return nil, apperrors.ErrValidation.WithMessage("delivery needs at least one file or a message")
	}
	for _, f := range payload.Files {
		if strings.TrimSpace(f.Name) == "" || f.Size < 0 {
			return nil, apperrors.ErrValidation.WithMessage("delivery files need a name and a non-negative size")
		}
	}

	var delivered *model.Task
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		tasks := s.tasks.WithTx(tx)
		task, err := tasks.FindByID(ctx, taskID)
		if err != nil {
			return err
		}
		if task.ExpertID() != expertID {
			return apperrors.ErrForbidden.WithMessage("only the assigned expert can deliver")
		}
		if task.Status != constants.StatusWorking && task.Status != constants.StatusRevisionRequested {
			return invalidTransition(task.Status, "deliver")
		}

		now := s.store.Now()
		files := make([]model.DeliveryFile, len(payload.Files))
		for i, f := range payload.Files {
			if f.UploadedAt.IsZero() {
				f.UploadedAt = now
			}
			files[i] = f
		}
		task.Delivery = datatypes.NewJSONType(&model.Delivery{
			Files:       files,
			Message:     strings.TrimSpace(payload.Message),
			SubmittedAt: now,
			SubmittedBy: expertID,
		})
		task.Status = constants.StatusPendingReview
		task.SyncVisibility()

		if err := tasks.Update(ctx, task, now); err != nil {
			return err
		}

		expert := expertID
		if err := s.notifications.emit(ctx, tx, &model.Notification{
			UserID:   task.RequesterID,
			Type:     constants.NotificationTaskDelivered,
			Title:    "Task Delivered",
			Message:  fmt.Sprintf("%s has delivered your task: %q", displayName(task.AssignedExpertName, "Your expert"), task.Title),
			TaskID:   task.ID,
			ExpertID: &expert,
		}, now); err != nil {
			return err
		}

		delivered = task
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("task delivered", zap.String("task_id", delivered.ID), zap.String("expert_id", expertID))
	s.publish(ctx, events.EventTaskDelivered, delivered, expertID, expertID)
	return delivered, nil
}

// ApplyAction runs a requester review action. Nothing is written unless every
// check passes.
func (s *DeliveryService) ApplyAction(
	ctx context.Context,
	taskID string,
	actor Actor,
	action constants.TaskAction,
	data ActionData,
) (*model.Task, error) {
	if !action.Valid() {
		return nil, apperrors.ErrInvalidAction.WithMessage(fmt.Sprintf("unknown action %q", action))
	}
	if actor.Role != constants.RoleRequester {
		return nil, apperrors.ErrForbidden.WithMessage("only requesters can review tasks")
	}
	if err := validateActionData(action, data); err != nil {
		return nil, err
	}

	var (
		updated   *model.Task
		eventType events.EventType
		expertID  string
	)
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		tasks := s.tasks.WithTx(tx)
		task, err := tasks.FindByID(ctx, taskID)
		if err != nil {
			return err
		}
		if actor.ID != "" && actor.ID != task.RequesterID {
			return apperrors.ErrForbidden.WithMessage("task belongs to another requester")
		}

		// captured before the transition, cancel clears the assignment
		expertID = task.ExpertID()
		now := s.store.Now()

		var notification *model.Notification
		eventType, notification, err = transition(task, action, data, now)
		if err != nil {
			return err
		}
		task.SyncVisibility()

		if err := tasks.Update(ctx, task, now); err != nil {
			return err
		}

		if notification != nil && expertID != "" {
			expert := expertID
			notification.UserID = expertID
			notification.TaskID = task.ID
			notification.ExpertID = &expert
			if err := s.notifications.emit(ctx, tx, notification, now); err != nil {
				return err
			}
		}

		updated = task
		return nil
	})
	if err != nil {
		s.logger.Debug("task action rejected",
			zap.String("task_id", taskID),
			zap.String("action", string(action)),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("task action applied",
		zap.String("task_id", updated.ID),
		zap.String("action", string(action)),
		zap.String("status", string(updated.Status)),
	)
	s.publish(ctx, eventType, updated, actor.ID, expertID)
	return updated, nil
}

func validateActionData(action constants.TaskAction, data ActionData) error {
	switch action {
	case constants.ActionDispute:
		return requireText("reason", data.Reason)
	case constants.ActionRequestRevision:
		return requireText("notes", data.Notes)
	case constants.ActionCancel:
		if len(data.Reason) > maxReasonLength {
			return apperrors.ErrValidation.WithMessage(fmt.Sprintf("reason must be at most %d characters", maxReasonLength))
		}
	}
	return nil
}

func requireText(field, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return apperrors.ErrValidation.WithMessage(field + " is required")
	}
	if len(value) > maxReasonLength {
		return apperrors.ErrValidation.WithMessage(fmt.Sprintf("%s must be at most %d characters", field, maxReasonLength))
	}
	return nil
}

// transition mutates task in memory for action. The returned notification,
// if any, is addressed to the expert by the caller.
func transition(
	task *model.Task,
	action constants.TaskAction,
	data ActionData,
	now time.Time,
) (events.EventType, *model.Notification, error) {
	switch action {
	case constants.ActionApprove:
		if task.Status != constants.StatusPendingReview {
			return "", nil, invalidTransition(task.Status, action)
		}
		task.Status = constants.StatusCompleted
		task.CompletedAt = &now
		return events.EventTaskApproved, &model.Notification{
			Type:    constants.NotificationTaskApproved,
			Title:   "Task Approved",
			Message: fmt.Sprintf("Your delivery for %q was approved.", task.Title),
		}, nil

	case constants.ActionDispute:
		if task.Status != constants.StatusPendingReview && task.Status != constants.StatusCompleted {
			return "", nil, invalidTransition(task.Status, action)
		}
		reason := strings.TrimSpace(data.Reason)
		task.Status = constants.StatusDisputed
		task.DisputedAt = &now
		task.DisputeReason = &reason
		return events.EventTaskDisputed, &model.Notification{
			Type:    constants.NotificationTaskDisputed,
			Title:   "Task Disputed",
			Message: fmt.Sprintf("The requester disputed %q: %s", task.Title, reason),
		}, nil

	case constants.ActionRequestRevision:
		if task.Status != constants.StatusPendingReview {
			return "", nil, invalidTransition(task.Status, action)
		}
		notes := strings.TrimSpace(data.Notes)
		task.Status = constants.StatusRevisionRequested
		task.RevisionRequestedAt = &now
		task.RevisionNotes = &notes
		return events.EventRevisionRequested, &model.Notification{
			Type:    constants.NotificationRevisionRequested,
			Title:   "Revision Requested",
			Message: fmt.Sprintf("The requester asked for changes to %q: %s", task.Title, notes),
		}, nil

	case constants.ActionReleasePayment:
		if task.Status != constants.StatusCompleted {
			return "", nil, invalidTransition(task.Status, action)
		}
		task.Status = constants.StatusPaymentReceived
		task.PaymentReceivedAt = &now
		return events.EventPaymentReleased, &model.Notification{
			Type:    constants.NotificationPaymentReceived,
			Title:   "Payment Received",
			Message: fmt.Sprintf("Payment of $%.2f for %q has been released.", task.Budget, task.Title),
		}, nil

	case constants.ActionCancel:
		if task.Status.IsTerminal() {
			return "", nil, invalidTransition(task.Status, action)
		}

		// an unclaimed manual task goes back to the feed instead of dying
		if task.MatchingType == constants.MatchingManual && task.AssignedExpertID == nil {
			task.Status = constants.StatusAwaitingExpert
			return events.EventTaskReopened, nil, nil
		}

		task.Status = constants.StatusCancelled
		task.CancelledAt = &now
		if reason := strings.TrimSpace(data.Reason); reason != "" {
			task.CancelReason = &reason
		}
		task.ClearAssignment()
		return events.EventTaskCancelled, &model.Notification{
			Type:    constants.NotificationTaskCancelled,
			Title:   "Task Cancelled",
			Message: fmt.Sprintf("The requester cancelled %q.", task.Title),
		}, nil
	}

	return "", nil, apperrors.ErrInvalidAction
}

func invalidTransition[A ~string](status constants.TaskStatus, action A) error {
	return apperrors.ErrInvalidTransition.WithMessage(fmt.Sprintf("cannot %s a task in status %s", action, status))
}
