package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"assignmint.com/assignmint/internal/constants"
	apperrors "assignmint.com/assignmint/internal/errors"
	model "assignmint.com/assignmint/internal/models"
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// WithTx returns a repository bound to an open transaction.
func (r *TaskRepository) WithTx(tx *gorm.DB) *TaskRepository {
	return &TaskRepository{db: tx}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task, now time.Time) error {
	if err := validateTask(task); err != nil {
		return err
	}

	task.ID = uuid.NewString()
	task.Version = 1
	task.CreatedAt = now
	task.UpdatedAt = now

	return r.db.WithContext(ctx).Create(task).Error
}

func (r *TaskRepository) FindByID(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).First(&task, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) Query(filter TaskFilter, sort constants.SortKey, pageSize int) *TaskCursor {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &TaskCursor{
		db:       r.db.Model(&model.Task{}),
		scopes:   []func(*gorm.DB) *gorm.DB{filter.scope, orderScope(sort)},
		pageSize: pageSize,
	}
}

// Update writes every mutable column, guarded by the version the caller read.
// RequesterID and ViewCount are never written here.
func (r *TaskRepository) Update(ctx context.Context, task *model.Task, now time.Time) error {
	if task.Status.IsAssigned() != (task.AssignedExpertID != nil) {
		return fmt.Errorf("task %s: status %s does not match its assignment", task.ID, task.Status)
	}

	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND version = ?", task.ID, task.Version).
		Updates(map[string]interface{}{
			"title":                 task.Title,
			"description":           task.Description,
			"subject":               task.Subject,
			"tags":                  task.Tags,
			"urgency":               task.Urgency,
			"budget":                task.Budget,
			"deadline":              task.Deadline,
			"matching_type":         task.MatchingType,
			"is_active":             task.IsActive,
			"status":                task.Status,
			"assigned_expert_id":    task.AssignedExpertID,
			"assigned_expert_name":  task.AssignedExpertName,
			"assigned_at":           task.AssignedAt,
			"delivery":              task.Delivery,
			"search_keywords":       task.SearchKeywords,
			"dispute_reason":        task.DisputeReason,
			"revision_notes":        task.RevisionNotes,
			"cancel_reason":         task.CancelReason,
			"completed_at":          task.CompletedAt,
			"disputed_at":           task.DisputedAt,
			"cancelled_at":          task.CancelledAt,
			"revision_requested_at": task.RevisionRequestedAt,
			"payment_received_at":   task.PaymentReceivedAt,
			"updated_at":            now,
			"version":               gorm.Expr("version + 1"),
		})

	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return ErrOptimisticLock
	}

	task.Version++
	task.UpdatedAt = now
	return nil
}

// IncrementViewCount bumps the counter in place without touching the version,
// so views never race with lifecycle transitions.
func (r *TaskRepository) IncrementViewCount(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrTaskNotFound
	}
	return nil
}

func validateTask(task *model.Task) error {
	var missing []string
	if strings.TrimSpace(task.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(task.Description) == "" {
		missing = append(missing, "description")
	}
	if strings.TrimSpace(task.Subject) == "" {
		missing = append(missing, "subject")
	}
	if task.Deadline.IsZero() {
		missing = append(missing, "deadline")
	}
	if strings.TrimSpace(task.RequesterID) == "" {
		missing = append(missing, "requesterId")
	}
	if len(missing) > 0 {
		return apperrors.ErrValidation.WithMessage(strings.Join(missing, ", ") + " required")
	}

	if task.Budget <= 0 {
		return apperrors.ErrValidation.WithMessage("budget must be positive")
	}
	if !task.Urgency.Valid() {
		return apperrors.ErrValidation.WithMessage("urgency must be one of high, medium, low")
	}
	if !task.MatchingType.Valid() {
		return apperrors.ErrValidation.WithMessage("matchingType must be manual or auto")
	}
	return nil
}
