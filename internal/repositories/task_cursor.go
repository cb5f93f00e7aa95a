package repository

import (
	"context"

	"gorm.io/gorm"

	model "assignmint.com/assignmint/internal/models"
)

// TaskCursor pages through a query lazily. It cannot be resumed once the
// underlying data changes; run the query again for a fresh sequence.
type TaskCursor struct {
	db       *gorm.DB
	scopes   []func(*gorm.DB) *gorm.DB
	pageSize int
	offset   int
	done     bool
}

func (c *TaskCursor) Done() bool {
	return c.done
}

func (c *TaskCursor) Next(ctx context.Context) ([]model.Task, error) {
	if c.done {
		return nil, nil
	}

	var tasks []model.Task
	err := c.db.WithContext(ctx).
		Scopes(c.scopes...).
		Offset(c.offset).
		Limit(c.pageSize + 1).
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}

	if len(tasks) > c.pageSize {
		tasks = tasks[:c.pageSize]
	} else {
		c.done = true
	}
	c.offset += len(tasks)

	return tasks, nil
}

// All drains the cursor.
func (c *TaskCursor) All(ctx context.Context) ([]model.Task, error) {
	var all []model.Task
	for !c.Done() {
		page, err := c.Next(ctx)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
	}
	return all, nil
}
