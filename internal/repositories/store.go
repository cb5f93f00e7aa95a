package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"

	apperrors "assignmint.com/assignmint/internal/errors"
)

var ErrOptimisticLock = errors.New("optimistic locking conflict")

// Store runs read-verify-write closures against the database. A closure that
// loses a version race is retried from scratch; after maxRetries attempts the
// caller gets ErrConflict.
type Store struct {
	db         *gorm.DB
	maxRetries int
	Now        func() time.Time

	mu    sync.RWMutex
	hooks []func()
}

func NewStore(db *gorm.DB, maxRetries int) *Store {
	if maxRetries <= 0 {
		maxRetries = 1
	}
	return &Store{
		db:         db,
		maxRetries: maxRetries,
		Now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

// OnCommit registers fn to run after every successful transaction.
func (s *Store) OnCommit(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

func (s *Store) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	for attempt := 1; ; attempt++ {
		err := s.db.WithContext(ctx).Transaction(fn)
		if err == nil {
			s.committed()
			return nil
		}
		if !errors.Is(err, ErrOptimisticLock) {
			return err
		}
		if attempt >= s.maxRetries {
			return apperrors.ErrConflict.Wrap(err)
		}

		select {
		case <-ctx.Done():
			return apperrors.ErrConflict.Wrap(ctx.Err())
		case <-time.After(time.Duration(attempt) * 5 * time.Millisecond):
		}
	}
}

func (s *Store) committed() {
	s.mu.RLock()
	hooks := make([]func(), len(s.hooks))
	copy(hooks, s.hooks)
	s.mu.RUnlock()

	for _, hook := range hooks {
		hook()
	}
}
