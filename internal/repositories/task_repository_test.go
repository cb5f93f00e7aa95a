package repository

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"assignmint.com/assignmint/internal/constants"
	apperrors "assignmint.com/assignmint/internal/errors"
	model "assignmint.com/assignmint/internal/models"
	"assignmint.com/assignmint/internal/testutil"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTask(title string, budget float64) *model.Task {
	return &model.Task{
		Title:        title,
		Description:  "Derivatives and integrals, chapters 3-5",
		Subject:      "Math",
		Tags:         datatypes.JSONSlice[string]{"calculus", "math"},
		Urgency:      constants.UrgencyHigh,
		Budget:       budget,
		Deadline:     baseTime.Add(7 * 24 * time.Hour),
		MatchingType: constants.MatchingManual,
		IsActive:     true,
		Status:       constants.StatusAwaitingExpert,
		RequesterID:  "requester-1",
	}
}

func TestTaskRepository_CreateAndFindRoundTrip(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	input := newTask("Calculus Assignment Help", 25)
	require.NoError(t, repo.Create(ctx, input, baseTime))
	require.NotEmpty(t, input.ID)

	got, err := repo.FindByID(ctx, input.ID)
	require.NoError(t, err)

	require.Equal(t, input.ID, got.ID)
	require.Equal(t, input.Title, got.Title)
	require.Equal(t, input.Description, got.Description)
	require.Equal(t, input.Subject, got.Subject)
	require.Equal(t, []string(input.Tags), []string(got.Tags))
	require.Equal(t, input.Urgency, got.Urgency)
	require.Equal(t, input.Budget, got.Budget)
	require.True(t, input.Deadline.Equal(got.Deadline))
	require.Equal(t, input.MatchingType, got.MatchingType)
	require.Equal(t, input.Status, got.Status)
	require.True(t, got.IsActive)
	require.Nil(t, got.AssignedExpertID)
	require.Nil(t, got.DeliveryData())
	require.Equal(t, input.RequesterID, got.RequesterID)
	require.EqualValues(t, 1, got.Version)
	require.True(t, baseTime.Equal(got.CreatedAt))
	require.True(t, baseTime.Equal(got.UpdatedAt))
}

func TestTaskRepository_CreateValidates(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewTaskRepository(db)

	task := newTask("", 25)
	task.Subject = ""
	err := repo.Create(context.Background(), task, baseTime)
	require.ErrorIs(t, err, apperrors.ErrValidation)
	require.Contains(t, err.Error(), "title")
	require.Contains(t, err.Error(), "subject")

	task = newTask("Essay", 0)
	require.ErrorIs(t, repo.Create(context.Background(), task, baseTime), apperrors.ErrValidation)

	task = newTask("Essay", 10)
	task.Urgency = "asap"
	require.ErrorIs(t, repo.Create(context.Background(), task, baseTime), apperrors.ErrValidation)
}

func TestTaskRepository_FindByIDNotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewTaskRepository(db)

	_, err := repo.FindByID(context.Background(), "missing")
	require.ErrorIs(t, err, apperrors.ErrTaskNotFound)
}

func TestTaskRepository_UpdateOptimisticLock(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	task := newTask("Essay", 40)
	require.NoError(t, repo.Create(ctx, task, baseTime))

	stale := *task
	task.Status = constants.StatusWorking
	task.Assign("expert-1", "Sarah", baseTime)
	task.SyncVisibility()
	require.NoError(t, repo.Update(ctx, task, baseTime.Add(time.Minute)))
	require.EqualValues(t, 2, task.Version)

	stale.Status = constants.StatusCancelled
	require.ErrorIs(t, repo.Update(ctx, &stale, baseTime.Add(2*time.Minute)), ErrOptimisticLock)

	got, err := repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	require.Equal(t, constants.StatusWorking, got.Status)
	require.Equal(t, "expert-1", got.ExpertID())
	require.False(t, got.IsActive)
	require.True(t, baseTime.Add(time.Minute).Equal(got.UpdatedAt))
}

func TestTaskRepository_DeliveryPersists(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	task := newTask("Essay", 40)
	require.NoError(t, repo.Create(ctx, task, baseTime))

	task.Delivery = datatypes.NewJSONType(&model.Delivery{
		Files:       []model.DeliveryFile{{Name: "essay.pdf", Size: 2048, Category: "document", UploadedAt: baseTime}},
		Message:     "Done",
		SubmittedAt: baseTime,
		SubmittedBy: "expert-1",
	})
	require.NoError(t, repo.Update(ctx, task, baseTime))

	got, err := repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	delivery := got.DeliveryData()
	require.NotNil(t, delivery)
	require.Equal(t, "Done", delivery.Message)
	require.Equal(t, "expert-1", delivery.SubmittedBy)
	require.Len(t, delivery.Files, 1)
	require.Equal(t, "essay.pdf", delivery.Files[0].Name)
}

func TestTaskRepository_QueryFiltersSortsAndPages(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	budgets := []float64{50, 120, 80, 15, 200}
	for i, b := range budgets {
		task := newTask("Task", b)
		if i == 4 {
			task.Subject = "History"
		}
		require.NoError(t, repo.Create(ctx, task, baseTime.Add(time.Duration(i)*time.Minute)))
	}

	active := true
	maxBudget := 150.0
	cursor := repo.Query(TaskFilter{
		MatchingType: constants.MatchingManual,
		Statuses:     []constants.TaskStatus{constants.StatusAwaitingExpert},
		IsActive:     &active,
		Subject:      "Math",
		MaxBudget:    &maxBudget,
	}, constants.SortPriceAsc, 2)

	first, err := cursor.Next(ctx)
	require.NoError(t, err)
	require.False(t, cursor.Done())
	require.Len(t, first, 2)
	require.Equal(t, 15.0, first[0].Budget)
	require.Equal(t, 50.0, first[1].Budget)

	second, err := cursor.Next(ctx)
	require.NoError(t, err)
	require.True(t, cursor.Done())
	require.Len(t, second, 2)
	require.Equal(t, 80.0, second[0].Budget)
	require.Equal(t, 120.0, second[1].Budget)

	rest, err := cursor.Next(ctx)
	require.NoError(t, err)
	require.Empty(t, rest)

	all, err := repo.Query(TaskFilter{}, constants.SortRecent, 10).All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 5)
	require.Equal(t, 200.0, all[0].Budget)
}

func TestTaskRepository_QueryMatchesKeywords(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	calculus := newTask("Calculus", 25)
	calculus.SearchKeywords = " calculus math derivatives "
	essay := newTask("Essay", 40)
	essay.SearchKeywords = " essay history writing "
	require.NoError(t, repo.Create(ctx, calculus, baseTime))
	require.NoError(t, repo.Create(ctx, essay, baseTime.Add(time.Minute)))

	got, err := repo.Query(TaskFilter{Keywords: []string{"derivatives"}}, constants.SortRecent, 10).All(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, calculus.ID, got[0].ID)

	got, err = repo.Query(TaskFilter{Keywords: []string{"writing", "math"}}, constants.SortRecent, 10).All(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// whole words only
	got, err = repo.Query(TaskFilter{Keywords: []string{"deriv"}}, constants.SortRecent, 10).All(ctx)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestTaskRepository_UpdateRejectsAssignmentMismatch(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	task := newTask("Essay", 40)
	require.NoError(t, repo.Create(ctx, task, baseTime))

	task.Status = constants.StatusWorking
	require.Error(t, repo.Update(ctx, task, baseTime.Add(time.Minute)))

	task.Status = constants.StatusAwaitingExpert
	task.Assign("expert-1", "Sarah", baseTime)
	require.Error(t, repo.Update(ctx, task, baseTime.Add(time.Minute)))

	got, err := repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	require.Equal(t, constants.StatusAwaitingExpert, got.Status)
	require.Nil(t, got.AssignedExpertID)
	require.EqualValues(t, 1, got.Version)
}

func TestTaskRepository_IncrementViewCount(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	task := newTask("Essay", 40)
	require.NoError(t, repo.Create(ctx, task, baseTime))

	require.NoError(t, repo.IncrementViewCount(ctx, task.ID))
	require.NoError(t, repo.IncrementViewCount(ctx, task.ID))
	require.ErrorIs(t, repo.IncrementViewCount(ctx, "missing"), apperrors.ErrTaskNotFound)

	got, err := repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, got.ViewCount)
	require.EqualValues(t, 1, got.Version)
}

func TestStore_RetriesOptimisticLockThenConflicts(t *testing.T) {
	db := testutil.NewTestDB(t)
	store := NewStore(db, 3)

	var attempts int
	err := store.Transaction(context.Background(), func(tx *gorm.DB) error {
		attempts++
		return ErrOptimisticLock
	})
	require.ErrorIs(t, err, apperrors.ErrConflict)
	require.Equal(t, 3, attempts)
}

func TestStore_CancelledDuringRetryWaitIsConflict(t *testing.T) {
	db := testutil.NewTestDB(t)
	store := NewStore(db, 5)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var attempts int
	err := store.Transaction(ctx, func(tx *gorm.DB) error {
		attempts++
		cancel()
		return ErrOptimisticLock
	})
	require.ErrorIs(t, err, apperrors.ErrConflict)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, attempts)
}

func TestStore_RetrySucceedsAndRunsHooks(t *testing.T) {
	db := testutil.NewTestDB(t)
	store := NewStore(db, 5)

	var hooks atomic.Int32
	store.OnCommit(func() { hooks.Add(1) })

	var attempts int
	err := store.Transaction(context.Background(), func(tx *gorm.DB) error {
		attempts++
		if attempts < 2 {
			return ErrOptimisticLock
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, attempts)
	require.EqualValues(t, 1, hooks.Load())
}

func TestStore_NonRetryableErrorRollsBack(t *testing.T) {
	db := testutil.NewTestDB(t)
	store := NewStore(db, 5)
	repo := NewTaskRepository(db)
	boom := errors.New("boom")

	var attempts int
	var createdID string
	err := store.Transaction(context.Background(), func(tx *gorm.DB) error {
		attempts++
		task := newTask("Essay", 40)
		if err := repo.WithTx(tx).Create(context.Background(), task, baseTime); err != nil {
			return err
		}
		createdID = task.ID
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, attempts)

	_, err = repo.FindByID(context.Background(), createdID)
	require.ErrorIs(t, err, apperrors.ErrTaskNotFound)
}

func TestStore_ConcurrentTransactionsSerialise(t *testing.T) {
	db := testutil.NewTestDB(t)
	store := NewStore(db, 5)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	task := newTask("Essay", 40)
	require.NoError(t, repo.Create(ctx, task, baseTime))

	const writers = 10
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			err := store.Transaction(ctx, func(tx *gorm.DB) error {
				txRepo := repo.WithTx(tx)
				current, err := txRepo.FindByID(ctx, task.ID)
				if err != nil {
					return err
				}
				current.Budget++
				return txRepo.Update(ctx, current, baseTime)
			})
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	require.Equal(t, 50.0, got.Budget)
	require.EqualValues(t, 1+writers, got.Version)
}
