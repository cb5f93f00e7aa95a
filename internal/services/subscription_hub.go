package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"assignmint.com/assignmint/internal/constants"
	model "assignmint.com/assignmint/internal/models"
	repository "assignmint.com/assignmint/internal/repositories"
)

var ErrHubClosed = errors.New("subscription hub is shut down")

// TaskSnapshot is the full result set of a subscription at one point in time.
// Seq increases strictly for every delivery on the same subscription.
type TaskSnapshot struct {
	Seq   uint64       `json:"seq"`
	Tasks []model.Task `json:"tasks"`
}

type taskFingerprint struct {
	id      string
	version uint
}

type subscription struct {
	id       string
	filter   repository.TaskFilter
	sort     constants.SortKey
	limit    int
	callback func(TaskSnapshot)

	dirty chan struct{}
	done  chan struct{}
	once  sync.Once

	seq  uint64
	last []taskFingerprint
}

// SubscriptionHub pushes query snapshots to subscribers. Each subscription
// owns a goroutine, so its snapshots are produced one after another and a
// newer one is never followed by an older one. Commits signal the hub through
// Notify; a poll ticker covers writes made by other processes.
type SubscriptionHub struct {
	tasks        *repository.TaskRepository
	logger       *zap.Logger
	pollInterval time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	subs   map[string]*subscription
	closed bool

	wg     sync.WaitGroup
	pollWG sync.WaitGroup
}

func NewSubscriptionHub(tasks *repository.TaskRepository, pollInterval time.Duration, logger *zap.Logger) *SubscriptionHub {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &SubscriptionHub{
		tasks:        tasks,
		logger:       logger,
		pollInterval: pollInterval,
		ctx:          ctx,
		cancel:       cancel,
		subs:         make(map[string]*subscription),
	}

	if pollInterval > 0 {
		h.pollWG.Add(1)
		go h.pollLoop()
	}

	return h
}

// Subscribe registers callback for the given query. The first snapshot is
// delivered right away; later ones only when the result set changes. The
// returned function unsubscribes and is safe to call more than once.
func (h *SubscriptionHub) Subscribe(
	filter repository.TaskFilter,
	sort constants.SortKey,
	limit int,
	callback func(TaskSnapshot),
) (func(), error) {
	sub := &subscription{
		id:       uuid.NewString(),
		filter:   filter,
		sort:     sort,
		limit:    limit,
		callback: callback,
		dirty:    make(chan struct{}, 1),
		done:     make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHubClosed
	}
	h.subs[sub.id] = sub
	h.wg.Add(1)
	h.mu.Unlock()

	go h.run(sub)

	return func() { h.unsubscribe(sub) }, nil
}

// Notify marks every subscription as stale. It never blocks; pending
// refreshes are coalesced.
func (h *SubscriptionHub) Notify() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.subs {
		select {
		case sub.dirty <- struct{}{}:
		default:
		}
	}
}

// Done is closed once Shutdown has started.
func (h *SubscriptionHub) Done() <-chan struct{} {
	return h.ctx.Done()
}

func (h *SubscriptionHub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *SubscriptionHub) unsubscribe(sub *subscription) {
	sub.once.Do(func() {
		close(sub.done)
		h.mu.Lock()
		delete(h.subs, sub.id)
		h.mu.Unlock()
	})
}

func (h *SubscriptionHub) run(sub *subscription) {
	defer h.wg.Done()

	h.refresh(sub)

	for {
		select {
		case <-sub.dirty:
			h.refresh(sub)
		case <-sub.done:
			return
		case <-h.ctx.Done():
			return
		}
	}
}

func (h *SubscriptionHub) refresh(sub *subscription) {
	ctx, cancel := context.WithTimeout(h.ctx, 10*time.Second)
	defer cancel()

	tasks, err := h.tasks.Query(sub.filter, sub.sort, sub.limit).Next(ctx)
	if err != nil {
		if h.ctx.Err() == nil {
			h.logger.Warn("subscription refresh failed", zap.String("subscription_id", sub.id), zap.Error(err))
		}
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}

	fingerprint := make([]taskFingerprint, len(tasks))
	for i := range tasks {
		fingerprint[i] = taskFingerprint{id: tasks[i].ID, version: tasks[i].Version}
	}
	if sub.seq > 0 && sameFingerprint(sub.last, fingerprint) {
		return
	}

	select {
	case <-sub.done:
		return
	default:
	}

	sub.seq++
	sub.last = fingerprint
	sub.callback(TaskSnapshot{Seq: sub.seq, Tasks: tasks})
}

func sameFingerprint(a, b []taskFingerprint) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (h *SubscriptionHub) pollLoop() {
	defer h.pollWG.Done()

	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.Notify()
		case <-h.ctx.Done():
			return
		}
	}
}

func (h *SubscriptionHub) Shutdown(ctx context.Context) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	h.mu.Unlock()

	h.cancel()
	h.pollWG.Wait()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.logger.Info("subscription hub shut down cleanly")
	case <-ctx.Done():
		h.logger.Warn("subscription hub shutdown timed out")
	}
}
