// Package service applies task changes to the store and mirrors them to the
// external calendar.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"myday/internal/metrics"
	"myday/internal/retention"
	"myday/internal/status"
	"myday/internal/task"
)

// Store is the task store used by Tasks.
type Store interface {
	All(ctx context.Context) ([]task.Task, error)
	Get(ctx context.Context, id int64) (task.Task, error)
	Insert(ctx context.Context, t task.Task) (task.Task, error)
	Update(ctx context.Context, t task.Task) error
	DeleteByID(ctx context.Context, id int64) error
	UpdateDueDate(ctx context.Context, id int64, due task.DueDate) error
	UpdateImportance(ctx context.Context, id int64, important bool) error
	UpdateOverdue(ctx context.Context, id int64, overdue bool) error
	Subscribe(ctx context.Context) <-chan []task.Task
}

// Mirror receives task changes after they are stored.
type Mirror interface {
	TaskInserted(t task.Task)
	TaskDeleted(t task.Task)
	TaskUpdated(old, updated task.Task)
}

type noopMirror struct{}

func (noopMirror) TaskInserted(task.Task)           {}
func (noopMirror) TaskDeleted(task.Task)            {}
func (noopMirror) TaskUpdated(task.Task, task.Task) {}

// Option configures Tasks.
type Option func(*Tasks)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Tasks) { s.now = now }
}

// WithRetentionDays sets how long tasks are kept after their due date.
func WithRetentionDays(days int) Option {
	return func(s *Tasks) { s.retentionDays = days }
}

// Tasks is the task service. A task change is complete once the local write
// succeeds; mirroring happens afterwards and never fails the call.
type Tasks struct {
	store         Store
	mirror        Mirror
	metrics       *metrics.Metrics
	log           zerolog.Logger
	now           func() time.Time
	retentionDays int
}

// New creates a Tasks service. mirror and m may be nil.
func New(store Store, mirror Mirror, m *metrics.Metrics, log zerolog.Logger, opts ...Option) *Tasks {
	if mirror == nil {
		mirror = noopMirror{}
	}
	s := &Tasks{
		store:         store,
		mirror:        mirror,
		metrics:       m,
		log:           log.With().Str("component", "task-service").Logger(),
		now:           time.Now,
		retentionDays: retention.DefaultDays,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today is the current local calendar day.
func (s *Tasks) Today() task.DueDate {
	return task.DateOf(s.now())
}

// RetentionDays is the configured retention window.
func (s *Tasks) RetentionDays() int {
	return s.retentionDays
}

// Add creates a task.
func (s *Tasks) Add(ctx context.Context, name string, due task.DueDate, important bool) (task.Task, error) {
	t := task.Task{
		Name:      name,
		CreatedAt: task.CreationStamp(s.now()),
		Due:       due,
		Important: important,
	}
	t.Overdue = t.OverdueOn(s.Today())

	created, err := s.store.Insert(ctx, t)
	if err != nil {
		return task.Task{}, fmt.Errorf("add task: %w", err)
	}
	s.mutated("add", created)
	s.mirror.TaskInserted(created)
	return created, nil
}

// Restore re-inserts a deleted task under its original ID.
func (s *Tasks) Restore(ctx context.Context, snap task.DeletedSnapshot) (task.Task, error) {
	restored, err := s.store.Insert(ctx, snap.Task)
	if err != nil {
		return task.Task{}, fmt.Errorf("restore task %d: %w", snap.Task.ID, err)
	}
	s.mutated("restore", restored)
	s.mirror.TaskInserted(restored)
	return restored, nil
}

// Update replaces a stored task. The calendar event is replaced when the
// name, due date or importance changed.
func (s *Tasks) Update(ctx context.Context, t task.Task) error {
	old, err := s.store.Get(ctx, t.ID)
	if err != nil {
		return fmt.Errorf("update task %d: %w", t.ID, err)
	}
	if err := s.store.Update(ctx, t); err != nil {
		return fmt.Errorf("update task %d: %w", t.ID, err)
	}
	s.mutated("update", t)
	if mirrored(old) != mirrored(t) {
		s.mirror.TaskUpdated(old, t)
	}
	return nil
}

// SetCompleted marks a task done or not done.
func (s *Tasks) SetCompleted(ctx context.Context, id int64, completed bool) (task.Task, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return task.Task{}, fmt.Errorf("set completed on task %d: %w", id, err)
	}
	if t.Completed == completed {
		return t, nil
	}
	t.Completed = completed
	if t.Due.Valid() {
		t.Overdue = t.OverdueOn(s.Today())
	}
	if err := s.store.Update(ctx, t); err != nil {
		return task.Task{}, fmt.Errorf("set completed on task %d: %w", id, err)
	}

	op := "complete"
	if !completed {
		op = "uncomplete"
	}
	s.mutated(op, t)
	return t, nil
}

// ToggleImportance flips a task's importance.
func (s *Tasks) ToggleImportance(ctx context.Context, id int64) (task.Task, error) {
	old, err := s.store.Get(ctx, id)
	if err != nil {
		return task.Task{}, fmt.Errorf("toggle importance on task %d: %w", id, err)
	}
	t := old
	t.Important = !old.Important
	if err := s.store.UpdateImportance(ctx, id, t.Important); err != nil {
		return task.Task{}, fmt.Errorf("toggle importance on task %d: %w", id, err)
	}
	s.mutated("star", t)
	s.mirror.TaskUpdated(old, t)
	return t, nil
}

// Reschedule moves a task to a new due date.
func (s *Tasks) Reschedule(ctx context.Context, id int64, due task.DueDate) (task.Task, error) {
	old, err := s.store.Get(ctx, id)
	if err != nil {
		return task.Task{}, fmt.Errorf("reschedule task %d: %w", id, err)
	}
	t := old
	t.Due = due
	if err := s.store.UpdateDueDate(ctx, id, due); err != nil {
		return task.Task{}, fmt.Errorf("reschedule task %d: %w", id, err)
	}
	s.mutated("reschedule", t)
	if !old.Due.Equal(due) {
		s.mirror.TaskUpdated(old, t)
	}
	return t, nil
}

// Postpone moves a task's due date one day later. Tasks without a valid due
// date are left unchanged.
func (s *Tasks) Postpone(ctx context.Context, id int64) (task.Task, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return task.Task{}, fmt.Errorf("postpone task %d: %w", id, err)
	}
	if !t.Due.Valid() {
		return t, nil
	}
	return s.Reschedule(ctx, id, t.Due.AddDays(1))
}

// Delete removes t and returns what is needed to undo it. position is where
// the task was shown.
func (s *Tasks) Delete(ctx context.Context, t task.Task, position int) (task.DeletedSnapshot, error) {
	if err := s.store.DeleteByID(ctx, t.ID); err != nil {
		return task.DeletedSnapshot{}, fmt.Errorf("delete task %d: %w", t.ID, err)
	}
	s.mutated("delete", t)
	s.mirror.TaskDeleted(t)
	return task.DeletedSnapshot{Task: t, Position: position, DeletedAt: s.now()}, nil
}

// DeleteByID removes a task by ID. Unknown IDs are ignored.
func (s *Tasks) DeleteByID(ctx context.Context, id int64) error {
	t, err := s.store.Get(ctx, id)
	if errors.Is(err, task.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	_, err = s.Delete(ctx, t, 0)
	return err
}

// Get returns a single task.
func (s *Tasks) Get(ctx context.Context, id int64) (task.Task, error) {
	return s.store.Get(ctx, id)
}

// List returns every task in store order.
func (s *Tasks) List(ctx context.Context) ([]task.Task, error) {
	return s.store.All(ctx)
}

// Subscribe streams full task snapshots until ctx is done.
func (s *Tasks) Subscribe(ctx context.Context) <-chan []task.Task {
	return s.store.Subscribe(ctx)
}

// Reconcile refreshes the stored overdue flags against today.
func (s *Tasks) Reconcile(ctx context.Context) (status.Result, error) {
	res, err := status.Reconcile(ctx, s.store, s.Today())
	s.metrics.Overdue(res.Updated)
	if err != nil {
		return res, err
	}
	s.log.Debug().
		Int("checked", res.Checked).
		Int("updated", res.Updated).
		Int("skipped", res.Skipped).
		Msg("overdue flags reconciled")
	return res, nil
}

// Prune deletes tasks that fell out of the retention window.
func (s *Tasks) Prune(ctx context.Context) (int, error) {
	tasks, err := s.store.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("load tasks for prune: %w", err)
	}
	n, err := retention.Prune(ctx, func(ctx context.Context, t task.Task) error {
		_, err := s.Delete(ctx, t, 0)
		return err
	}, tasks, s.Today(), s.retentionDays)
	s.metrics.Pruned(n)
	if n > 0 {
		s.log.Info().Int("pruned", n).Int("retention_days", s.retentionDays).Msg("expired tasks pruned")
	}
	return n, err
}

func (s *Tasks) mutated(op string, t task.Task) {
	s.metrics.Mutation(op)
	s.log.Debug().Str("op", op).Int64("task_id", t.ID).Str("task", t.Name).Msg("task changed")
}

// mirroredFields is the part of a task reflected in its calendar event.
type mirroredFields struct {
	name      string
	due       string
	important bool
}

func mirrored(t task.Task) mirroredFields {
	return mirroredFields{name: t.Name, due: t.Due.Encode(), important: t.Important}
}
