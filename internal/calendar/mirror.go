package calendar

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"myday/internal/metrics"
	"myday/internal/task"
)

// DefaultQueueSize is the mirror's queue capacity when none is configured.
const DefaultQueueSize = 64

const opTimeout = 30 * time.Second

type opKind int

const (
	opInsert opKind = iota
	opDelete
	opFlush
)

func (k opKind) String() string {
	switch k {
	case opInsert:
		return "insert"
	case opDelete:
		return "delete"
	default:
		return "flush"
	}
}

type op struct {
	kind opKind
	task task.Task
	done chan struct{} // flush only
}

// Mirror applies task changes to an EventStore on a single background worker,
// in the order they were submitted. When the queue is full new operations are
// dropped with a warning.
type Mirror struct {
	store   EventStore
	log     zerolog.Logger
	metrics *metrics.Metrics

	mu     sync.RWMutex
	closed bool
	queue  chan op
	done   chan struct{}
}

// NewMirror starts the worker. m may be nil.
func NewMirror(store EventStore, log zerolog.Logger, m *metrics.Metrics, queueSize int) *Mirror {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	mr := &Mirror{
		store:   store,
		log:     log.With().Str("component", "calendar").Logger(),
		metrics: m,
		queue:   make(chan op, queueSize),
		done:    make(chan struct{}),
	}
	go mr.run()
	return mr
}

// TaskInserted mirrors a newly stored task.
func (m *Mirror) TaskInserted(t task.Task) {
	m.enqueue(op{kind: opInsert, task: t})
}

// TaskDeleted removes the event mirroring t.
func (m *Mirror) TaskDeleted(t task.Task) {
	m.enqueue(op{kind: opDelete, task: t})
}

// TaskUpdated replaces the event for old with one for updated.
func (m *Mirror) TaskUpdated(old, updated task.Task) {
	m.enqueue(op{kind: opDelete, task: old})
	m.enqueue(op{kind: opInsert, task: updated})
}

// Wait blocks until every operation submitted before the call has been applied.
func (m *Mirror) Wait() {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return
	}
	done := make(chan struct{})
	m.queue <- op{kind: opFlush, done: done}
	m.mu.RUnlock()
	<-done
}

// Close applies the queued operations and stops the worker. Operations
// submitted afterwards are dropped.
func (m *Mirror) Close() {
	m.mu.Lock()
	if !m.closed {
		m.closed = true
		close(m.queue)
	}
	m.mu.Unlock()
	<-m.done
}

func (m *Mirror) enqueue(o op) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		m.drop(o, "mirror closed")
		return
	}
	select {
	case m.queue <- o:
	default:
		m.drop(o, "mirror queue full")
	}
}

func (m *Mirror) drop(o op, reason string) {
	m.log.Warn().
		Str("op", o.kind.String()).
		Int64("task_id", o.task.ID).
		Str("task", o.task.Name).
		Msg(reason)
	m.metrics.Calendar(o.kind.String(), metrics.ResultDropped)
}

func (m *Mirror) run() {
	defer close(m.done)
	for o := range m.queue {
		if o.kind == opFlush {
			close(o.done)
			continue
		}
		m.apply(o)
	}
}

func (m *Mirror) apply(o op) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	kind := o.kind.String()
	if !o.task.Due.Valid() && (o.kind == opInsert || o.task.ID == 0) {
		m.log.Warn().
			Str("op", kind).
			Int64("task_id", o.task.ID).
			Str("due", o.task.Due.Raw()).
			Msg("skipping calendar event for unparseable due date")
		m.metrics.Calendar(kind, metrics.ResultSkipped)
		return
	}

	var err error
	switch o.kind {
	case opInsert:
		err = m.insert(ctx, o.task)
	case opDelete:
		err = m.delete(ctx, o.task)
	}
	if err != nil {
		m.log.Error().Err(err).
			Str("op", kind).
			Int64("task_id", o.task.ID).
			Msg("calendar mirror failed")
		m.metrics.Calendar(kind, metrics.ResultError)
		return
	}
	m.metrics.Calendar(kind, metrics.ResultOK)
}

func (m *Mirror) insert(ctx context.Context, t task.Task) error {
	id, err := m.store.Insert(ctx, EventFor(t))
	if err != nil {
		return err
	}
	m.log.Debug().Int64("task_id", t.ID).Str("event_id", id).Msg("event inserted")
	return nil
}

// delete removes events keyed by the task ID, falling back to the title and
// day of events created before task IDs were recorded.
func (m *Mirror) delete(ctx context.Context, t task.Task) error {
	var found []Event
	if key := taskKey(t.ID); key != "" {
		evs, err := m.store.Find(ctx, Query{TaskID: key})
		if err != nil {
			return err
		}
		found = evs
	}

	if len(found) == 0 && t.Due.Valid() {
		from, to := DayRange(t.Due)
		evs, err := m.store.Find(ctx, Query{Title: Title(t.Name, t.Important), From: from, To: to})
		if err != nil {
			return err
		}
		for _, ev := range evs {
			if ev.AllDay && ev.TaskID == "" {
				found = append(found, ev)
			}
		}
	}

	for _, ev := range found {
		if err := m.store.Delete(ctx, ev.ID); err != nil {
			return err
		}
		m.log.Debug().Int64("task_id", t.ID).Str("event_id", ev.ID).Msg("event deleted")
	}
	return nil
}
