package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myday/internal/metrics"
	"myday/internal/task"
)

var due = task.Date(2025, time.June, 10)

func newTestMirror(t *testing.T, store EventStore, m *metrics.Metrics) *Mirror {
	t.Helper()
	mr := NewMirror(store, zerolog.Nop(), m, 16)
	t.Cleanup(mr.Close)
	return mr
}

func titles(evs []Event) []string {
	out := make([]string, 0, len(evs))
	for _, ev := range evs {
		out = append(out, ev.Title)
	}
	return out
}

func TestEventFor(t *testing.T) {
	ev := EventFor(task.Task{ID: 7, Name: "Dentist", Due: due, Important: true})

	assert.Equal(t, "⭐ Dentist", ev.Title)
	assert.True(t, ev.AllDay)
	assert.Equal(t, time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC), ev.Start)
	assert.Equal(t, time.Date(2025, time.June, 11, 0, 0, 0, 0, time.UTC), ev.End)
	assert.Equal(t, "7", ev.TaskID)

	assert.Equal(t, "Dentist", Title("Dentist", false))
}

func TestMirror(t *testing.T) {
	t.Run("insert then delete", func(t *testing.T) {
		store := NewMemoryStore()
		m := metrics.New()
		mr := newTestMirror(t, store, m)

		tk := task.Task{ID: 1, Name: "Pay rent", Due: due}
		mr.TaskInserted(tk)
		mr.Wait()
		require.Len(t, store.Events(), 1)
		assert.Equal(t, "1", store.Events()[0].TaskID)

		mr.TaskDeleted(tk)
		mr.Wait()
		assert.Empty(t, store.Events())

		assert.Equal(t, float64(1), testutil.ToFloat64(m.CalendarOperations.WithLabelValues("insert", metrics.ResultOK)))
		assert.Equal(t, float64(1), testutil.ToFloat64(m.CalendarOperations.WithLabelValues("delete", metrics.ResultOK)))
	})

	t.Run("importance toggle replaces the event title", func(t *testing.T) {
		store := NewMemoryStore()
		mr := newTestMirror(t, store, nil)

		tk := task.Task{ID: 2, Name: "Call mum", Due: due}
		mr.TaskInserted(tk)
		starred := tk
		starred.Important = true
		mr.TaskUpdated(tk, starred)
		mr.Wait()

		assert.Equal(t, []string{"⭐ Call mum"}, titles(store.Events()))
	})

	t.Run("reschedule moves the event", func(t *testing.T) {
		store := NewMemoryStore()
		mr := newTestMirror(t, store, nil)

		tk := task.Task{ID: 3, Name: "Gym", Due: due}
		mr.TaskInserted(tk)
		moved := tk
		moved.Due = due.AddDays(1)
		mr.TaskUpdated(tk, moved)
		mr.Wait()

		evs := store.Events()
		require.Len(t, evs, 1)
		assert.Equal(t, moved.Due.Time(), evs[0].Start)
	})

	t.Run("delete falls back to legacy title and day", func(t *testing.T) {
		ctx := context.Background()
		store := NewMemoryStore()
		start, end := DayRange(due)
		_, err := store.Insert(ctx, Event{Title: "⭐ Legacy", AllDay: true, Start: start, End: end})
		require.NoError(t, err)
		_, err = store.Insert(ctx, Event{Title: "⭐ Legacy", AllDay: true, Start: start.AddDate(0, 0, 1), End: end.AddDate(0, 0, 1)})
		require.NoError(t, err)
		_, err = store.Insert(ctx, Event{Title: "⭐ Legacy", AllDay: true, Start: start, End: end, TaskID: "99"})
		require.NoError(t, err)

		mr := newTestMirror(t, store, nil)
		mr.TaskDeleted(task.Task{ID: 5, Name: "Legacy", Due: due, Important: true})
		mr.Wait()

		evs := store.Events()
		require.Len(t, evs, 2)
		assert.Equal(t, start.AddDate(0, 0, 1), evs[0].Start)
		assert.Equal(t, "99", evs[1].TaskID)
	})

	t.Run("legacy fallback uses the importance prefix", func(t *testing.T) {
		ctx := context.Background()
		store := NewMemoryStore()
		start, end := DayRange(due)
		_, err := store.Insert(ctx, Event{Title: "Plain", AllDay: true, Start: start, End: end})
		require.NoError(t, err)

		mr := newTestMirror(t, store, nil)
		mr.TaskDeleted(task.Task{ID: 6, Name: "Plain", Due: due, Important: true})
		mr.Wait()
		assert.Len(t, store.Events(), 1)

		mr.TaskDeleted(task.Task{ID: 6, Name: "Plain", Due: due})
		mr.Wait()
		assert.Empty(t, store.Events())
	})

	t.Run("invalid due dates are skipped", func(t *testing.T) {
		store := NewMemoryStore()
		m := metrics.New()
		mr := newTestMirror(t, store, m)

		mr.TaskInserted(task.Task{ID: 8, Name: "Someday", Due: task.ParseDueDate("someday")})
		mr.Wait()

		assert.Empty(t, store.Events())
		assert.Equal(t, float64(1), testutil.ToFloat64(m.CalendarOperations.WithLabelValues("insert", metrics.ResultSkipped)))
	})

	t.Run("backend errors are counted and swallowed", func(t *testing.T) {
		store := NewMemoryStore()
		store.Fail(errors.New("backend down"))
		m := metrics.New()
		mr := newTestMirror(t, store, m)

		mr.TaskInserted(task.Task{ID: 9, Name: "Offline", Due: due})
		mr.Wait()

		assert.Equal(t, float64(1), testutil.ToFloat64(m.CalendarOperations.WithLabelValues("insert", metrics.ResultError)))

		store.Fail(nil)
		mr.TaskInserted(task.Task{ID: 9, Name: "Offline", Due: due})
		mr.Wait()
		assert.Len(t, store.Events(), 1)
	})

	t.Run("operations after close are dropped", func(t *testing.T) {
		store := NewMemoryStore()
		m := metrics.New()
		mr := NewMirror(store, zerolog.Nop(), m, 4)

		mr.TaskInserted(task.Task{ID: 10, Name: "Before", Due: due})
		mr.Close()
		mr.TaskInserted(task.Task{ID: 11, Name: "After", Due: due})
		mr.Wait()
		mr.Close()

		assert.Equal(t, []string{"Before"}, titles(store.Events()))
		assert.Equal(t, float64(1), testutil.ToFloat64(m.CalendarOperations.WithLabelValues("insert", metrics.ResultDropped)))
	})
}

// blockingStore holds every Insert until release is closed.
type blockingStore struct {
	*MemoryStore
	started chan struct{}
	release chan struct{}
}

func (b *blockingStore) Insert(ctx context.Context, ev Event) (string, error) {
	select {
	case b.started <- struct{}{}:
	default:
	}
	<-b.release
	return b.MemoryStore.Insert(ctx, ev)
}

func TestMirror_FullQueueDrops(t *testing.T) {
	store := &blockingStore{
		MemoryStore: NewMemoryStore(),
		started:     make(chan struct{}, 1),
		release:     make(chan struct{}),
	}
	m := metrics.New()
	mr := NewMirror(store, zerolog.Nop(), m, 1)

	mr.TaskInserted(task.Task{ID: 1, Name: "in flight", Due: due})
	<-store.started
	mr.TaskInserted(task.Task{ID: 2, Name: "queued", Due: due})
	mr.TaskInserted(task.Task{ID: 3, Name: "dropped", Due: due})

	close(store.release)
	mr.Close()

	assert.Equal(t, []string{"in flight", "queued"}, titles(store.Events()))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CalendarOperations.WithLabelValues("insert", metrics.ResultDropped)))
}
