package retention

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myday/internal/task"
)

func TestPrune(t *testing.T) {
	ctx := context.Background()
	today := task.Date(2025, time.June, 10)

	tasks := []task.Task{
		{ID: 1, Name: "May 1 task", Due: task.Date(2025, time.May, 1)},
		{ID: 2, Name: "recent", Due: task.Date(2025, time.June, 1)},
		{ID: 3, Name: "broken", Due: task.ParseDueDate("soon")},
		{ID: 4, Name: "old and done", Due: task.Date(2025, time.May, 20), Completed: true},
	}

	t.Run("deletes only expired tasks", func(t *testing.T) {
		var deleted []int64
		n, err := Prune(ctx, func(_ context.Context, tk task.Task) error {
			deleted = append(deleted, tk.ID)
			return nil
		}, tasks, today, DefaultDays)

		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, []int64{1, 4}, deleted)
	})

	t.Run("stops at first failure", func(t *testing.T) {
		boom := errors.New("boom")
		n, err := Prune(ctx, func(context.Context, task.Task) error { return boom }, tasks, today, DefaultDays)

		assert.ErrorIs(t, err, boom)
		assert.Zero(t, n)
	})

	t.Run("nothing to prune", func(t *testing.T) {
		n, err := Prune(ctx, func(context.Context, task.Task) error {
			t.Fatal("unexpected delete")
			return nil
		}, tasks[1:3], today, DefaultDays)

		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

type countingPruner struct {
	calls atomic.Int32
	err   error
}

func (p *countingPruner) Prune(context.Context) (int, error) {
	p.calls.Add(1)
	return 1, p.err
}

func TestSweeper_Run(t *testing.T) {
	t.Run("prunes on every tick until cancelled", func(t *testing.T) {
		p := &countingPruner{err: errors.New("keeps going")}
		s := NewSweeper(p, zerolog.Nop())

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			s.Run(ctx, 5*time.Millisecond)
			close(done)
		}()

		require.Eventually(t, func() bool { return p.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
		cancel()
		<-done
	})

	t.Run("disabled interval returns immediately", func(t *testing.T) {
		p := &countingPruner{}
		NewSweeper(p, zerolog.Nop()).Run(context.Background(), 0)
		assert.Zero(t, p.calls.Load())
	})
}
