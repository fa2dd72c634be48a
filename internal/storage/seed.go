package storage

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"myday/internal/task"
)

// Seed inserts the sample data set used on first launch: fifteen upcoming
// tasks (five important), three important overdue tasks and two important
// completed tasks. Due dates are relative to now.
func (s *Store) Seed(ctx context.Context, now time.Time) error {
	today := task.DateOf(now)
	upcoming := today.AddDays(6)
	overdue := today.AddDays(-5)
	completed := today.AddDays(-2)

	millis := now.UnixMilli()
	stamp := func() string {
		millis -= 1000 + rand.Int64N(4001)
		return fmt.Sprintf("%d", millis)
	}

	var samples []task.Task
	for i := 1; i <= 5; i++ {
		samples = append(samples, task.Task{Name: fmt.Sprintf("Upcoming Important Task %d", i), Due: upcoming, Important: true})
	}
	for i := 1; i <= 10; i++ {
		samples = append(samples, task.Task{Name: fmt.Sprintf("Upcoming Task %d", i), Due: upcoming})
	}
	for i := 1; i <= 3; i++ {
		samples = append(samples, task.Task{Name: fmt.Sprintf("Overdue Important Task %d", i), Due: overdue, Important: true})
	}
	for i := 1; i <= 2; i++ {
		samples = append(samples, task.Task{Name: fmt.Sprintf("Completed Important Task %d", i), Due: completed, Important: true, Completed: true})
	}

	for _, t := range samples {
		t.CreatedAt = stamp()
		if _, err := s.Insert(ctx, t); err != nil {
			return fmt.Errorf("seed %q: %w", t.Name, err)
		}
	}
	return nil
}
