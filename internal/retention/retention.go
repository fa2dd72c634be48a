// Package retention removes tasks whose due date has fallen outside the
// retention window.
package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"myday/internal/task"
	"myday/internal/views"
)

// DefaultDays is how long a task is kept after its due date.
const DefaultDays = 14

// DeleteFunc removes a single task.
type DeleteFunc func(ctx context.Context, t task.Task) error

// Prune deletes every task due more than days before today and returns how many
// were removed. It stops at the first failure.
func Prune(ctx context.Context, del DeleteFunc, tasks []task.Task, today task.DueDate, days int) (int, error) {
	n := 0
	for _, t := range views.Expired(tasks, today, days) {
		if err := del(ctx, t); err != nil {
			return n, fmt.Errorf("prune task %d: %w", t.ID, err)
		}
		n++
	}
	return n, nil
}

// Pruner runs one retention pass.
type Pruner interface {
	Prune(ctx context.Context) (int, error)
}

// Sweeper prunes periodically in the background.
type Sweeper struct {
	pruner Pruner
	log    zerolog.Logger
}

func NewSweeper(p Pruner, log zerolog.Logger) *Sweeper {
	return &Sweeper{pruner: p, log: log.With().Str("component", "retention").Logger()}
}

// Run prunes every interval until ctx is cancelled. A non-positive interval
// disables sweeping and Run returns immediately.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.pruner.Prune(ctx)
			if err != nil {
				s.log.Debug().Err(err).Msg("retention sweep failed")
				continue
			}
			if n > 0 {
				s.log.Info().Int("pruned", n).Msg("retention sweep")
			}
		}
	}
}
