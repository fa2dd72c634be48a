// Package report summarizes task completion over a trailing window.
package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"myday/internal/task"
)

// Filter is the reporting window.
type Filter int

const (
	All Filter = iota
	LastOneWeek
	LastTwoWeeks
)

// ParseFilter accepts "all", "1w" and "2w".
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return All, nil
	case "1w":
		return LastOneWeek, nil
	case "2w":
		return LastTwoWeeks, nil
	default:
		return All, fmt.Errorf("unknown report filter %q (want all, 1w or 2w)", s)
	}
}

func (f Filter) String() string {
	switch f {
	case LastOneWeek:
		return "1w"
	case LastTwoWeeks:
		return "2w"
	default:
		return "all"
	}
}

// Label is the human-readable window name.
func (f Filter) Label() string {
	switch f {
	case LastOneWeek:
		return "Last week"
	case LastTwoWeeks:
		return "Last two weeks"
	default:
		return "All time"
	}
}

// Next cycles through the filters.
func (f Filter) Next() Filter {
	return (f + 1) % 3
}

func (f Filter) weeks() int {
	switch f {
	case LastOneWeek:
		return 1
	case LastTwoWeeks:
		return 2
	default:
		return 0
	}
}

const (
	Upcoming  = "Upcoming Tasks"
	Overdue   = "Overdue Tasks"
	Completed = "Completed Tasks"
)

// StatusSummary counts the tasks in one bucket.
type StatusSummary struct {
	Name      string
	Total     int
	Important int
}

// Result is a full report. Summaries are always Upcoming, Overdue, Completed.
type Result struct {
	Filter            Filter
	Summaries         []StatusSummary
	CompletionPercent float64
	// Total is the size of the relevant set. Under All an incomplete task with
	// an unparseable due date is counted here but sits in no bucket, so the
	// bucket totals can sum to less than Total.
	Total int
}

// Summary returns the bucket with the given name.
func (r Result) Summary(name string) StatusSummary {
	for _, s := range r.Summaries {
		if s.Name == name {
			return s
		}
	}
	return StatusSummary{Name: name}
}

// Summarize builds the report for tasks relative to today.
//
// Outside the All filter, only tasks due within [today - N weeks, today] are
// relevant and unparseable dates are dropped. Under All every task is
// relevant; one with an unparseable date still counts when completed but
// falls in neither the overdue nor the upcoming bucket.
func Summarize(tasks []task.Task, f Filter, today task.DueDate) Result {
	relevant := tasks
	if w := f.weeks(); w > 0 {
		from := today.AddDays(-7 * w)
		relevant = make([]task.Task, 0, len(tasks))
		for _, t := range tasks {
			if t.Due.Between(from, today) {
				relevant = append(relevant, t)
			}
		}
	}

	upcoming := StatusSummary{Name: Upcoming}
	overdue := StatusSummary{Name: Overdue}
	completed := StatusSummary{Name: Completed}

	for _, t := range relevant {
		var s *StatusSummary
		switch {
		case t.Completed:
			s = &completed
		case !t.Due.Valid():
			continue
		case t.Due.Before(today):
			s = &overdue
		default:
			s = &upcoming
		}
		s.Total++
		if t.Important {
			s.Important++
		}
	}

	res := Result{
		Filter:    f,
		Summaries: []StatusSummary{upcoming, overdue, completed},
		Total:     len(relevant),
	}
	if len(relevant) > 0 {
		res.CompletionPercent = float64(completed.Total) / float64(len(relevant)) * 100
	}
	return res
}

// Watch recomputes the report whenever a new snapshot or filter arrives,
// always combining the latest of each. The returned channel is closed when ctx
// is done or snapshots is closed. Results are not emitted until the first
// snapshot arrives.
func Watch(ctx context.Context, snapshots <-chan []task.Task, filters <-chan Filter, initial Filter, now func() time.Time) <-chan Result {
	if now == nil {
		now = time.Now
	}
	out := make(chan Result, 1)

	go func() {
		defer close(out)

		var (
			latest []task.Task
			seen   bool
			filter = initial
		)
		for {
			select {
			case <-ctx.Done():
				return
			case snap, ok := <-snapshots:
				if !ok {
					return
				}
				latest, seen = snap, true
			case f, ok := <-filters:
				if !ok {
					filters = nil
					continue
				}
				filter = f
			}
			if !seen {
				continue
			}

			res := Summarize(latest, filter, task.DateOf(now()))
			select {
			case out <- res:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
