// Package views derives the task subsets shown by each screen. Every function
// is pure: it filters the snapshot it is given, keeps the store's ordering and
// excludes tasks whose due date cannot be parsed from date-based buckets.
package views

import (
	"strings"

	"myday/internal/task"
)

// PlanFilter selects a bucket of the planning view.
type PlanFilter int

const (
	PlanThisWeek PlanFilter = iota
	PlanTomorrow
	PlanOutOfDate
)

func (f PlanFilter) String() string {
	switch f {
	case PlanThisWeek:
		return "This Week"
	case PlanTomorrow:
		return "Tomorrow"
	case PlanOutOfDate:
		return "Out of date"
	default:
		return "unknown"
	}
}

// Next cycles through the plan filters.
func (f PlanFilter) Next() PlanFilter {
	return (f + 1) % 3
}

// EndOfWeek returns the Sunday closing today's ISO week.
func EndOfWeek(today task.DueDate) task.DueDate {
	return today.AddDays(7 - today.ISOWeekday())
}

// Today returns tasks due today, completed or not.
func Today(tasks []task.Task, today task.DueDate) []task.Task {
	return filter(tasks, func(t task.Task) bool {
		return t.Due.Equal(today)
	})
}

// ThisWeek returns open tasks due between today and the end of the week.
func ThisWeek(tasks []task.Task, today task.DueDate) []task.Task {
	end := EndOfWeek(today)
	return filter(tasks, func(t task.Task) bool {
		return !t.Completed && t.Due.Between(today, end)
	})
}

// Tomorrow returns open tasks due tomorrow.
func Tomorrow(tasks []task.Task, today task.DueDate) []task.Task {
	tomorrow := today.AddDays(1)
	return filter(tasks, func(t task.Task) bool {
		return !t.Completed && t.Due.Equal(tomorrow)
	})
}

// OutOfDate returns open tasks due before today.
func OutOfDate(tasks []task.Task, today task.DueDate) []task.Task {
	return filter(tasks, func(t task.Task) bool {
		return !t.Completed && t.Due.Before(today)
	})
}

// Plan dispatches to the bucket selected by f.
func Plan(tasks []task.Task, today task.DueDate, f PlanFilter) []task.Task {
	switch f {
	case PlanTomorrow:
		return Tomorrow(tasks, today)
	case PlanOutOfDate:
		return OutOfDate(tasks, today)
	default:
		return ThisWeek(tasks, today)
	}
}

// Important returns important tasks regardless of date.
func Important(tasks []task.Task) []task.Task {
	return filter(tasks, func(t task.Task) bool {
		return t.Important
	})
}

// Expired returns tasks due more than days before today.
func Expired(tasks []task.Task, today task.DueDate, days int) []task.Task {
	cutoff := today.AddDays(-days)
	return filter(tasks, func(t task.Task) bool {
		return t.Due.Before(cutoff)
	})
}

// Retained returns tasks due no more than days before today.
func Retained(tasks []task.Task, today task.DueDate, days int) []task.Task {
	cutoff := today.AddDays(-days)
	return filter(tasks, func(t task.Task) bool {
		return t.Due.Valid() && !t.Due.Before(cutoff)
	})
}

// Search matches query against task names, ignoring case. An empty query
// matches everything.
func Search(tasks []task.Task, query string) []task.Task {
	q := strings.ToLower(query)
	return filter(tasks, func(t task.Task) bool {
		return strings.Contains(strings.ToLower(t.Name), q)
	})
}

// All is the all-tasks screen: retained tasks matching query.
func All(tasks []task.Task, today task.DueDate, days int, query string) []task.Task {
	return Search(Retained(tasks, today, days), query)
}

func filter(tasks []task.Task, keep func(task.Task) bool) []task.Task {
	out := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}
