// Package status reconciles the cached overdue flag of stored tasks against
// the current calendar day.
package status

import (
	"context"
	"fmt"

	"myday/internal/task"
)

// Store is the subset of the task store a reconciliation pass needs.
type Store interface {
	All(ctx context.Context) ([]task.Task, error)
	UpdateOverdue(ctx context.Context, id int64, overdue bool) error
}

// Result describes what a pass did.
type Result struct {
	Checked int // tasks with a valid due date
	Updated int // tasks whose stored flag changed
	Skipped int // tasks with an unparseable due date, left as-is
}

// Reconcile recomputes Overdue for every task with a valid due date and
// writes the flag alone for tasks whose stored value differs, so concurrent
// edits to other fields are never overwritten. today is captured once by the
// caller so a pass straddling midnight stays consistent.
func Reconcile(ctx context.Context, store Store, today task.DueDate) (Result, error) {
	var res Result

	tasks, err := store.All(ctx)
	if err != nil {
		return res, fmt.Errorf("load tasks for reconcile: %w", err)
	}

	for _, t := range tasks {
		if !t.Due.Valid() {
			res.Skipped++
			continue
		}
		res.Checked++

		want := t.OverdueOn(today)
		if t.Overdue == want {
			continue
		}
		if err := store.UpdateOverdue(ctx, t.ID, want); err != nil {
			return res, fmt.Errorf("update overdue flag for task %d: %w", t.ID, err)
		}
		res.Updated++
	}

	return res, nil
}
