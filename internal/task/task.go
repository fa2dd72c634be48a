// Package task defines the to-do task domain model shared by the store, the
// bucket engine, reports and the calendar mirror.
package task

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a task does not exist.
	ErrNotFound = errors.New("task not found")
	// ErrEmptyName is returned when a task name is blank.
	ErrEmptyName = errors.New("task name is empty")
)

// Task is a single to-do item.
//
// Overdue is a cached value written by the reconciliation pass and may be stale
// between passes. Use OverdueOn when the current answer is needed.
type Task struct {
	ID        int64
	Name      string
	CreatedAt string // unix milliseconds as decimal text
	Due       DueDate
	Important bool
	Completed bool
	Overdue   bool
}

// OverdueOn reports whether the task is overdue relative to today.
func (t Task) OverdueOn(today DueDate) bool {
	return !t.Completed && t.Due.Before(today)
}

// Validate checks the fields a task must carry before it is stored.
func (t Task) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// CreationStamp encodes now the way CreatedAt is stored.
func CreationStamp(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10)
}

// DeletedSnapshot remembers a deleted task and where it was shown so the
// deletion can be undone once within the offer window.
type DeletedSnapshot struct {
	Task      Task
	Position  int
	DeletedAt time.Time
}

// Expired reports whether the undo offer window has passed.
func (s DeletedSnapshot) Expired(now time.Time, window time.Duration) bool {
	return now.Sub(s.DeletedAt) > window
}
