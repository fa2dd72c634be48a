// Package calendar mirrors tasks as all-day events on an external calendar.
//
// Mirroring is best effort: the local task store is the source of truth and
// failures here are logged and counted, never returned to the caller that
// changed a task.
package calendar

import (
	"context"
	"errors"
	"strconv"
	"time"

	"myday/internal/task"
)

// TaskIDProperty is the private extended property carrying the task ID on
// mirrored events.
const TaskIDProperty = "myday_task_id"

// ImportantPrefix is prepended to the titles of important tasks.
const ImportantPrefix = "⭐ "

// ErrPermissionDenied is returned when the calendar backend rejects the
// credentials or the calendar is not writable.
var ErrPermissionDenied = errors.New("calendar permission denied")

// Event is a mirrored calendar event.
type Event struct {
	ID     string
	Title  string
	AllDay bool
	Start  time.Time
	End    time.Time
	TaskID string // empty on events created before task IDs were recorded
}

// Query selects events. A non-empty TaskID matches on the task ID alone;
// otherwise events whose title equals Title and whose start lies in
// [From, To) are returned.
type Query struct {
	TaskID string
	Title  string
	From   time.Time
	To     time.Time
}

func (q Query) matches(ev Event) bool {
	if q.TaskID != "" {
		return ev.TaskID == q.TaskID
	}
	return ev.Title == q.Title && !ev.Start.Before(q.From) && ev.Start.Before(q.To)
}

// EventStore is a calendar backend.
type EventStore interface {
	Insert(ctx context.Context, ev Event) (string, error)
	Find(ctx context.Context, q Query) ([]Event, error)
	Delete(ctx context.Context, id string) error
}

// Title is the event title for a task.
func Title(name string, important bool) string {
	if important {
		return ImportantPrefix + name
	}
	return name
}

// DayRange returns UTC midnight of the due day and the following midnight.
func DayRange(due task.DueDate) (time.Time, time.Time) {
	start := due.Time()
	return start, start.AddDate(0, 0, 1)
}

// EventFor builds the event mirroring t. t must have a valid due date.
func EventFor(t task.Task) Event {
	start, end := DayRange(t.Due)
	return Event{
		Title:  Title(t.Name, t.Important),
		AllDay: true,
		Start:  start,
		End:    end,
		TaskID: taskKey(t.ID),
	}
}

func taskKey(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}
