package views

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"myday/internal/task"
)

func names(tasks []task.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Name)
	}
	return out
}

// June 10 2025 is a Tuesday; the week ends on Sunday June 15.
var today = task.Date(2025, time.June, 10)

func fixture() []task.Task {
	return []task.Task{
		{ID: 1, Name: "due today", Due: today},
		{ID: 2, Name: "done today", Due: today, Completed: true},
		{ID: 3, Name: "tomorrow", Due: today.AddDays(1), Important: true},
		{ID: 4, Name: "sunday", Due: task.Date(2025, time.June, 15)},
		{ID: 5, Name: "next monday", Due: task.Date(2025, time.June, 16)},
		{ID: 6, Name: "yesterday", Due: today.AddDays(-1), Important: true},
		{ID: 7, Name: "done yesterday", Due: today.AddDays(-1), Completed: true},
		{ID: 8, Name: "broken", Due: task.ParseDueDate("16/05/2025"), Important: true},
		{ID: 9, Name: "May 1 task", Due: task.Date(2025, time.May, 1)},
	}
}

func TestEndOfWeek(t *testing.T) {
	cases := []struct {
		day  task.DueDate
		want task.DueDate
	}{
		{task.Date(2025, time.June, 9), task.Date(2025, time.June, 15)},
		{today, task.Date(2025, time.June, 15)},
		{task.Date(2025, time.June, 15), task.Date(2025, time.June, 15)},
		{task.Date(2025, time.December, 31), task.Date(2026, time.January, 4)},
	}
	for _, c := range cases {
		t.Run(c.day.String(), func(t *testing.T) {
			assert.True(t, EndOfWeek(c.day).Equal(c.want), "got %s", EndOfWeek(c.day))
		})
	}
}

func TestBuckets(t *testing.T) {
	tasks := fixture()

	cases := []struct {
		name string
		got  []task.Task
		want []string
	}{
		{"today includes completed", Today(tasks, today), []string{"due today", "done today"}},
		{"this week", ThisWeek(tasks, today), []string{"due today", "tomorrow", "sunday"}},
		{"tomorrow", Tomorrow(tasks, today), []string{"tomorrow"}},
		{"out of date", OutOfDate(tasks, today), []string{"yesterday", "May 1 task"}},
		{"important ignores dates", Important(tasks), []string{"tomorrow", "yesterday", "broken"}},
		{"plan this week", Plan(tasks, today, PlanThisWeek), []string{"due today", "tomorrow", "sunday"}},
		{"plan tomorrow", Plan(tasks, today, PlanTomorrow), []string{"tomorrow"}},
		{"plan out of date", Plan(tasks, today, PlanOutOfDate), []string{"yesterday", "May 1 task"}},
		{"expired", Expired(tasks, today, 14), []string{"May 1 task"}},
		{"search ignores case", Search(tasks, "TODAY"), []string{"due today", "done today"}},
		{"empty search matches all", Search(tasks, ""), names(tasks)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, names(c.got))
		})
	}
}

func TestRetainedAndExpiredPartitionValidDates(t *testing.T) {
	tasks := fixture()
	retained := Retained(tasks, today, 14)
	expired := Expired(tasks, today, 14)

	assert.NotContains(t, names(retained), "May 1 task")
	assert.NotContains(t, names(retained), "broken")
	assert.Len(t, retained, len(tasks)-2)
	assert.Len(t, expired, 1)
}

func TestRetentionBoundary(t *testing.T) {
	tasks := []task.Task{
		{Name: "exactly 14 days", Due: today.AddDays(-14)},
		{Name: "15 days", Due: today.AddDays(-15)},
	}
	assert.Equal(t, []string{"exactly 14 days"}, names(Retained(tasks, today, 14)))
	assert.Equal(t, []string{"15 days"}, names(Expired(tasks, today, 14)))
}

func TestAllAppliesSearchToRetained(t *testing.T) {
	got := All(fixture(), today, 14, "task")
	assert.Empty(t, got)

	got = All(fixture(), today, 14, "day")
	assert.Equal(t, []string{"due today", "done today", "sunday", "next monday", "yesterday", "done yesterday"}, names(got))
}

func TestViewsAreIdempotent(t *testing.T) {
	tasks := fixture()
	assert.Equal(t, ThisWeek(tasks, today), ThisWeek(ThisWeek(tasks, today), today))
	assert.Equal(t, ThisWeek(tasks, today), ThisWeek(tasks, today))
	assert.Equal(t, Important(tasks), Important(Important(tasks)))
}

func TestCompletingTaskRemovesItFromThisWeek(t *testing.T) {
	tasks := []task.Task{{ID: 1, Name: "Finish slides", Due: today}}
	assert.Len(t, ThisWeek(tasks, today), 1)

	tasks[0].Completed = true
	assert.Empty(t, ThisWeek(tasks, today))
	assert.Len(t, Today(tasks, today), 1)
}

func TestPlanFilterCycle(t *testing.T) {
	f := PlanThisWeek
	f = f.Next()
	assert.Equal(t, PlanTomorrow, f)
	f = f.Next()
	assert.Equal(t, PlanOutOfDate, f)
	assert.Equal(t, PlanThisWeek, f.Next())
	assert.Equal(t, "Out of date", f.String())
}
