package ui

import (
	"errors"
	"strings"

	"myday/internal/task"
)

type addInput struct {
	name      string
	due       task.DueDate
	important bool
}

// parseAddInput reads "name | due | !". The due part is resolved with
// task.ResolveDueDate and defaults to today. A "!" part, or a trailing "!" on
// a bare name, marks the task important.
func parseAddInput(s string, today task.DueDate) (addInput, error) {
	parts := strings.Split(s, "|")
	in := addInput{due: today}

	name := strings.TrimSpace(parts[0])
	if strings.HasSuffix(name, "!") && len(parts) == 1 {
		in.important = true
		name = strings.TrimSpace(strings.TrimSuffix(name, "!"))
	}
	if name == "" {
		return addInput{}, errors.New("title cannot be empty")
	}
	in.name = name

	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		switch {
		case p == "":
		case p == "!":
			in.important = true
		default:
			due, err := task.ResolveDueDate(p, today)
			if err != nil {
				return addInput{}, err
			}
			in.due = due
		}
	}
	return in, nil
}
