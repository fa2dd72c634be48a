package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"myday/internal/task"
	"myday/internal/ui"
)

// TaskCmd implements the single-task commands: add, done, undone, star,
// postpone, due and rm.
type TaskCmd struct {
	flags *Flags
	app   *App

	// add flags
	addDue       string
	addImportant bool
}

func NewTaskCmd(flags *Flags, app *App) *TaskCmd {
	return &TaskCmd{flags: flags, app: app}
}

// Register adds the task commands to the application.
func (cmd *TaskCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "add",
			Usage:     "Add a task",
			UsageText: "myday add [--due <date>] [--important] <name...>",
			Description: `Adds a task due today unless --due is given.

Due dates accept today, tomorrow, +N (days from today), 2025-05-16 or
"May 16, 2025".

Examples:
  myday add Buy milk
  myday add --due tomorrow --important Call the bank
  myday add --due +3 Renew passport`,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:        "due",
					Aliases:     []string{"d"},
					Usage:       "due date",
					Value:       "today",
					Destination: &cmd.addDue,
				},
				&cli.BoolFlag{
					Name:        "important",
					Aliases:     []string{"i"},
					Usage:       "mark the task important",
					Destination: &cmd.addImportant,
				},
			},
			Action: cmd.runAdd,
		},
		cmd.idCmd("done", "Mark a task completed", cmd.runDone),
		cmd.idCmd("undone", "Mark a task not completed", cmd.runUndone),
		cmd.idCmd("star", "Toggle a task's importance", cmd.runStar),
		cmd.idCmd("postpone", "Move a task's due date one day later", cmd.runPostpone),
		&cli.Command{
			Name:      "due",
			Usage:     "Change a task's due date",
			UsageText: "myday due <id> <date>",
			Action:    cmd.runDue,
		},
		&cli.Command{
			Name:      "rm",
			Aliases:   []string{"delete"},
			Usage:     "Delete a task",
			UsageText: "myday rm <id>",
			Action:    cmd.runRm,
		},
	)
	return app
}

func (cmd *TaskCmd) idCmd(name, usage string, action cli.ActionFunc) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		UsageText: "myday " + name + " <id>",
		Action:    action,
	}
}

func (cmd *TaskCmd) runAdd(ctx context.Context, c *cli.Command) error {
	name := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if name == "" {
		return errors.New("task name is required")
	}
	tasks := cmd.app.Tasks
	due, err := task.ResolveDueDate(cmd.addDue, tasks.Today())
	if err != nil {
		return err
	}
	created, err := tasks.Add(ctx, name, due, cmd.addImportant)
	if err != nil {
		return fmt.Errorf("add task: %w", err)
	}
	_, err = fmt.Fprintln(c.Root().Writer, ui.FormatTask(created))
	return err
}

func (cmd *TaskCmd) runDone(ctx context.Context, c *cli.Command) error {
	return cmd.apply(c, func(id int64) (task.Task, error) {
		return cmd.app.Tasks.SetCompleted(ctx, id, true)
	})
}

func (cmd *TaskCmd) runUndone(ctx context.Context, c *cli.Command) error {
	return cmd.apply(c, func(id int64) (task.Task, error) {
		return cmd.app.Tasks.SetCompleted(ctx, id, false)
	})
}

func (cmd *TaskCmd) runStar(ctx context.Context, c *cli.Command) error {
	return cmd.apply(c, func(id int64) (task.Task, error) {
		return cmd.app.Tasks.ToggleImportance(ctx, id)
	})
}

func (cmd *TaskCmd) runPostpone(ctx context.Context, c *cli.Command) error {
	return cmd.apply(c, func(id int64) (task.Task, error) {
		return cmd.app.Tasks.Postpone(ctx, id)
	})
}

func (cmd *TaskCmd) runDue(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() != 2 {
		return errors.New("usage: myday due <id> <date>")
	}
	due, err := task.ResolveDueDate(c.Args().Get(1), cmd.app.Tasks.Today())
	if err != nil {
		return err
	}
	return cmd.apply(c, func(id int64) (task.Task, error) {
		return cmd.app.Tasks.Reschedule(ctx, id, due)
	})
}

func (cmd *TaskCmd) runRm(ctx context.Context, c *cli.Command) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := cmd.app.Tasks.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	_, err = fmt.Fprintf(c.Root().Writer, "deleted %d\n", id)
	return err
}

// apply runs fn on the task named by the first argument and prints the result.
func (cmd *TaskCmd) apply(c *cli.Command, fn func(id int64) (task.Task, error)) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	updated, err := fn(id)
	if errors.Is(err, task.ErrNotFound) {
		return fmt.Errorf("task %d not found", id)
	}
	if err != nil {
		return fmt.Errorf("%s task %d: %w", c.Name, id, err)
	}
	_, err = fmt.Fprintln(c.Root().Writer, ui.FormatTask(updated))
	return err
}

func parseID(c *cli.Command) (int64, error) {
	arg := c.Args().First()
	if arg == "" {
		return 0, errors.New("task id is required")
	}
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", arg)
	}
	return id, nil
}
