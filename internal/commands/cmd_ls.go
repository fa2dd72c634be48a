package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"myday/internal/report"
	"myday/internal/task"
	"myday/internal/ui"
	"myday/internal/views"
)

type LsCmd struct {
	flags *Flags
	app   *App

	// flags
	view   string
	plan   string
	search string
}

// NewLsCmd creates a new ls command
func NewLsCmd(flags *Flags, app *App) *LsCmd {
	return &LsCmd{flags: flags, app: app}
}

// Register adds the ls command to the application
func (cmd *LsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "ls",
		Aliases:   []string{"list"},
		Usage:     "List tasks in a view",
		UsageText: "myday ls [--view <view>] [--plan <bucket>] [--search <text>]",
		Description: `Prints the tasks of one view, one per line.

Views: myday (due today), important, plan, all (hides tasks more than
retention_days past due), report. Defaults to default_view from the config.

Examples:
  myday ls
  myday ls --view plan --plan tomorrow
  myday ls --view all --search milk`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "view",
				Aliases:     []string{"v"},
				Usage:       "myday, important, plan, all or report",
				Destination: &cmd.view,
			},
			&cli.StringFlag{
				Name:        "plan",
				Usage:       "plan bucket: week, tomorrow or overdue",
				Value:       "week",
				Destination: &cmd.plan,
			},
			&cli.StringFlag{
				Name:        "search",
				Aliases:     []string{"s"},
				Usage:       "case-insensitive name filter for the all view",
				Destination: &cmd.search,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *LsCmd) run(ctx context.Context, c *cli.Command) error {
	view := cmd.view
	if view == "" {
		view = cmd.app.Config.DefaultView
	}

	svc := cmd.app.Tasks
	if view == "myday" || view == "important" {
		if _, err := svc.Reconcile(ctx); err != nil {
			return fmt.Errorf("reconcile: %w", err)
		}
	}

	all, err := svc.List(ctx)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}
	today := svc.Today()

	var tasks []task.Task
	switch view {
	case "myday":
		tasks = views.Today(all, today)
	case "important":
		tasks = views.Important(all)
	case "plan":
		f, err := parsePlan(cmd.plan)
		if err != nil {
			return err
		}
		tasks = views.Plan(all, today, f)
	case "all":
		tasks = views.All(all, today, svc.RetentionDays(), cmd.search)
	case "report":
		return printReport(c.Root().Writer, report.Summarize(all, report.All, today))
	default:
		return fmt.Errorf("unknown view %q", view)
	}

	if len(tasks) == 0 {
		fmt.Fprintln(c.Root().ErrWriter, "No tasks found")
		return nil
	}
	for _, t := range tasks {
		if _, err := fmt.Fprintln(c.Root().Writer, ui.FormatTask(t)); err != nil {
			return err
		}
	}
	return nil
}

func parsePlan(s string) (views.PlanFilter, error) {
	switch s {
	case "", "week":
		return views.PlanThisWeek, nil
	case "tomorrow":
		return views.PlanTomorrow, nil
	case "overdue":
		return views.PlanOutOfDate, nil
	default:
		return 0, fmt.Errorf("unknown plan bucket %q (want week, tomorrow or overdue)", s)
	}
}
