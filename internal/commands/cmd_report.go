package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"myday/internal/report"
)

type ReportCmd struct {
	flags *Flags
	app   *App

	filter string
	watch  bool
}

func NewReportCmd(flags *Flags, app *App) *ReportCmd {
	return &ReportCmd{flags: flags, app: app}
}

func (cmd *ReportCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "report",
		Usage:     "Summarise upcoming, overdue and completed tasks",
		UsageText: "myday report [--filter all|1w|2w] [--watch]",
		Description: `Prints task counts per status and the completion percentage.

The 1w and 2w filters only count tasks due within the last one or two weeks.
With --watch the report is printed again after every change until interrupted.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "filter",
				Aliases:     []string{"f"},
				Usage:       "date window: all, 1w or 2w",
				Value:       "all",
				Destination: &cmd.filter,
			},
			&cli.BoolFlag{
				Name:        "watch",
				Aliases:     []string{"w"},
				Usage:       "keep printing as tasks change",
				Destination: &cmd.watch,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *ReportCmd) run(ctx context.Context, c *cli.Command) error {
	f, err := report.ParseFilter(cmd.filter)
	if err != nil {
		return err
	}
	svc := cmd.app.Tasks
	out := c.Root().Writer

	if !cmd.watch {
		tasks, err := svc.List(ctx)
		if err != nil {
			return fmt.Errorf("list tasks: %w", err)
		}
		return printReport(out, report.Summarize(tasks, f, svc.Today()))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for res := range report.Watch(ctx, svc.Subscribe(ctx), nil, f, nil) {
		if err := printReport(out, res); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}
	return nil
}

func printReport(w io.Writer, res report.Result) error {
	if _, err := fmt.Fprintf(w, "%s\n", res.Filter.Label()); err != nil {
		return err
	}
	for _, s := range res.Summaries {
		if _, err := fmt.Fprintf(w, "  %-16s %3d  (%d important)\n", s.Name, s.Total, s.Important); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "  Completion       %.0f%% of %d\n", res.CompletionPercent, res.Total)
	return err
}
