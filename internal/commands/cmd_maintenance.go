package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"
)

// MaintenanceCmd groups the explicit housekeeping passes.
type MaintenanceCmd struct {
	flags *Flags
	app   *App
}

func NewMaintenanceCmd(flags *Flags, app *App) *MaintenanceCmd {
	return &MaintenanceCmd{flags: flags, app: app}
}

func (cmd *MaintenanceCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:   "reconcile",
			Usage:  "Recompute the overdue flag of every task",
			Action: cmd.runReconcile,
		},
		&cli.Command{
			Name:  "prune",
			Usage: "Delete tasks more than retention_days past their due date",
			Description: `Deletes expired tasks and their calendar events.

Set sweep_interval in the config to prune periodically while myday runs.`,
			Action: cmd.runPrune,
		},
		&cli.Command{
			Name:   "seed",
			Usage:  "Insert sample tasks around today",
			Action: cmd.runSeed,
		},
	)
	return app
}

func (cmd *MaintenanceCmd) runReconcile(ctx context.Context, c *cli.Command) error {
	res, err := cmd.app.Tasks.Reconcile(ctx)
	if err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}
	_, err = fmt.Fprintf(c.Root().Writer, "checked %d, updated %d, skipped %d\n", res.Checked, res.Updated, res.Skipped)
	return err
}

func (cmd *MaintenanceCmd) runPrune(ctx context.Context, c *cli.Command) error {
	n, err := cmd.app.Tasks.Prune(ctx)
	if err != nil {
		return fmt.Errorf("prune: %w", err)
	}
	_, err = fmt.Fprintf(c.Root().Writer, "pruned %d tasks\n", n)
	return err
}

func (cmd *MaintenanceCmd) runSeed(ctx context.Context, c *cli.Command) error {
	if err := cmd.app.Store.Seed(ctx, time.Now()); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	_, err := fmt.Fprintln(c.Root().Writer, "seeded sample tasks")
	return err
}
