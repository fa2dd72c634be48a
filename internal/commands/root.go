package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// NewRootCmd builds the myday command tree. Running it with no subcommand
// opens the terminal UI.
func NewRootCmd(version string) *cli.Command {
	var (
		flags = &Flags{}
		app   = &App{}
	)

	root := &cli.Command{
		Name:      "myday",
		Usage:     "Plan your day from the terminal",
		UsageText: "myday [global options] [command [command options]]",
		Description: `myday keeps a local list of dated to-do tasks and optionally mirrors them
to Google Calendar as all-day events.

Run 'myday' with no arguments to open the interactive task manager.`,
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("MYDAY_CONFIG"),
				Value:       DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, disabled); overrides log_level in the config",
				Sources:     cli.EnvVars("MYDAY_LOG_LEVEL"),
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "metrics-addr",
				Usage:       "serve Prometheus metrics on this address, e.g. :9090",
				Sources:     cli.EnvVars("MYDAY_METRICS_ADDR"),
				Destination: &flags.MetricsAddr,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, app.Open(ctx, flags)
		},
		After: func(ctx context.Context, c *cli.Command) error {
			return app.Close()
		},
	}

	tuiCmd := NewTuiCmd(flags, app)

	root = NewTaskCmd(flags, app).Register(root)
	root = NewLsCmd(flags, app).Register(root)
	root = NewReportCmd(flags, app).Register(root)
	root = NewMaintenanceCmd(flags, app).Register(root)
	root = NewCalendarCmd(flags, app).Register(root)

	root.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 0 {
			return fmt.Errorf("unknown command %q. Run 'myday --help' for usage", c.Args().First())
		}
		return tuiCmd.Run(ctx, c)
	}

	return root
}
