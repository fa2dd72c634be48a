package commands

import (
	"context"

	"github.com/urfave/cli/v3"

	"myday/internal/ui"
)

type TuiCmd struct {
	flags *Flags
	app   *App
}

func NewTuiCmd(flags *Flags, app *App) *TuiCmd {
	return &TuiCmd{flags: flags, app: app}
}

// Run opens the interactive task manager and blocks until it exits.
func (cmd *TuiCmd) Run(ctx context.Context, _ *cli.Command) error {
	return ui.Run(ctx, cmd.app.Tasks, cmd.app.Config)
}
