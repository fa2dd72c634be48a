package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"myday/internal/calendar"
)

type CalendarCmd struct {
	flags *Flags
	app   *App
}

func NewCalendarCmd(flags *Flags, app *App) *CalendarCmd {
	return &CalendarCmd{flags: flags, app: app}
}

func (cmd *CalendarCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "calendar",
		Usage: "Google Calendar mirroring",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authorize myday to manage calendar events",
				Description: `Reads the OAuth client from credentials_file, prints a consent URL and
stores the resulting token at token_file. Set calendar.backend = "google"
in the config to start mirroring.`,
				Action: cmd.runLogin,
			},
		},
	})
	return app
}

func (cmd *CalendarCmd) runLogin(ctx context.Context, c *cli.Command) error {
	cfg := cmd.app.Config.Calendar
	conf, err := calendar.LoadOAuthConfig(cfg.CredentialsFile)
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}
	return calendar.Login(ctx, conf, cfg.TokenFile, os.Stdin, c.Root().Writer)
}
