package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/locvowork/mywork_tools/internal/bootstrap"
	"github.com/locvowork/mywork_tools/internal/config"
	"github.com/locvowork/mywork_tools/internal/logger"
)

// appAction loads the configuration and hands a ready App to fn. Everything
// the App opened is closed when fn returns.
func appAction(fn func(ctx context.Context, cmd *cli.Command, app *bootstrap.App) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := config.Load(cmd.Root().String("config"))
		if err != nil {
			return err
		}
		app := bootstrap.NewApp(cfg)
		app.Initialize(ctx)
		defer func() {
			if err := app.Close(); err != nil {
				logger.WarnLog(ctx, "closing: %v", err)
			}
		}()
		return fn(ctx, cmd, app)
	}
}

func main() {
	cmd := &cli.Command{
		Name:  "mywork",
		Usage: "Timecard transfer, paid leave and webmail tools",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to settings file",
				Value:   config.DefaultPath,
				Sources: cli.EnvVars("MYWORK_CONFIG"),
			},
		},
		Commands: []*cli.Command{
			transferCommand(),
			paidLeaveCommand(),
			mailCommand(),
			credentialCommand(),
			serveCommand(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		logger.ErrorLog(ctx, "error: %v", err)
		stop()
		os.Exit(1)
	}
}
