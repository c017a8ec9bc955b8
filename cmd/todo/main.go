package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"todoapp/internal/logging"
)

type flags struct {
	Server   string
	LogLevel string
	LogFile  string
	Rollback string
}

func main() {
	var (
		f         flags
		logCloser = func() {}
	)

	cmds := &commands{flags: &f}

	app := &cli.Command{
		Name:      "todo",
		Usage:     "Manage to-do items on a todo API server",
		UsageText: "todo [global options] command [command options]",
		Description: `todo talks to the item API over HTTP.

Run 'todo tui' for the interactive list, or use the subcommands for
one-off changes.

Examples:
  todo list
  todo add "Buy milk"
  todo toggle 3
  todo edit 3 "Buy oat milk"
  todo rm 3`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "server",
				Aliases:     []string{"s"},
				Usage:       "base URL of the todo API",
				Sources:     cli.EnvVars("TODO_API_URL"),
				Value:       "http://localhost:5000",
				Destination: &f.Server,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error)",
				Sources:     cli.EnvVars("TODO_LOG_LEVEL"),
				Value:       "warn",
				Destination: &f.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file",
				Sources:     cli.EnvVars("TODO_CLI_LOG_FILE"),
				Value:       filepath.Join(os.TempDir(), "todo-cli.log"),
				Destination: &f.LogFile,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logger, closer, err := logging.New(f.LogLevel, f.LogFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			logCloser()
			return nil
		},
		Commands: cmds.all(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fail(err.Error())
		os.Exit(1)
	}
}
