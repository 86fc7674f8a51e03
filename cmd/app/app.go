package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/starford/minutebook/internal"
	"github.com/starford/minutebook/internal/mcpserver"
	pkgconfig "github.com/starford/minutebook/pkg/config"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "minutebook",
		Usage: "Meeting minutes for recurring meeting series, stored as XML on disk",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file (.yaml or .toml)",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			mcpCommand(),
			treeCommand(),
			projectCommand(),
			trackCommand(),
			meetingCommand(),
			searchCommand(),
		},
	}
}

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOrDefault(cmd.Root().String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// openRuntime opens the store for a one-shot command. Log records only go to
// the log file so command output stays clean.
func openRuntime(cmd *cli.Command, console io.Writer) (*internal.Runtime, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	logger, logFile, err := internal.NewLogger(cfg.App.LogLevel, cfg.Data.Root, console)
	if err != nil {
		return nil, nil, err
	}
	rt, err := internal.Open(cfg, logger)
	if err != nil {
		logFile.Close()
		return nil, nil, err
	}
	return rt, func() {
		rt.Close()
		logFile.Close()
	}, nil
}

// withRuntime runs fn against an opened runtime.
func withRuntime(fn func(ctx context.Context, cmd *cli.Command, rt *internal.Runtime) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		rt, done, err := openRuntime(cmd, io.Discard)
		if err != nil {
			return err
		}
		defer done()
		return fn(ctx, cmd, rt)
	}
}

func out(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the REST API with live index updates",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "seed", Usage: "Create a demo project when the data root is empty"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := internal.Run(ctx, internal.WithConfig(cfg), internal.WithSeed(cmd.Bool("seed"))); err != nil {
				return fmt.Errorf("app run error: %w", err)
			}
			return nil
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve MCP tools over stdio",
		Action: func(_ context.Context, cmd *cli.Command) error {
			// stdout carries the protocol, so logs go to stderr and the log file.
			rt, done, err := openRuntime(cmd, os.Stderr)
			if err != nil {
				return err
			}
			defer done()
			return mcpserver.New(rt.Service).ServeStdio()
		},
	}
}
