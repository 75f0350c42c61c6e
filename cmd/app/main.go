package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/raido/internal"
	"github.com/starford/raido/internal/apperr"
	pkgconfig "github.com/starford/raido/pkg/config"
)

var version = "dev"

func action(command string) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		configPath := cmd.String("config")

		cfg := internal.NewDefaultConfig()
		found, err := pkgconfig.LoadOptional(configPath, cfg)
		if err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}
		if root := cmd.String("root"); root != "" {
			cfg.Site.Root = root
		}
		slog.Debug("config", slog.String("path", configPath), slog.Bool("found", found))

		opts := []internal.Option{
			internal.WithConfig(cfg),
			internal.WithArgs(cmd.Args().Slice()...),
			internal.WithVersion(version),
		}

		if err := internal.Run(ctx, command, opts...); err != nil {
			return fmt.Errorf("%s: %w", command, err)
		}
		return nil
	}
}

func subcommand(name, usage string) *cli.Command {
	return &cli.Command{Name: name, Usage: usage, Action: action(name)}
}

func main() {
	cmd := &cli.Command{
		Name:    "raido",
		Usage:   "Keep the post catalog of a React portfolio site in sync across its page files",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "raido.yaml",
				Value:       "raido.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Site root, overrides site.root",
				Sources: cli.EnvVars("RAIDO_SITE_ROOT"),
			},
		},
		Commands: []*cli.Command{
			subcommand(internal.CommandWriteup, "Create a new writeup and register it in every view"),
			subcommand(internal.CommandRemove, "Remove a writeup, its files and its records"),
			subcommand(internal.CommandTags, "Add, remove or replace the tags of a post"),
			subcommand(internal.CommandRetag, "Rebuild the tags collection from the canonical posts"),
			subcommand(internal.CommandIndex, "Refresh the search index"),
			{
				Name:      internal.CommandSearch,
				Usage:     "Search posts by title, excerpt and tags",
				ArgsUsage: "<query>",
				Action:    action(internal.CommandSearch),
			},
			subcommand(internal.CommandWatch, "Rebuild tags and the index whenever a page file changes"),
			subcommand(internal.CommandServe, "Serve the read API and change events over HTTP"),
			subcommand(internal.CommandMCP, "Serve the catalog to LLM clients over MCP stdio"),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Present() {
				_ = cli.ShowAppHelp(cmd)
				return fmt.Errorf("unknown command %q", cmd.Args().First())
			}
			return cli.ShowAppHelp(cmd)
		},
	}

	if code := exit(os.Stdout, cmd.Run(context.Background(), os.Args)); code != 0 {
		os.Exit(code)
	}
}

// exit reports err and returns the process exit code. An operator abort,
// whether a declined removal or Ctrl-C at any prompt, is not a failure.
func exit(w io.Writer, err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, apperr.ErrUnconfirmed):
		fmt.Fprintln(w, "cancelled")
		return 0
	}
	slog.Error("application error", slog.String("error", err.Error()))
	return 1
}
