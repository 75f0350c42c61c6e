package internal

import (
	"io"

	"github.com/starford/raido/internal/prompt"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config   *Config
	prompter prompt.Prompter
	out      io.Writer
	args     []string
	version  string
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithPrompter replaces the terminal prompts, e.g. with prompt.Scripted.
func WithPrompter(p prompt.Prompter) Option {
	return func(a *application) {
		a.prompter = p
	}
}

// WithOutput sets where operator-facing output is written.
func WithOutput(w io.Writer) Option {
	return func(a *application) {
		a.out = w
	}
}

// WithArgs passes the positional arguments of the command.
func WithArgs(args ...string) Option {
	return func(a *application) {
		a.args = args
	}
}

// WithVersion sets the version reported by the MCP server.
func WithVersion(v string) Option {
	return func(a *application) {
		a.version = v
	}
}
