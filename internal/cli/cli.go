// Package cli implements the depsolve command-line interface.
//
// # Commands
//
//   - resolve: resolve a manifest and optionally write or check a lockfile
//   - explain: show how a package's version was selected
//   - why: list the dependency chains that pull a package in
//   - graph: print the resolved graph as a tree, DOT or JSON
//   - cache: inspect or clear the registry cache
//
// Settings come from flags, then depsolve.toml next to the manifest, then
// the manifest's own registries.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// turns on the resolver's own debug events.
package cli

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

const (
	// appName is the application name used for directories and display.
	appName = "depsolve"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// appVersion is set by main from build information.
var appVersion = "dev"

// SetVersion sets the version displayed by --version.
func SetVersion(v string) {
	if v != "" {
		appVersion = v
	}
}

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	out    io.Writer
}

// New creates a CLI that logs to w and writes command output to stdout.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level), out: os.Stdout}
}

// SetOutput redirects command output, for tests.
func (c *CLI) SetOutput(w io.Writer) {
	c.out = w
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// slog returns a structured logger backed by the CLI logger. The
// charmbracelet logger implements slog.Handler.
func (c *CLI) slog() *slog.Logger {
	return slog.New(c.Logger)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "depsolve resolves package dependencies",
		Long:          `depsolve selects one version of every package a manifest needs, or explains which requirements cannot hold together.`,
		Version:       appVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.explainCommand())
	root.AddCommand(c.whyCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.cacheCommand())

	return root
}

// cacheDir returns the cache directory using XDG standard (~/.cache/depsolve/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
