// Package commands implements the grdesk CLI.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/grdesk/internal/config"
	"git.home.luguber.info/inful/grdesk/internal/eventstore"
	"git.home.luguber.info/inful/grdesk/internal/modules/common"
	"git.home.luguber.info/inful/grdesk/internal/modules/stuff"
	"git.home.luguber.info/inful/grdesk/internal/observability"
	"git.home.luguber.info/inful/grdesk/internal/receipts"
	"git.home.luguber.info/inful/grdesk/internal/store"
)

// Global is shared with every command.
type Global struct {
	Logger *slog.Logger
	Level  *slog.LevelVar
	Out    io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"grdesk.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Serve   ServeCmd   `cmd:"" help:"Run the HTTP service"`
	State   StateCmd   `cmd:"" help:"Print the state rebuilt from the action journal"`
	Journal JournalCmd `cmd:"" help:"Inspect the action journal"`
	Modules ModulesCmd `cmd:"" help:"List the registration table"`
	Init    InitCmd    `cmd:"" help:"Write a default configuration file"`
}

// AfterApply runs after flag parsing; sets up logging once. serve replaces
// the handler with the configured format.
func (c *CLI) AfterApply(g *Global) error {
	g.Level = new(slog.LevelVar)
	if c.Verbose {
		g.Level.Set(slog.LevelDebug)
	}
	if g.Out == nil {
		g.Out = os.Stdout
	}
	g.Logger = newLogger(config.LogFormatText, g.Level)
	slog.SetDefault(g.Logger)
	return nil
}

func newLogger(format config.LogFormat, level *slog.LevelVar) *slog.Logger {
	return slog.New(observability.NewContextHandler(config.NewHandler(os.Stderr, format, level)))
}

// applyLogging switches the global logger to the configured format and
// level. -v keeps debug.
func applyLogging(g *Global, cfg *config.Config, verbose bool) {
	if !verbose {
		g.Level.Set(cfg.Logging.Level.Slog())
	}
	g.Logger = newLogger(cfg.Logging.Format, g.Level)
	slog.SetDefault(g.Logger)
}

// offlineStore builds a container with the built-ins and every feature
// slice, replaying the journal at path when it is set.
func offlineStore(ctx context.Context, path string, logger *slog.Logger) (*store.Store, error) {
	s, err := store.New([]store.Module{common.Slice.Module(), stuff.Slice.Module()}, store.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if err := receipts.NewFeature(s, logger).Activate(); err != nil {
		return nil, err
	}
	if path == "" {
		return s, nil
	}
	j, err := eventstore.NewSQLiteJournal(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = j.Close() }()
	if _, err := eventstore.Replay(ctx, j, s, logger); err != nil {
		return nil, err
	}
	return s, nil
}
