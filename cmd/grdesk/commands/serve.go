package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/grdesk/internal/config"
	"git.home.luguber.info/inful/grdesk/internal/daemon"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Addr    string `help:"Override server.addr"`
	NoWatch bool   `name:"no-watch" help:"Do not reload the configuration file on change"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	if s.Addr != "" {
		cfg.Server.Addr = s.Addr
	}
	applyLogging(g, cfg, root.Verbose)

	opts := daemon.Options{Level: g.Level, PinLevel: root.Verbose, Logger: g.Logger}
	if !s.NoWatch {
		opts.ConfigPath = root.Config
	}
	d, err := daemon.New(cfg, opts)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runErr := d.Start(ctx)
	if runErr == nil {
		g.Logger.Info("Shutdown signal received, stopping")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer stopCancel()
	if err := d.Stop(stopCtx); err != nil {
		g.Logger.Error("Shutdown incomplete", slog.Any("error", err))
	}
	if runErr != nil {
		return fmt.Errorf("serve: %w", runErr)
	}
	return nil
}
