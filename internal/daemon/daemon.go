// Package daemon assembles the grdesk runtime: container, journal, event
// bus, broadcaster, scheduler, goods-receipt surface and HTTP API.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/grdesk/internal/api"
	"git.home.luguber.info/inful/grdesk/internal/broadcast"
	"git.home.luguber.info/inful/grdesk/internal/config"
	"git.home.luguber.info/inful/grdesk/internal/events"
	"git.home.luguber.info/inful/grdesk/internal/eventstore"
	"git.home.luguber.info/inful/grdesk/internal/grapi"
	"git.home.luguber.info/inful/grdesk/internal/logfields"
	"git.home.luguber.info/inful/grdesk/internal/metrics"
	"git.home.luguber.info/inful/grdesk/internal/modules/common"
	"git.home.luguber.info/inful/grdesk/internal/modules/stuff"
	"git.home.luguber.info/inful/grdesk/internal/prefs"
	"git.home.luguber.info/inful/grdesk/internal/receipts"
	"git.home.luguber.info/inful/grdesk/internal/scheduler"
	"git.home.luguber.info/inful/grdesk/internal/store"
)

// Status represents the current state of the daemon
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
	StatusError    Status = "error"
)

const statusRulesJob = "status-rules"

// Options are process-level inputs that do not come from the config file.
type Options struct {
	// ConfigPath enables hot reload when set.
	ConfigPath string
	// Level is adjusted on reload. Nil disables level changes.
	Level *slog.LevelVar
	// PinLevel keeps Level untouched on reload (set by -v).
	PinLevel bool
	Logger   *slog.Logger
	// Backend replaces the configured goods-receipt backend.
	Backend receipts.Backend
}

// Daemon represents the main daemon service
type Daemon struct {
	config    *config.Config
	opts      Options
	logger    *slog.Logger
	status    atomic.Value
	startTime time.Time
	mu        sync.RWMutex
	closeOnce sync.Once

	store     *store.Store
	journal   eventstore.Journal
	bus       *events.Bus
	bridge    *events.Bridge
	scheduler *scheduler.Scheduler
	prefs     *prefs.Store
	feature   *receipts.Feature
	actions   *receipts.Actions
	server    *api.Server
	watcher   *config.Watcher
	publisher *broadcast.Publisher
}

// New builds every component from cfg. Nothing runs until Start.
func New(cfg *config.Config, opts Options) (*Daemon, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	d := &Daemon{config: cfg, opts: opts, logger: opts.Logger}
	d.status.Store(StatusStopped)

	if err := d.build(); err != nil {
		d.closeResources()
		return nil, err
	}
	return d, nil
}

func (d *Daemon) build() error {
	cfg := d.config

	var (
		recorder      metrics.Recorder = metrics.NoopRecorder{}
		metricHandler http.Handler
	)
	if cfg.Metrics.Enabled {
		reg := prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
		metricHandler = metrics.HTTPHandler(reg)
	}

	storeOpts := []store.Option{
		store.WithLogger(d.logger),
		store.WithRecorder(recorder),
		store.WithMiddleware(store.LoggingMiddleware(d.logger)),
	}
	if cfg.Journal.Path != "" {
		j, err := eventstore.NewSQLiteJournal(cfg.Journal.Path)
		if err != nil {
			return err
		}
		d.journal = j
		storeOpts = append(storeOpts, store.WithCommitHook(eventstore.JournalHook(j, d.logger)))
	}

	d.bus = events.NewBus()
	d.bridge = events.NewBridge(d.bus, d.logger)

	storeOpts = append(storeOpts, store.WithRegistrationHook(d.bridge.OnRegister))
	s, err := store.New([]store.Module{common.Slice.Module(), stuff.Slice.Module()}, storeOpts...)
	if err != nil {
		return err
	}
	d.store = s

	backend := d.opts.Backend
	if backend == nil {
		backend, err = newBackend(cfg.Backend, d.logger)
		if err != nil {
			return err
		}
	}

	if cfg.Prefs.Path != "" {
		p, err := prefs.Open(cfg.Prefs.Path)
		if err != nil {
			return err
		}
		d.prefs = p
	}

	d.scheduler, err = scheduler.New(d.logger, cfg.Scheduler.JobTimeout)
	if err != nil {
		return err
	}

	d.actions = receipts.NewActions(backend, d.logger)
	d.feature = receipts.NewFeature(d.store, d.logger)
	d.feature.OnActivate(func() { d.scheduleStatusRules(cfg.Scheduler.StatusRulesInterval) })

	surface := &api.ReceiptsSurface{
		Feature: d.feature,
		Actions: d.actions,
		Form: receipts.NewForm(receipts.FormConfig{
			Backend:    backend,
			Actions:    d.actions,
			Dispatcher: d.store,
			Prefs:      d.preferences(),
			Notices:    receipts.NewNotices(cfg.Locale),
			Logger:     d.logger,
		}),
	}
	if d.prefs != nil {
		surface.Prefs = d.prefs
	}

	d.server = api.NewServer(api.Config{
		Addr:      cfg.Server.Addr,
		Container: d.store,
		Bus:       d.bus,
		Receipts:  surface,
		Metrics:   metricHandler,
		Logger:    d.logger,
	})

	if d.opts.ConfigPath != "" {
		d.watcher, err = config.NewWatcher(d.opts.ConfigPath, d.logger, d.ReloadConfig)
		if err != nil {
			return err
		}
	}
	return nil
}

// preferences avoids handing a typed nil to receipts.
func (d *Daemon) preferences() receipts.Preferences {
	if d.prefs == nil {
		return nil
	}
	return d.prefs
}

func newBackend(cfg config.BackendConfig, logger *slog.Logger) (receipts.Backend, error) {
	if cfg.URL == "" {
		logger.Warn("No backend url configured, using in-memory goods-receipt backend")
		return grapi.NewMemory(), nil
	}
	return grapi.NewClient(grapi.Config{
		BaseURL: cfg.URL,
		Token:   cfg.Token,
		Timeout: cfg.Timeout,
		Retry:   cfg.Retry.Policy(),
	}, logger)
}

func (d *Daemon) scheduleStatusRules(interval time.Duration) {
	if interval <= 0 {
		return
	}
	_, err := d.scheduler.Every(statusRulesJob, interval, true, func(ctx context.Context) error {
		_, err := d.actions.FetchStatusRules.Run(ctx, d.store, struct{}{})
		return err
	})
	if err != nil {
		d.logger.Error("Failed to schedule status rules refresh", logfields.Error(err))
	}
}

// Start runs the daemon until ctx is done or the HTTP server fails.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.GetStatus() != StatusStopped {
		d.mu.Unlock()
		return fmt.Errorf("daemon is not in stopped state: %s", d.GetStatus())
	}
	d.status.Store(StatusStarting)
	d.startTime = time.Now()
	d.logger.Info("Starting grdesk daemon", slog.String("addr", d.config.Server.Addr))

	if err := d.restore(ctx); err != nil {
		d.status.Store(StatusError)
		d.mu.Unlock()
		return err
	}
	d.bridge.Attach(d.store)

	if d.config.NATS.Enabled {
		d.startBroadcast(ctx)
	}

	d.scheduler.Start()

	if d.watcher != nil {
		if err := d.watcher.Start(ctx); err != nil {
			d.logger.Error("Failed to start config watcher", logfields.Error(err))
		}
	}

	errCh := make(chan error, 1)
	go func() { errCh <- d.server.Start() }()

	d.status.Store(StatusRunning)
	d.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if err != nil {
			d.status.Store(StatusError)
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}
}

// restore replays the journal. The goods-receipt slice is registered first
// when the journal holds its actions, otherwise they would be dropped.
func (d *Daemon) restore(ctx context.Context) error {
	if d.journal == nil || !d.config.Journal.ReplayOnStart {
		return nil
	}
	counts := eventstore.NewTypeCounts(d.journal)
	if err := counts.Rebuild(ctx); err != nil {
		return err
	}
	for _, tc := range counts.List() {
		if strings.HasPrefix(tc.Type, receipts.Prefix+"/") {
			if err := d.feature.Activate(); err != nil {
				return err
			}
			break
		}
	}
	n, err := eventstore.Replay(ctx, d.journal, d.store, d.logger)
	if err != nil {
		return err
	}
	if n > 0 {
		d.logger.Info("State restored from journal", slog.Int("actions", n), logfields.Path(d.config.Journal.Path))
	}
	return nil
}

func (d *Daemon) startBroadcast(ctx context.Context) {
	pub, err := broadcast.Connect(ctx, broadcast.Config{
		URL:      d.config.NATS.URL,
		Subject:  d.config.NATS.Subject,
		KVBucket: d.config.NATS.KVBucket,
		Name:     "grdesk",
	}, d.logger)
	if err != nil {
		d.logger.Warn("State broadcast disabled", logfields.Error(err))
		return
	}
	d.publisher = pub
	go pub.Run(ctx, d.bus)
}

// Stop gracefully shuts down the daemon
func (d *Daemon) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.GetStatus() {
	case StatusStopping:
		return nil
	case StatusStopped:
		// Never started: only release what New opened.
		d.closeResources()
		return nil
	}
	d.status.Store(StatusStopping)
	d.logger.Info("Stopping grdesk daemon")

	var errs []error
	if err := d.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http server: %w", err))
	}
	if d.watcher != nil {
		if err := d.watcher.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("config watcher: %w", err))
		}
	}
	d.bridge.Detach()
	d.closeResources()

	d.status.Store(StatusStopped)
	d.logger.Info("grdesk daemon stopped", slog.Duration("uptime", time.Since(d.startTime)))
	return errors.Join(errs...)
}

func (d *Daemon) closeResources() {
	d.closeOnce.Do(d.doCloseResources)
}

func (d *Daemon) doCloseResources() {
	if d.scheduler != nil {
		if err := d.scheduler.Stop(); err != nil {
			d.logger.Error("Failed to stop scheduler", logfields.Error(err))
		}
	}
	if d.publisher != nil {
		d.publisher.Close()
	}
	if d.bus != nil {
		d.bus.Close()
	}
	if d.journal != nil {
		if err := d.journal.Close(); err != nil {
			d.logger.Error("Failed to close journal", logfields.Error(err))
		}
	}
}

// GetStatus returns the current daemon status
func (d *Daemon) GetStatus() Status {
	status, ok := d.status.Load().(Status)
	if !ok {
		return StatusError
	}
	return status
}

// GetConfig returns the active configuration.
func (d *Daemon) GetConfig() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.config
}

// Store returns the container.
func (d *Daemon) Store() *store.Store { return d.store }

// Handler returns the HTTP handler, for in-process use.
func (d *Daemon) Handler() http.Handler { return d.server.Handler() }

// ReloadConfig applies settings that can change at runtime and reports the
// ones that need a restart.
func (d *Daemon) ReloadConfig(newConfig *config.Config) {
	d.mu.Lock()
	old := d.config
	d.config = newConfig
	d.mu.Unlock()

	if d.opts.Level != nil && !d.opts.PinLevel {
		d.opts.Level.Set(newConfig.Logging.Level.Slog())
	}
	if sections := restartRequired(old, newConfig); len(sections) > 0 {
		d.logger.Warn("Configuration changes take effect after restart", slog.Any("sections", sections))
	}
	d.logger.Info("Configuration applied", slog.String("log_level", string(newConfig.Logging.Level)))
}

func restartRequired(old, next *config.Config) []string {
	var out []string
	if old.Server != next.Server {
		out = append(out, "server")
	}
	if old.Backend != next.Backend {
		out = append(out, "backend")
	}
	if old.Journal != next.Journal {
		out = append(out, "journal")
	}
	if old.Prefs != next.Prefs {
		out = append(out, "prefs")
	}
	if old.NATS != next.NATS {
		out = append(out, "nats")
	}
	if old.Metrics != next.Metrics {
		out = append(out, "metrics")
	}
	if old.Locale != next.Locale {
		out = append(out, "locale")
	}
	if old.Logging.Format != next.Logging.Format {
		out = append(out, "logging.format")
	}
	return out
}
