// Package scheduler runs periodic background refreshes.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/grdesk/internal/logfields"
)

// Task is one run of a periodic job.
type Task func(ctx context.Context) error

// Scheduler wraps a gocron scheduler. Tasks get a context that is canceled
// when the scheduler stops.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
	timeout   time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	jobs   map[string]string
}

// New creates a stopped scheduler. timeout bounds each task run; zero means none.
func New(logger *slog.Logger, timeout time.Duration) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		scheduler: s,
		logger:    logger,
		timeout:   timeout,
		ctx:       ctx,
		cancel:    cancel,
		jobs:      map[string]string{},
	}, nil
}

// Start begins running jobs.
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop cancels running tasks and shuts down.
func (s *Scheduler) Stop() error {
	s.logger.Info("Stopping scheduler")
	s.cancel()
	return s.scheduler.Shutdown()
}

// Every schedules task under name. Overlapping runs are skipped. With
// immediately the first run starts right away. Scheduling a name twice is an error.
func (s *Scheduler) Every(name string, interval time.Duration, immediately bool, task Task) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[name]; exists {
		return "", fmt.Errorf("job %q already scheduled", name)
	}

	opts := []gocron.JobOption{
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}
	if immediately {
		opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.run, name, task),
		opts...,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create job %q: %w", name, err)
	}
	id := job.ID().String()
	s.jobs[name] = id
	s.logger.Debug("Job scheduled", slog.String("job", name), slog.Duration("interval", interval))
	return id, nil
}

// Jobs returns scheduled job ids by name.
func (s *Scheduler) Jobs() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.jobs))
	for k, v := range s.jobs {
		out[k] = v
	}
	return out
}

func (s *Scheduler) run(name string, task Task) {
	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	start := time.Now()
	if err := task(ctx); err != nil {
		if s.ctx.Err() != nil {
			return
		}
		s.logger.Warn("Scheduled job failed",
			slog.String("job", name),
			logfields.Duration(time.Since(start)),
			logfields.Error(err))
		return
	}
	s.logger.Debug("Scheduled job finished", slog.String("job", name), logfields.Duration(time.Since(start)))
}
