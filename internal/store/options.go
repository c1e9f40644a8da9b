package store

import (
	"log/slog"

	"git.home.luguber.info/inful/grdesk/internal/metrics"
)

// Option configures a Store during Initialize.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	recorder   metrics.Recorder
	middleware []Middleware
	preloaded  State
	onRegister []func(key ModuleKey, replaced bool)
	onCommit   []CommitHook
}

func defaultOptions() options {
	return options{
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
	}
}

// WithLogger sets the logger used for registration and failure messages.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithMiddleware appends dispatch middleware. The first middleware is the outermost.
func WithMiddleware(mw ...Middleware) Option {
	return func(o *options) {
		o.middleware = append(o.middleware, mw...)
	}
}

// WithPreloadedState seeds the aggregate state. Keys without a reducer are retained.
func WithPreloadedState(state State) Option {
	return func(o *options) {
		o.preloaded = state.Clone()
	}
}

// WithRegistrationHook is called after every successful RegisterModule.
func WithRegistrationHook(fn func(key ModuleKey, replaced bool)) Option {
	return func(o *options) {
		if fn != nil {
			o.onRegister = append(o.onRegister, fn)
		}
	}
}

// WithCommitHook adds a hook that runs inside the serialized part of every
// successful dispatch.
func WithCommitHook(fn CommitHook) Option {
	return func(o *options) {
		if fn != nil {
			o.onCommit = append(o.onCommit, fn)
		}
	}
}
