package store

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/grdesk/internal/logfields"
	"git.home.luguber.info/inful/grdesk/internal/metrics"
	"git.home.luguber.info/inful/grdesk/internal/observability"
)

// Listener is notified after every successful dispatch with the action and
// the published snapshot. The snapshot is shared between listeners.
type Listener func(action Action, state State)

// CommitHook runs after a dispatch is applied and before listeners are
// notified. Hooks run in dispatch order, one dispatch at a time, so they see
// actions in the order the reducers applied them. A hook must not dispatch.
type CommitHook func(ctx context.Context, action Action, state State)

// DispatchFunc delivers an action to the container.
type DispatchFunc func(ctx context.Context, action Action) error

// Middleware wraps dispatch.
type Middleware func(next DispatchFunc) DispatchFunc

// Dispatcher delivers actions.
type Dispatcher interface {
	Dispatch(ctx context.Context, action Action) error
}

// Registrar installs late-bound modules.
type Registrar interface {
	RegisterModule(key ModuleKey, reducer Reducer) error
}

// Getter reads the aggregate state.
type Getter interface {
	GetState() State
}

// Container is the full surface of a Store.
type Container interface {
	Dispatcher
	Registrar
	Getter
	Subscribe(listener Listener) func()
	Modules() []ModuleInfo
}

var _ Container = (*Store)(nil)

// Store is the state container. The zero value is usable and starts in the
// bootstrapping phase; call Initialize before Dispatch or RegisterModule.
type Store struct {
	// notifyMu orders dispatches end to end, including listener delivery.
	notifyMu sync.Mutex
	mu       sync.RWMutex

	ready      bool
	builtins   map[ModuleKey]Reducer
	registered map[ModuleKey]Reducer
	reducer    aggregate
	state      State
	rebuilds   uint64
	dispatch   DispatchFunc
	opts       options

	listenerMu sync.Mutex
	listeners  map[uint64]Listener
	nextSub    uint64
}

// New returns an initialized Store.
func New(builtins []Module, opts ...Option) (*Store, error) {
	s := &Store{}
	if err := s.Initialize(builtins, opts...); err != nil {
		return nil, err
	}
	return s, nil
}

// Initialize builds the aggregate reducer from the built-in modules and
// moves the store to the ready phase. Built-in keys must be unique.
func (s *Store) Initialize(builtins []Module, opts ...Option) error {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	table := make(map[ModuleKey]Reducer, len(builtins))
	for _, m := range builtins {
		if m.Key == "" || m.Reducer == nil {
			return ErrInvalidModule.WithContext(logfields.KeyModuleKey, string(m.Key))
		}
		if _, dup := table[m.Key]; dup {
			return ErrDuplicateBuiltinKey.WithContext(logfields.KeyModuleKey, string(m.Key))
		}
		table[m.Key] = m.Reducer
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return ErrAlreadyInitialized
	}

	s.opts = o
	s.builtins = table
	s.registered = make(map[ModuleKey]Reducer)
	s.reducer = combine(s.builtins, s.registered)
	s.state = o.preloaded
	s.dispatch = chain(s.baseDispatch, o.middleware)
	s.ready = true

	o.recorder.SetRegisteredModules(len(s.reducer.keys))
	o.logger.Debug("Store initialized",
		logfields.Modules(len(s.reducer.keys)),
		slog.Any("keys", keyStrings(s.reducer.keys)))
	return nil
}

// Ready reports whether Initialize has completed.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Dispatch delivers action to every registered reducer. On success the new
// snapshot is published and listeners are notified before Dispatch returns.
func (s *Store) Dispatch(ctx context.Context, action Action) error {
	s.mu.RLock()
	ready, dispatch := s.ready, s.dispatch
	s.mu.RUnlock()
	if !ready {
		return ErrNotInitialized.WithContext(logfields.KeyActionType, action.Type)
	}
	if action.Type == "" {
		s.recorder().IncDispatchResult(metrics.ResultRejected)
		return ErrInvalidAction
	}
	if action.ID == "" {
		action.ID = uuid.NewString()
	}
	return dispatch(observability.WithActionID(ctx, action.ID), action)
}

func (s *Store) baseDispatch(ctx context.Context, action Action) error {
	start := time.Now()

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	rec := s.opts.recorder
	next, err := s.reducer.reduce(s.state, action)
	if err != nil {
		s.mu.Unlock()
		rec.ObserveDispatchDuration(action.Type, time.Since(start))
		rec.IncDispatchResult(metrics.ResultReducerFailure)
		return err
	}
	s.state = next
	s.mu.Unlock()

	rec.ObserveDispatchDuration(action.Type, time.Since(start))
	rec.IncDispatchResult(metrics.ResultSuccess)

	snapshot := next.Clone()
	for _, hook := range s.opts.onCommit {
		hook(ctx, action, snapshot)
	}
	for _, l := range s.snapshotListeners() {
		l(action, snapshot)
	}
	return nil
}

// GetState returns a copy of the latest snapshot. It is nil until the first
// successful dispatch unless the store was preloaded.
func (s *Store) GetState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// RegisterModule installs reducer under key and rebuilds the aggregate
// reducer. Every call rebuilds, including repeated registrations of the same
// reducer. State for other keys is preserved; state for key is recomputed on
// the next dispatch. The first registration that shadows a built-in drops
// the built-in's slice so the new reducer starts from its default.
func (s *Store) RegisterModule(key ModuleKey, reducer Reducer) error {
	if key == "" || reducer == nil {
		return ErrInvalidModule.WithContext(logfields.KeyModuleKey, string(key))
	}

	s.mu.Lock()
	if !s.ready {
		s.mu.Unlock()
		return ErrNotInitialized.WithContext(logfields.KeyModuleKey, string(key))
	}
	_, replaced := s.registered[key]
	_, shadows := s.builtins[key]
	if shadows && !replaced {
		// The built-in's slice may not fit the new reducer.
		next := s.state.Clone()
		delete(next, key)
		s.state = next
	}
	s.registered[key] = reducer
	s.reducer = combine(s.builtins, s.registered)
	s.rebuilds++
	total := len(s.reducer.keys)
	rebuilds := s.rebuilds
	o := s.opts
	s.mu.Unlock()

	o.recorder.IncRegistration(string(key), replaced)
	o.recorder.IncRebuild()
	o.recorder.SetRegisteredModules(total)

	if shadows {
		o.logger.Warn("Registered module shadows built-in", logfields.ModuleKey(string(key)))
	}
	o.logger.Debug("Module registered",
		logfields.ModuleKey(string(key)),
		slog.Bool("replaced", replaced),
		logfields.Modules(total),
		logfields.Rebuilds(rebuilds))

	for _, fn := range o.onRegister {
		fn(key, replaced)
	}
	return nil
}

// Subscribe adds a listener and returns a function that removes it. The
// returned function is safe to call more than once.
func (s *Store) Subscribe(listener Listener) func() {
	if listener == nil {
		return func() {}
	}
	s.listenerMu.Lock()
	if s.listeners == nil {
		s.listeners = make(map[uint64]Listener)
	}
	s.nextSub++
	id := s.nextSub
	s.listeners[id] = listener
	s.listenerMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenerMu.Lock()
			delete(s.listeners, id)
			s.listenerMu.Unlock()
		})
	}
}

// snapshotListeners returns listeners in subscription order.
func (s *Store) snapshotListeners() []Listener {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	ids := slices.Sorted(maps.Keys(s.listeners))
	out := make([]Listener, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.listeners[id])
	}
	return out
}

// Modules lists the registration table in key order.
func (s *Store) Modules() []ModuleInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ModuleInfo, 0, len(s.reducer.keys))
	for _, key := range s.reducer.keys {
		_, builtin := s.builtins[key]
		_, late := s.registered[key]
		out = append(out, ModuleInfo{
			Key:      key,
			Builtin:  builtin && !late,
			Shadowed: builtin && late,
		})
	}
	return out
}

// Rebuilds returns how many times RegisterModule rebuilt the aggregate reducer.
func (s *Store) Rebuilds() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rebuilds
}

func (s *Store) recorder() metrics.Recorder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.opts.recorder == nil {
		return metrics.NoopRecorder{}
	}
	return s.opts.recorder
}

func chain(base DispatchFunc, mw []Middleware) DispatchFunc {
	d := base
	for i := len(mw) - 1; i >= 0; i-- {
		d = mw[i](d)
	}
	return d
}

func keyStrings(keys []ModuleKey) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = string(k)
	}
	return out
}
