package events

import (
	"log/slog"
	"reflect"
	"sync"
	"time"

	"git.home.luguber.info/inful/grdesk/internal/logfields"
	"git.home.luguber.info/inful/grdesk/internal/store"
)

// Subscribable is the part of a container the bridge listens to.
type Subscribable interface {
	Subscribe(listener store.Listener) func()
}

// Bridge republishes container activity on a bus without ever blocking the
// dispatching goroutine.
type Bridge struct {
	bus    *Bus
	logger *slog.Logger
	now    func() time.Time

	mu    sync.Mutex
	last  store.State
	unsub func()
}

// NewBridge returns a detached bridge.
func NewBridge(bus *Bus, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{bus: bus, logger: logger, now: time.Now}
}

// Attach starts listening to c. Attaching again replaces the previous container.
func (b *Bridge) Attach(c Subscribable) {
	unsub := c.Subscribe(b.onDispatch)
	b.mu.Lock()
	prev := b.unsub
	b.unsub = unsub
	b.mu.Unlock()
	if prev != nil {
		prev()
	}
}

// Detach stops listening.
func (b *Bridge) Detach() {
	b.mu.Lock()
	unsub := b.unsub
	b.unsub = nil
	b.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// OnRegister matches store.WithRegistrationHook.
func (b *Bridge) OnRegister(key store.ModuleKey, replaced bool) {
	b.publish(ModuleRegistered{Key: key, Replaced: replaced, At: b.now()})
}

func (b *Bridge) onDispatch(action store.Action, state store.State) {
	b.mu.Lock()
	changed := changedKeys(b.last, state)
	b.last = state
	b.mu.Unlock()

	b.publish(StateChanged{
		ActionID:   action.ID,
		ActionType: action.Type,
		Changed:    changed,
		State:      state,
		At:         b.now(),
	})
}

func (b *Bridge) publish(evt Event) {
	missed, err := b.bus.TryPublish(evt)
	if err != nil {
		b.logger.Debug("Event not published", slog.String("event", evt.EventName()), logfields.Error(err))
		return
	}
	if missed > 0 {
		b.logger.Warn("Slow subscribers missed event",
			slog.String("event", evt.EventName()),
			slog.Int("missed", missed))
	}
}

// changedKeys lists keys whose value differs between the snapshots.
func changedKeys(prev, next store.State) []store.ModuleKey {
	var out []store.ModuleKey
	for _, k := range next.Keys() {
		old, ok := prev[k]
		if !ok || !reflect.DeepEqual(old, next[k]) {
			out = append(out, k)
		}
	}
	for _, k := range prev.Keys() {
		if _, ok := next[k]; !ok {
			out = append(out, k)
		}
	}
	return out
}
