// Package events is the in-process, typed notification bus of grdesk.
//
// It is not durable; the action journal lives in internal/eventstore.
package events

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"

	ferrors "git.home.luguber.info/inful/grdesk/internal/foundation/errors"
)

// ErrBusClosed is returned when publishing on a closed bus.
var ErrBusClosed = ferrors.RuntimeError("event bus is closed").Warning().Build()

// Bus delivers events to subscribers registered for the event's type.
// Subscribing to an interface type receives every event implementing it.
type Bus struct {
	mu      sync.RWMutex
	subs    map[reflect.Type]map[uint64]*subscription
	nextID  atomic.Uint64
	dropped atomic.Uint64
	closed  atomic.Bool
	once    sync.Once
}

type subscription struct {
	deliver func(ctx context.Context, evt any, wait bool) bool
	close   func()
}

// NewBus returns an open bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[reflect.Type]map[uint64]*subscription)}
}

// Subscribe returns a channel of events of type T and a function that
// unsubscribes and closes the channel. On a closed bus the channel is
// already closed.
func Subscribe[T any](b *Bus, buffer int) (<-chan T, func()) {
	typ := reflect.TypeFor[T]()
	ch := make(chan T, buffer)

	// mu guards sends against close; done unblocks a waiting send.
	var (
		mu        sync.Mutex
		closed    bool
		done      = make(chan struct{})
		closeOnce sync.Once
	)
	closeCh := func() {
		closeOnce.Do(func() {
			close(done)
			mu.Lock()
			closed = true
			close(ch)
			mu.Unlock()
		})
	}

	sub := &subscription{
		deliver: func(ctx context.Context, evt any, wait bool) bool {
			v, ok := evt.(T)
			if !ok {
				return false
			}
			mu.Lock()
			defer mu.Unlock()
			if closed {
				return false
			}
			if !wait {
				select {
				case ch <- v:
					return true
				default:
					return false
				}
			}
			select {
			case ch <- v:
				return true
			case <-ctx.Done():
				return false
			case <-done:
				return false
			}
		},
		close: closeCh,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed.Load() {
		closeCh()
		return ch, func() {}
	}
	id := b.nextID.Add(1)
	if b.subs[typ] == nil {
		b.subs[typ] = make(map[uint64]*subscription)
	}
	b.subs[typ][id] = sub

	var unsubOnce sync.Once
	return ch, func() {
		unsubOnce.Do(func() {
			b.mu.Lock()
			if byID, ok := b.subs[typ]; ok {
				delete(byID, id)
				if len(byID) == 0 {
					delete(b.subs, typ)
				}
			}
			b.mu.Unlock()
			closeCh()
		})
	}
}

// SubscriberCount returns the number of subscriptions for exactly T.
func SubscriberCount[T any](b *Bus) int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[reflect.TypeFor[T]()])
}

// Publish delivers evt to every matching subscriber, waiting for buffer
// space until ctx is done.
func (b *Bus) Publish(ctx context.Context, evt any) error {
	targets, err := b.targets(evt)
	if err != nil {
		return err
	}
	for _, s := range targets {
		if !s.deliver(ctx, evt, true) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ferrors.WrapError(ctxErr, ferrors.CategoryRuntime, "event publish canceled").
					WithContext("event_type", reflect.TypeOf(evt).String()).
					Build()
			}
		}
	}
	return nil
}

// TryPublish delivers evt without blocking. Subscribers with a full buffer
// miss the event; the number of such misses is returned and added to Dropped.
func (b *Bus) TryPublish(evt any) (int, error) {
	targets, err := b.targets(evt)
	if err != nil {
		return 0, err
	}
	missed := 0
	for _, s := range targets {
		if !s.deliver(context.Background(), evt, false) {
			missed++
		}
	}
	b.dropped.Add(uint64(missed))
	return missed, nil
}

// Dropped returns how many deliveries TryPublish skipped.
func (b *Bus) Dropped() uint64 { return b.dropped.Load() }

func (b *Bus) targets(evt any) ([]*subscription, error) {
	if evt == nil {
		return nil, ferrors.ValidationError("event cannot be nil").Build()
	}
	if b.closed.Load() {
		return nil, ErrBusClosed
	}
	evtType := reflect.TypeOf(evt)

	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []*subscription
	for typ, byID := range b.subs {
		if typ != evtType && (typ.Kind() != reflect.Interface || !evtType.Implements(typ)) {
			continue
		}
		for _, s := range byID {
			out = append(out, s)
		}
	}
	return out, nil
}

// Close closes the bus and every subscription channel.
func (b *Bus) Close() {
	b.once.Do(func() {
		b.closed.Store(true)
		b.mu.Lock()
		subs := b.subs
		b.subs = make(map[reflect.Type]map[uint64]*subscription)
		b.mu.Unlock()
		for _, byID := range subs {
			for _, s := range byID {
				s.close()
			}
		}
	})
}
