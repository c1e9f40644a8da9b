package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/grdesk/internal/foundation/errors"
	"git.home.luguber.info/inful/grdesk/internal/store"
)

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed")
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	var zero T
	return zero
}

func TestPublishSubscribe(t *testing.T) {
	b := NewBus()
	defer b.Close()

	ch, unsubscribe := Subscribe[ModuleRegistered](b, 1)
	defer unsubscribe()

	require.NoError(t, b.Publish(context.Background(), ModuleRegistered{Key: "operationsGR"}))
	assert.Equal(t, store.ModuleKey("operationsGR"), receive(t, ch).Key)
}

func TestInterfaceSubscriptionReceivesAllEvents(t *testing.T) {
	b := NewBus()
	defer b.Close()

	ch, unsubscribe := Subscribe[Event](b, 2)
	defer unsubscribe()

	require.NoError(t, b.Publish(context.Background(), ModuleRegistered{}))
	require.NoError(t, b.Publish(context.Background(), StateChanged{}))

	assert.Equal(t, "module_registered", receive(t, ch).EventName())
	assert.Equal(t, "state_changed", receive(t, ch).EventName())
}

func TestPublishBackpressure(t *testing.T) {
	b := NewBus()
	defer b.Close()

	_, unsubscribe := Subscribe[StateChanged](b, 0)
	defer unsubscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := b.Publish(ctx, StateChanged{})
	require.Error(t, err)
	assert.Equal(t, ferrors.CategoryRuntime, ferrors.GetCategory(err))
}

func TestTryPublishDropsForFullSubscribers(t *testing.T) {
	b := NewBus()
	defer b.Close()

	ch, unsubscribe := Subscribe[StateChanged](b, 1)
	defer unsubscribe()

	missed, err := b.TryPublish(StateChanged{ActionType: "a"})
	require.NoError(t, err)
	assert.Zero(t, missed)

	missed, err = b.TryPublish(StateChanged{ActionType: "b"})
	require.NoError(t, err)
	assert.Equal(t, 1, missed)
	assert.Equal(t, uint64(1), b.Dropped())

	assert.Equal(t, "a", receive(t, ch).ActionType)
}

func TestUnsubscribeAndClose(t *testing.T) {
	b := NewBus()

	ch, unsubscribe := Subscribe[StateChanged](b, 1)
	assert.Equal(t, 1, SubscriberCount[StateChanged](b))
	unsubscribe()
	unsubscribe()
	assert.Zero(t, SubscriberCount[StateChanged](b))
	_, ok := <-ch
	assert.False(t, ok)

	other, _ := Subscribe[StateChanged](b, 1)
	b.Close()
	_, ok = <-other
	assert.False(t, ok)

	require.ErrorIs(t, b.Publish(context.Background(), StateChanged{}), ErrBusClosed)

	late, _ := Subscribe[StateChanged](b, 1)
	_, ok = <-late
	assert.False(t, ok)
}

func TestPublishNil(t *testing.T) {
	b := NewBus()
	defer b.Close()
	require.Error(t, b.Publish(context.Background(), nil))
}

func TestBridgeRepublishesContainerActivity(t *testing.T) {
	b := NewBus()
	defer b.Close()
	states, unsubStates := Subscribe[StateChanged](b, 4)
	defer unsubStates()
	regs, unsubRegs := Subscribe[ModuleRegistered](b, 4)
	defer unsubRegs()

	bridge := NewBridge(b, nil)
	counter := store.ReducerFunc(func(state any, a store.Action) (any, error) {
		n, _ := state.(int)
		if a.Type == "INC" {
			n++
		}
		return n, nil
	})
	c, err := store.New([]store.Module{{Key: "a", Reducer: counter}, {Key: "b", Reducer: counter}},
		store.WithRegistrationHook(bridge.OnRegister))
	require.NoError(t, err)
	bridge.Attach(c)

	ctx := context.Background()
	require.NoError(t, c.Dispatch(ctx, store.Action{Type: "NOOP"}))
	first := receive(t, states)
	assert.Equal(t, []store.ModuleKey{"a", "b"}, first.Changed)

	require.NoError(t, c.RegisterModule("c", counter))
	reg := receive(t, regs)
	assert.Equal(t, store.ModuleKey("c"), reg.Key)
	assert.False(t, reg.Replaced)

	require.NoError(t, c.Dispatch(ctx, store.Action{Type: "NOOP"}))
	assert.Equal(t, []store.ModuleKey{"c"}, receive(t, states).Changed)

	bridge.Detach()
	require.NoError(t, c.Dispatch(ctx, store.Action{Type: "INC"}))
	select {
	case evt := <-states:
		t.Fatalf("unexpected event after detach: %+v", evt)
	case <-time.After(20 * time.Millisecond):
	}
}
