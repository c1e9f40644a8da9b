package store

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	actions []Action
}

func (r *recorded) Dispatch(_ context.Context, a Action) error {
	r.actions = append(r.actions, a)
	return nil
}

func (r *recorded) types() []string {
	out := make([]string, len(r.actions))
	for i, a := range r.actions {
		out[i] = a.Type
	}
	return out
}

func TestThunkFulfilled(t *testing.T) {
	th := NewThunk("ops/create", func(_ context.Context, n int) (int, error) { return n * 2, nil })
	d := &recorded{}

	res, err := th.Run(context.Background(), d, 21)
	require.NoError(t, err)
	assert.Equal(t, 42, res)
	assert.Equal(t, []string{"ops/create/pending", "ops/create/fulfilled"}, d.types())
	assert.Equal(t, 42, d.actions[1].Payload)
	assert.Equal(t, d.actions[0].MetaValue(MetaRequestID), d.actions[1].MetaValue(MetaRequestID))
}

func TestThunkRejected(t *testing.T) {
	boom := errors.New("backend down")
	th := NewThunk("ops/create", func(context.Context, int) (int, error) { return 0, boom })
	d := &recorded{}

	_, err := th.Run(context.Background(), d, 1)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"ops/create/pending", "ops/create/rejected"}, d.types())
	assert.Equal(t, "backend down", d.actions[1].Error)
	assert.False(t, IsAborted(d.actions[1]))
}

func TestThunkCanceledDropsResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	th := NewThunk("ops/create", func(context.Context, int) (int, error) {
		cancel()
		return 99, nil
	})
	d := &recorded{}

	res, err := th.Run(ctx, d, 1)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, res)
	assert.Equal(t, []string{"ops/create/pending", "ops/create/rejected"}, d.types())
	assert.True(t, IsAborted(d.actions[1]))
	assert.Nil(t, d.actions[1].Payload)
}

func TestThunkAgainstStore(t *testing.T) {
	type flags struct{ Busy, Done bool }
	th := NewThunk("job", func(context.Context, string) (string, error) { return "ok", nil })
	sl := NewSlice[flags]("job", nil).
		On(th.Pending(), func(s flags, _ Action) (flags, error) { s.Busy = true; return s, nil }).
		On(th.Fulfilled(), func(s flags, _ Action) (flags, error) { return flags{Done: true}, nil })
	s := newTestStore(t, sl.Module())

	_, err := th.Run(context.Background(), s, "x")
	require.NoError(t, err)
	assert.Equal(t, flags{Done: true}, sl.Select(s.GetState()))
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, err := New([]Module{{Key: "f", Reducer: failing("BAD")}}, WithMiddleware(LoggingMiddleware(logger)))
	require.NoError(t, err)

	require.NoError(t, s.Dispatch(context.Background(), Action{Type: "GOOD"}))
	require.Error(t, s.Dispatch(context.Background(), Action{Type: "BAD"}))

	out := buf.String()
	assert.Contains(t, out, "Action dispatched")
	assert.Contains(t, out, "action_type=GOOD")
	assert.Contains(t, out, "Dispatch failed")
	assert.Contains(t, out, "action_type=BAD")
}

func TestDefaultStore(t *testing.T) {
	assert.Same(t, Default(), Default())
}
