package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryRunsImmediatelyAndRepeats(t *testing.T) {
	s, err := New(nil, time.Second)
	require.NoError(t, err)

	var runs atomic.Int32
	id, err := s.Every("status-rules", 20*time.Millisecond, true, func(context.Context) error {
		runs.Add(1)
		return nil
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, s.Jobs()["status-rules"])

	s.Start()
	require.Eventually(t, func() bool { return runs.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop())
}

func TestDuplicateJobName(t *testing.T) {
	s, err := New(nil, 0)
	require.NoError(t, err)
	defer func() { _ = s.Stop() }()

	_, err = s.Every("x", time.Minute, false, func(context.Context) error { return nil })
	require.NoError(t, err)
	_, err = s.Every("x", time.Minute, false, func(context.Context) error { return nil })
	require.Error(t, err)
}

func TestStopCancelsTaskContext(t *testing.T) {
	s, err := New(nil, 0)
	require.NoError(t, err)

	started := make(chan struct{})
	var canceled atomic.Bool
	_, err = s.Every("slow", time.Hour, true, func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		canceled.Store(true)
		return errors.New("stopped")
	})
	require.NoError(t, err)

	s.Start()
	<-started
	require.NoError(t, s.Stop())
	assert.Eventually(t, canceled.Load, time.Second, 5*time.Millisecond)
}
