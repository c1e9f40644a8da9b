package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDelay(t *testing.T) {
	cases := []struct {
		name string
		p    Policy
		want []time.Duration
	}{
		{"fixed", NewPolicy(ModeFixed, 100*time.Millisecond, time.Second, 3), []time.Duration{100, 100, 100}},
		{"linear", NewPolicy(ModeLinear, 100*time.Millisecond, 250*time.Millisecond, 3), []time.Duration{100, 200, 250}},
		{"exponential", NewPolicy(ModeExponential, 100*time.Millisecond, time.Second, 5), []time.Duration{100, 200, 400, 800, 1000}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for i, want := range tc.want {
				assert.Equal(t, want*time.Millisecond, tc.p.Delay(i+1), "retry %d", i+1)
			}
			assert.Zero(t, tc.p.Delay(0))
		})
	}
}

func TestNewPolicyDefaults(t *testing.T) {
	p := NewPolicy("bogus", 0, 0, -1)
	assert.Equal(t, DefaultPolicy(), p)
	require.NoError(t, p.Validate())

	p = NewPolicy("EXPONENTIAL", 10*time.Second, time.Second, 1)
	assert.Equal(t, ModeExponential, p.Mode)
	assert.Equal(t, time.Second, p.Initial, "initial is capped by max")

	_, err := ParseMode("sometimes")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	assert.Error(t, Policy{Max: time.Second}.Validate())
	assert.Error(t, Policy{Initial: time.Second}.Validate())
	assert.Error(t, Policy{Initial: time.Second, Max: time.Second, MaxRetries: -1}.Validate())
}

func TestDo(t *testing.T) {
	p := NewPolicy(ModeFixed, time.Millisecond, time.Millisecond, 2)
	boom := errors.New("boom")

	calls := 0
	err := p.Do(context.Background(), nil, func(context.Context) error {
		calls++
		if calls < 3 {
			return boom
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = p.Do(context.Background(), nil, func(context.Context) error { calls++; return boom })
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)

	calls = 0
	err = p.Do(context.Background(), func(error) bool { return false }, func(context.Context) error { calls++; return boom })
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestDoStopsOnCancel(t *testing.T) {
	p := NewPolicy(ModeFixed, time.Hour, time.Hour, 5)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := p.Do(ctx, nil, func(context.Context) error {
		calls++
		cancel()
		return errors.New("down")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
