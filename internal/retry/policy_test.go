package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/sitetree/internal/foundation/errors"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	require.Equal(t, BackoffLinear, p.Mode)
	require.Equal(t, time.Second, p.Initial)
	require.Equal(t, 30*time.Second, p.Max)
	require.Equal(t, 2, p.MaxRetries)
}

func TestNewPolicyOverrides(t *testing.T) {
	p := NewPolicy(BackoffFixed, 5*time.Second, 2*time.Second, 5)
	require.Equal(t, 2*time.Second, p.Initial, "initial is clamped to max")
	require.Equal(t, 2*time.Second, p.Max)
	require.Equal(t, BackoffFixed, p.Mode)
	require.Equal(t, 5, p.MaxRetries)

	p = NewPolicy("bogus", 0, 0, -1)
	require.Equal(t, DefaultPolicy(), p)
}

func TestDelayModes(t *testing.T) {
	fixed := NewPolicy(BackoffFixed, 100*time.Millisecond, 500*time.Millisecond, 3)
	for i := 1; i <= 3; i++ {
		require.Equal(t, 100*time.Millisecond, fixed.Delay(i))
	}

	linear := NewPolicy(BackoffLinear, 100*time.Millisecond, 250*time.Millisecond, 3)
	require.Equal(t, 100*time.Millisecond, linear.Delay(1))
	require.Equal(t, 200*time.Millisecond, linear.Delay(2))
	require.Equal(t, 250*time.Millisecond, linear.Delay(3))

	exp := NewPolicy(BackoffExponential, 100*time.Millisecond, 350*time.Millisecond, 4)
	require.Equal(t, 100*time.Millisecond, exp.Delay(1))
	require.Equal(t, 200*time.Millisecond, exp.Delay(2))
	require.Equal(t, 350*time.Millisecond, exp.Delay(3))
	require.Equal(t, time.Duration(0), exp.Delay(0))
}

func TestValidate(t *testing.T) {
	require.NoError(t, DefaultPolicy().Validate())
	require.Error(t, Policy{Initial: 0, Max: time.Second}.Validate())
	require.Error(t, Policy{Initial: time.Second, Max: time.Second, MaxRetries: -1}.Validate())
}

func TestDo(t *testing.T) {
	p := NewPolicy(BackoffFixed, time.Millisecond, time.Millisecond, 3)
	transient := ferrors.NetworkError("timeout").Retryable().Build()

	attempts := 0
	err := Do(t.Context(), p, "sync", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return transient
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, attempts)

	attempts = 0
	permanent := errors.New("authentication failed")
	err = Do(t.Context(), p, "sync", func(context.Context) error {
		attempts++
		return permanent
	})
	require.ErrorIs(t, err, permanent)
	require.Equal(t, 1, attempts)

	attempts = 0
	err = Do(t.Context(), p, "sync", func(context.Context) error {
		attempts++
		return transient
	})
	require.ErrorIs(t, err, transient)
	require.Equal(t, 4, attempts)
}

func TestDo_StopsOnCancel(t *testing.T) {
	p := NewPolicy(BackoffFixed, time.Hour, time.Hour, 3)
	ctx, cancel := context.WithCancel(t.Context())
	attempts := 0
	err := Do(ctx, p, "sync", func(context.Context) error {
		attempts++
		cancel()
		return ferrors.NetworkError("timeout").Retryable().Build()
	})
	require.Error(t, err)
	require.Equal(t, 1, attempts)
}
