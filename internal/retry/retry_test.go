package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 3, 0, func(context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RecoversAfterFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 3, 0, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("element not found")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	boom := errors.New("click failed")
	calls := 0
	err := Do(context.Background(), 3, 0, func(context.Context) error {
		calls++
		return boom
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, boom)
}

func TestDo_RespectsContextCancellation(t *testing.T) {
	ctx, cancelFn := context.WithCancel(context.Background())
	cancelFn()

	err := Do(ctx, 3, 10*time.Millisecond, func(context.Context) error {
		t.Fatal("fn should not run with cancelled context")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
