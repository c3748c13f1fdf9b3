package retry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDoStopsOnSuccess(t *testing.T) {
	calls := 0
	err := Constant(3, 0).Do(context.Background(), "op", func() error {
		calls++
		if calls < 2 {
			return errors.New("flaky")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDoExhaustsBudget(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	err := Constant(3, 0).Do(context.Background(), "op", func() error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestDoPermanentIsNotRetried(t *testing.T) {
	calls := 0
	bad := errors.New("bad input")
	err := Constant(5, 0).Do(context.Background(), "op", func() error {
		calls++
		return Permanent(bad)
	})
	assert.ErrorIs(t, err, bad)
	assert.Equal(t, 1, calls)
}

func TestNoneRunsOnce(t *testing.T) {
	calls := 0
	_ = None().Do(context.Background(), "op", func() error {
		calls++
		return errors.New("x")
	})
	assert.Equal(t, 1, calls)
}

func TestDoHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := Constant(10, 0).Do(ctx, "op", func() error {
		calls++
		return errors.New("x")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}
