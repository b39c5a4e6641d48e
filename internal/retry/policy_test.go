package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/devicecfg/internal/config"
)

func TestFromConfig(t *testing.T) {
	p := FromConfig(config.RetryConfig{DelayMs: 250, MaxRetries: 2})

	assert.Equal(t, 250*time.Millisecond, p.Delay)
	assert.Equal(t, 3, p.Attempts())
}

func TestDo_ExhaustsBudget(t *testing.T) {
	p := Policy{Delay: time.Millisecond, MaxRetries: 2}

	calls := 0
	var waits []int
	err := p.Do(context.Background(),
		func(int) error {
			calls++
			return errors.New("ack not received")
		},
		func(attempt int, _ error, _ time.Duration) {
			waits = append(waits, attempt)
		},
	)

	require.Error(t, err)
	assert.Equal(t, "ack not received", err.Error())
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, waits)
}

func TestDo_StopsOnSuccess(t *testing.T) {
	p := Policy{Delay: time.Millisecond, MaxRetries: 5}

	calls := 0
	err := p.Do(context.Background(), func(attempt int) error {
		calls++
		if attempt < 2 {
			return errors.New("transient")
		}
		return nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDo_ZeroRetriesIsSingleAttempt(t *testing.T) {
	p := Policy{}

	calls := 0
	err := p.Do(context.Background(), func(int) error {
		calls++
		return errors.New("boom")
	}, nil)

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_Permanent(t *testing.T) {
	p := Policy{Delay: time.Millisecond, MaxRetries: 5}
	sentinel := errors.New("rejected")

	calls := 0
	err := p.Do(context.Background(), func(int) error {
		calls++
		return Permanent(sentinel)
	}, nil)

	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelled(t *testing.T) {
	p := Policy{Delay: time.Hour, MaxRetries: 3}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := p.Do(ctx, func(int) error { return errors.New("down") }, nil)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}
