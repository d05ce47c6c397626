package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	require.NoError(t, Validate("0 1 * * *"))
	require.NoError(t, Validate("*/5 * * * *"))
	require.Error(t, Validate("every day"))
	require.Error(t, Validate("61 * * * *"))
}

func TestNext(t *testing.T) {
	at := time.Date(2024, 5, 1, 0, 30, 0, 0, time.UTC)
	next, err := Next("0 1 * * *", at)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 1, 0, 0, 0, time.UTC), next)

	next, err = Next("0 1 * * *", next)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 2, 1, 0, 0, 0, time.UTC), next)
}

func TestRunFiresOnEveryTick(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 30, 0, 0, time.UTC)
	var waits []time.Duration

	s := New(zerolog.Nop())
	s.now = func() time.Time { return now }
	s.after = func(d time.Duration) <-chan time.Time {
		waits = append(waits, d)
		now = now.Add(d)
		ch := make(chan time.Time, 1)
		ch <- now
		return ch
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runs := 0
	err := s.Run(ctx, Job{Name: "test", Expr: "0 1 * * *", Run: func(context.Context) {
		runs++
		if runs == 3 {
			cancel()
		}
	}})
	require.NoError(t, err)
	assert.Equal(t, 3, runs)
	assert.Equal(t, []time.Duration{30 * time.Minute, 24 * time.Hour, 24 * time.Hour}, waits[:3])
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := New(zerolog.Nop()).Run(ctx, Job{Name: "idle", Expr: "0 1 * * *", Run: func(context.Context) {
		t.Fatal("job must not run")
	}})
	require.NoError(t, err)
}

func TestRunRejectsBadExpression(t *testing.T) {
	err := New(zerolog.Nop()).Run(context.Background(), Job{Name: "bad", Expr: "nope"})
	require.ErrorContains(t, err, "invalid cron expression")
}
