package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestScheduler_StartStopLeavesNoGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := New("", nil)
	s.SetReportFunction(func(context.Context) (string, error) { return "r.json", nil })
	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.Equal(t, 21, s.Next().Hour())

	s.Stop()
	assert.False(t, s.IsRunning())
	assert.True(t, s.Next().IsZero())
}

func TestScheduler_StartWithoutReportFunc(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := New(DefaultSpec, nil)
	require.NoError(t, s.Start())
	assert.False(t, s.IsRunning())
	s.Stop()
}

func TestScheduler_InvalidSpec(t *testing.T) {
	s := New("not a cron line", nil)
	s.SetReportFunction(func(context.Context) (string, error) { return "", nil })
	assert.Error(t, s.Start())
	s.Stop()
}

func TestScheduler_RunNow(t *testing.T) {
	s := New("@daily", nil)
	defer s.Stop()

	_, err := s.RunNow(context.Background())
	assert.ErrorIs(t, err, ErrNoReportFunc)

	calls := 0
	s.SetReportFunction(func(context.Context) (string, error) {
		calls++
		return "out/report.json", nil
	})
	p, err := s.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "out/report.json", p)
	assert.Equal(t, 1, calls)

	s.SetReportFunction(func(context.Context) (string, error) { return "", errors.New("disk full") })
	_, err = s.RunNow(context.Background())
	assert.EqualError(t, err, "disk full")
}

func TestScheduler_RestartAfterStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := New("@every 1s", nil)
	runs := make(chan error, 16)
	s.SetReportFunction(func(ctx context.Context) (string, error) {
		select {
		case runs <- ctx.Err():
		default:
		}
		return "r.json", nil
	})

	require.NoError(t, s.Start())
	s.Stop()
	for len(runs) > 0 {
		<-runs
	}

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	select {
	case err := <-runs:
		assert.NoError(t, err, "jobs after a restart get a live context")
	case <-time.After(5 * time.Second):
		t.Fatal("restarted scheduler never ran")
	}
	s.Stop()
	assert.False(t, s.IsRunning())
}
