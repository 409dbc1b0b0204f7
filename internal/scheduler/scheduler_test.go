package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roasbooster/analytics-backend/pkg/logger"
)

type fakeLock struct {
	denials  int
	acquires int
	released bool
	err      error
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.acquires++
	if f.acquires <= f.denials {
		return false, nil
	}
	return true, nil
}

func (f *fakeLock) Refresh(context.Context) error { return nil }

func (f *fakeLock) Release(context.Context) error { f.released = true; return nil }

func testSchedulerLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "scheduler-test"})
}

func waitFor(t *testing.T, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestNewServiceValidation(t *testing.T) {
	logg := testSchedulerLogger()
	job := Job{Name: "noop", Interval: time.Minute, Run: func(context.Context) error { return nil }}

	_, err := NewService(ServiceParams{Lock: &fakeLock{}, Jobs: []Job{job}})
	assert.Error(t, err)

	_, err = NewService(ServiceParams{Logger: logg, Jobs: []Job{job}})
	assert.Error(t, err)

	_, err = NewService(ServiceParams{Logger: logg, Lock: &fakeLock{}})
	assert.Error(t, err)

	_, err = NewService(ServiceParams{Logger: logg, Lock: &fakeLock{}, Jobs: []Job{{Name: "broken", Interval: time.Minute}}})
	assert.Error(t, err)

	_, err = NewService(ServiceParams{Logger: logg, Lock: &fakeLock{}, Jobs: []Job{job}})
	assert.NoError(t, err)
}

func TestRunExecutesJobImmediatelyAndReleasesLock(t *testing.T) {
	var runs atomic.Int64
	lock := &fakeLock{}
	service, err := NewService(ServiceParams{
		Logger: testSchedulerLogger(),
		Lock:   lock,
		Jobs: []Job{{
			Name:     "orders",
			Interval: time.Hour,
			Run: func(context.Context) error {
				runs.Add(1)
				return nil
			},
		}},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- service.Run(ctx) }()

	waitFor(t, func() bool { return runs.Load() == 1 })
	cancel()

	err = <-done
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, lock.released)
}

func TestRunSkipsTicksWhileJobIsBusy(t *testing.T) {
	var runs atomic.Int64
	release := make(chan struct{})
	service, err := NewService(ServiceParams{
		Logger: testSchedulerLogger(),
		Lock:   &fakeLock{},
		Jobs: []Job{{
			Name:     "slow",
			Interval: 10 * time.Millisecond,
			Run: func(context.Context) error {
				runs.Add(1)
				<-release
				return nil
			},
		}},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- service.Run(ctx) }()

	waitFor(t, func() bool { return runs.Load() == 1 })
	// many ticks pass while the first run is still blocked
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int64(1), runs.Load())

	close(release)
	waitFor(t, func() bool { return runs.Load() >= 2 })

	cancel()
	<-done
}

func TestRunWaitsForLock(t *testing.T) {
	prev := lockRetryInterval
	lockRetryInterval = 5 * time.Millisecond
	t.Cleanup(func() { lockRetryInterval = prev })

	var runs atomic.Int64
	lock := &fakeLock{denials: 2}
	service, err := NewService(ServiceParams{
		Logger: testSchedulerLogger(),
		Lock:   lock,
		Jobs: []Job{{
			Name:     "orders",
			Interval: time.Hour,
			Run: func(context.Context) error {
				runs.Add(1)
				return nil
			},
		}},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- service.Run(ctx) }()

	waitFor(t, func() bool { return runs.Load() == 1 })
	cancel()
	<-done

	assert.GreaterOrEqual(t, lock.acquires, 3)
}

func TestRunReturnsLockError(t *testing.T) {
	service, err := NewService(ServiceParams{
		Logger: testSchedulerLogger(),
		Lock:   &fakeLock{err: errors.New("redis down")},
		Jobs: []Job{{
			Name:     "orders",
			Interval: time.Hour,
			Run:      func(context.Context) error { return nil },
		}},
	})
	require.NoError(t, err)

	err = service.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis down")
}

func TestRunContinuesAfterJobFailure(t *testing.T) {
	var runs atomic.Int64
	service, err := NewService(ServiceParams{
		Logger: testSchedulerLogger(),
		Lock:   &fakeLock{},
		Jobs: []Job{{
			Name:     "flaky",
			Interval: 10 * time.Millisecond,
			Run: func(context.Context) error {
				runs.Add(1)
				return errors.New("boom")
			},
		}},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- service.Run(ctx) }()

	waitFor(t, func() bool { return runs.Load() >= 3 })
	cancel()
	<-done
}
