package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roasbooster/analytics-backend/pkg/logger"
	"github.com/roasbooster/analytics-backend/pkg/metrics"
)

var (
	lockRetryInterval   = 30 * time.Second
	lockRefreshInterval = 2 * time.Minute
)

// Job is one recurring unit of work with its own cadence.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// ServiceParams configure the scheduler.
type ServiceParams struct {
	Logger  *logger.Logger
	Lock    Lock
	Metrics *metrics.JobMetrics
	Jobs    []Job
}

// Service runs every registered job on its own ticker. A single worker
// lock keeps one instance active across the fleet; within an instance
// a job that is still running when its next tick arrives skips that
// tick instead of piling up.
type Service struct {
	logg    *logger.Logger
	lock    Lock
	metrics *metrics.JobMetrics
	jobs    []Job
}

// NewService builds a scheduler service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	if len(params.Jobs) == 0 {
		return nil, fmt.Errorf("at least one job required")
	}
	for _, job := range params.Jobs {
		if job.Name == "" || job.Interval <= 0 || job.Run == nil {
			return nil, fmt.Errorf("job %q is incomplete", job.Name)
		}
	}
	return &Service{
		logg:    params.Logger,
		lock:    params.Lock,
		metrics: params.Metrics,
		jobs:    params.Jobs,
	}, nil
}

// Run blocks until the context is canceled. It first waits for the
// worker lock, then starts one loop per job; every job runs once
// immediately after the lock is held.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.waitForLock(ctx); err != nil {
		return err
	}
	defer func() {
		if err := s.lock.Release(context.Background()); err != nil {
			s.logg.Error(ctx, "failed to release worker lock", err)
		}
	}()

	s.logg.Info(ctx, "scheduler holds worker lock, starting job loops")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.refreshLoop(ctx)
	}()
	for _, job := range s.jobs {
		wg.Add(1)
		go func(job Job) {
			defer wg.Done()
			s.runLoop(ctx, job)
		}(job)
	}
	wg.Wait()

	s.logg.Info(ctx, "scheduler stopped")
	return ctx.Err()
}

func (s *Service) waitForLock(ctx context.Context) error {
	for {
		held, err := s.lock.Acquire(ctx)
		if err != nil {
			return fmt.Errorf("acquiring worker lock: %w", err)
		}
		if held {
			return nil
		}

		s.logg.Info(ctx, "another worker holds the lock, standing by")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
}

func (s *Service) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(lockRefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.lock.Refresh(ctx); err != nil {
				s.logg.Error(ctx, "worker lock refresh failed", err)
			}
		}
	}
}

func (s *Service) runLoop(ctx context.Context, job Job) {
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	var busy atomic.Bool
	var inflight sync.WaitGroup

	fire := func() {
		if !busy.CompareAndSwap(false, true) {
			s.metrics.IncSkipped(job.Name)
			s.logg.Info(s.logg.WithJob(ctx, job.Name), "previous run still in progress, tick skipped")
			return
		}
		inflight.Add(1)
		go func() {
			defer inflight.Done()
			defer busy.Store(false)
			s.execute(ctx, job)
		}()
	}

	fire()
	for {
		select {
		case <-ctx.Done():
			inflight.Wait()
			return
		case <-ticker.C:
			fire()
		}
	}
}

func (s *Service) execute(ctx context.Context, job Job) {
	jobCtx := s.logg.WithJob(ctx, job.Name)
	s.logg.Info(jobCtx, "job start")

	start := time.Now()
	err := job.Run(jobCtx)
	duration := time.Since(start)
	s.metrics.ObserveDuration(job.Name, duration)

	jobCtx = s.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())
	if err != nil {
		s.logg.Error(jobCtx, "job failed", err)
		s.metrics.IncFailure(job.Name)
		return
	}
	s.logg.Info(jobCtx, "job completed")
	s.metrics.IncSuccess(job.Name)
}
