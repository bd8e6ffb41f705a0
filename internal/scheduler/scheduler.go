package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/i474232898/weather-city-jobs/internal/metrics"
)

// Scheduler runs one recurring task per job id on top of gocron.
// Adding an id that is already scheduled replaces the existing job.
type Scheduler struct {
	scheduler *gocron.Scheduler
	logger    *zap.Logger

	mu        sync.Mutex
	jobs      map[int64]*entry
	running   sync.WaitGroup
	stopping  bool
	isStarted bool
}

type entry struct {
	job      *gocron.Job
	interval time.Duration
}

// New creates a stopped Scheduler.
func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		logger:    logger,
		jobs:      make(map[int64]*entry),
	}
}

// Interval converts hours into a whole-second duration.
func Interval(hours float64) time.Duration {
	return time.Duration(int64(hours*3600)) * time.Second
}

// Add registers task to run every intervalHours, first firing one full
// interval from now. task receives jobID.
func (s *Scheduler) Add(jobID int64, intervalHours float64, task func(int64)) error {
	interval := Interval(intervalHours)
	if interval <= 0 {
		return fmt.Errorf("scheduler: invalid interval %v hour(s) for job %d", intervalHours, jobID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.jobs[jobID]; ok {
		s.scheduler.RemoveByReference(old.job)
		delete(s.jobs, jobID)
	}

	job, err := s.scheduler.
		Every(interval).
		Tag(tag(jobID)).
		WaitForSchedule().
		SingletonMode().
		Do(s.track(task), jobID)
	if err != nil {
		return fmt.Errorf("scheduler: add job %d: %w", jobID, err)
	}

	s.jobs[jobID] = &entry{job: job, interval: interval}
	metrics.ScheduledJobs.Set(float64(len(s.jobs)))

	s.logger.Info("scheduled job",
		zap.Int64("job_id", jobID),
		zap.Float64("interval_hours", intervalHours),
		zap.Duration("interval", interval),
	)
	return nil
}

// Remove cancels the job. Unknown ids are ignored.
func (s *Scheduler) Remove(jobID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.jobs[jobID]
	if !ok {
		return
	}
	s.scheduler.RemoveByReference(e.job)
	delete(s.jobs, jobID)
	metrics.ScheduledJobs.Set(float64(len(s.jobs)))

	s.logger.Info("removed scheduled job", zap.Int64("job_id", jobID))
}

// UpdateInterval replaces the job with one running at the new cadence. A run
// already in flight completes; the new interval applies from the next firing.
func (s *Scheduler) UpdateInterval(jobID int64, intervalHours float64, task func(int64)) error {
	s.logger.Info("updating job interval", zap.Int64("job_id", jobID))
	s.Remove(jobID)
	return s.Add(jobID, intervalHours, task)
}

// JobInterval returns the cadence of a scheduled job.
func (s *Scheduler) JobInterval(jobID int64) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.jobs[jobID]
	if !ok {
		return 0, false
	}
	return e.interval, true
}

// Len returns the number of scheduled jobs.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Start begins executing jobs in the background.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isStarted {
		return
	}
	s.scheduler.StartAsync()
	s.isStarted = true
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.jobs)))
}

// Shutdown stops future firings and waits for in-flight tasks to return or
// for ctx to expire, whichever comes first.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.stopping = true
	started := s.isStarted
	s.isStarted = false
	s.mu.Unlock()

	if started {
		s.scheduler.Stop()
	}

	done := make(chan struct{})
	go func() {
		s.running.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("scheduler stopped before in-flight jobs finished")
		return ctx.Err()
	}
}

// track wraps task so Shutdown can wait for it.
func (s *Scheduler) track(task func(int64)) func(int64) {
	return func(jobID int64) {
		s.mu.Lock()
		if s.stopping {
			s.mu.Unlock()
			return
		}
		s.running.Add(1)
		s.mu.Unlock()
		defer s.running.Done()

		task(jobID)
	}
}

func tag(jobID int64) string {
	return strconv.FormatInt(jobID, 10)
}
