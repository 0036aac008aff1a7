package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wonny/gainerscout/pkg/logger"
)

// ErrJobNotFound is returned for a name no job was registered under
var ErrJobNotFound = errors.New("job not found")

// Scheduler runs registered jobs on their cron schedules in one timezone
// ⭐ SSOT: 스케줄 관리는 이 스케줄러에서만
type Scheduler struct {
	cron   *cron.Cron
	logger *logger.Logger

	mu      sync.RWMutex
	entries map[string]*entry

	retries    int // extra attempts after a failure
	retryDelay time.Duration

	ctx    context.Context // canceled by Stop
	cancel context.CancelFunc
	manual sync.WaitGroup // RunJob goroutines
}

type entry struct {
	job Job
	id  cron.EntryID
	log runLog
}

// New creates a scheduler whose expressions carry seconds and are
// evaluated in loc (time.Local when nil)
func New(log *logger.Logger, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:       cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		logger:     log,
		entries:    make(map[string]*entry),
		retryDelay: time.Minute,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// WithRetry re-runs a failed job up to retries more times, delay apart
func (s *Scheduler) WithRetry(retries int, delay time.Duration) *Scheduler {
	s.retries = retries
	s.retryDelay = delay
	return s
}

// AddJob registers job under its name
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.entries[name]; exists {
		return fmt.Errorf("job %s already exists", name)
	}

	e := &entry{job: job}
	id, err := s.cron.AddFunc(job.Schedule(), func() { s.execute(e) })
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}
	e.id = id
	s.entries[name] = e

	s.logger.WithFields(map[string]interface{}{
		"job":      name,
		"schedule": job.Schedule(),
	}).Info("Job added to scheduler")
	return nil
}

// Start begins firing scheduled jobs
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler")
	s.cron.Start()
}

// Stop halts the cron loop, cancels the context handed to running jobs
// and waits until every one has returned
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	done := s.cron.Stop()
	s.cancel()
	<-done.Done()
	s.manual.Wait()
	s.logger.Info("Scheduler stopped")
}

// NextRun returns when the job fires next; zero before Start
func (s *Scheduler) NextRun(name string) (time.Time, error) {
	s.mu.RLock()
	e, exists := s.entries[name]
	s.mu.RUnlock()

	if !exists {
		return time.Time{}, fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	return s.cron.Entry(e.id).Next, nil
}

// RunJob fires a job now, outside its schedule, without waiting for it
func (s *Scheduler) RunJob(name string) error {
	s.mu.RLock()
	e, exists := s.entries[name]
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}

	s.manual.Add(1)
	go func() {
		defer s.manual.Done()
		s.execute(e)
	}()
	return nil
}

func (s *Scheduler) execute(e *entry) {
	name := e.job.Name()
	log := s.logger.WithField("job", name)
	log.Info("Job started")

	rec := RunRecord{Job: name, Started: time.Now()}

	var err error
	for {
		rec.Attempts++
		if err = e.job.Run(s.ctx); err == nil || s.ctx.Err() != nil || rec.Attempts > s.retries {
			break
		}

		log.WithError(err).WithField("attempt", rec.Attempts).Warn("Job failed, retrying")
		select {
		case <-s.ctx.Done():
		case <-time.After(s.retryDelay):
		}
	}

	rec.Finished = time.Now()
	rec.Duration = rec.Finished.Sub(rec.Started)
	rec.Success = err == nil
	if err != nil {
		rec.Error = err.Error()
	}

	s.mu.Lock()
	e.log.add(rec)
	s.mu.Unlock()

	log = log.WithFields(map[string]interface{}{
		"duration": rec.Duration.String(),
		"attempts": rec.Attempts,
	})
	if rec.Success {
		log.Info("Job completed successfully")
	} else {
		log.WithError(err).Error("Job failed")
	}
}

// History returns the kept records of a job, oldest first
func (s *Scheduler) History(name string) ([]RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.entries[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	return e.log.snapshot(), nil
}

// Jobs returns the registered job names, sorted
func (s *Scheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Stats returns one summary per registered job, sorted by name
func (s *Scheduler) Stats() []JobStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobStats, 0, len(s.entries))
	for _, e := range s.entries {
		st := e.log.stats(e.job)
		if next := s.cron.Entry(e.id).Next; !next.IsZero() {
			st.NextRun = &next
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Job < out[j].Job })
	return out
}
