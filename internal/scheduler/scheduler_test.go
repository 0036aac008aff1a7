package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/gainerscout/pkg/logger"
)

type fakeJob struct {
	name     string
	schedule string
	failures int32 // fail this many times, then succeed
	calls    int32
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return j.schedule }
func (j *fakeJob) Run(ctx context.Context) error {
	if atomic.AddInt32(&j.calls, 1) <= j.failures {
		return errors.New("boom")
	}
	return nil
}

type blockingJob struct{ started chan struct{} }

func (j *blockingJob) Name() string     { return "blocking" }
func (j *blockingJob) Schedule() string { return "@daily" }
func (j *blockingJob) Run(ctx context.Context) error {
	close(j.started)
	<-ctx.Done()
	return ctx.Err()
}

func waitForRuns(t *testing.T, s *Scheduler, name string, n int) []RunRecord {
	t.Helper()
	var records []RunRecord
	require.Eventually(t, func() bool {
		got, err := s.History(name)
		if err != nil {
			return false
		}
		records = got
		return len(records) >= n
	}, 5*time.Second, 10*time.Millisecond, "job %s did not run %d times", name, n)
	return records
}

func TestAddJob(t *testing.T) {
	s := New(logger.Nop(), time.UTC)

	require.NoError(t, s.AddJob(&fakeJob{name: "a", schedule: "0 0 9 * * 1-5"}))
	assert.Error(t, s.AddJob(&fakeJob{name: "a", schedule: "0 0 9 * * 1-5"}), "duplicate name")
	assert.Error(t, s.AddJob(&fakeJob{name: "b", schedule: "not a cron"}))
	assert.Error(t, s.AddJob(&fakeJob{name: "c", schedule: "0 9 * * 1-5"}), "five fields")

	assert.Equal(t, []string{"a"}, s.Jobs())

	_, err := s.History("b")
	assert.ErrorIs(t, err, ErrJobNotFound, "rejected jobs are not registered")
	history, err := s.History("a")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestNextRunUsesLocation(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}

	s := New(logger.Nop(), ny)
	require.NoError(t, s.AddJob(&fakeJob{name: "scout", schedule: "0 0 9 * * 1-5"}))

	s.Start()
	defer s.Stop()

	next, err := s.NextRun("scout")
	require.NoError(t, err)

	local := next.In(ny)
	assert.Equal(t, 9, local.Hour())
	assert.Equal(t, 0, local.Minute())
	assert.NotEqual(t, time.Saturday, local.Weekday())
	assert.NotEqual(t, time.Sunday, local.Weekday())

	stats := s.Stats()
	require.Len(t, stats, 1)
	require.NotNil(t, stats[0].NextRun)
	assert.True(t, next.Equal(*stats[0].NextRun))
}

func TestRunJobRetries(t *testing.T) {
	s := New(logger.Nop(), time.UTC).WithRetry(2, time.Millisecond)
	job := &fakeJob{name: "flaky", schedule: "@daily", failures: 2}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("flaky"))
	records := waitForRuns(t, s, "flaky", 1)

	assert.True(t, records[0].Success)
	assert.Equal(t, 3, records[0].Attempts)
	assert.Equal(t, int32(3), atomic.LoadInt32(&job.calls))

	stats := s.Stats()
	require.Len(t, stats, 1)
	assert.Equal(t, 1, stats[0].Runs)
	assert.Equal(t, 1.0, stats[0].SuccessRate)
	assert.NotNil(t, stats[0].LastSuccess)
	assert.Nil(t, stats[0].LastFailure)
}

func TestRunJobFailureRecorded(t *testing.T) {
	s := New(logger.Nop(), time.UTC).WithRetry(1, time.Millisecond)
	require.NoError(t, s.AddJob(&fakeJob{name: "broken", schedule: "@daily", failures: 100}))

	require.NoError(t, s.RunJob("broken"))
	records := waitForRuns(t, s, "broken", 1)

	assert.False(t, records[0].Success)
	assert.Equal(t, 2, records[0].Attempts)
	assert.Equal(t, "boom", records[0].Error)

	assert.Error(t, s.RunJob("missing"))
}

func TestStopCancelsRunningJob(t *testing.T) {
	s := New(logger.Nop(), time.UTC).WithRetry(3, time.Hour)
	job := &blockingJob{started: make(chan struct{})}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("blocking"))
	<-job.started

	s.Stop()

	records, err := s.History("blocking")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].Attempts, "no retry after Stop")
	assert.False(t, records[0].Success)
}

func TestRunLogStats(t *testing.T) {
	base := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	job := &fakeJob{name: "x", schedule: "@daily"}

	var l runLog
	for i := 0; i < historyLimit+20; i++ {
		l.add(RunRecord{Job: "x", Started: base.AddDate(0, 0, i), Success: i%2 == 0})
	}
	assert.Len(t, l.records, historyLimit)

	st := l.stats(job)
	assert.Equal(t, historyLimit, st.Runs)
	assert.InDelta(t, 0.5, st.SuccessRate, 0.01)

	// 마지막(i=119)은 실패, 그 전(i=118)이 성공
	require.NotNil(t, st.LastFailure)
	require.NotNil(t, st.LastSuccess)
	assert.Equal(t, base.AddDate(0, 0, historyLimit+19), *st.LastFailure)
	assert.Equal(t, base.AddDate(0, 0, historyLimit+18), *st.LastSuccess)
	assert.Equal(t, *st.LastFailure, *st.LastRun)
}
