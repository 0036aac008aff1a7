package scheduler

import (
	"context"
	"time"
)

// Job is a unit of work run on a cron schedule
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	Name() string

	// Schedule is a six-field cron expression (seconds first) or a
	// descriptor such as "@daily"
	Schedule() string

	Run(ctx context.Context) error
}

// RunRecord is one finished execution of a job, retries included
type RunRecord struct {
	Job      string        `json:"job"`
	Started  time.Time     `json:"started"`
	Finished time.Time     `json:"finished"`
	Duration time.Duration `json:"duration"`
	Attempts int           `json:"attempts"`
	Success  bool          `json:"success"`
	Error    string        `json:"error,omitempty"`
}

// historyLimit bounds the records kept per job
const historyLimit = 100

// runLog keeps the most recent records of one job, oldest first
type runLog struct {
	records []RunRecord
}

func (l *runLog) add(rec RunRecord) {
	l.records = append(l.records, rec)
	if over := len(l.records) - historyLimit; over > 0 {
		l.records = append(l.records[:0], l.records[over:]...)
	}
}

func (l *runLog) snapshot() []RunRecord {
	return append([]RunRecord(nil), l.records...)
}

// JobStats summarizes the kept history of a job
type JobStats struct {
	Job         string     `json:"job"`
	Schedule    string     `json:"schedule"`
	Runs        int        `json:"runs"`
	Failures    int        `json:"failures"`
	SuccessRate float64    `json:"success_rate"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	LastSuccess *time.Time `json:"last_success,omitempty"`
	LastFailure *time.Time `json:"last_failure,omitempty"`
	NextRun     *time.Time `json:"next_run,omitempty"`
}

func (l *runLog) stats(job Job) JobStats {
	st := JobStats{Job: job.Name(), Schedule: job.Schedule(), Runs: len(l.records)}

	// 최신 기록부터 역순으로 훑음
	for i := len(l.records) - 1; i >= 0; i-- {
		rec := l.records[i]
		started := rec.Started

		if st.LastRun == nil {
			st.LastRun = &started
		}
		if rec.Success {
			if st.LastSuccess == nil {
				st.LastSuccess = &started
			}
		} else {
			st.Failures++
			if st.LastFailure == nil {
				st.LastFailure = &started
			}
		}
	}

	if st.Runs > 0 {
		st.SuccessRate = float64(st.Runs-st.Failures) / float64(st.Runs)
	}
	return st
}
