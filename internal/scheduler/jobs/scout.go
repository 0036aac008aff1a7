package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/scmhub/calendar"

	"github.com/wonny/gainerscout/internal/pipeline"
	"github.com/wonny/gainerscout/pkg/logger"
)

// DefaultSchedule runs at 09:00:00 market time, Monday to Friday
const DefaultSchedule = "0 0 9 * * 1-5"

// Runner is the part of the pipeline the job drives
type Runner interface {
	Run(ctx context.Context, opts pipeline.Options) (*pipeline.RunResult, error)
}

// BusinessDays decides whether the market trades on a date
type BusinessDays interface {
	IsBusinessDay(t time.Time) bool
}

// ScoutJob runs the top-gainers pipeline on exchange business days
// ⭐ SSOT: 정기 스크랩 스케줄은 이 Job에서만
type ScoutJob struct {
	runner   Runner
	calendar BusinessDays
	schedule string
	opts     pipeline.Options
	now      func() time.Time
	logger   *logger.Logger
}

// NewScoutJob creates the job; an empty schedule falls back to DefaultSchedule
func NewScoutJob(runner Runner, cal BusinessDays, schedule string, log *logger.Logger) *ScoutJob {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &ScoutJob{
		runner:   runner,
		calendar: cal,
		schedule: schedule,
		now:      time.Now,
		logger:   log,
	}
}

// NYSECalendar returns the XNYS holiday calendar
func NYSECalendar() (*calendar.Calendar, error) {
	cal := calendar.GetCalendar("xnys")
	if cal == nil {
		return nil, fmt.Errorf("calendar xnys not available")
	}
	return cal, nil
}

// WithOptions sets the run options used by every scheduled run
func (j *ScoutJob) WithOptions(opts pipeline.Options) *ScoutJob {
	j.opts = opts
	return j
}

// Name returns the job name
func (j *ScoutJob) Name() string {
	return "scout"
}

// Schedule returns the cron schedule (with seconds)
func (j *ScoutJob) Schedule() string {
	return j.schedule
}

// Run executes one pipeline run unless today is a market holiday
func (j *ScoutJob) Run(ctx context.Context) error {
	today := j.now()
	if j.calendar != nil && !j.calendar.IsBusinessDay(today) {
		j.logger.WithField("date", today.Format("2006-01-02")).Info("Market closed, skipping scheduled run")
		return nil
	}

	result, err := j.runner.Run(ctx, j.opts)
	if err != nil {
		return fmt.Errorf("scheduled run: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":  result.RunID.String(),
		"records": len(result.Records),
	}).Info("Scheduled run finished")
	return nil
}

// maxSkippedDays bounds NextBusinessRun's search across holidays and weekends
const maxSkippedDays = 31

var scheduleParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// NextBusinessRun returns the first activation of schedule after from that
// falls on a business day of cal
func NextBusinessRun(schedule string, cal BusinessDays, from time.Time) (time.Time, error) {
	sched, err := scheduleParser.Parse(schedule)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse schedule %q: %w", schedule, err)
	}

	next := from
	limit := from.AddDate(0, 0, maxSkippedDays)
	for {
		next = sched.Next(next)
		if next.IsZero() || next.After(limit) {
			return time.Time{}, fmt.Errorf("no business-day run of %q within %d days", schedule, maxSkippedDays)
		}
		if cal == nil || cal.IsBusinessDay(next) {
			return next, nil
		}
	}
}
