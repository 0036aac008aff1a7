package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/gainerscout/internal/scheduler"
	"github.com/wonny/gainerscout/internal/scheduler/jobs"
)

// scheduleCmd represents the schedule command
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "스케줄러 시작",
	Long: `NYSE 영업일마다 파이프라인을 실행하는 스케줄러를 시작합니다.

스케줄은 SCHEDULE (6필드 cron, 초 포함) 과 MARKET_TIMEZONE 으로 설정합니다.
기본값: 평일 09:00 America/New_York. 휴장일은 건너뜁니다.

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
	RunE: runScheduleDaemon,
}

var scheduleNextCmd = &cobra.Command{
	Use:   "next",
	Short: "다음 실행 시각 조회",
	RunE:  showNextRun,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
	scheduleCmd.AddCommand(scheduleNextCmd)
}

// newScheduler registers the scout job on a fresh scheduler
func newScheduler(a *app) (*scheduler.Scheduler, error) {
	cal, err := jobs.NYSECalendar()
	if err != nil {
		return nil, err
	}

	// fetch 단계가 실패한 run은 5분 뒤 한 번 더
	sched := scheduler.New(a.log, a.cfg.Location()).WithRetry(1, 5*time.Minute)
	if err := sched.AddJob(jobs.NewScoutJob(a.runner, cal, a.cfg.Schedule, a.log)); err != nil {
		return nil, fmt.Errorf("register scout job: %w", err)
	}
	return sched, nil
}

func runScheduleDaemon(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Gainer Scout Scheduler ===")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, nil)
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := newScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()
	fmt.Println("\n✅ Scheduler started")
	fmt.Println("\nRegistered jobs:")
	for _, name := range sched.Jobs() {
		next, _ := sched.NextRun(name)
		fmt.Printf("  - %s (next: %s)\n", name, next.Format(time.RFC3339))
	}
	fmt.Println("\nPress Ctrl+C to stop")

	<-ctx.Done()

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()

	for _, st := range sched.Stats() {
		fmt.Printf("📊 %s: %d runs, %d failures\n", st.Job, st.Runs, st.Failures)
	}
	fmt.Println("Scheduler stopped")
	return nil
}

func showNextRun(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadSettings(nil)
	if err != nil {
		return err
	}
	cal, err := jobs.NYSECalendar()
	if err != nil {
		return err
	}

	loc := cfg.Location()
	next, err := jobs.NextBusinessRun(cfg.Schedule, cal, time.Now().In(loc))
	if err != nil {
		return err
	}

	fmt.Printf("Schedule: %s (%s)\n", cfg.Schedule, loc)
	fmt.Printf("Next run: %s\n", next.Format("2006-01-02 15:04:05 MST"))
	return nil
}
