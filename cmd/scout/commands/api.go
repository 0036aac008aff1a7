package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/gainerscout/internal/api"
	"github.com/wonny/gainerscout/internal/api/handlers"
	"github.com/wonny/gainerscout/internal/api/ws"
	"github.com/wonny/gainerscout/internal/pipeline"
	"github.com/wonny/gainerscout/pkg/config"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health           - Health check
  GET  /api/runs/latest  - 마지막 실행 결과
  POST /api/runs         - 실행 트리거 (body: {"skip_notify": true})
  GET  /api/runs/{id}/records       - 실행별 레코드
  GET  /api/schedule                - 스케줄러 상태 (--with-scheduler)
  GET  /api/schedule/{job}/history  - 작업 실행 이력 (--with-scheduler)
  GET  /ws/runs          - 실행 완료 이벤트 (websocket)

Example:
  go run ./cmd/scout api
  go run ./cmd/scout api --port 8080 --with-scheduler`,
	RunE: runAPIServer,
}

var (
	apiPort          string
	apiWithScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default: PORT)")
	apiCmd.Flags().BoolVar(&apiWithScheduler, "with-scheduler", false, "스케줄러를 같은 프로세스에서 실행")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Gainer Scout API Server ===")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Wire dependencies
	a, err := newApp(ctx, func(cfg *config.Config) {
		if apiPort != "" {
			cfg.Port = apiPort
		}
	})
	if err != nil {
		return err
	}
	defer a.close()

	// 2. Websocket hub fed by the runner
	hub := ws.NewHub(a.log)
	go hub.Run(ctx)
	a.runner.Subscribe(func(result *pipeline.RunResult) {
		if err := hub.Publish(result); err != nil {
			a.log.WithError(err).Warn("Failed to publish run")
		}
	})

	// 3. Optional in-process scheduler
	var schedule *handlers.ScheduleHandler
	if apiWithScheduler {
		sched, err := newScheduler(a)
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		sched.Start()
		defer sched.Stop()
		schedule = handlers.NewScheduleHandler(sched)
		a.log.Info("Scheduler started alongside API server")
	}

	// 4. Handlers (nil 포인터를 인터페이스로 넘기지 않도록 분기)
	health := handlers.NewHealthHandler(nil, "gainerscout")
	runs := handlers.NewRunHandler(ctx, a.runner, nil, a.log)
	if a.db != nil {
		health = handlers.NewHealthHandler(a.db, "gainerscout")
		runs = handlers.NewRunHandler(ctx, a.runner, a.archive, a.log)
	}

	// 5. Serve until Ctrl+C
	server := api.New(a.cfg, a.log, api.NewRouter(health, runs, schedule, hub, a.log))

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	return server.Run(ctx)
}
