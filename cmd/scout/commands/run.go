package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/gainerscout/internal/pipeline"
	"github.com/wonny/gainerscout/pkg/config"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "파이프라인 1회 실행",
	Long: `스크리너 수집 → 상세 보강 → 프리마켓 병합 → CSV → Telegram 을 한 번 실행합니다.

Example:
  go run ./cmd/scout run
  go run ./cmd/scout run --no-notify
  go run ./cmd/scout run --output out/today.csv --intraday-dir "data/1m/{date}"`,
	RunE: runOnce,
}

var (
	runNoNotify    bool
	runOutput      string
	runIntradayDir string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runNoNotify, "no-notify", false, "Telegram 전송 생략")
	runCmd.Flags().StringVar(&runOutput, "output", "", "CSV 출력 경로 (default: OUTPUT_CSV)")
	runCmd.Flags().StringVar(&runIntradayDir, "intraday-dir", "", "1분봉 디렉터리, {date} 치환 (default: INTRADAY_DIR)")
}

func runOnce(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, func(cfg *config.Config) {
		if runIntradayDir != "" {
			cfg.IntradayDir = runIntradayDir
		}
	})
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.runner.Run(ctx, pipeline.Options{
		SkipNotify: runNoNotify,
		OutputPath: runOutput,
	})
	if err != nil {
		a.log.WithError(err).Error("Run failed")
		return err
	}

	fmt.Printf("\n✅ Run %s finished\n", result.RunID)
	fmt.Printf("   Records:   %d (%d pages, %d page errors)\n", len(result.Records), result.Scrape.Pages, result.Scrape.PageErrors)
	fmt.Printf("   Detail:    %d enriched, %d cached, %d failed\n", result.Scrape.Detail.Enriched, result.Scrape.Detail.Cached, result.Scrape.Detail.Failed)
	fmt.Printf("   PreMarket: %d merged, %d missing, %d empty, %d failed\n", result.PreMarket.Merged, result.PreMarket.Missing, result.PreMarket.Empty, result.PreMarket.Failed)
	fmt.Printf("   CSV:       %s\n", result.OutputPath)
	if !runNoNotify {
		fmt.Printf("   Telegram:  %d sent, %d failed\n", result.Notified, result.NotifyFailed)
	}
	return nil
}
