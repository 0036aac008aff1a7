package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	screenerFile string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "scout",
	Short: "Gainer Scout - Finviz 상승 종목 스카우트",
	Long: `Gainer Scout CLI

Finviz 상승 종목 스크리너를 수집하고 상세 페이지와
프리마켓 1분봉으로 보강한 뒤 CSV와 Telegram으로 내보냅니다.

Usage:
  go run ./cmd/scout [command]

Examples:
  go run ./cmd/scout run
  go run ./cmd/scout run --no-notify --output today.csv
  go run ./cmd/scout schedule
  go run ./cmd/scout api --with-scheduler
  go run ./cmd/scout config`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&screenerFile, "screener", "", "screener YAML (default: SCREENER_CONFIG or built-in)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
