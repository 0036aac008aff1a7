package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wonny/gainerscout/internal/screenerconfig"
)

// configCmd prints the effective screener definition
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "스크리너 설정 확인",
	Long: `적용될 스크리너 설정(YAML)과 해시, 수집할 URL 목록을 출력합니다.

Example:
  go run ./cmd/scout config
  go run ./cmd/scout config --screener configs/screener.yaml`,
	RunE: showConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func showConfig(cmd *cobra.Command, args []string) error {
	cfg, screener, err := loadSettings(nil)
	if err != nil {
		return err
	}

	hash, err := screenerconfig.Hash(screener)
	if err != nil {
		return fmt.Errorf("hash screener config: %w", err)
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(screener); err != nil {
		return fmt.Errorf("encode screener config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}

	fmt.Printf("\n# hash: %s\n", hash)
	fmt.Println("# listing pages:")
	for _, u := range screener.ListingURLs(cfg.Finviz.BaseURL) {
		fmt.Printf("#   %s\n", u)
	}
	return nil
}
