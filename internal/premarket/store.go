package premarket

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wonny/gainerscout/internal/finviz"
	"github.com/wonny/gainerscout/pkg/logger"
)

// DatePlaceholder in a directory template is replaced with the run date
const DatePlaceholder = "{date}"

const dirDateLayout = "02.01.2006"

// Store reads per-ticker intraday files from a local directory
// ⭐ SSOT: 분봉 파일 접근은 여기서만
type Store struct {
	dirTemplate string
	loc         *time.Location
	logger      *logger.Logger
}

// MergeStats summarizes one Merge call
type MergeStats struct {
	Merged  int `json:"merged"`
	Missing int `json:"missing"` // no intraday file
	Empty   int `json:"empty"`   // file without pre-market rows
	Failed  int `json:"failed"`  // unreadable file
}

// NewStore creates a store rooted at dirTemplate (may contain {date})
func NewStore(dirTemplate string, loc *time.Location, log *logger.Logger) *Store {
	if loc == nil {
		loc = time.UTC
	}
	return &Store{dirTemplate: dirTemplate, loc: loc, logger: log}
}

// Dir resolves the directory for runDate
func (s *Store) Dir(runDate time.Time) string {
	return strings.ReplaceAll(s.dirTemplate, DatePlaceholder, runDate.In(s.loc).Format(dirDateLayout))
}

// ErrUnsafeTicker is returned for a ticker that cannot name a file inside the run directory
var ErrUnsafeTicker = errors.New("ticker is not a safe file name")

// Path returns the intraday file of ticker for runDate.
// Scraped tickers are untrusted, so anything that could leave the directory is rejected.
func (s *Store) Path(runDate time.Time, ticker string) (string, error) {
	if ticker == "" || ticker == "." || ticker == ".." ||
		strings.ContainsAny(ticker, `/\:`+"\x00") || filepath.Base(ticker) != ticker {
		return "", fmt.Errorf("%w: %q", ErrUnsafeTicker, ticker)
	}
	return filepath.Join(s.Dir(runDate), ticker+".csv"), nil
}

// Load reads the pre-market statistics of one ticker.
// found is false when the file does not exist or has no rows in the window.
func (s *Store) Load(runDate time.Time, ticker string) (stats finviz.PreMarketStats, found bool, err error) {
	path, err := s.Path(runDate, ticker)
	if err != nil {
		return stats, false, err
	}

	f, err := os.Open(path)
	if err != nil {
		return stats, false, err
	}
	defer f.Close()

	bars, skipped, err := ReadBars(f, s.loc)
	if err != nil {
		return stats, false, fmt.Errorf("read %s: %w", path, err)
	}
	if skipped > 0 {
		s.logger.WithFields(map[string]interface{}{
			"ticker":  ticker,
			"skipped": skipped,
		}).Debug("Skipped malformed intraday rows")
	}

	stats, found = Aggregate(bars)
	return stats, found, nil
}

// Merge attaches pre-market statistics to every record with an intraday file.
// Records without one are left unchanged.
func (s *Store) Merge(ctx context.Context, records []*finviz.StockRecord, runDate time.Time) (MergeStats, error) {
	var ms MergeStats

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return ms, err
		}

		stats, found, err := s.Load(runDate, record.Ticker)
		switch {
		case errors.Is(err, ErrUnsafeTicker):
			ms.Failed++
			s.logger.WithError(err).Warn("Refusing intraday lookup for ticker")
		case errors.Is(err, fs.ErrNotExist):
			ms.Missing++
			s.logger.WithField("ticker", record.Ticker).Warnf("CSV file for %s not found!", record.Ticker)
		case err != nil:
			ms.Failed++
			s.logger.WithError(err).WithField("ticker", record.Ticker).Error("Failed to read intraday file")
		case !found:
			ms.Empty++
			s.logger.WithField("ticker", record.Ticker).Warn("No pre-market rows in intraday file")
		default:
			st := stats
			record.PreMarket = &st
			ms.Merged++
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"dir":     s.Dir(runDate),
		"merged":  ms.Merged,
		"missing": ms.Missing,
		"empty":   ms.Empty,
		"failed":  ms.Failed,
	}).Info("Pre-market merge completed")

	return ms, nil
}
