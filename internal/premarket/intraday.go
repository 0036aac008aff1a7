package premarket

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Bar is one intraday row
type Bar struct {
	Time   time.Time // wall clock of the row, market timezone
	High   decimal.Decimal
	Low    decimal.Decimal
	Volume decimal.Decimal
}

// required header columns
var requiredColumns = []string{"Date", "Time", "High", "Low", "Volume"}

const timestampLayout = "02.01.2006 15:04:05"

// ReadBars parses a ';'-separated intraday file.
// Rows that fail to parse are returned in skipped, not as an error.
func ReadBars(r io.Reader, loc *time.Location) (bars []Bar, skipped int, err error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, 0, fmt.Errorf("missing column %q", col)
		}
	}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				skipped++
				continue
			}
			return bars, skipped, fmt.Errorf("read row: %w", err)
		}

		bar, ok := parseBar(row, idx, loc)
		if !ok {
			skipped++
			continue
		}
		bars = append(bars, bar)
	}

	return bars, skipped, nil
}

func parseBar(row []string, idx map[string]int, loc *time.Location) (Bar, bool) {
	cell := func(col string) string {
		i := idx[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	// "09:30:00-000000" 형식: 소수부는 무시
	clock := cell("Time")
	if i := strings.IndexByte(clock, '-'); i >= 0 {
		clock = clock[:i]
	}

	ts, err := time.ParseInLocation(timestampLayout, cell("Date")+" "+clock, loc)
	if err != nil {
		return Bar{}, false
	}

	high, err1 := parseNumber(cell("High"))
	low, err2 := parseNumber(cell("Low"))
	volume, err3 := parseVolume(cell("Volume"))
	if err1 != nil || err2 != nil || err3 != nil {
		return Bar{}, false
	}

	return Bar{Time: ts, High: high, Low: low, Volume: volume}, true
}

// parseNumber accepts both '.' and ',' as decimal separator (prices)
func parseNumber(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
}

// volumeGrouping are thousands separators seen in share counts
var volumeGrouping = strings.NewReplacer(",", "", " ", "", "\u00a0", "", "'", "", "_", "")

// parseVolume reads a share count. ',' groups thousands here, so
// "1,200" is 1200 shares; '.' is still a decimal point and a value
// like "1.200.000" fails instead of being misread.
func parseVolume(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(volumeGrouping.Replace(s))
}
