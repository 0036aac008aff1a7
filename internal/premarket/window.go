package premarket

import (
	"time"

	"github.com/wonny/gainerscout/internal/finviz"
)

// InWindow reports whether t falls in the pre-market window 04:00-09:30.
// 09:30 itself is included, 09:31 is not.
func InWindow(t time.Time) bool {
	h, m := t.Hour(), t.Minute()
	return (h >= 4 && h < 9) || (h == 9 && m <= 30)
}

// Aggregate computes max High, min Low and total Volume over the bars in
// the window. ok is false when no bar falls inside it.
func Aggregate(bars []Bar) (stats finviz.PreMarketStats, ok bool) {
	for _, bar := range bars {
		if !InWindow(bar.Time) {
			continue
		}

		if stats.Rows == 0 {
			stats.High = bar.High
			stats.Low = bar.Low
			stats.Volume = bar.Volume
		} else {
			if bar.High.GreaterThan(stats.High) {
				stats.High = bar.High
			}
			if bar.Low.LessThan(stats.Low) {
				stats.Low = bar.Low
			}
			stats.Volume = stats.Volume.Add(bar.Volume)
		}
		stats.Rows++
	}

	return stats, stats.Rows > 0
}
