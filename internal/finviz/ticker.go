package finviz

import "strings"

// SplitTicker splits "AAPL [NASDAQ]" into "AAPL" and "NASDAQ".
// market is empty when there is no bracketed suffix.
func SplitTicker(s string) (ticker, market string) {
	s = strings.TrimSpace(s)

	open := strings.Index(s, "[")
	if open < 0 {
		return s, ""
	}

	ticker = strings.TrimSpace(s[:open])
	market = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s[open+1:]), "]"))
	return ticker, market
}
