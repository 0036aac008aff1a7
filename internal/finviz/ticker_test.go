package finviz

import "testing"

func TestSplitTicker(t *testing.T) {
	tests := []struct {
		in         string
		wantTicker string
		wantMarket string
	}{
		{"AAPL [NASDAQ]", "AAPL", "NASDAQ"},
		{"  BRK-B [NYSE] ", "BRK-B", "NYSE"},
		{"TSLA[NASDAQ]", "TSLA", "NASDAQ"},
		{"MSFT", "MSFT", ""},
		{"", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			ticker, market := SplitTicker(tt.in)
			if ticker != tt.wantTicker || market != tt.wantMarket {
				t.Errorf("SplitTicker(%q) = (%q, %q), want (%q, %q)",
					tt.in, ticker, market, tt.wantTicker, tt.wantMarket)
			}
		})
	}
}
