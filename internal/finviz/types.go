package finviz

import (
	"github.com/shopspring/decimal"
)

// Column names, in flat-file order
const (
	ColTicker          = "Ticker"
	ColMarket          = "Market"
	ColCompany         = "Company"
	ColIndustry        = "Industry"
	ColMarketCap       = "Market Cap"
	ColEPS             = "EPS (ttm)"
	ColPE              = "P/E"
	ColAvgVolume       = "Avg Volume"
	ColATR             = "ATR (14)"
	ColSector          = "Sector"
	ColPreMarketHigh   = "PreMarket High"
	ColPreMarketLow    = "PreMarket Low"
	ColPreMarketVolume = "PreMarket Volume"
)

// Columns is the fixed column order of every record
var Columns = []string{
	ColTicker,
	ColMarket,
	ColCompany,
	ColIndustry,
	ColMarketCap,
	ColEPS,
	ColPE,
	ColAvgVolume,
	ColATR,
	ColSector,
	ColPreMarketHigh,
	ColPreMarketLow,
	ColPreMarketVolume,
}

// financialLabels are the only financial-table labels kept
var financialLabels = map[string]bool{
	ColMarketCap: true,
	ColPE:        true,
	ColEPS:       true,
	ColAvgVolume: true,
}

// StockRecord is one top-gainer row.
// Everything except Ticker is optional; nil means the source did not have it.
type StockRecord struct {
	Ticker   string  `json:"ticker"`
	Market   *string `json:"market,omitempty"`
	Company  *string `json:"company,omitempty"`
	Industry *string `json:"industry,omitempty"`

	// financial table
	MarketCap *string `json:"market_cap,omitempty"`
	EPS       *string `json:"eps,omitempty"`
	PE        *string `json:"pe,omitempty"`
	AvgVolume *string `json:"avg_volume,omitempty"`

	// detail page
	ATR    *string `json:"atr,omitempty"`
	Sector *string `json:"sector,omitempty"`

	PreMarket *PreMarketStats `json:"premarket,omitempty"`
}

// PreMarketStats aggregates the 04:00-09:30 intraday rows of one ticker
type PreMarketStats struct {
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Volume decimal.Decimal `json:"volume"`
	Rows   int             `json:"rows"`
}

// Field returns the column value of r, false when absent
func (r *StockRecord) Field(col string) (string, bool) {
	switch col {
	case ColTicker:
		return r.Ticker, r.Ticker != ""
	case ColPreMarketHigh, ColPreMarketLow, ColPreMarketVolume:
		if r.PreMarket == nil {
			return "", false
		}
		switch col {
		case ColPreMarketHigh:
			return r.PreMarket.High.String(), true
		case ColPreMarketLow:
			return r.PreMarket.Low.String(), true
		default:
			return r.PreMarket.Volume.String(), true
		}
	}

	p := r.slot(col)
	if p == nil || *p == nil {
		return "", false
	}
	return **p, true
}

// setOnce stores value in col unless it is already set
func (r *StockRecord) setOnce(col, value string) bool {
	p := r.slot(col)
	if p == nil || *p != nil {
		return false
	}
	*p = &value
	return true
}

func (r *StockRecord) slot(col string) **string {
	switch col {
	case ColMarket:
		return &r.Market
	case ColCompany:
		return &r.Company
	case ColIndustry:
		return &r.Industry
	case ColMarketCap:
		return &r.MarketCap
	case ColEPS:
		return &r.EPS
	case ColPE:
		return &r.PE
	case ColAvgVolume:
		return &r.AvgVolume
	case ColATR:
		return &r.ATR
	case ColSector:
		return &r.Sector
	}
	return nil
}

// Tickers lists the tickers of records in order
func Tickers(records []*StockRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Ticker)
	}
	return out
}
