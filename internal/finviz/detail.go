package finviz

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/gainerscout/pkg/httputil"
	"github.com/wonny/gainerscout/pkg/redis"
)

// Detail holds the fields read from a quote page
type Detail struct {
	ATR    *string `json:"atr,omitempty"`
	Sector *string `json:"sector,omitempty"`
}

// EnrichStats summarizes one Enrich pass
type EnrichStats struct {
	Enriched int `json:"enriched"`
	Failed   int `json:"failed"`
	Cached   int `json:"cached"`
}

// ParseDetail extracts ATR (14) and Sector from a quote page
func ParseDetail(html string) (Detail, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Detail{}, fmt.Errorf("parse detail page failed: %w", err)
	}

	var d Detail

	// ATR: 라벨 td → 다음 값 td (snapshot-td2 w-[8%]) → b
	label := doc.Find("td").FilterFunction(func(_ int, td *goquery.Selection) bool {
		return strings.TrimSpace(td.Text()) == ColATR
	}).First()
	if label.Length() > 0 {
		value := label.NextAllFiltered("td").FilterFunction(func(_ int, td *goquery.Selection) bool {
			return td.HasClass("snapshot-td2") && td.HasClass("w-[8%]")
		}).First()
		if b := value.Find("b").First(); b.Length() > 0 {
			atr := strings.TrimSpace(b.Text())
			d.ATR = &atr
		}
	}

	sector := doc.Find("a.tab-link").FilterFunction(func(_ int, a *goquery.Selection) bool {
		href, ok := a.Attr("href")
		return ok && strings.Contains(href, "sec_")
	}).First()
	if sector.Length() > 0 {
		s := strings.TrimSpace(sector.Text())
		d.Sector = &s
	}

	return d, nil
}

// FetchDetail loads the quote page of ticker, consulting the cache first.
// cached reports whether no request was made.
func (c *Client) FetchDetail(ctx context.Context, ticker string) (d Detail, cached bool, err error) {
	key := redis.DetailKey(ticker)

	if c.cache.Enabled() {
		hit, err := c.cache.Get(ctx, key, &d)
		if err != nil {
			c.logger.WithError(err).WithField("ticker", ticker).Warn("Detail cache read failed")
			// 깨진 항목은 지우고 새로 받음
			_ = c.cache.Delete(ctx, key)
		} else if hit {
			return d, true, nil
		}
	}

	resp, err := c.detail.Get(ctx, c.DetailURL(ticker))
	if err != nil {
		return Detail{}, false, err
	}

	d, err = ParseDetail(string(resp.Body))
	if err != nil {
		return Detail{}, false, err
	}

	if c.cache.Enabled() {
		if err := c.cache.Set(ctx, key, d, c.cacheTTL); err != nil {
			c.logger.WithError(err).WithField("ticker", ticker).Warn("Detail cache write failed")
		}
	}

	return d, false, nil
}

// Enrich adds ATR (14) and Sector to every record, one at a time.
// A record whose page cannot be loaded keeps no detail fields and the
// pass moves on; only context cancellation stops it early.
func (c *Client) Enrich(ctx context.Context, records []*StockRecord) (EnrichStats, error) {
	var stats EnrichStats

	c.logger.WithField("count", len(records)).Info("Getting additional information about stocks")

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		d, cached, err := c.FetchDetail(ctx, record.Ticker)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return stats, ctxErr
			}
			stats.Failed++
			c.logDetailError(record.Ticker, err)
			continue
		}

		if d.ATR != nil {
			record.setOnce(ColATR, *d.ATR)
		}
		if d.Sector != nil {
			record.setOnce(ColSector, *d.Sector)
		}

		if cached {
			stats.Cached++
		}
		stats.Enriched++
	}

	c.logger.WithFields(map[string]interface{}{
		"enriched": stats.Enriched,
		"failed":   stats.Failed,
		"cached":   stats.Cached,
	}).Info("Detail enrichment completed")

	return stats, nil
}

func (c *Client) logDetailError(ticker string, err error) {
	fields := map[string]interface{}{
		"ticker": ticker,
		"url":    c.DetailURL(ticker),
	}

	var se *httputil.StatusError
	if errors.As(err, &se) {
		fields["status_code"] = se.StatusCode
		if se.RateLimited() {
			c.logger.WithError(err).WithFields(fields).Warn("Rate limit persisted, skipping detail page")
			return
		}
	}

	c.logger.WithError(err).WithFields(fields).Error("Failed to load detail page")
}
