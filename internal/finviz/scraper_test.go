package finviz

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/gainerscout/internal/screenerconfig"
	"github.com/wonny/gainerscout/pkg/logger"
)

// fakeFinviz serves listing pages by offset and detail pages by ticker
type fakeFinviz struct {
	mu       sync.Mutex
	listings map[string]string // r param → html
	details  map[string]string // ticker → html, missing = 404
	status   map[string]int    // ticker → forced status
	hits     map[string]int    // ticker → detail requests
}

func (f *fakeFinviz) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/screener.ashx":
		fmt.Fprint(w, f.listings[r.URL.Query().Get("r")])
	case "/quote.ashx":
		ticker := r.URL.Query().Get("t")

		f.mu.Lock()
		f.hits[ticker]++
		f.mu.Unlock()

		if code, ok := f.status[ticker]; ok {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(code)
			return
		}
		html, ok := f.details[ticker]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, html)
	default:
		http.NotFound(w, r)
	}
}

func TestScrape_EndToEnd(t *testing.T) {
	fake := &fakeFinviz{
		listings: map[string]string{
			"": listingPage(
				snapshot("AAPL [NASDAQ]", "Apple Inc.", "Consumer Electronics", [][]string{{"Market Cap", "3T", "P/E", "30.1"}}),
				snapshot("MSFT [NASDAQ]", "Microsoft Corp", "Software", nil),
			),
			"11": listingPage(),
		},
		details: map[string]string{
			"AAPL": detailPage("3.10", "Technology"),
		},
		status: map[string]int{},
		hits:   map[string]int{},
	}
	server := httptest.NewServer(fake)
	defer server.Close()

	screener := screenerconfig.Default()
	screener.Listing.Pages = 2

	client := newTestClient(t, server.URL, screener)
	scraper := NewScraper(client, logger.Nop())

	records, stats, err := scraper.Scrape(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"AAPL", "MSFT"}, Tickers(records))

	require.NotNil(t, records[0].ATR)
	assert.Equal(t, "3.10", *records[0].ATR)
	require.NotNil(t, records[0].Sector)
	assert.Equal(t, "Technology", *records[0].Sector)
	assert.Equal(t, "30.1", *records[0].PE)

	// 404 상세 페이지 → 상세 필드 없음, 나머지 유지
	assert.Nil(t, records[1].ATR)
	assert.Nil(t, records[1].Sector)
	assert.Equal(t, "Software", *records[1].Industry)

	assert.Equal(t, 2, stats.Pages)
	assert.Equal(t, 2, stats.Records)
	assert.Equal(t, 1, stats.Detail.Enriched)
	assert.Equal(t, 1, stats.Detail.Failed)
	assert.Equal(t, 1, fake.hits["MSFT"], "non-429 errors are not retried")
}

func TestEnrich_RateLimitIsBounded(t *testing.T) {
	fake := &fakeFinviz{
		details: map[string]string{
			"GOOD": detailPage("1.00", "Energy"),
		},
		status: map[string]int{"SLOW": http.StatusTooManyRequests},
		hits:   map[string]int{},
	}
	server := httptest.NewServer(fake)
	defer server.Close()

	client := newTestClient(t, server.URL, nil)
	records := []*StockRecord{{Ticker: "SLOW"}, {Ticker: "GOOD"}}

	stats, err := client.Enrich(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, 3, fake.hits["SLOW"])
	assert.Nil(t, records[0].ATR)
	require.NotNil(t, records[1].ATR)
	assert.Equal(t, "1.00", *records[1].ATR)
	assert.Equal(t, EnrichStats{Enriched: 1, Failed: 1}, stats)
}

func TestEnrich_StopsOnCancel(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:1", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Enrich(ctx, []*StockRecord{{Ticker: "A"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScrape_FetchFailureAborts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	screener := screenerconfig.Default()
	screener.Listing.Pages = 1

	scraper := NewScraper(newTestClient(t, server.URL, screener), logger.Nop())

	records, _, err := scraper.Scrape(context.Background())
	require.Error(t, err)
	assert.Nil(t, records)
	assert.Contains(t, err.Error(), "after 3 retries")
}
