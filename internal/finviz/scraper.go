package finviz

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/gainerscout/pkg/logger"
)

// Scraper runs fetch, parse and enrich for one listing
type Scraper struct {
	client *Client
	logger *logger.Logger
}

// ScrapeStats summarizes one Scrape call
type ScrapeStats struct {
	Pages      int         `json:"pages"`
	PageErrors int         `json:"page_errors"`
	Records    int         `json:"records"`
	Detail     EnrichStats `json:"detail"`
}

// NewScraper creates a scraper over client
func NewScraper(client *Client, log *logger.Logger) *Scraper {
	return &Scraper{client: client, logger: log}
}

// Scrape returns the enriched records of every listing page, in page order.
// It fails only when a listing page cannot be fetched or ctx ends.
func (s *Scraper) Scrape(ctx context.Context) ([]*StockRecord, ScrapeStats, error) {
	var stats ScrapeStats

	pages, err := s.client.FetchListings(ctx, s.client.ListingURLs())
	if err != nil {
		return nil, stats, fmt.Errorf("fetch listings: %w", err)
	}
	stats.Pages = len(pages)

	records, pageErrors := s.parsePages(pages)
	stats.PageErrors = pageErrors
	stats.Records = len(records)

	s.logger.WithFields(map[string]interface{}{
		"pages":       stats.Pages,
		"page_errors": pageErrors,
		"records":     len(records),
	}).Info("Parsed listing pages")

	detail, err := s.client.Enrich(ctx, records)
	stats.Detail = detail
	if err != nil {
		return nil, stats, fmt.Errorf("enrich: %w", err)
	}

	return records, stats, nil
}

// parsePages parses every page concurrently; each task owns its slot,
// and slots are joined in page order.
func (s *Scraper) parsePages(pages []string) ([]*StockRecord, int) {
	perPage := make([][]*StockRecord, len(pages))
	failed := make([]bool, len(pages))

	var g errgroup.Group
	for i, html := range pages {
		g.Go(func() error {
			records, err := ParseListing(html)
			if err != nil {
				s.logger.WithError(err).WithField("page", i+1).Error("Failed to parse listing page")
				failed[i] = true
				return nil
			}
			perPage[i] = records
			return nil
		})
	}
	_ = g.Wait()

	var all []*StockRecord
	errCount := 0
	for i := range pages {
		if failed[i] {
			errCount++
		}
		all = append(all, perPage[i]...)
	}
	return all, errCount
}
