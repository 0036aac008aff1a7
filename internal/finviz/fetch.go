package finviz

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/gainerscout/pkg/httputil"
)

// FetchListings downloads every listing page concurrently.
// Bodies are returned in the order of urls. One exhausted URL fails the
// whole batch and cancels the remaining requests.
func (c *Client) FetchListings(ctx context.Context, urls []string) ([]string, error) {
	pages := make([]string, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	for i, u := range urls {
		g.Go(func() error {
			body, err := c.fetchListing(gctx, u)
			if err != nil {
				return err
			}
			pages[i] = body // 인덱스별 쓰기, 락 불필요
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"pages": len(pages),
	}).Info("Fetched listing pages")

	return pages, nil
}

func (c *Client) fetchListing(ctx context.Context, target string) (string, error) {
	resp, err := c.listing.Get(ctx, target)
	if err != nil {
		var re *httputil.RetryError
		if errors.As(err, &re) {
			return "", fmt.Errorf("failed to fetch %s after %d retries: %w", target, re.Attempts, err)
		}
		return "", fmt.Errorf("failed to fetch %s: %w", target, err)
	}
	return string(resp.Body), nil
}
