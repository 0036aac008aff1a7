package screenerconfig

import (
	"fmt"
	"net/url"
	"strings"
)

// Config describes which Finviz pages a run scrapes.
// 필드 순서 고정 (Hash 재현성)
type Config struct {
	Listing ListingConfig `yaml:"listing" json:"listing"`
	Detail  DetailConfig  `yaml:"detail" json:"detail"`
}

// ListingConfig is the paginated screener query
type ListingConfig struct {
	Path     string `yaml:"path" json:"path"`           // /screener.ashx
	View     string `yaml:"view" json:"view"`           // 340 = snapshot view
	Signal   string `yaml:"signal" json:"signal"`       // ta_topgainers
	Filters  string `yaml:"filters" json:"filters"`     // optional f= value
	Pages    int    `yaml:"pages" json:"pages"`         // number of listing pages
	PageSize int    `yaml:"page_size" json:"page_size"` // rows per page
}

// DetailConfig is the per-ticker quote page
type DetailConfig struct {
	Path  string `yaml:"path" json:"path"`   // /quote.ashx
	Query string `yaml:"query" json:"query"` // extra query appended after t=
}

// Default reproduces the twelve top-gainer pages the scraper has always used
func Default() *Config {
	return &Config{
		Listing: ListingConfig{
			Path:     "/screener.ashx",
			View:     "340",
			Signal:   "ta_topgainers",
			Pages:    12,
			PageSize: 10,
		},
		Detail: DetailConfig{
			Path:  "/quote.ashx",
			Query: "ty=c&p=d&b=1",
		},
	}
}

// ListingURLs returns the listing page URLs in page order.
// The first page carries no offset; page i starts at row i*PageSize+1.
func (c *Config) ListingURLs(baseURL string) []string {
	base := strings.TrimRight(baseURL, "/") + c.Listing.Path

	query := fmt.Sprintf("v=%s&s=%s", url.QueryEscape(c.Listing.View), url.QueryEscape(c.Listing.Signal))
	if c.Listing.Filters != "" {
		query += "&f=" + url.QueryEscape(c.Listing.Filters)
	}

	urls := make([]string, 0, c.Listing.Pages)
	for page := 0; page < c.Listing.Pages; page++ {
		u := base + "?" + query
		if page > 0 {
			u += fmt.Sprintf("&r=%d", page*c.Listing.PageSize+1)
		}
		urls = append(urls, u)
	}
	return urls
}

// DetailURL returns the quote page URL for a bare ticker
func (c *Config) DetailURL(baseURL, ticker string) string {
	u := fmt.Sprintf("%s%s?t=%s", strings.TrimRight(baseURL, "/"), c.Detail.Path, url.QueryEscape(ticker))
	if c.Detail.Query != "" {
		u += "&" + c.Detail.Query
	}
	return u
}
