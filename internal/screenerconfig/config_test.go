package screenerconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultListingURLs(t *testing.T) {
	urls := Default().ListingURLs("https://finviz.com")

	if len(urls) != 12 {
		t.Fatalf("expected 12 listing URLs, got %d", len(urls))
	}

	if urls[0] != "https://finviz.com/screener.ashx?v=340&s=ta_topgainers" {
		t.Errorf("unexpected first page: %s", urls[0])
	}
	if urls[1] != "https://finviz.com/screener.ashx?v=340&s=ta_topgainers&r=11" {
		t.Errorf("unexpected second page: %s", urls[1])
	}
	if urls[11] != "https://finviz.com/screener.ashx?v=340&s=ta_topgainers&r=111" {
		t.Errorf("unexpected last page: %s", urls[11])
	}
}

func TestListingURLsTrailingSlashAndFilters(t *testing.T) {
	cfg := Default()
	cfg.Listing.Pages = 1
	cfg.Listing.Filters = "sh_price_u5"

	urls := cfg.ListingURLs("http://127.0.0.1:9999/")
	want := "http://127.0.0.1:9999/screener.ashx?v=340&s=ta_topgainers&f=sh_price_u5"
	if len(urls) != 1 || urls[0] != want {
		t.Errorf("expected [%s], got %v", want, urls)
	}
}

func TestDetailURL(t *testing.T) {
	got := Default().DetailURL("https://finviz.com", "AAPL")
	want := "https://finviz.com/quote.ashx?t=AAPL&ty=c&p=d&b=1"
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"default ok", func(c *Config) {}, ""},
		{"zero pages", func(c *Config) { c.Listing.Pages = 0 }, "listing.pages"},
		{"too many pages", func(c *Config) { c.Listing.Pages = maxPages + 1 }, "listing.pages"},
		{"zero page size", func(c *Config) { c.Listing.PageSize = 0 }, "listing.page_size"},
		{"relative path", func(c *Config) { c.Listing.Path = "screener.ashx" }, "listing.path"},
		{"missing signal", func(c *Config) { c.Listing.Signal = "" }, "listing.signal"},
		{"ticker in detail query", func(c *Config) { c.Detail.Query = "t=AAPL" }, "detail.query"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.field == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}

			var ve ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, ve.Field)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := "../../configs/screener.yaml"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("config file not found")
	}

	cfg, yamlData, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(yamlData) == 0 {
		t.Error("expected raw yaml bytes")
	}

	// 파일 설정 == 기본값
	fileHash, err := Hash(cfg)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	defaultHash, _ := Hash(Default())
	if fileHash != defaultHash {
		t.Error("shipped screener.yaml drifted from Default()")
	}
	if len(fileHash) != 64 {
		t.Errorf("expected 64 char hash, got %d", len(fileHash))
	}
}

func TestLoadUnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("listing:\n  pagez: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := Load(path); err == nil {
		t.Error("expected unknown field to fail")
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("listing:\n  pages: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Listing.Pages != 2 || cfg.Listing.Signal != "ta_topgainers" {
		t.Errorf("unexpected config: %+v", cfg.Listing)
	}

	cfg2, err := LoadOrDefault("")
	if err != nil || cfg2.Listing.Pages != 12 {
		t.Errorf("LoadOrDefault(\"\") = %+v, %v", cfg2, err)
	}
}
