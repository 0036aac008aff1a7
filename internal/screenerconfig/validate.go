package screenerconfig

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// maxPages bounds a run to what the screener can serve without a login
const maxPages = 50

// Validate checks all required constraints
func Validate(cfg *Config) error {
	// === Listing ===
	if !strings.HasPrefix(cfg.Listing.Path, "/") {
		return ValidationError{"listing.path", "must start with /"}
	}
	if cfg.Listing.View == "" {
		return ValidationError{"listing.view", "required"}
	}
	if cfg.Listing.Signal == "" {
		return ValidationError{"listing.signal", "required"}
	}
	if cfg.Listing.Pages < 1 || cfg.Listing.Pages > maxPages {
		return ValidationError{"listing.pages", fmt.Sprintf("must be in [1, %d]", maxPages)}
	}
	if cfg.Listing.PageSize < 1 {
		return ValidationError{"listing.page_size", "must be > 0"}
	}

	// === Detail ===
	if !strings.HasPrefix(cfg.Detail.Path, "/") {
		return ValidationError{"detail.path", "must start with /"}
	}
	if _, err := url.ParseQuery(cfg.Detail.Query); err != nil {
		return ValidationError{"detail.query", err.Error()}
	}
	if q, _ := url.ParseQuery(cfg.Detail.Query); q.Has("t") {
		return ValidationError{"detail.query", "t is set per ticker"}
	}

	return nil
}
