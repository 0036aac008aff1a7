package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/gainerscout/internal/archive"
	"github.com/wonny/gainerscout/internal/export"
	"github.com/wonny/gainerscout/internal/finviz"
	"github.com/wonny/gainerscout/internal/premarket"
	"github.com/wonny/gainerscout/pkg/logger"
)

// ErrRunInProgress is returned by Start while another run holds the runner
var ErrRunInProgress = errors.New("run already in progress")

// Scraper produces the enriched records of one listing
type Scraper interface {
	Scrape(ctx context.Context) ([]*finviz.StockRecord, finviz.ScrapeStats, error)
}

// Merger attaches pre-market statistics
type Merger interface {
	Merge(ctx context.Context, records []*finviz.StockRecord, runDate time.Time) (premarket.MergeStats, error)
}

// Notifier relays records to a channel
type Notifier interface {
	SendAll(ctx context.Context, records []*finviz.StockRecord) (sent, failed int)
}

// Archiver stores finished runs
type Archiver interface {
	SaveRun(ctx context.Context, run *archive.Run) error
}

// Options adjust a single run
type Options struct {
	SkipNotify bool
	OutputPath string // overrides Config.OutputPath
}

// Config is the static part of a runner
type Config struct {
	OutputPath   string
	ScreenerHash string
}

// RunResult is the outcome of one run
type RunResult struct {
	RunID        uuid.UUID             `json:"run_id"`
	StartedAt    time.Time             `json:"started_at"`
	FinishedAt   time.Time             `json:"finished_at"`
	Records      []*finviz.StockRecord `json:"records"`
	OutputPath   string                `json:"output_path"`
	Scrape       finviz.ScrapeStats    `json:"scrape"`
	PreMarket    premarket.MergeStats  `json:"premarket"`
	Notified     int                   `json:"notified"`
	NotifyFailed int                   `json:"notify_failed"`
	Archived     bool                  `json:"archived"`
}

// Runner executes the scrape → merge → persist → notify pipeline
// ⭐ SSOT: 파이프라인 실행은 이 Runner에서만
type Runner struct {
	cfg      Config
	scraper  Scraper
	merger   Merger
	notifier Notifier
	archive  Archiver
	logger   *logger.Logger
	now      func() time.Time

	runMu sync.Mutex // 한 번에 하나의 run

	mu          sync.RWMutex
	latest      *RunResult
	subscribers []func(*RunResult)
}

// NewRunner creates a runner; archive is attached with WithArchive
func NewRunner(cfg Config, scraper Scraper, merger Merger, notifier Notifier, log *logger.Logger) *Runner {
	return &Runner{
		cfg:      cfg,
		scraper:  scraper,
		merger:   merger,
		notifier: notifier,
		logger:   log,
		now:      time.Now,
	}
}

// WithArchive stores every finished run through a
func (r *Runner) WithArchive(a Archiver) *Runner {
	r.archive = a
	return r
}

// Subscribe registers fn to receive every finished run
func (r *Runner) Subscribe(fn func(*RunResult)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers = append(r.subscribers, fn)
}

// Latest returns the last finished run, nil before the first one
func (r *Runner) Latest() *RunResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest
}

// Run executes one run, waiting for any run already in progress
func (r *Runner) Run(ctx context.Context, opts Options) (*RunResult, error) {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	return r.execute(ctx, uuid.New(), opts)
}

// Start launches a run in the background and returns its ID.
// It fails with ErrRunInProgress instead of waiting.
func (r *Runner) Start(ctx context.Context, opts Options) (uuid.UUID, error) {
	if !r.runMu.TryLock() {
		return uuid.Nil, ErrRunInProgress
	}

	id := uuid.New()
	go func() {
		defer r.runMu.Unlock()
		if _, err := r.execute(ctx, id, opts); err != nil {
			r.logger.WithError(err).WithField("run_id", id.String()).Error("Background run failed")
		}
	}()
	return id, nil
}

func (r *Runner) execute(ctx context.Context, id uuid.UUID, opts Options) (*RunResult, error) {
	result := &RunResult{
		RunID:      id,
		StartedAt:  r.now(),
		OutputPath: r.cfg.OutputPath,
	}
	if opts.OutputPath != "" {
		result.OutputPath = opts.OutputPath
	}

	log := r.logger.WithField("run_id", id.String())
	log.Info("Run started")

	// 1. Scrape (listing fetch 실패 시 중단)
	records, scrapeStats, err := r.scraper.Scrape(ctx)
	if err != nil {
		return nil, fmt.Errorf("scrape: %w", err)
	}
	result.Records = records
	result.Scrape = scrapeStats

	// 2. Pre-market merge
	mergeStats, err := r.merger.Merge(ctx, records, result.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("premarket merge: %w", err)
	}
	result.PreMarket = mergeStats

	// 3. Persist
	if err := export.WriteCSV(result.OutputPath, records); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	log.WithFields(map[string]interface{}{
		"path":    result.OutputPath,
		"records": len(records),
	}).Info("Stock data with PreMarket information has been written")

	// 4. Notify (실패해도 run은 성공)
	if opts.SkipNotify {
		log.Info("Notifications skipped")
	} else {
		result.Notified, result.NotifyFailed = r.notifier.SendAll(ctx, records)
	}

	result.FinishedAt = r.now()

	// 5. Archive (optional)
	if r.archive != nil {
		if err := r.archive.SaveRun(ctx, r.archiveRun(result)); err != nil {
			log.WithError(err).Error("Failed to archive run")
		} else {
			result.Archived = true
		}
	}

	r.publish(result)

	log.WithFields(map[string]interface{}{
		"records":  len(records),
		"notified": result.Notified,
		"archived": result.Archived,
		"duration": result.FinishedAt.Sub(result.StartedAt).String(),
	}).Info("Run completed")

	return result, nil
}

func (r *Runner) archiveRun(result *RunResult) *archive.Run {
	return &archive.Run{
		ID:           result.RunID,
		StartedAt:    result.StartedAt,
		FinishedAt:   result.FinishedAt,
		ScreenerHash: r.cfg.ScreenerHash,
		OutputPath:   result.OutputPath,
		Notified:     result.Notified,
		NotifyFailed: result.NotifyFailed,
		Records:      result.Records,
	}
}

func (r *Runner) publish(result *RunResult) {
	r.mu.Lock()
	r.latest = result
	subs := append([]func(*RunResult){}, r.subscribers...)
	r.mu.Unlock()

	for _, fn := range subs {
		fn(result)
	}
}
