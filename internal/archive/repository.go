package archive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/wonny/gainerscout/internal/finviz"
)

// Run is one finished pipeline run as stored
type Run struct {
	ID           uuid.UUID
	StartedAt    time.Time
	FinishedAt   time.Time
	ScreenerHash string
	OutputPath   string
	Notified     int
	NotifyFailed int
	Records      []*finviz.StockRecord
}

// RunSummary is a run row without its records
type RunSummary struct {
	ID           uuid.UUID `json:"run_id"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	ScreenerHash string    `json:"screener_hash"`
	OutputPath   string    `json:"output_path"`
	RecordCount  int       `json:"record_count"`
	Notified     int       `json:"notified"`
	NotifyFailed int       `json:"notify_failed"`
}

// Repository persists runs and their record snapshots
// ⭐ SSOT: scout 스키마 접근은 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository instance
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var snapshotColumns = []string{
	"run_id", "position", "ticker", "market", "company", "industry",
	"market_cap", "eps", "pe", "avg_volume", "atr", "sector",
	"premarket_high", "premarket_low", "premarket_volume", "premarket_rows",
}

// SaveRun stores the run row and all records in one transaction
func (r *Repository) SaveRun(ctx context.Context, run *Run) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO scout.runs (
			run_id,
			started_at,
			finished_at,
			screener_hash,
			output_path,
			record_count,
			notified,
			notify_failed
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		run.ID,
		run.StartedAt,
		run.FinishedAt,
		run.ScreenerHash,
		run.OutputPath,
		len(run.Records),
		run.Notified,
		run.NotifyFailed,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	rows := make([][]any, 0, len(run.Records))
	for i, rec := range run.Records {
		row, err := snapshotRow(run.ID, i, rec)
		if err != nil {
			return fmt.Errorf("encode %s: %w", rec.Ticker, err)
		}
		rows = append(rows, row)
	}

	copied, err := tx.CopyFrom(ctx,
		pgx.Identifier{"scout", "stock_snapshots"},
		snapshotColumns,
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("copy snapshots: %w", err)
	}
	if int(copied) != len(rows) {
		return fmt.Errorf("copy snapshots: wrote %d of %d rows", copied, len(rows))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// LatestRun returns the most recent run, nil when none was archived
func (r *Repository) LatestRun(ctx context.Context) (*RunSummary, error) {
	var s RunSummary
	err := r.pool.QueryRow(ctx, `
		SELECT run_id, started_at, finished_at, screener_hash, output_path,
		       record_count, notified, notify_failed
		FROM scout.runs
		ORDER BY started_at DESC
		LIMIT 1
	`).Scan(
		&s.ID,
		&s.StartedAt,
		&s.FinishedAt,
		&s.ScreenerHash,
		&s.OutputPath,
		&s.RecordCount,
		&s.Notified,
		&s.NotifyFailed,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil // 아직 저장된 run 없음
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return &s, nil
}

// RunExists reports whether runID was archived, with or without records
func (r *Repository) RunExists(ctx context.Context, runID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM scout.runs WHERE run_id = $1)`, runID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check run %s: %w", runID, err)
	}
	return exists, nil
}

// RecordsForRun loads the records of a run in their original order
func (r *Repository) RecordsForRun(ctx context.Context, runID uuid.UUID) ([]*finviz.StockRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ticker, market, company, industry, market_cap, eps, pe,
		       avg_volume, atr, sector,
		       premarket_high::text, premarket_low::text, premarket_volume::text,
		       premarket_rows
		FROM scout.stock_snapshots
		WHERE run_id = $1
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var records []*finviz.StockRecord
	for rows.Next() {
		rec := &finviz.StockRecord{}
		var high, low, volume *string
		var pmRows *int32
		if err := rows.Scan(
			&rec.Ticker, &rec.Market, &rec.Company, &rec.Industry,
			&rec.MarketCap, &rec.EPS, &rec.PE, &rec.AvgVolume,
			&rec.ATR, &rec.Sector,
			&high, &low, &volume, &pmRows,
		); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}

		if high != nil && low != nil && volume != nil {
			var n int
			if pmRows != nil {
				n = int(*pmRows) // NULL for rows archived before the column existed
			}
			pm, err := premarketFromText(*high, *low, *volume, n)
			if err != nil {
				return nil, fmt.Errorf("decode premarket of %s: %w", rec.Ticker, err)
			}
			rec.PreMarket = pm
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}

	return records, nil
}

func snapshotRow(runID uuid.UUID, position int, rec *finviz.StockRecord) ([]any, error) {
	var high, low, volume pgtype.Numeric // NULL unless merged
	var rows pgtype.Int4
	if pm := rec.PreMarket; pm != nil {
		rows = pgtype.Int4{Int32: int32(pm.Rows), Valid: true}
		for _, p := range []struct {
			dst *pgtype.Numeric
			v   decimal.Decimal
		}{{&high, pm.High}, {&low, pm.Low}, {&volume, pm.Volume}} {
			if err := p.dst.Scan(p.v.String()); err != nil {
				return nil, err
			}
		}
	}

	return []any{
		runID, position, rec.Ticker, rec.Market, rec.Company, rec.Industry,
		rec.MarketCap, rec.EPS, rec.PE, rec.AvgVolume, rec.ATR, rec.Sector,
		high, low, volume, rows,
	}, nil
}

func premarketFromText(high, low, volume string, rows int) (*finviz.PreMarketStats, error) {
	h, err := decimal.NewFromString(high)
	if err != nil {
		return nil, err
	}
	l, err := decimal.NewFromString(low)
	if err != nil {
		return nil, err
	}
	v, err := decimal.NewFromString(volume)
	if err != nil {
		return nil, err
	}
	return &finviz.PreMarketStats{High: h, Low: l, Volume: v, Rows: rows}, nil
}
