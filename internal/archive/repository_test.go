package archive

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/gainerscout/internal/finviz"
	"github.com/wonny/gainerscout/pkg/config"
	"github.com/wonny/gainerscout/pkg/database"
)

func strPtr(s string) *string { return &s }

func TestSnapshotRow(t *testing.T) {
	id := uuid.New()

	row, err := snapshotRow(id, 2, &finviz.StockRecord{Ticker: "AAPL", Sector: strPtr("Technology")})
	require.NoError(t, err)
	require.Len(t, row, len(snapshotColumns))
	assert.Equal(t, id, row[0])
	assert.Equal(t, 2, row[1])
	assert.Equal(t, "AAPL", row[2])
	assert.False(t, row[12].(pgtype.Numeric).Valid, "no pre-market → NULL")
	assert.False(t, row[15].(pgtype.Int4).Valid)

	row, err = snapshotRow(id, 0, &finviz.StockRecord{
		Ticker: "GME",
		PreMarket: &finviz.PreMarketStats{
			High:   decimal.RequireFromString("25.75"),
			Low:    decimal.RequireFromString("20"),
			Volume: decimal.NewFromInt(150000),
			Rows:   42,
		},
	})
	require.NoError(t, err)
	assert.True(t, row[12].(pgtype.Numeric).Valid)
	assert.True(t, row[14].(pgtype.Numeric).Valid)
	assert.Equal(t, pgtype.Int4{Int32: 42, Valid: true}, row[15])
}

func TestPremarketFromText(t *testing.T) {
	pm, err := premarketFromText("25.75", "20", "150000", 42)
	require.NoError(t, err)
	assert.Equal(t, "25.75", pm.High.String())
	assert.Equal(t, 42, pm.Rows)

	_, err = premarketFromText("x", "1", "1", 0)
	assert.Error(t, err)
}

func TestRepositoryRoundTrip(t *testing.T) {
	// Skip if DATABASE_URL is not set
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.New(ctx, cfg)
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db.Pool)
	require.NoError(t, repo.EnsureSchema(ctx))

	started := time.Now().UTC().Truncate(time.Microsecond)
	run := &Run{
		ID:           uuid.New(),
		StartedAt:    started,
		FinishedAt:   started.Add(time.Minute),
		ScreenerHash: "test",
		OutputPath:   "stocks.csv",
		Notified:     1,
		Records: []*finviz.StockRecord{
			{Ticker: "AAPL", Market: strPtr("NASDAQ"), PreMarket: &finviz.PreMarketStats{
				High: decimal.RequireFromString("10.5"), Low: decimal.RequireFromString("9"), Volume: decimal.NewFromInt(100), Rows: 7,
			}},
			{Ticker: "MSFT"},
		},
	}
	require.NoError(t, repo.SaveRun(ctx, run))
	defer db.Pool.Exec(context.Background(), "DELETE FROM scout.runs WHERE run_id = $1", run.ID)

	latest, err := repo.LatestRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 2, latest.RecordCount)

	records, err := repo.RecordsForRun(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"AAPL", "MSFT"}, finviz.Tickers(records))
	require.NotNil(t, records[0].PreMarket)
	assert.True(t, records[0].PreMarket.High.Equal(decimal.RequireFromString("10.5")))
	assert.Equal(t, 7, records[0].PreMarket.Rows)
	assert.Nil(t, records[1].Market)

	exists, err := repo.RunExists(ctx, run.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	// a run with zero records is still a run
	empty := &Run{ID: uuid.New(), StartedAt: started, FinishedAt: started}
	require.NoError(t, repo.SaveRun(ctx, empty))
	defer db.Pool.Exec(context.Background(), "DELETE FROM scout.runs WHERE run_id = $1", empty.ID)

	exists, err = repo.RunExists(ctx, empty.ID)
	require.NoError(t, err)
	assert.True(t, exists)
	records, err = repo.RecordsForRun(ctx, empty.ID)
	require.NoError(t, err)
	assert.Empty(t, records)

	exists, err = repo.RunExists(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, exists)
}
