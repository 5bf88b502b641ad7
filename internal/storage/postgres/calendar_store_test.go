package postgres

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AMS-QF/TAQ-Data/internal/domain"
	"github.com/AMS-QF/TAQ-Data/internal/observability"
	"github.com/AMS-QF/TAQ-Data/internal/storage"
)

func TestCalendarStore_Integration(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	store := NewCalendarStore(pool)

	days := []*domain.TradingDay{
		{Date: "2017-01-03", MarketOpen: "09:30:00", MarketClose: "16:00:00"},
		{Date: "2017-01-04", MarketOpen: "09:30:00", MarketClose: "16:00:00"},
		{Date: "2017-07-03", MarketOpen: "09:30:00", MarketClose: "13:00:00"},
	}
	for _, d := range days {
		require.NoError(t, store.Insert(ctx, d))
	}

	insertErrors := observability.DefaultMetrics.DBQueryErrors.WithLabelValues("postgres", "calendar_insert")
	errorsBefore := testutil.ToFloat64(insertErrors)
	err := store.Insert(ctx, days[0])
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
	assert.Equal(t, errorsBefore+1, testutil.ToFloat64(insertErrors))

	day, err := store.GetByDate(ctx, "2017-07-03")
	require.NoError(t, err)
	assert.Equal(t, "13:00:00", day.MarketClose)

	_, err = store.GetByDate(ctx, "2017-01-02")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	r, err := store.GetRange(ctx, "2017-01-01", "2017-01-31")
	require.NoError(t, err)
	require.Len(t, r, 2)
	assert.Equal(t, "2017-01-03", r[0].Date)
	assert.Equal(t, "2017-01-04", r[1].Date)

	assert.Error(t, store.Insert(ctx, &domain.TradingDay{}))
}
