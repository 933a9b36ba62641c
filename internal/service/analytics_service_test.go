package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poslytics/backend/internal/config"
	"github.com/poslytics/backend/internal/domain"
	"github.com/poslytics/backend/internal/parse"
	"github.com/poslytics/backend/internal/repository/memory"
)

const detailedCSV = `Дата;Номер чека;Наименование;Количество;Цена;Сумма;Тип оплаты;Тип операции
01.01.2023;A-1;Кофе;2;150;300;Наличными;приход
01.01.2023;A-1;Круассан;1;90;90;Наличными;приход
01.01.2023;A-2;Кофе;1;150;150;Картой;приход
`

func seedDataset(t *testing.T, store *memory.Store) int64 {
	t.Helper()
	svc := NewImportService(store, config.ImportConfig{MaxChecksPerDay: 10000}, nil)
	res, err := svc.ImportSales(context.Background(), "january.csv", []byte(salesCSV), nil)
	require.NoError(t, err)
	require.NotNil(t, res.DatasetID)
	return *res.DatasetID
}

func TestAnalyticsFullView(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	id := seedDataset(t, store)

	svc := NewAnalyticsService(store, config.ImportConfig{MinProductVolume: 5})
	resp, err := svc.Analytics(ctx, id, nil)
	require.NoError(t, err)

	assert.Equal(t, id, resp.Dataset.ID)
	assert.Equal(t, 3, resp.Period.Days())
	require.Len(t, resp.Daily, 3)
	require.Len(t, resp.Table, 3)

	// 1000+2000 + 800+900 + 500+700
	assert.InDelta(t, 5900, resp.KPI.GrossRevenue, 1e-9)
	assert.Equal(t, 23, resp.KPI.Checks)
	require.NotNil(t, resp.KPI.AverageCheck)

	// No data before the dataset: growth has no baseline.
	assert.Nil(t, resp.KPI.Growth)
}

func TestAnalyticsUnknownDataset(t *testing.T) {
	store := memory.New()
	svc := NewAnalyticsService(store, config.ImportConfig{})
	_, err := svc.Analytics(context.Background(), 42, nil)
	require.Error(t, err)
}

func TestSummaryWithExplicitPeriod(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	id := seedDataset(t, store)

	svc := NewAnalyticsService(store, config.ImportConfig{})
	period := &domain.Period{
		From: mustDate(t, "2023-01-03"),
		To:   mustDate(t, "2023-01-03"),
	}
	resp, err := svc.Summary(ctx, id, period)
	require.NoError(t, err)

	assert.InDelta(t, 1200, resp.KPI.GrossRevenue, 1e-9)

	// The preceding 1-day window (Jan 2) had revenue, so growth is defined.
	require.NotNil(t, resp.KPI.Growth)
	assert.InDelta(t, (1200.0-1700.0)/1700.0, *resp.KPI.Growth, 1e-9)
	require.NotNil(t, resp.Previous)
	assert.InDelta(t, 1700, resp.Previous.GrossRevenue, 1e-9)
}

func TestSeries(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	id := seedDataset(t, store)

	svc := NewAnalyticsService(store, config.ImportConfig{})
	resp, err := svc.Series(ctx, id, nil)
	require.NoError(t, err)
	require.Len(t, resp.Daily, 3)
	assert.True(t, resp.Daily[0].Date.Before(resp.Daily[2].Date))
	assert.Positive(t, resp.Daily[2].MovingAverage7)
}

func TestTopProductsFromDetailedExport(t *testing.T) {
	store := memory.New()
	svc := NewAnalyticsService(store, config.ImportConfig{MinProductVolume: 1})

	resp, err := svc.TopProducts("sales.csv", []byte(detailedCSV))
	require.NoError(t, err)
	require.NotEmpty(t, resp.TopBySales)
	assert.Equal(t, "Кофе", resp.TopBySales[0].Name)
	assert.InDelta(t, 3, resp.TopBySales[0].Quantity, 1e-9)
}

func TestTopProductsRejectsSummaryExport(t *testing.T) {
	store := memory.New()
	svc := NewAnalyticsService(store, config.ImportConfig{})

	_, err := svc.TopProducts("january.csv", []byte(salesCSV))
	require.Error(t, err)
	assert.True(t, parse.IsStructural(err))
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, ok := parse.ParseDate(s)
	require.True(t, ok)
	return parsed
}
