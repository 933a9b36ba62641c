package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poslytics/backend/internal/domain"
)

func day(d int) time.Time { return time.Date(2023, 1, d, 0, 0, 0, 0, time.UTC) }

func rec(d int, shift int, cash, cashless float64, checks int) *domain.ProfitabilityRecord {
	r := &domain.ProfitabilityRecord{
		ReportDate:     day(d),
		CashIncome:     cash,
		CashlessIncome: cashless,
		IncomeChecks:   checks,
	}
	if shift != domain.NoShift {
		s := shift
		r.ShiftNumber = &s
	}
	return r
}

func withCogs(r *domain.ProfitabilityRecord, cogs float64) *domain.ProfitabilityRecord {
	r.CogsTotal = &cogs
	return r
}

func TestBuildDailyMergesShifts(t *testing.T) {
	records := []*domain.ProfitabilityRecord{
		withCogs(rec(1, 1, 1000, 2000, 10), 900),
		withCogs(rec(1, 2, 500, 500, 5), 0),
		rec(2, 1, 800, 200, 8),
	}
	records[0].CashReturn = 100

	daily := BuildDaily(records)
	require.Len(t, daily, 2)

	d1 := daily[0]
	assert.Equal(t, day(1), d1.Date)
	assert.InDelta(t, 4000, d1.GrossRevenue, 1e-9)
	assert.InDelta(t, 100, d1.Returns, 1e-9)
	assert.InDelta(t, 3900, d1.NetRevenue, 1e-9)
	assert.Equal(t, 15, d1.Checks)

	require.NotNil(t, d1.CogsTotal)
	assert.InDelta(t, 900, *d1.CogsTotal, 1e-9)
	require.NotNil(t, d1.GrossProfit)
	assert.InDelta(t, 3000, *d1.GrossProfit, 1e-9)
	require.NotNil(t, d1.Margin)
	assert.InDelta(t, 3000.0/3900.0, *d1.Margin, 1e-9)

	// No cost data for day 2: derived fields stay unknown.
	d2 := daily[1]
	assert.Nil(t, d2.CogsTotal)
	assert.Nil(t, d2.GrossProfit)
	assert.Nil(t, d2.Margin)
}

func TestBuildDailyMarginNilOnZeroRevenue(t *testing.T) {
	r := withCogs(rec(1, domain.NoShift, 0, 0, 0), 500)
	daily := BuildDaily([]*domain.ProfitabilityRecord{r})
	require.Len(t, daily, 1)
	require.NotNil(t, daily[0].GrossProfit)
	assert.InDelta(t, -500, *daily[0].GrossProfit, 1e-9)
	assert.Nil(t, daily[0].Margin)
}

func TestBuildDailyMovingAverages(t *testing.T) {
	records := make([]*domain.ProfitabilityRecord, 0, 10)
	for d := 1; d <= 10; d++ {
		records = append(records, rec(d, domain.NoShift, float64(d*100), 0, 1))
	}

	daily := BuildDaily(records)
	require.Len(t, daily, 10)

	// Early days average over the days that exist, not a zero-padded window.
	assert.InDelta(t, 100, daily[0].MovingAverage7, 1e-9)
	assert.InDelta(t, 200, daily[2].MovingAverage7, 1e-9) // (100+200+300)/3

	// Day 8: trailing window is days 2..8.
	assert.InDelta(t, 500, daily[7].MovingAverage7, 1e-9)
	// The long window still covers everything at day 10.
	assert.InDelta(t, 550, daily[9].MovingAverage28, 1e-9)
}

func TestBuildKPI(t *testing.T) {
	r1 := rec(1, 1, 600, 400, 10)
	r1.CashReturn = 50
	r2 := withCogs(rec(2, 1, 300, 700, 10), 400)

	kpi := BuildKPI([]*domain.ProfitabilityRecord{r1, r2})

	assert.InDelta(t, 2000, kpi.GrossRevenue, 1e-9)
	assert.InDelta(t, 50, kpi.Returns, 1e-9)
	assert.InDelta(t, 1950, kpi.NetRevenue, 1e-9)
	assert.Equal(t, 20, kpi.Checks)

	require.NotNil(t, kpi.AverageCheck)
	assert.InDelta(t, 97.5, *kpi.AverageCheck, 1e-9)
	assert.InDelta(t, 0.025, kpi.ReturnRate, 1e-9)
	assert.InDelta(t, 0.45, kpi.CashShare, 1e-9)
	assert.InDelta(t, 0.55, kpi.CashlessShare, 1e-9)

	require.NotNil(t, kpi.CogsTotal)
	assert.InDelta(t, 400, *kpi.CogsTotal, 1e-9)
	require.NotNil(t, kpi.GrossProfit)
	assert.InDelta(t, 1550, *kpi.GrossProfit, 1e-9)
	require.NotNil(t, kpi.Margin)
}

func TestBuildKPIEmpty(t *testing.T) {
	kpi := BuildKPI(nil)
	assert.Nil(t, kpi.AverageCheck)
	assert.Nil(t, kpi.CogsTotal)
	assert.Nil(t, kpi.Margin)
	assert.Zero(t, kpi.ReturnRate)
	assert.Zero(t, kpi.CashShare)
}

func TestFilterByPeriod(t *testing.T) {
	records := []*domain.ProfitabilityRecord{
		rec(1, 1, 100, 0, 1),
		rec(5, 1, 100, 0, 1),
		rec(10, 1, 100, 0, 1),
	}
	got := FilterByPeriod(records, domain.Period{From: day(2), To: day(9)})
	require.Len(t, got, 1)
	assert.Equal(t, day(5), got[0].ReportDate)
}

func TestPreviousPeriod(t *testing.T) {
	p := domain.Period{From: day(11), To: day(20)}
	prev := PreviousPeriod(p)
	assert.Equal(t, day(1), prev.From)
	assert.Equal(t, day(10), prev.To)
	assert.Equal(t, p.Days(), prev.Days())
}

func TestGrowth(t *testing.T) {
	g := Growth(150, 100)
	require.NotNil(t, g)
	assert.InDelta(t, 0.5, *g, 1e-9)

	assert.Nil(t, Growth(150, 0))
	assert.Nil(t, Growth(150, -10))
}
