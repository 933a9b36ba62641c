package analytics

import (
	"sort"
	"time"

	"github.com/poslytics/backend/internal/domain"
)

// Moving-average window lengths in days.
const (
	maShortWindow = 7
	maLongWindow  = 28
)

// FilterByPeriod returns the records whose report date falls inside the
// inclusive period, preserving order.
func FilterByPeriod(records []*domain.ProfitabilityRecord, period domain.Period) []*domain.ProfitabilityRecord {
	from, to := dayOf(period.From), dayOf(period.To)
	out := make([]*domain.ProfitabilityRecord, 0, len(records))
	for _, r := range records {
		d := dayOf(r.ReportDate)
		if d.Before(from) || d.After(to) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// BuildDaily folds records into one aggregate per calendar day, sorted
// ascending, with trailing moving averages of net revenue. The averages run
// over the available days only: the third day of data gets a 3-day mean,
// not a 7-day mean padded with zeros.
func BuildDaily(records []*domain.ProfitabilityRecord) []domain.DailyAggregate {
	byDay := make(map[string]*domain.DailyAggregate)
	cogsSeen := make(map[string]bool)

	for _, r := range records {
		key := r.DateKey()
		agg, ok := byDay[key]
		if !ok {
			agg = &domain.DailyAggregate{Date: dayOf(r.ReportDate)}
			byDay[key] = agg
		}
		agg.GrossRevenue += r.GrossRevenue()
		agg.Returns += r.Returns()
		agg.Corrections += r.Corrections()
		agg.NetRevenue += r.NetRevenue()
		agg.Checks += r.IncomeChecks

		if r.CogsTotal != nil {
			if !cogsSeen[key] {
				cogsSeen[key] = true
				zero := 0.0
				agg.CogsTotal = &zero
			}
			*agg.CogsTotal += *r.CogsTotal
		}
	}

	daily := make([]domain.DailyAggregate, 0, len(byDay))
	for _, agg := range byDay {
		if agg.CogsTotal != nil {
			profit := agg.NetRevenue - *agg.CogsTotal
			agg.GrossProfit = &profit
			if agg.NetRevenue != 0 {
				margin := profit / agg.NetRevenue
				agg.Margin = &margin
			}
		}
		daily = append(daily, *agg)
	}
	sort.Slice(daily, func(i, j int) bool { return daily[i].Date.Before(daily[j].Date) })

	attachMovingAverages(daily)
	return daily
}

func attachMovingAverages(daily []domain.DailyAggregate) {
	var sum7, sum28 float64
	for i := range daily {
		sum7 += daily[i].NetRevenue
		sum28 += daily[i].NetRevenue
		if i >= maShortWindow {
			sum7 -= daily[i-maShortWindow].NetRevenue
		}
		if i >= maLongWindow {
			sum28 -= daily[i-maLongWindow].NetRevenue
		}
		daily[i].MovingAverage7 = sum7 / float64(min(i+1, maShortWindow))
		daily[i].MovingAverage28 = sum28 / float64(min(i+1, maLongWindow))
	}
}

// BuildKPI derives the period-level dashboard values from the records of
// the period. Growth is left nil; the caller fills it in when the preceding
// period is of interest.
func BuildKPI(records []*domain.ProfitabilityRecord) domain.PeriodKPI {
	var kpi domain.PeriodKPI
	var cashIncome, cashlessIncome float64
	var cogs float64
	hasCogs := false

	for _, r := range records {
		kpi.GrossRevenue += r.GrossRevenue()
		kpi.Returns += r.Returns()
		kpi.Corrections += r.Corrections()
		kpi.NetRevenue += r.NetRevenue()
		kpi.Checks += r.IncomeChecks
		cashIncome += r.CashIncome
		cashlessIncome += r.CashlessIncome
		if r.CogsTotal != nil {
			hasCogs = true
			cogs += *r.CogsTotal
		}
	}

	if hasCogs {
		kpi.CogsTotal = &cogs
		profit := kpi.NetRevenue - cogs
		kpi.GrossProfit = &profit
		if kpi.NetRevenue != 0 {
			margin := profit / kpi.NetRevenue
			kpi.Margin = &margin
		}
	}

	if kpi.Checks > 0 {
		avg := kpi.NetRevenue / float64(kpi.Checks)
		kpi.AverageCheck = &avg
	}
	if kpi.GrossRevenue > 0 {
		kpi.ReturnRate = clamp01(kpi.Returns / kpi.GrossRevenue)
		kpi.CashShare = clamp01(cashIncome / kpi.GrossRevenue)
		kpi.CashlessShare = clamp01(cashlessIncome / kpi.GrossRevenue)
	}
	return kpi
}

// BuildTable renders the record-level table view, sorted by date then shift.
func BuildTable(records []*domain.ProfitabilityRecord) []domain.TableRow {
	rows := make([]domain.TableRow, 0, len(records))
	for _, r := range records {
		row := domain.TableRow{
			Date:         dayOf(r.ReportDate),
			ShiftNumber:  r.ShiftNumber,
			GrossRevenue: r.GrossRevenue(),
			Returns:      r.Returns(),
			Corrections:  r.Corrections(),
			NetRevenue:   r.NetRevenue(),
			Checks:       r.IncomeChecks,
			CogsTotal:    r.CogsTotal,
		}
		if r.CogsTotal != nil {
			profit := r.NetRevenue() - *r.CogsTotal
			row.GrossProfit = &profit
			if r.NetRevenue() != 0 {
				margin := profit / r.NetRevenue()
				row.Margin = &margin
			}
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Date.Equal(rows[j].Date) {
			return shiftOrd(rows[i].ShiftNumber) < shiftOrd(rows[j].ShiftNumber)
		}
		return rows[i].Date.Before(rows[j].Date)
	})
	return rows
}

// PreviousPeriod returns the immediately preceding period of equal calendar
// length: comparing a 30-day window against the 30 days before it, not
// against whatever data happens to exist.
func PreviousPeriod(p domain.Period) domain.Period {
	days := p.Days()
	to := dayOf(p.From).AddDate(0, 0, -1)
	return domain.Period{From: to.AddDate(0, 0, -(days - 1)), To: to}
}

// Growth returns relative net-revenue growth versus the previous period, or
// nil when the previous period had no revenue to compare against.
func Growth(current, previous float64) *float64 {
	if previous <= 0 {
		return nil
	}
	g := (current - previous) / previous
	return &g
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func shiftOrd(s *int) int {
	if s == nil {
		return domain.NoShift
	}
	return *s
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
