package domain

import "time"

// DailyAggregate is one calendar day of derived reporting values. It is
// recomputed on every query and never persisted or cached.
type DailyAggregate struct {
	Date         time.Time `json:"date"`
	GrossRevenue float64   `json:"gross_revenue"`
	Returns      float64   `json:"returns"`
	Corrections  float64   `json:"corrections"`
	NetRevenue   float64   `json:"net_revenue"`
	Checks       int       `json:"checks"`

	// CogsTotal, GrossProfit and Margin are nil when no cost data exists for
	// the day (and Margin additionally when net revenue is zero).
	CogsTotal   *float64 `json:"cogs_total"`
	GrossProfit *float64 `json:"gross_profit"`
	Margin      *float64 `json:"margin"`

	MovingAverage7  float64 `json:"moving_average_7"`
	MovingAverage28 float64 `json:"moving_average_28"`
}

// Period is an inclusive day-granularity date range.
type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Days returns the calendar length of the period in days (inclusive).
func (p Period) Days() int {
	return int(p.To.Sub(p.From).Hours()/24) + 1
}

// PeriodKPI aggregates day rows over a period and derives the ratios the
// dashboard cards show. Ratio fields are clamped to [0,1]; Growth and Margin
// are nil whenever their denominator is zero or missing.
type PeriodKPI struct {
	GrossRevenue float64 `json:"gross_revenue"`
	Returns      float64 `json:"returns"`
	Corrections  float64 `json:"corrections"`
	NetRevenue   float64 `json:"net_revenue"`
	Checks       int     `json:"checks"`

	CogsTotal   *float64 `json:"cogs_total"`
	GrossProfit *float64 `json:"gross_profit"`
	Margin      *float64 `json:"margin"`

	AverageCheck  *float64 `json:"average_check"`
	ReturnRate    float64  `json:"return_rate"`
	CashShare     float64  `json:"cash_share"`
	CashlessShare float64  `json:"cashless_share"`

	// Growth is net revenue growth versus the immediately preceding period of
	// equal calendar length; nil when the previous period had no revenue.
	Growth *float64 `json:"growth"`
}

// TableRow is one record-level row of the analytics table view.
type TableRow struct {
	Date         time.Time `json:"date"`
	ShiftNumber  *int      `json:"shift_number"`
	GrossRevenue float64   `json:"gross_revenue"`
	Returns      float64   `json:"returns"`
	Corrections  float64   `json:"corrections"`
	NetRevenue   float64   `json:"net_revenue"`
	Checks       int       `json:"checks"`
	CogsTotal    *float64  `json:"cogs_total"`
	GrossProfit  *float64  `json:"gross_profit"`
	Margin       *float64  `json:"margin"`
}

// ProfitabilityAnalyticsResponse is the full analytics view for one dataset.
type ProfitabilityAnalyticsResponse struct {
	Dataset *Dataset         `json:"dataset"`
	Period  Period           `json:"period"`
	KPI     PeriodKPI        `json:"kpi"`
	Daily   []DailyAggregate `json:"daily"`
	Table   []TableRow       `json:"table"`
}

// ProfitabilitySummaryResponse carries period KPIs plus the preceding
// equal-length period for delta rendering.
type ProfitabilitySummaryResponse struct {
	Period   Period     `json:"period"`
	KPI      PeriodKPI  `json:"kpi"`
	Previous *PeriodKPI `json:"previous,omitempty"`
}

// ProfitabilitySeriesResponse is the daily time series with moving averages.
type ProfitabilitySeriesResponse struct {
	Period Period           `json:"period"`
	Daily  []DailyAggregate `json:"daily"`
}

// ProductStat is one product's aggregate over the line items of an export.
type ProductStat struct {
	Name     string   `json:"name"`
	Quantity float64  `json:"quantity"`
	Revenue  float64  `json:"revenue"`
	Cost     float64  `json:"cost"`
	Margin   *float64 `json:"margin"`
}

// TopProductsResponse ranks products by sales frequency and by margin, and
// carries reconstructed discount/bonus totals.
type TopProductsResponse struct {
	TopBySales    []ProductStat `json:"top_by_sales"`
	WorstByMargin []ProductStat `json:"worst_by_margin"`
	TotalDiscount float64       `json:"total_discount"`
	TotalBonus    float64       `json:"total_bonus"`
	Warnings      []string      `json:"warnings"`
}
