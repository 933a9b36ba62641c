package domain

import (
	"strconv"
	"time"
)

// DateKeyLayout is the canonical day-granularity key used to join sales,
// cost and forecast data.
const DateKeyLayout = "2006-01-02"

// NoShift is the sentinel shift number for records whose source rows carry
// no shift column. It keeps the (date, shift) dedup key total.
const NoShift = -1

// ProfitabilityRecord is one day (optionally one shift) of POS totals
// extracted from a Z-report export. All amount fields are non-negative;
// direction is carried by the field name, never by sign. Immutable after
// import except for COGS backfill.
type ProfitabilityRecord struct {
	ID         int64     `json:"id" db:"id"`
	DatasetID  int64     `json:"dataset_id" db:"dataset_id"`
	ReportDate time.Time `json:"report_date" db:"report_date"`
	// ShiftNumber is nil when the export has no shift granularity.
	ShiftNumber *int `json:"shift_number" db:"shift_number"`

	IncomeChecks     int `json:"income_checks" db:"income_checks"`
	ReturnChecks     int `json:"return_checks" db:"return_checks"`
	CorrectionChecks int `json:"correction_checks" db:"correction_checks"`

	CashIncome         float64 `json:"cash_income" db:"cash_income"`
	CashlessIncome     float64 `json:"cashless_income" db:"cashless_income"`
	CashReturn         float64 `json:"cash_return" db:"cash_return"`
	CashlessReturn     float64 `json:"cashless_return" db:"cashless_return"`
	CorrectionCash     float64 `json:"correction_cash" db:"correction_cash"`
	CorrectionCashless float64 `json:"correction_cashless" db:"correction_cashless"`

	// CogsTotal is nil until a cost file has been merged for this date.
	CogsTotal *float64 `json:"cogs_total" db:"cogs_total"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DateKey returns the day-granularity join key for the record.
func (r *ProfitabilityRecord) DateKey() string {
	return r.ReportDate.Format(DateKeyLayout)
}

// DedupKey identifies the operating period the record describes.
func (r *ProfitabilityRecord) DedupKey() string {
	shift := NoShift
	if r.ShiftNumber != nil {
		shift = *r.ShiftNumber
	}
	return DedupKey(r.ReportDate, shift)
}

// DedupKey builds the date#shift composite identity used to merge records
// referring to the same operating period.
func DedupKey(date time.Time, shift int) string {
	return date.Format(DateKeyLayout) + "#" + strconv.Itoa(shift)
}

// GrossRevenue is raw income before returns and corrections.
func (r *ProfitabilityRecord) GrossRevenue() float64 {
	return r.CashIncome + r.CashlessIncome
}

// Returns is the total returned amount across payment buckets.
func (r *ProfitabilityRecord) Returns() float64 {
	return r.CashReturn + r.CashlessReturn
}

// Corrections is the total correction amount across payment buckets.
func (r *ProfitabilityRecord) Corrections() float64 {
	return r.CorrectionCash + r.CorrectionCashless
}

// NetRevenue is gross revenue minus returns plus corrections.
func (r *ProfitabilityRecord) NetRevenue() float64 {
	return r.GrossRevenue() - r.Returns() + r.Corrections()
}

// Dataset is a named, period-bounded collection of records produced by one
// import. It owns its records exclusively and is never mutated afterwards
// except for cost backfill on its records.
type Dataset struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	SourceFile  string    `json:"source_file" db:"source_file"`
	PeriodStart time.Time `json:"period_start" db:"period_start"`
	PeriodEnd   time.Time `json:"period_end" db:"period_end"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// ImportStatus classifies the outcome of one upload attempt.
type ImportStatus string

const (
	ImportSuccess ImportStatus = "success"
	ImportPartial ImportStatus = "partial"
	ImportFailed  ImportStatus = "failed"
)

// RowError describes a single rejected source row.
type RowError struct {
	RowNumber int    `json:"row_number"`
	Field     string `json:"field"`
	Message   string `json:"message"`
	Value     string `json:"value,omitempty"`
}

// ImportLog records one upload attempt. Append-only.
type ImportLog struct {
	ID            int64        `json:"id" db:"id"`
	DatasetID     *int64       `json:"dataset_id" db:"dataset_id"`
	FileName      string       `json:"file_name" db:"file_name"`
	Status        ImportStatus `json:"status" db:"status"`
	RowsProcessed int          `json:"rows_processed" db:"rows_processed"`
	RowsImported  int          `json:"rows_imported" db:"rows_imported"`
	RowsFailed    int          `json:"rows_failed" db:"rows_failed"`
	PeriodStart   *time.Time   `json:"period_start" db:"period_start"`
	PeriodEnd     *time.Time   `json:"period_end" db:"period_end"`
	Errors        []RowError   `json:"errors" db:"-"`
	Warnings      []string     `json:"warnings" db:"-"`
	Author        *string      `json:"author" db:"author"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
}

// CogsItem is an optional per-SKU cost line inside a daily cost entry.
type CogsItem struct {
	SKU  string  `json:"sku"`
	Name string  `json:"name"`
	Cost float64 `json:"cost"`
}

// CogsDailyEntry is one day of cost-of-goods data, imported independently of
// sales. A cost date without a matching sales date is a warning, not an error.
type CogsDailyEntry struct {
	Date  time.Time  `json:"date" db:"date"`
	Total float64    `json:"total" db:"total"`
	Items []CogsItem `json:"items,omitempty" db:"-"`
}

// ImportResult is the synchronous response of one import call.
type ImportResult struct {
	DatasetID     *int64       `json:"dataset_id,omitempty"`
	Status        ImportStatus `json:"status"`
	RowsProcessed int          `json:"rows_processed"`
	RowsImported  int          `json:"rows_imported"`
	RowsFailed    int          `json:"rows_failed"`
	PeriodStart   *time.Time   `json:"period_start,omitempty"`
	PeriodEnd     *time.Time   `json:"period_end,omitempty"`
	Errors        []RowError   `json:"errors"`
	Warnings      []string     `json:"warnings"`
}
