package parse

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/poslytics/backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// Options bounds row-level validation during extraction.
type Options struct {
	// MaxChecksPerDay is the upper sanity bound for any count column.
	MaxChecksPerDay int
}

// DefaultOptions mirrors the config defaults.
func DefaultOptions() Options {
	return Options{MaxChecksPerDay: 10000}
}

// Extraction is the fully-materialized result of parsing one sales export.
// Records are deduplicated by (date, shift) and sorted by date; nothing has
// been persisted yet.
type Extraction struct {
	Strategy      string
	Records       []*domain.ProfitabilityRecord
	Errors        []domain.RowError
	Warnings      []string
	RowsProcessed int
	RowsFailed    int
	PeriodStart   time.Time
	PeriodEnd     time.Time
}

func (e *Extraction) finalize() {
	sort.Slice(e.Records, func(i, j int) bool {
		if e.Records[i].ReportDate.Equal(e.Records[j].ReportDate) {
			return shiftOf(e.Records[i]) < shiftOf(e.Records[j])
		}
		return e.Records[i].ReportDate.Before(e.Records[j].ReportDate)
	})
	if len(e.Records) > 0 {
		e.PeriodStart = e.Records[0].ReportDate
		e.PeriodEnd = e.Records[len(e.Records)-1].ReportDate
	}
}

func shiftOf(r *domain.ProfitabilityRecord) int {
	if r.ShiftNumber == nil {
		return domain.NoShift
	}
	return *r.ShiftNumber
}

// Strategy is one way of reading a sheet into profitability records. A
// strategy whose required columns are absent returns ErrNotApplicable, a
// signal to try the next one, distinct from a genuine parse failure.
type Strategy interface {
	Name() string
	Extract(sheet *Sheet, opts Options) (*Extraction, error)
}

// Extractor runs the ordered strategy chain: the summary layout first, the
// detailed per-line-item layout as fallback.
type Extractor struct {
	opts       Options
	strategies []Strategy
}

func NewExtractor(opts Options) *Extractor {
	if opts.MaxChecksPerDay <= 0 {
		opts.MaxChecksPerDay = DefaultOptions().MaxChecksPerDay
	}
	return &Extractor{
		opts:       opts,
		strategies: []Strategy{&summaryStrategy{}, &detailedStrategy{}},
	}
}

// Extract parses a decoded sheet with the first applicable strategy. When no
// strategy recognizes the sheet's columns the whole import fails with a
// structural header-mismatch error.
func (e *Extractor) Extract(sheet *Sheet) (*Extraction, error) {
	for _, s := range e.strategies {
		res, err := s.Extract(sheet, e.opts)
		if errors.Is(err, ErrNotApplicable) {
			log.Debug().Str("strategy", s.Name()).Str("file", sheet.Name).Msg("strategy not applicable")
			continue
		}
		if err != nil {
			return nil, err
		}
		res.finalize()
		log.Info().
			Str("strategy", s.Name()).
			Str("file", sheet.Name).
			Int("records", len(res.Records)).
			Int("rows_processed", res.RowsProcessed).
			Int("rows_failed", res.RowsFailed).
			Msg("extraction complete")
		return res, nil
	}

	return nil, structural(CodeHeaderMismatch,
		fmt.Sprintf("no known layout matches the columns of %s", sheet.Name), nil)
}

func rowError(row int, field, message, value string) domain.RowError {
	return domain.RowError{RowNumber: row, Field: field, Message: message, Value: value}
}

// cellAt is a bounds-safe cell accessor: short rows read as empty cells.
func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func isEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
