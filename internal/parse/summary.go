package parse

import (
	"fmt"
	"math"

	"github.com/poslytics/backend/internal/domain"
)

// summaryStrategy reads pre-aggregated exports: one data row is one
// day/shift of totals. Any validation failure discards the whole row,
// since partially imported rows would silently skew the daily aggregates.
type summaryStrategy struct{}

func (s *summaryStrategy) Name() string { return SummaryLayout.Name }

func (s *summaryStrategy) Extract(sheet *Sheet, opts Options) (*Extraction, error) {
	header := ResolveHeader(sheet.Rows, SummaryLayout)
	if header == nil {
		return nil, ErrNotApplicable
	}

	res := &Extraction{Strategy: s.Name()}
	byKey := make(map[string]*domain.ProfitabilityRecord)

	countFields := []string{FieldIncomeChecks, FieldReturnChecks, FieldCorrectionChecks}
	amountFields := []string{
		FieldCashIncome, FieldCashlessIncome,
		FieldCashReturn, FieldCashlessReturn,
		FieldCorrectionCash, FieldCorrectionCashless,
	}

	for i := header.Row + 1; i < len(sheet.Rows); i++ {
		row := sheet.Rows[i]
		if isEmptyRow(row) {
			continue
		}
		res.RowsProcessed++
		rowNum := i + 1 // 1-based, as an operator sees it in the spreadsheet

		date, ok := ParseDate(cellAt(row, header.Col(FieldDate)))
		if !ok {
			res.Errors = append(res.Errors, rowError(rowNum, FieldDate,
				"unparseable date", cellAt(row, header.Col(FieldDate))))
			res.RowsFailed++
			continue
		}

		rec := &domain.ProfitabilityRecord{ReportDate: DayOf(date)}

		shift := domain.NoShift
		if header.Has(FieldShift) {
			if n, ok := ParseNumber(cellAt(row, header.Col(FieldShift))); ok {
				shift = int(n)
				sh := int(n)
				rec.ShiftNumber = &sh
			}
		}

		valid := true
		counts := make(map[string]int, len(countFields))
		for _, f := range countFields {
			if !header.Has(f) {
				continue
			}
			raw := cellAt(row, header.Col(f))
			if raw == "" {
				continue
			}
			n, ok := ParseNumber(raw)
			if !ok {
				res.Errors = append(res.Errors, rowError(rowNum, f, "unparseable count", raw))
				valid = false
				break
			}
			c := int(n)
			if c < 0 || c > opts.MaxChecksPerDay {
				res.Errors = append(res.Errors, rowError(rowNum, f,
					fmt.Sprintf("count out of range [0,%d]", opts.MaxChecksPerDay), raw))
				valid = false
				break
			}
			counts[f] = c
		}

		amounts := make(map[string]float64, len(amountFields))
		if valid {
			for _, f := range amountFields {
				if !header.Has(f) {
					continue
				}
				raw := cellAt(row, header.Col(f))
				if raw == "" {
					continue
				}
				n, ok := ParseNumber(raw)
				if !ok {
					res.Errors = append(res.Errors, rowError(rowNum, f, "unparseable amount", raw))
					valid = false
					break
				}
				if n < 0 || math.IsNaN(n) || math.IsInf(n, 0) {
					res.Errors = append(res.Errors, rowError(rowNum, f, "amount must be non-negative", raw))
					valid = false
					break
				}
				amounts[f] = n
			}
		}

		if !valid {
			res.RowsFailed++
			continue
		}

		rec.IncomeChecks = counts[FieldIncomeChecks]
		rec.ReturnChecks = counts[FieldReturnChecks]
		rec.CorrectionChecks = counts[FieldCorrectionChecks]
		rec.CashIncome = amounts[FieldCashIncome]
		rec.CashlessIncome = amounts[FieldCashlessIncome]
		rec.CashReturn = amounts[FieldCashReturn]
		rec.CashlessReturn = amounts[FieldCashlessReturn]
		rec.CorrectionCash = amounts[FieldCorrectionCash]
		rec.CorrectionCashless = amounts[FieldCorrectionCashless]

		key := domain.DedupKey(rec.ReportDate, shift)
		if _, dup := byKey[key]; dup {
			// Last row wins. Operators re-export corrected shifts below the
			// originals, so the later row is taken as the correction.
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("duplicate record for %s overwritten by row %d", key, rowNum))
		}
		byKey[key] = rec
	}

	for _, rec := range byKey {
		res.Records = append(res.Records, rec)
	}
	return res, nil
}
