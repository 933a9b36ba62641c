package parse

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/poslytics/backend/internal/domain"
)

// LineItem is one parsed sold position of a check. Produced by the pure
// extraction stage and consumed both by the detailed import strategy and by
// the product-level analyzer.
type LineItem struct {
	RowNum      int
	Date        time.Time
	Shift       int
	CheckNumber string
	Name        string
	Quantity    float64

	// Amount is the final line total after discount, scaled to the full
	// quantity. ListedTotal is quantity times the listed unit price before
	// any discount; zero when the export has no price column.
	Amount      float64
	ListedTotal float64
	Discount    float64

	Cost    float64
	HasCost bool

	Payment      PaymentMethod
	PaymentKnown bool
	PaymentRaw   string
	Operation    OperationType
}

// LineItemsResult is the output of the pure extraction stage.
type LineItemsResult struct {
	Items         []*LineItem
	Errors        []domain.RowError
	Warnings      []string
	RowsProcessed int
	RowsFailed    int
}

// ExtractLineItems decodes a detailed (per-line-item) sheet into typed line
// items. Returns ErrNotApplicable when the detailed header is absent.
func ExtractLineItems(sheet *Sheet) (*LineItemsResult, error) {
	header := ResolveHeader(sheet.Rows, DetailedLayout)
	if header == nil {
		return nil, ErrNotApplicable
	}

	res := &LineItemsResult{}
	unknown := make(map[string]struct{})

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

		checkNumber := strings.TrimSpace(cellAt(row, header.Col(FieldCheckNumber)))
		if checkNumber == "" {
			res.Errors = append(res.Errors, rowError(rowNum, FieldCheckNumber, "missing check number", ""))
			res.RowsFailed++
			continue
		}

		it := &LineItem{
			RowNum:      rowNum,
			Date:        DayOf(date),
			Shift:       domain.NoShift,
			CheckNumber: checkNumber,
			Name:        strings.TrimSpace(cellAt(row, header.Col(FieldItemName))),
			Quantity:    1,
		}

		if header.Has(FieldShift) {
			if n, ok := ParseNumber(cellAt(row, header.Col(FieldShift))); ok {
				it.Shift = int(n)
			}
		}
		if header.Has(FieldQuantity) {
			if n, ok := ParseNumber(cellAt(row, header.Col(FieldQuantity))); ok && n > 0 {
				it.Quantity = n
			}
		}

		unitPrice, hasUnitPrice := 0.0, false
		if header.Has(FieldUnitPrice) {
			if n, ok := ParseNumber(cellAt(row, header.Col(FieldUnitPrice))); ok {
				unitPrice, hasUnitPrice = n, true
			}
		}
		if hasUnitPrice {
			it.ListedTotal = unitPrice * it.Quantity
		}

		discount := 0.0
		if header.Has(FieldDiscount) {
			if n, ok := ParseNumber(cellAt(row, header.Col(FieldDiscount))); ok && n > 0 {
				discount = n
			}
		}
		// A percentage discount is re-expressed in currency using this row's
		// listed price.
		if header.Has(FieldDiscountPercent) && hasUnitPrice {
			if pct, ok := ParseNumber(cellAt(row, header.Col(FieldDiscountPercent))); ok && pct > 0 {
				discount += unitPrice * it.Quantity * pct / 100
			}
		}
		it.Discount = discount

		rawAmount, hasRawAmount := 0.0, false
		if raw := cellAt(row, header.Col(FieldAmount)); strings.TrimSpace(raw) != "" {
			n, ok := ParseNumber(raw)
			if !ok {
				res.Errors = append(res.Errors, rowError(rowNum, FieldAmount, "unparseable amount", raw))
				res.RowsFailed++
				continue
			}
			rawAmount, hasRawAmount = n, true
		}

		perUnitAmount := false
		switch {
		case hasRawAmount:
			it.Amount = rawAmount
			// Some registers export the per-unit amount in the total column.
			// A multi-unit line whose amount equals the unit price is exactly
			// that case: scale up instead of averaging it away.
			if it.Quantity > 1 && hasUnitPrice && nearlyEqual(math.Abs(rawAmount), unitPrice) {
				it.Amount = rawAmount * it.Quantity
				perUnitAmount = true
			}
		case hasUnitPrice:
			it.Amount = unitPrice*it.Quantity - discount
		default:
			res.Errors = append(res.Errors, rowError(rowNum, FieldAmount,
				"no amount and no unit price to derive it from", ""))
			res.RowsFailed++
			continue
		}

		if header.Has(FieldCost) {
			if n, ok := ParseNumber(cellAt(row, header.Col(FieldCost))); ok && n >= 0 {
				it.Cost, it.HasCost = n, true
				if perUnitAmount {
					it.Cost = n * it.Quantity
				}
			}
		}

		it.PaymentRaw = strings.TrimSpace(cellAt(row, header.Col(FieldPaymentMethod)))
		it.Payment, it.PaymentKnown = ClassifyPaymentMethod(it.PaymentRaw)
		if !it.PaymentKnown && it.PaymentRaw != "" {
			unknown[it.PaymentRaw] = struct{}{}
		}

		it.Operation = ClassifyOperationType(cellAt(row, header.Col(FieldOperationType)), it.Amount)

		res.Items = append(res.Items, it)
	}

	if len(unknown) > 0 {
		labels := make([]string, 0, len(unknown))
		for l := range unknown {
			labels = append(labels, l)
		}
		sort.Strings(labels)
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"unrecognized payment labels treated as cashless: %s", strings.Join(labels, ", ")))
	}
	return res, nil
}

// detailedStrategy reads per-line-item exports as a fallback when the
// summary columns are absent: line items are folded into per-check totals,
// then into one record per (date, shift).
type detailedStrategy struct{}

func (s *detailedStrategy) Name() string { return DetailedLayout.Name }

func (s *detailedStrategy) Extract(sheet *Sheet, opts Options) (*Extraction, error) {
	lines, err := ExtractLineItems(sheet)
	if err != nil {
		return nil, err
	}

	res := &Extraction{
		Strategy:      s.Name(),
		Errors:        lines.Errors,
		Warnings:      lines.Warnings,
		RowsProcessed: lines.RowsProcessed,
		RowsFailed:    lines.RowsFailed,
	}

	checks := groupChecks(lines.Items)
	if len(checks) == 0 {
		return nil, structural(CodeHeaderMismatch,
			fmt.Sprintf("detailed layout matched %s but produced no usable checks", sheet.Name), nil)
	}

	res.Records = foldChecks(checks)
	return res, nil
}

// checkKey identifies one physical check within a shift.
type checkKey struct {
	dateKey string
	shift   int
	number  string
}

// checkSummary is the per-check fold: amounts split by operation type and
// payment bucket. QR and SBP settle through the acquirer, so they land in
// the cashless bucket of the daily record.
type checkSummary struct {
	date  time.Time
	shift int

	incomeCash     float64
	incomeCashless float64
	returnCash     float64
	returnCashless float64
	corrCash       float64
	corrCashless   float64

	cost float64
}

func (cs *checkSummary) add(it *LineItem) {
	amount := math.Abs(it.Amount)
	cash := it.Payment == PaymentCash
	switch it.Operation {
	case OperationReturn:
		if cash {
			cs.returnCash += amount
		} else {
			cs.returnCashless += amount
		}
	case OperationCorrection:
		if cash {
			cs.corrCash += amount
		} else {
			cs.corrCashless += amount
		}
	default:
		if cash {
			cs.incomeCash += amount
		} else {
			cs.incomeCashless += amount
		}
	}
	if it.HasCost {
		cs.cost += it.Cost
	}
}

func (cs *checkSummary) incomeTotal() float64 { return cs.incomeCash + cs.incomeCashless }
func (cs *checkSummary) returnTotal() float64 { return cs.returnCash + cs.returnCashless }
func (cs *checkSummary) corrTotal() float64   { return cs.corrCash + cs.corrCashless }

// groupChecks folds line items into per-check totals.
func groupChecks(items []*LineItem) map[checkKey]*checkSummary {
	checks := make(map[checkKey]*checkSummary)
	for _, it := range items {
		key := checkKey{dateKey: it.Date.Format(domain.DateKeyLayout), shift: it.Shift, number: it.CheckNumber}
		cs, ok := checks[key]
		if !ok {
			cs = &checkSummary{date: it.Date, shift: it.Shift}
			checks[key] = cs
		}
		cs.add(it)
	}
	return checks
}

// foldChecks folds per-check totals into one record per (date, shift). A
// check counts toward a category when it has a positive amount there.
func foldChecks(checks map[checkKey]*checkSummary) []*domain.ProfitabilityRecord {
	byPeriod := make(map[string]*domain.ProfitabilityRecord)

	for _, cs := range checks {
		key := domain.DedupKey(cs.date, cs.shift)
		rec, ok := byPeriod[key]
		if !ok {
			rec = &domain.ProfitabilityRecord{ReportDate: cs.date}
			if cs.shift != domain.NoShift {
				sh := cs.shift
				rec.ShiftNumber = &sh
			}
			byPeriod[key] = rec
		}

		rec.CashIncome += cs.incomeCash
		rec.CashlessIncome += cs.incomeCashless
		rec.CashReturn += cs.returnCash
		rec.CashlessReturn += cs.returnCashless
		rec.CorrectionCash += cs.corrCash
		rec.CorrectionCashless += cs.corrCashless

		if cs.incomeTotal() > 0 {
			rec.IncomeChecks++
		}
		if cs.returnTotal() > 0 {
			rec.ReturnChecks++
		}
		if cs.corrTotal() > 0 {
			rec.CorrectionChecks++
		}

		if cs.cost > 0 {
			if rec.CogsTotal == nil {
				total := 0.0
				rec.CogsTotal = &total
			}
			*rec.CogsTotal += cs.cost
		}
	}

	records := make([]*domain.ProfitabilityRecord, 0, len(byPeriod))
	for _, rec := range byPeriod {
		records = append(records, rec)
	}
	return records
}

const amountEpsilon = 1e-9

func nearlyEqual(a, b float64) bool {
	return math.Abs(a-b) <= amountEpsilon*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}
