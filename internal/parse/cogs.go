package parse

import (
	"fmt"
	"sort"
	"strings"

	"github.com/poslytics/backend/internal/domain"
)

// CogsParseResult holds the decoded daily cost entries of one cost file.
type CogsParseResult struct {
	Entries       map[string]*domain.CogsDailyEntry // keyed by DateKey
	Errors        []domain.RowError
	Warnings      []string
	RowsProcessed int
	RowsFailed    int
}

// SortedDates returns the entry date keys in ascending order.
func (r *CogsParseResult) SortedDates() []string {
	keys := make([]string, 0, len(r.Entries))
	for k := range r.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParseCogs decodes a cost-of-goods file: one row per day (or per SKU per
// day when an sku/name column is present); per-day totals accumulate across
// rows sharing a date.
func ParseCogs(sheet *Sheet) (*CogsParseResult, error) {
	header := ResolveHeader(sheet.Rows, CogsLayout)
	if header == nil {
		return nil, structural(CodeHeaderMismatch,
			fmt.Sprintf("no cost-file header found in %s", sheet.Name), nil)
	}

	res := &CogsParseResult{Entries: make(map[string]*domain.CogsDailyEntry)}

	for i := header.Row + 1; i < len(sheet.Rows); i++ {
		row := sheet.Rows[i]
		if isEmptyRow(row) {
			continue
		}
		res.RowsProcessed++
		rowNum := i + 1

		date, ok := ParseDate(cellAt(row, header.Col(FieldDate)))
		if !ok {
			res.Errors = append(res.Errors, rowError(rowNum, FieldDate,
				"unparseable date", cellAt(row, header.Col(FieldDate))))
			res.RowsFailed++
			continue
		}

		raw := cellAt(row, header.Col(FieldCogsTotal))
		cost, ok := ParseNumber(raw)
		if !ok {
			res.Errors = append(res.Errors, rowError(rowNum, FieldCogsTotal, "unparseable cost", raw))
			res.RowsFailed++
			continue
		}
		if cost < 0 {
			res.Errors = append(res.Errors, rowError(rowNum, FieldCogsTotal, "cost must be non-negative", raw))
			res.RowsFailed++
			continue
		}

		day := DayOf(date)
		key := day.Format(domain.DateKeyLayout)
		entry, exists := res.Entries[key]
		if !exists {
			entry = &domain.CogsDailyEntry{Date: day}
			res.Entries[key] = entry
		}
		entry.Total += cost

		sku := strings.TrimSpace(cellAt(row, header.Col(FieldSKU)))
		name := strings.TrimSpace(cellAt(row, header.Col(FieldItemName)))
		if sku != "" || name != "" {
			entry.Items = append(entry.Items, domain.CogsItem{SKU: sku, Name: name, Cost: cost})
		}
	}

	if len(res.Entries) == 0 && res.RowsProcessed > 0 {
		res.Warnings = append(res.Warnings, "cost file contained no usable daily entries")
	}
	return res, nil
}

// MergeCogs attributes daily cost totals to sales records sharing the date
// key. On multi-shift days the first record (in slice order) receives the
// whole cost and the remaining shifts get an explicit zero, so downstream
// profit math never double-counts. Cost dates with no matching sales date
// produce warnings; cost data enriches an import, it never rejects one.
func MergeCogs(entries map[string]*domain.CogsDailyEntry, records []*domain.ProfitabilityRecord) (matched int, warnings []string) {
	byDate := make(map[string][]*domain.ProfitabilityRecord)
	for _, rec := range records {
		key := rec.DateKey()
		byDate[key] = append(byDate[key], rec)
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		entry := entries[key]
		recs, ok := byDate[key]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("no sales record for cost entry dated %s", key))
			continue
		}
		for i, rec := range recs {
			v := 0.0
			if i == 0 {
				v = entry.Total
			}
			cost := v
			rec.CogsTotal = &cost
		}
		matched++
	}
	return matched, warnings
}
