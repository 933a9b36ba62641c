package parse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poslytics/backend/internal/domain"
)

func cogsSheet(dataRows ...[]string) *Sheet {
	rows := [][]string{{"Дата", "Артикул", "Наименование", "Себестоимость"}}
	rows = append(rows, dataRows...)
	return &Sheet{Name: "costs.csv", Rows: rows}
}

func TestParseCogsAccumulatesPerDay(t *testing.T) {
	sheet := cogsSheet(
		[]string{"01.01.2023", "SKU-1", "Кофе", "1200"},
		[]string{"01.01.2023", "SKU-2", "Чай", "800,50"},
		[]string{"02.01.2023", "", "", "500"},
	)

	res, err := ParseCogs(sheet)
	require.NoError(t, err)
	assert.Equal(t, 3, res.RowsProcessed)
	assert.Equal(t, 0, res.RowsFailed)
	assert.Equal(t, []string{"2023-01-01", "2023-01-02"}, res.SortedDates())

	day1 := res.Entries["2023-01-01"]
	require.NotNil(t, day1)
	assert.InDelta(t, 2000.50, day1.Total, 1e-9)
	require.Len(t, day1.Items, 2)
	assert.Equal(t, "SKU-1", day1.Items[0].SKU)

	day2 := res.Entries["2023-01-02"]
	require.NotNil(t, day2)
	assert.InDelta(t, 500, day2.Total, 1e-9)
	assert.Empty(t, day2.Items) // no sku and no name on the row
}

func TestParseCogsRowErrors(t *testing.T) {
	sheet := cogsSheet(
		[]string{"мусор", "SKU-1", "Кофе", "100"},
		[]string{"01.01.2023", "SKU-1", "Кофе", "дорого"},
		[]string{"01.01.2023", "SKU-1", "Кофе", "-50"},
		[]string{"01.01.2023", "SKU-2", "Чай", "300"},
	)

	res, err := ParseCogs(sheet)
	require.NoError(t, err)
	assert.Equal(t, 4, res.RowsProcessed)
	assert.Equal(t, 3, res.RowsFailed)
	require.Len(t, res.Errors, 3)
	assert.Equal(t, FieldDate, res.Errors[0].Field)
	assert.Equal(t, FieldCogsTotal, res.Errors[1].Field)
	assert.Equal(t, FieldCogsTotal, res.Errors[2].Field)

	require.NotNil(t, res.Entries["2023-01-01"])
	assert.InDelta(t, 300, res.Entries["2023-01-01"].Total, 1e-9)
}

func TestParseCogsNoHeader(t *testing.T) {
	sheet := &Sheet{Name: "costs.csv", Rows: [][]string{
		{"Склад", "Остаток"},
		{"Главный", "10"},
	}}

	_, err := ParseCogs(sheet)
	require.Error(t, err)
	var se *StructuralError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, CodeHeaderMismatch, se.Code)
}

func TestMergeCogs(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2023, 1, d, 0, 0, 0, 0, time.UTC) }
	shift := func(n int) *int { return &n }

	records := []*domain.ProfitabilityRecord{
		{ReportDate: day(1), ShiftNumber: shift(1)},
		{ReportDate: day(1), ShiftNumber: shift(2)},
		{ReportDate: day(2)},
	}
	entries := map[string]*domain.CogsDailyEntry{
		"2023-01-01": {Date: day(1), Total: 1500},
		"2023-01-03": {Date: day(3), Total: 900}, // no sales that day
	}

	matched, warnings := MergeCogs(entries, records)
	assert.Equal(t, 1, matched)

	// The first shift takes the whole day's cost, the second an explicit zero.
	require.NotNil(t, records[0].CogsTotal)
	assert.InDelta(t, 1500, *records[0].CogsTotal, 1e-9)
	require.NotNil(t, records[1].CogsTotal)
	assert.Zero(t, *records[1].CogsTotal)

	// Untouched day stays unknown rather than zero.
	assert.Nil(t, records[2].CogsTotal)

	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "2023-01-03")
}

func TestDecodeSheetCSVSemicolon(t *testing.T) {
	data := []byte("Дата;Приход наличными;Приход безналичными\n01.01.2023;100;200\n")
	sheet, err := DecodeSheet(data, "report.csv")
	require.NoError(t, err)
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, []string{"Дата", "Приход наличными", "Приход безналичными"}, sheet.Rows[0])
}

func TestDecodeSheetEmpty(t *testing.T) {
	_, err := DecodeSheet(nil, "report.csv")
	require.Error(t, err)
	var se *StructuralError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, CodeEmptySheet, se.Code)
}
