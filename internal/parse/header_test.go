package parse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveHeaderSummary(t *testing.T) {
	rows := [][]string{
		{"ООО Ромашка"},
		{"Отчет о сменах"},
		{"Дата", "Смена", "Чеки прихода", "Приход наличными", "Приход безналичными"},
		{"01.01.2023", "1", "10", "1000", "2000"},
	}

	h := ResolveHeader(rows, SummaryLayout)
	require.NotNil(t, h)
	assert.Equal(t, 2, h.Row)
	assert.Equal(t, 0, h.Col(FieldDate))
	assert.Equal(t, 1, h.Col(FieldShift))
	assert.Equal(t, 2, h.Col(FieldIncomeChecks))
	assert.Equal(t, 3, h.Col(FieldCashIncome))
	assert.Equal(t, 4, h.Col(FieldCashlessIncome))
	assert.Equal(t, -1, h.Col(FieldReturnChecks))
	assert.False(t, h.Has(FieldReturnChecks))
}

func TestResolveHeaderMissingRequired(t *testing.T) {
	rows := [][]string{
		{"Дата", "Смена", "Чеки прихода"}, // no income columns
	}
	assert.Nil(t, ResolveHeader(rows, SummaryLayout))
}

func TestResolveHeaderSkipsBoilerplate(t *testing.T) {
	disclaimer := strings.Repeat("отчет содержит сведения ", 10)
	rows := [][]string{
		{disclaimer},
		{"Спасибо за покупку, дата, сумма"},
		{"https://pos.example.ru"},
		{"Дата", "Приход наличными", "Приход безналичными"},
	}

	h := ResolveHeader(rows, SummaryLayout)
	require.NotNil(t, h)
	assert.Equal(t, 3, h.Row)
}

func TestResolveHeaderScanLimit(t *testing.T) {
	rows := make([][]string, 0, headerScanLimit+2)
	for i := 0; i < headerScanLimit; i++ {
		rows = append(rows, []string{"строка", "без", "заголовка"})
	}
	rows = append(rows, []string{"Дата", "Приход наличными", "Приход безналичными"})

	assert.Nil(t, ResolveHeader(rows, SummaryLayout))
}

func TestResolveHeaderDetailedDiscountPercent(t *testing.T) {
	// A lone percent column must resolve to discountPercent, not discount.
	rows := [][]string{
		{"Дата", "Номер чека", "Сумма", "Скидка %"},
	}
	h := ResolveHeader(rows, DetailedLayout)
	require.NotNil(t, h)
	assert.Equal(t, 3, h.Col(FieldDiscountPercent))
	assert.False(t, h.Has(FieldDiscount))

	// With both columns present each gets its own.
	rows = [][]string{
		{"Дата", "Номер чека", "Сумма", "Скидка", "Скидка %"},
	}
	h = ResolveHeader(rows, DetailedLayout)
	require.NotNil(t, h)
	assert.Equal(t, 3, h.Col(FieldDiscount))
	assert.Equal(t, 4, h.Col(FieldDiscountPercent))
}

func TestResolveHeaderNormalizesCells(t *testing.T) {
	rows := [][]string{
		{"  ДАТА  ", "Приход   наличными", "приход безналичными"},
	}
	h := ResolveHeader(rows, SummaryLayout)
	require.NotNil(t, h)
	assert.Equal(t, 0, h.Col(FieldDate))
	assert.Equal(t, 1, h.Col(FieldCashIncome))
	assert.Equal(t, 2, h.Col(FieldCashlessIncome))
}
