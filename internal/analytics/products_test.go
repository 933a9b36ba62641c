package analytics

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poslytics/backend/internal/parse"
)

func item(name string, qty, amount float64) *parse.LineItem {
	return &parse.LineItem{Name: name, Quantity: qty, Amount: amount, Operation: parse.OperationIncome}
}

func itemWithCost(name string, qty, amount, cost float64) *parse.LineItem {
	it := item(name, qty, amount)
	it.Cost = cost
	it.HasCost = true
	return it
}

func TestAnalyzeTopBySales(t *testing.T) {
	var items []*parse.LineItem
	for i := 1; i <= 7; i++ {
		items = append(items, item(fmt.Sprintf("Товар %d", i), float64(i), float64(i*100)))
	}

	resp := NewProductAnalyzer(1).Analyze(items)
	require.Len(t, resp.TopBySales, 5)
	assert.Equal(t, "Товар 7", resp.TopBySales[0].Name)
	assert.Equal(t, "Товар 3", resp.TopBySales[4].Name)
}

func TestAnalyzeWorstByMarginVolumeFloor(t *testing.T) {
	items := []*parse.LineItem{
		// Terrible margin but sold only twice: below the floor, excluded.
		itemWithCost("Редкий", 2, 100, 95),
		// Sold often with a thin margin: the expected worst.
		itemWithCost("Ходовой", 10, 1000, 900),
		itemWithCost("Прибыльный", 10, 1000, 200),
		// No cost data: no margin, excluded.
		item("Безучетный", 20, 500),
	}

	resp := NewProductAnalyzer(5).Analyze(items)
	require.Len(t, resp.WorstByMargin, 2)
	assert.Equal(t, "Ходовой", resp.WorstByMargin[0].Name)
	assert.Equal(t, "Прибыльный", resp.WorstByMargin[1].Name)
	require.NotNil(t, resp.WorstByMargin[0].Margin)
	assert.InDelta(t, 0.1, *resp.WorstByMargin[0].Margin, 1e-9)
}

func TestAnalyzeReturnsReduceTotals(t *testing.T) {
	items := []*parse.LineItem{
		item("Кофе", 10, 1500),
		{Name: "Кофе", Quantity: 2, Amount: 300, Operation: parse.OperationReturn},
	}

	resp := NewProductAnalyzer(1).Analyze(items)
	require.Len(t, resp.TopBySales, 1)
	assert.InDelta(t, 8, resp.TopBySales[0].Quantity, 1e-9)
	assert.InDelta(t, 1200, resp.TopBySales[0].Revenue, 1e-9)
}

func TestAnalyzeDiscountAndBonus(t *testing.T) {
	items := []*parse.LineItem{
		// Listed 500, explicit discount 50, paid 430: the missing 20 is a
		// bonus write-off.
		{Name: "Кофе", Quantity: 1, Amount: 430, ListedTotal: 500, Discount: 50, Operation: parse.OperationIncome},
		// Fully explained by the explicit discount.
		{Name: "Чай", Quantity: 1, Amount: 270, ListedTotal: 300, Discount: 30, Operation: parse.OperationIncome},
		// Returns never contribute to discount totals.
		{Name: "Сок", Quantity: 1, Amount: 100, ListedTotal: 100, Discount: 10, Operation: parse.OperationReturn},
	}

	resp := NewProductAnalyzer(1).Analyze(items)
	assert.InDelta(t, 80, resp.TotalDiscount, 1e-9)
	assert.InDelta(t, 20, resp.TotalBonus, 1e-9)
}

func TestAnalyzeUnnamedItemsWarning(t *testing.T) {
	items := []*parse.LineItem{
		item("Кофе", 1, 100),
		item("", 1, 50),
		item("", 1, 70),
	}

	resp := NewProductAnalyzer(1).Analyze(items)
	require.Len(t, resp.TopBySales, 1)
	require.Len(t, resp.Warnings, 1)
	assert.Contains(t, resp.Warnings[0], "2 line items")
}
