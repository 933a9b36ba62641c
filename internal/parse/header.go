package parse

import "strings"

// Canonical field names shared by the layouts.
const (
	FieldDate               = "date"
	FieldShift              = "shift"
	FieldIncomeChecks       = "incomeChecks"
	FieldReturnChecks       = "returnChecks"
	FieldCorrectionChecks   = "correctionChecks"
	FieldCashIncome         = "cashIncome"
	FieldCashlessIncome     = "cashlessIncome"
	FieldCashReturn         = "cashReturn"
	FieldCashlessReturn     = "cashlessReturn"
	FieldCorrectionCash     = "correctionCash"
	FieldCorrectionCashless = "correctionCashless"

	FieldCheckNumber     = "checkNumber"
	FieldAmount          = "amount"
	FieldPaymentMethod   = "paymentMethod"
	FieldOperationType   = "operationType"
	FieldItemName        = "itemName"
	FieldQuantity        = "quantity"
	FieldUnitPrice       = "unitPrice"
	FieldDiscount        = "discount"
	FieldDiscountPercent = "discountPercent"
	FieldCost            = "cost"

	FieldCogsTotal = "cogsTotal"
	FieldSKU       = "sku"
)

// FieldRule maps one canonical field to the header spellings seen in the
// wild. Resolution order per column is fixed: exact canonical match, exact
// alias match, then substring containment; first match wins. Ambiguous
// headers resolve differently if this order changes.
type FieldRule struct {
	Canonical  string
	Aliases    []string
	Substrings []string
}

// Layout is a declarative header-resolution configuration for one known
// export shape. New formats are added here, not in extraction code.
type Layout struct {
	Name     string
	Fields   []FieldRule
	Required []string
}

// HeaderMap is the result of a successful header scan: canonical field name
// to zero-based column index, plus the row the header was found on.
type HeaderMap struct {
	Columns map[string]int
	Row     int
}

// Col returns the column index for a canonical field, or -1.
func (h *HeaderMap) Col(field string) int {
	if idx, ok := h.Columns[field]; ok {
		return idx
	}
	return -1
}

// Has reports whether the field was present in the header row.
func (h *HeaderMap) Has(field string) bool {
	_, ok := h.Columns[field]
	return ok
}

// headerScanLimit bounds how deep into a sheet the header may sit: exports
// routinely put logos, legal text and shop requisites above the data.
const headerScanLimit = 30

// boilerplateCellLimit: header cells are short labels; anything longer is a
// disclaimer or marketing line and the row must not be mistaken for a header.
const boilerplateCellLimit = 120

var boilerplatePhrases = []string{
	"спасибо за покупку",
	"отчет сформирован",
	"документ является",
	"www.",
	"http://",
	"https://",
}

// ResolveHeader scans the first rows of a sheet for one that satisfies all
// required fields of the layout. Returns nil when no row qualifies.
func ResolveHeader(rows [][]string, layout Layout) *HeaderMap {
	limit := len(rows)
	if limit > headerScanLimit {
		limit = headerScanLimit
	}

	for i := 0; i < limit; i++ {
		if isBoilerplateRow(rows[i]) {
			continue
		}
		cols := matchRow(rows[i], layout.Fields)
		if hasAll(cols, layout.Required) {
			return &HeaderMap{Columns: cols, Row: i}
		}
	}
	return nil
}

func matchRow(row []string, fields []FieldRule) map[string]int {
	cells := make([]string, len(row))
	for i, c := range row {
		cells[i] = normalizeHeaderCell(c)
	}

	cols := make(map[string]int)
	taken := make(map[int]bool)

	for _, f := range fields {
		if idx := matchField(cells, taken, f); idx >= 0 {
			cols[f.Canonical] = idx
			taken[idx] = true
		}
	}
	return cols
}

func matchField(cells []string, taken map[int]bool, f FieldRule) int {
	canonical := strings.ToLower(f.Canonical)
	for i, c := range cells {
		if !taken[i] && c == canonical {
			return i
		}
	}
	for _, alias := range f.Aliases {
		for i, c := range cells {
			if !taken[i] && c == alias {
				return i
			}
		}
	}
	for _, sub := range f.Substrings {
		for i, c := range cells {
			if !taken[i] && c != "" && strings.Contains(c, sub) {
				return i
			}
		}
	}
	return -1
}

func hasAll(cols map[string]int, required []string) bool {
	for _, f := range required {
		if _, ok := cols[f]; !ok {
			return false
		}
	}
	return true
}

func normalizeHeaderCell(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), " ")
}

func isBoilerplateRow(row []string) bool {
	for _, cell := range row {
		if len([]rune(cell)) > boilerplateCellLimit {
			return true
		}
		lc := strings.ToLower(cell)
		for _, phrase := range boilerplatePhrases {
			if strings.Contains(lc, phrase) {
				return true
			}
		}
	}
	return false
}

// SummaryLayout matches pre-aggregated exports where one row is one
// day/shift of totals.
var SummaryLayout = Layout{
	Name: "summary",
	Fields: []FieldRule{
		{Canonical: FieldDate, Aliases: []string{"дата", "дата отчета", "дата смены", "report date"}, Substrings: []string{"дата"}},
		{Canonical: FieldShift, Aliases: []string{"смена", "номер смены", "shift"}, Substrings: []string{"смен"}},
		{Canonical: FieldIncomeChecks, Aliases: []string{"чеки прихода", "чеков прихода", "кол-во чеков прихода"}, Substrings: []string{"чеки приход", "чеков приход"}},
		{Canonical: FieldReturnChecks, Aliases: []string{"чеки возврата", "чеков возврата"}, Substrings: []string{"чеки возврат", "чеков возврат"}},
		{Canonical: FieldCorrectionChecks, Aliases: []string{"чеки коррекции", "чеков коррекции"}, Substrings: []string{"чеки коррек", "чеков коррек"}},
		{Canonical: FieldCashIncome, Aliases: []string{"приход наличными", "наличными", "наличные"}, Substrings: []string{"приход налич"}},
		{Canonical: FieldCashlessIncome, Aliases: []string{"приход безналичными", "безналичными", "безналичные"}, Substrings: []string{"приход безнал"}},
		{Canonical: FieldCashReturn, Aliases: []string{"возврат наличными"}, Substrings: []string{"возврат налич"}},
		{Canonical: FieldCashlessReturn, Aliases: []string{"возврат безналичными"}, Substrings: []string{"возврат безнал"}},
		{Canonical: FieldCorrectionCash, Aliases: []string{"коррекция наличными"}, Substrings: []string{"коррекция налич"}},
		{Canonical: FieldCorrectionCashless, Aliases: []string{"коррекция безналичными"}, Substrings: []string{"коррекция безнал"}},
	},
	Required: []string{FieldDate, FieldCashIncome, FieldCashlessIncome},
}

// DetailedLayout matches per-line-item exports where one row is one sold
// position of a check.
var DetailedLayout = Layout{
	Name: "detailed",
	Fields: []FieldRule{
		{Canonical: FieldDate, Aliases: []string{"дата смены", "дата", "дата чека", "дата продажи"}, Substrings: []string{"дата"}},
		{Canonical: FieldShift, Aliases: []string{"смена", "номер смены"}, Substrings: []string{"смен"}},
		{Canonical: FieldCheckNumber, Aliases: []string{"номер чека", "чек", "№ чека", "check"}, Substrings: []string{"чек"}},
		{Canonical: FieldAmount, Aliases: []string{"сумма", "сумма со скидкой", "итого", "amount"}, Substrings: []string{"сумма"}},
		{Canonical: FieldPaymentMethod, Aliases: []string{"тип оплаты", "способ оплаты", "оплата", "payment"}, Substrings: []string{"оплат"}},
		{Canonical: FieldOperationType, Aliases: []string{"тип операции", "операция", "operation"}, Substrings: []string{"операц"}},
		{Canonical: FieldItemName, Aliases: []string{"наименование", "товар", "позиция", "название"}, Substrings: []string{"наимен", "товар"}},
		{Canonical: FieldQuantity, Aliases: []string{"количество", "кол-во", "кол.", "qty"}, Substrings: []string{"кол-во", "количеств"}},
		{Canonical: FieldUnitPrice, Aliases: []string{"цена", "цена за единицу", "price"}, Substrings: []string{"цена"}},
		// The percent rule runs first so a lone "скидка %" column is not
		// claimed by the plain discount substring.
		{Canonical: FieldDiscountPercent, Aliases: []string{"скидка %", "процент скидки", "% скидки"}, Substrings: []string{"% скид"}},
		{Canonical: FieldDiscount, Aliases: []string{"скидка", "сумма скидки", "discount"}, Substrings: []string{"скидка"}},
		{Canonical: FieldCost, Aliases: []string{"себестоимость", "закупочная цена", "cost"}, Substrings: []string{"себестоим", "закупочн"}},
	},
	Required: []string{FieldDate, FieldCheckNumber, FieldAmount},
}

// CogsLayout matches daily cost-of-goods files.
var CogsLayout = Layout{
	Name: "cogs",
	Fields: []FieldRule{
		{Canonical: FieldDate, Aliases: []string{"дата", "день", "date"}, Substrings: []string{"дата"}},
		{Canonical: FieldCogsTotal, Aliases: []string{"себестоимость", "затраты", "сумма", "cost", "total"}, Substrings: []string{"себестоим", "затрат"}},
		{Canonical: FieldSKU, Aliases: []string{"артикул", "sku", "код"}, Substrings: []string{"артикул"}},
		{Canonical: FieldItemName, Aliases: []string{"наименование", "товар", "позиция"}, Substrings: []string{"наимен", "товар"}},
	},
	Required: []string{FieldDate, FieldCogsTotal},
}
