package parse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want time.Time
		ok   bool
	}{
		{"dotted", "15.03.2024", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{"dotted with time", "01.01.2023 14:30", time.Date(2023, 1, 1, 14, 30, 0, 0, time.UTC), true},
		{"iso", "2023-06-10", time.Date(2023, 6, 10, 0, 0, 0, 0, time.UTC), true},
		{"excel serial", "44927", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"excel serial with fraction", "44927.5", time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC), true},
		{"serial below window", "5999", time.Time{}, false},
		{"garbage", "not a date", time.Time{}, false},
		{"empty", "   ", time.Time{}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseDate(tc.raw)
			require.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.True(t, tc.want.Equal(got), "want %s, got %s", tc.want, got)
			}
		})
	}
}

func TestParseNumber(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{"1234.56", 1234.56, true},
		{"1234,56", 1234.56, true},
		{"1 234,56", 1234.56, true}, // no-break space separator
		{"1,234.56", 1234.56, true},
		{"(500)", -500, true},
		{"–42", -42, true}, // en dash
		{"−42", -42, true}, // U+2212 minus
		{"1500 ₽", 1500, true},
		{"1500 руб.", 1500, true},
		{"", 0, false},
		{"abc", 0, false},
	}

	for _, tc := range cases {
		got, ok := ParseNumber(tc.raw)
		require.Equal(t, tc.ok, ok, "input %q", tc.raw)
		if tc.ok {
			assert.InDelta(t, tc.want, got, 1e-9, "input %q", tc.raw)
		}
	}
}

func TestClassifyPaymentMethod(t *testing.T) {
	cases := []struct {
		raw   string
		want  PaymentMethod
		known bool
	}{
		{"Наличными", PaymentCash, true},
		{"наличные", PaymentCash, true},
		{"Безналичными", PaymentCashless, true}, // contains "налич" but must stay cashless
		{"безнал", PaymentCashless, true},
		{"СБП", PaymentSBP, true},
		{"QR-код", PaymentQR, true},
		{"банковская карта", PaymentCashless, true},
		{"терминал", PaymentCashless, true},
		{"бартер", PaymentCashless, false},
		{"", PaymentCashless, false},
	}

	for _, tc := range cases {
		got, known := ClassifyPaymentMethod(tc.raw)
		assert.Equal(t, tc.want, got, "input %q", tc.raw)
		assert.Equal(t, tc.known, known, "input %q", tc.raw)
	}
}

func TestClassifyOperationType(t *testing.T) {
	assert.Equal(t, OperationReturn, ClassifyOperationType("Возврат прихода", 100))
	assert.Equal(t, OperationCorrection, ClassifyOperationType("коррекция", 100))
	assert.Equal(t, OperationCorrection, ClassifyOperationType("сторно", 100))
	assert.Equal(t, OperationIncome, ClassifyOperationType("приход", -5))

	// No label: the sign decides.
	assert.Equal(t, OperationReturn, ClassifyOperationType("", -100))
	assert.Equal(t, OperationIncome, ClassifyOperationType("", 100))
	assert.Equal(t, OperationIncome, ClassifyOperationType("", 0))
}
