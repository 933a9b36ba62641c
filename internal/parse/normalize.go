package parse

import (
	"strconv"
	"strings"
	"time"
)

// excelEpoch is the zero day of Excel's 1900 date system. Serial 1 is
// 1900-01-01; the epoch sits at 1899-12-30 to absorb Excel's fictitious
// 1900-02-29.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// Serial numbers outside this window are treated as plain numbers, not dates.
const (
	minExcelSerial = 6000   // mid-1916
	maxExcelSerial = 100000 // year 2173
)

var dateLayouts = []string{
	"02.01.2006 15:04:05",
	"02.01.2006 15:04",
	"02.01.2006",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006 15:04",
	"02/01/2006",
}

// ParseDate normalizes the date representations seen in POS exports: the
// dd.mm.yyyy family, generic ISO forms, and Excel serial numbers (both as
// numeric cells and as numeric strings). Returns false on total failure so
// the caller can record a row-level error instead of panicking mid-import.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}

	// Numeric string reinterpreted as an Excel serial.
	if n, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64); err == nil {
		if t, ok := fromExcelSerial(n); ok {
			return t, true
		}
	}

	return time.Time{}, false
}

func fromExcelSerial(n float64) (time.Time, bool) {
	if n < minExcelSerial || n > maxExcelSerial {
		return time.Time{}, false
	}
	days := int(n)
	frac := n - float64(days)
	t := excelEpoch.AddDate(0, 0, days)
	if frac > 0 {
		t = t.Add(time.Duration(frac * 24 * float64(time.Hour)))
	}
	return t, true
}

// DayOf truncates a timestamp to calendar-day granularity in UTC.
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

var numberReplacer = strings.NewReplacer(
	" ", "", // no-break space
	" ", "", // narrow no-break space
	" ", "", // thin space
	" ", "",
	"–", "-", // en dash
	"—", "-", // em dash
	"−", "-", // minus sign
	"₽", "",
	"руб.", "",
	"руб", "",
)

// ParseNumber parses the numeric notations seen in exports: spaces or
// non-breaking spaces as thousands separators, comma decimal separators,
// dash variants for minus and accounting-style parenthesized negatives.
func ParseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}

	s = numberReplacer.Replace(s)

	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}

	// Comma is a decimal separator unless a dot is already present, in which
	// case commas are thousands separators.
	if strings.Contains(s, ",") {
		if strings.Contains(s, ".") {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	}

	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}

// PaymentMethod is the normalized payment bucket of a line item or column.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCashless PaymentMethod = "cashless"
	PaymentQR       PaymentMethod = "qr"
	PaymentSBP      PaymentMethod = "sbp"
)

// ClassifyPaymentMethod buckets a raw payment label. Unrecognized labels
// fail open to cashless (second return value false) so a minority of odd
// labels never blocks an import; callers surface them as one aggregate
// warning.
func ClassifyPaymentMethod(raw string) (PaymentMethod, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case s == "":
		return PaymentCashless, false
	// "безналичными" contains "налич", so the cashless prefix wins first.
	case strings.Contains(s, "безнал"):
		return PaymentCashless, true
	case strings.Contains(s, "налич"):
		return PaymentCash, true
	case strings.Contains(s, "сбп") || strings.Contains(s, "sbp"):
		return PaymentSBP, true
	case strings.Contains(s, "qr") || strings.Contains(s, "куар"):
		return PaymentQR, true
	case strings.Contains(s, "терминал"),
		strings.Contains(s, "карта"), strings.Contains(s, "карт"),
		strings.Contains(s, "card"),
		strings.Contains(s, "эквай"),
		strings.Contains(s, "банков"):
		return PaymentCashless, true
	default:
		return PaymentCashless, false
	}
}

// OperationType classifies the direction of a check or line item.
type OperationType string

const (
	OperationIncome     OperationType = "income"
	OperationReturn     OperationType = "return"
	OperationCorrection OperationType = "correction"
)

// ClassifyOperationType keys off an explicit operation-type label when one
// exists; otherwise it falls back to the sign of the amount, defaulting to
// income.
func ClassifyOperationType(raw string, amount float64) OperationType {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s != "" {
		switch {
		case strings.Contains(s, "возврат"), strings.Contains(s, "return"), strings.Contains(s, "refund"):
			return OperationReturn
		case strings.Contains(s, "коррек"), strings.Contains(s, "сторно"), strings.Contains(s, "correction"):
			return OperationCorrection
		}
		return OperationIncome
	}
	if amount < 0 {
		return OperationReturn
	}
	return OperationIncome
}
