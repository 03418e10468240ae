package utils

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Tolerance absorbs rounding noise when comparing money values.
var Tolerance = decimal.RequireFromString("0.01")

var (
	hundred  = decimal.NewFromInt(100)
	brlPrint = message.NewPrinter(language.BrazilianPortuguese)
)

// NetValue is valor - desconto. It is not clamped; callers flag negatives.
func NetValue(value, discount decimal.Decimal) decimal.Decimal {
	return value.Sub(discount)
}

// DiscountFromPercent returns value * pct / 100 rounded to cents.
func DiscountFromPercent(value, pct decimal.Decimal) decimal.Decimal {
	return value.Mul(pct).Div(hundred).Round(2)
}

// IsSettled reports whether a pending amount is within Tolerance of zero or below.
func IsSettled(pending decimal.Decimal) bool {
	return pending.LessThanOrEqual(Tolerance)
}

// Percent returns part / whole * 100 rounded to 2 places, 0 when whole is zero.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(2)
}

// FormatBRL renders "R$ 1.234,56".
func FormatBRL(amount decimal.Decimal) string {
	f, _ := amount.Round(2).Float64()
	sign := ""
	if f < 0 {
		sign = "-"
		f = -f
	}
	return sign + "R$ " + brlPrint.Sprintf("%.2f", f)
}
