package output

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"green-roi/core/types"
)

// printer groups thousands for display amounts
var printer = message.NewPrinter(language.English)

// Amount formats v with two decimals and thousand separators: 18,000.00
func Amount(v decimal.Decimal) string {
	fixed := v.StringFixed(2)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	intPart, frac, _ := strings.Cut(fixed, ".")

	n, err := decimal.NewFromString(intPart)
	if err != nil || !n.IsInteger() || n.BigInt().BitLen() > 62 {
		return sign + fixed
	}
	return sign + printer.Sprintf("%d", n.IntPart()) + "." + frac
}

// Money formats v as a currency amount: RM 18,000.00
func Money(v decimal.Decimal, currency types.Currency) string {
	return currency.Symbol() + " " + Amount(v)
}

// Percent formats v with two decimals and a percent sign
func Percent(v decimal.Decimal) string {
	return v.StringFixed(2) + "%"
}
