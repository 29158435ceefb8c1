// Package money formats integer cent amounts for display.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CentsToDollars renders cents/100 the way a plain float division prints:
// no fixed padding, but always at least one fractional digit.
//
//	35   -> "$0.35"
//	780  -> "$7.8"
//	1000 -> "$10.0"
func CentsToDollars(cents int64, showSymbol bool) string {
	text := decimal.New(cents, -2).String()
	if !strings.Contains(text, ".") {
		text += ".0"
	}

	if showSymbol {
		if strings.HasPrefix(text, "-") {
			return "-$" + strings.TrimPrefix(text, "-")
		}
		return "$" + text
	}

	return text
}
