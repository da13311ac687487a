// Package money formats document amounts for display.
package money

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"INR": "₹",
}

// codePrefixed currencies are written as "<CODE> <amount>" instead of a symbol
var codePrefixed = map[string]bool{
	"NGN": true,
}

var printer = message.NewPrinter(language.English)

// Amount formats v with two decimals and thousands separators, e.g. 1,234.50
func Amount(v float64) string {
	return printer.Sprintf("%.2f", v)
}

// Format renders an amount with its currency marker.
// Unknown currencies fall back to the dollar sign.
func Format(amount float64, currency string) string {
	return FormatFor(amount, currency, nil)
}

// FormatFor is Format for output that can only draw some runes.
// When the currency symbol is not encodable the ISO code is used instead.
func FormatFor(amount float64, currency string, encodable func(rune) bool) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	formatted := Amount(amount)
	if codePrefixed[code] {
		return code + " " + formatted
	}

	symbol, ok := symbols[code]
	if !ok {
		symbol = "$"
	}
	if encodable != nil {
		for _, r := range symbol {
			if !encodable(r) {
				return code + " " + formatted
			}
		}
	}
	return symbol + formatted
}

// Symbol returns the display symbol for a currency code
func Symbol(currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if codePrefixed[code] {
		return code
	}
	if s, ok := symbols[code]; ok {
		return s
	}
	return "$"
}

// Currencies lists the currency codes offered by the document form
func Currencies() []string {
	return []string{"USD", "EUR", "GBP", "INR", "NGN"}
}
