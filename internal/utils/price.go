package utils

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var pricePrinter = message.NewPrinter(language.English)

// FormatPrice renders a price for display with two decimals and grouped
// thousands, e.g. 1234.5 -> "$1,234.50".
func FormatPrice(p float64) string {
	return pricePrinter.Sprintf("$%.2f", p)
}
