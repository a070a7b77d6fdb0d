package export

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatAmount renders n with thousands separators, e.g. 150,000.
func FormatAmount(n int) string {
	return printer.Sprintf("%d", n)
}

// FormatAverage renders a fractional amount rounded to whole units.
func FormatAverage(f float64) string {
	return printer.Sprintf("%.0f", f)
}

// FormatSalary renders an optional salary with its currency. A missing or
// zero salary reads as "not specified".
func FormatSalary(salary *int, currency string) string {
	if salary == nil || *salary == 0 {
		return "not specified"
	}
	if currency == "" {
		return FormatAmount(*salary)
	}
	return FormatAmount(*salary) + " " + currency
}
