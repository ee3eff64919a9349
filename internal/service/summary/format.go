package summary

import (
	"fmt"
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// placeholder is shown for values the catalog did not provide.
const placeholder = "-"

var printer = message.NewPrinter(language.English)

// formatCount renders n with thousands separators ("1,000").
func formatCount(n int64) string {
	return printer.Sprintf("%d", n)
}

// formatTwoDigits pads n to at least two digits ("01", "10", "120").
func formatTwoDigits(n int) string {
	return fmt.Sprintf("%02d", n)
}

// formatPercent renders a sample percentage without trailing zeros ("25.5%").
func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}

// ordinal renders a rounded rank as an English ordinal ("1st", "95th").
func ordinal(v float64) string {
	n := int64(math.Round(v))
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.FormatInt(n, 10) + suffix
}
