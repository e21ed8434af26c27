package grocery

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"

	statex "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/state"
)

var currencyWords = map[string]string{
	"INR": "rupees",
	"USD": "dollars",
	"EUR": "euros",
	"GBP": "pounds",
}

// money renders an amount the way it should be spoken, e.g. "1,063.50 rupees"
// or "45 rupees".
func money(amount float64, currency string) string {
	word, ok := currencyWords[currency]
	if !ok {
		word = currency
	}
	// FormatFloat works through int64 and garbles larger amounts.
	if math.Abs(amount) >= 1e15 {
		return humanize.CommafWithDigits(amount, 2) + " " + word
	}
	return strings.TrimSuffix(humanize.FormatFloat("#,###.##", amount), ".00") + " " + word
}

func quantity(n int, unit string) string {
	unit = strings.TrimSpace(unit)
	if unit == "" {
		unit = "item"
	}
	return english.Plural(n, unit, "")
}

func describeLine(l statex.CartLine) string {
	return fmt.Sprintf("%s of %s", quantity(l.Quantity, l.Unit), l.Name)
}

func listing(parts []string) string {
	return english.OxfordWordSeries(parts, "and")
}
