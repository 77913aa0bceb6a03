package extraction

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// parseAmount converts a captured money token ("1,234.56", "8") into dollars.
func parseAmount(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	return d.InexactFloat64(), true
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// subtract returns a - b rounded to cents.
func subtract(a, b float64) float64 {
	return decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Round(2).InexactFloat64()
}

func sumItems(items []Item) float64 {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(decimal.NewFromFloat(item.Amount))
	}
	return total.Round(2).InexactFloat64()
}

// sameAmount reports whether two amounts are within a cent of each other.
func sameAmount(a, b float64) bool {
	return math.Abs(a-b) < 0.01
}

func isWholeDollars(v float64) bool {
	return v == math.Trunc(v)
}
