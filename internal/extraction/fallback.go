package extraction

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const fallbackTotalConfidence = 30

var (
	fallbackPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\$\s*(\d[\d,]*\.\d{2})`),
		regexp.MustCompile(`\b(\d[\d,]*\.\d{2})\b`),
	}
	// OCR sometimes drops a space around the decimal point: "45 . 00".
	spacedDecimalRe = regexp.MustCompile(`\b(\d+)(?:[ \t]+\.[ \t]*|[ \t]*\.[ \t]+)(\d{2})\b`)

	nonProductPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^(receipts?|invoices?|store|manager|cashier|clerk|employee|customers?|phone|tel|www|https?)\b`),
		regexp.MustCompile(`(?i)^(thank|visit)`),
		regexp.MustCompile(`(?i)^(returns?|policy|hours|open|closed)\b`),
		regexp.MustCompile(`(?i)^(street|ave|road|blvd|dr|lane|st)\b`),
		regexp.MustCompile(`(?i)\b(mon|tue|wed|thu|fri|sat|sun)\b`),
		regexp.MustCompile(`(?i)\b(total|subtotal|tax|change|cash|credit|debit|payment|tender|balance)\b`),
	}
	hasLetterRe = regexp.MustCompile(`[a-zA-Z]`)
)

// fallbackAmounts returns every currency-shaped amount in text within (0, 1000).
func fallbackAmounts(text string) []float64 {
	text = currencyGlyphRe.ReplaceAllString(text, "$")

	var amounts []float64
	add := func(s string) {
		if v, ok := parseAmount(s); ok && v > 0 && v < maxFallback {
			amounts = append(amounts, v)
		}
	}
	for _, re := range fallbackPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			add(m[1])
		}
	}
	for _, m := range spacedDecimalRe.FindAllStringSubmatch(text, -1) {
		add(m[1] + "." + m[2])
	}
	return amounts
}

// fallbackTotal takes the largest currency-shaped amount anywhere in the
// text as the total. Line is the first normalized line holding it.
func (e *Engine) fallbackTotal(raw string, lines []string) (Candidate[float64], bool) {
	best := 0.0
	for _, v := range fallbackAmounts(norm.NFKC.String(raw)) {
		best = max(best, v)
	}
	if best == 0 {
		e.emit(Event{Stage: StageFallback, Message: "no currency amounts found", Line: -1})
		return Candidate[float64]{Line: -1}, false
	}

	c := Candidate[float64]{Value: best, Confidence: fallbackTotalConfidence, Line: -1}
	for i, line := range lines {
		for _, v := range fallbackAmounts(line) {
			if sameAmount(v, best) {
				c.Line, c.Text = i, line
				break
			}
		}
		if c.Line >= 0 {
			break
		}
	}

	e.emit(Event{Stage: StageFallback, Message: "fallback total", Line: c.Line, Text: c.Text, Value: best, Confidence: c.Confidence})
	return c, true
}

func isLikelyProductDescription(s string) bool {
	n := utf8.RuneCountInString(s)
	if n < 3 || n > 100 || !hasLetterRe.MatchString(s) {
		return false
	}
	for _, re := range nonProductPatterns {
		if re.MatchString(s) {
			return false
		}
	}
	return true
}

// stripPrices removes every price token from line.
func stripPrices(line string) string {
	tokens := priceTokens(line)
	if len(tokens) == 0 {
		return line
	}
	var b strings.Builder
	prev := 0
	for _, t := range tokens {
		b.WriteString(line[prev:t.start])
		b.WriteByte(' ')
		prev = t.end
	}
	b.WriteString(line[prev:])
	return b.String()
}

// fallbackItem synthesizes the single item of a receipt whose total came
// from the fallback scan. The description is the product-looking line
// closest to near, then the merchant, then a generic label.
func (e *Engine) fallbackItem(lines []string, r Receipt, near int) (Item, bool) {
	amount := subtract(r.Total, r.Tax)
	if amount <= 0 {
		return Item{}, false
	}

	desc := nearestProductLine(lines, near, r.MerchantName)
	switch {
	case desc != "":
	case r.MerchantName != "":
		desc = "Services/Products from " + r.MerchantName
	default:
		desc = "Services/Products"
	}

	e.emit(Event{Stage: StageFallback, Message: "synthesized item", Line: near, Text: desc, Value: amount})
	return Item{Description: desc, Amount: amount, Quantity: 1}, true
}

func nearestProductLine(lines []string, near int, merchant string) string {
	if near < 0 || near >= len(lines) {
		near = 0
	}
	check := func(i int) string {
		if i < 0 || i >= len(lines) {
			return ""
		}
		desc := cleanItemDescription(stripPrices(lines[i]))
		if strings.EqualFold(desc, merchant) || strings.EqualFold(cleanMerchantName(lines[i]), merchant) {
			return ""
		}
		if isLikelyProductDescription(desc) {
			return desc
		}
		return ""
	}

	for d := 0; d < len(lines); d++ {
		if desc := check(near - d); desc != "" {
			return desc
		}
		if d > 0 {
			if desc := check(near + d); desc != "" {
				return desc
			}
		}
	}
	return ""
}
