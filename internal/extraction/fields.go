package extraction

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// amountPattern captures a money token such as 1,234.56 or 12.
const amountPattern = `(\d[\d,]*(?:\.\d+)?)`

var (
	metadataPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^tel:?\s*\(?\d{3}\)?[\s\-.]?\d{3}[\s\-.]?\d{4}`),
		regexp.MustCompile(`^\(?\d{3}\)?[\s\-.]?\d{3}[\s\-.]?\d{4}$`),
		regexp.MustCompile(`(?i)^www\.|^https?:|\.com\b|\.ca\b|\.org\b|\.net\b`),
		regexp.MustCompile(`(?i)^\d+\s+[a-z]+\s+(st|ave|rd|blvd|dr|ln|street|avenue|road|boulevard|drive|lane)\b`),
		regexp.MustCompile(`(?i)^(mon|tue|wed|thu|fri|sat|sun)([a-z]{0,6}day)?\b`),
		regexp.MustCompile(`(?i)^(hours|open|closed|manager|cashier)\b`),
		regexp.MustCompile(`(?i)(receipt|transaction|store|order)\s*(#|no\b|number\b)`),
		regexp.MustCompile(`(?i)^(sales\s+)?(receipt|invoice)\b`),
		regexp.MustCompile(`\d+\.\d{2}\b`),
	}

	merchantStripRe    = regexp.MustCompile(`[|\[\]{}]`)
	currencyGlyphRe    = regexp.MustCompile(`[£€¢]`)
	spaceRunRe         = regexp.MustCompile(`\s+`)
	leadingNonLetterRe = regexp.MustCompile(`^[^a-zA-Z]+`)
	trailingSpecialRe  = regexp.MustCompile(`[^a-zA-Z0-9\s&'\-]+$`)
	entitySuffixRe     = regexp.MustCompile(`(?i)\b(inc|llc|ltd|corp|company|store|shop|market|restaurant|cafe|bar)\b`)
	digitRe            = regexp.MustCompile(`\d`)
)

var (
	totalPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:^|\s)(total|grand\s*total|amount\s*due|final\s*total|balance\s*due)[\s:]*\$?\s*` + amountPattern),
		// Common OCR misreadings of TOTAL.
		regexp.MustCompile(`(?i)(?:^|\s)(t0tal|t0t4l|t07al|t074l|7otal|tota1|70tal)[\s:]*\$?\s*` + amountPattern),
		regexp.MustCompile(`(?i)(?:^|\s)(tot|ttl|toial|tolal)[\s:]*\$?\s*` + amountPattern),
		regexp.MustCompile(`(?i)(total|grand|amount|due)[\s:$]*(\d[\d,]*\.\d{2})\s*$`),
	}
	subtotalKeywordRe = regexp.MustCompile(`(?i)sub[\s\-]*$`)

	subtotalPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:^|\s)(subtotal|sub\s*total|sub-total)[\s:]*\$?\s*` + amountPattern),
		regexp.MustCompile(`(?i)(?:^|\s)(subtot|sub)[\s:]*\$?\s*` + amountPattern),
	}

	taxPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:^|\s)(tax|sales\s*tax|hst|gst|pst|vat)[\s:]*\$?\s*` + amountPattern),
		// Explicit rate followed by the amount: "TAX 8.25% 2.00", "GST @ 5% 1.25".
		regexp.MustCompile(`(?i)\b(tax|hst|gst|pst|vat)\s*(?:@\s*)?(\d+(?:\.\d+)?)\s*%?[\s:]+\$?\s*` + amountPattern),
		regexp.MustCompile(`(?i)(?:^|\s)(1ax|7ax|iax)[\s:]*\$?\s*` + amountPattern),
		regexp.MustCompile(`(?i)(tax|hst|gst)[\s:$]*(\d[\d,]*\.\d{2})\s*$`),
	}

	totalWordRe   = regexp.MustCompile(`(?i)\btotal\b`)
	grandTotalRe  = regexp.MustCompile(`(?i)\bgrand\s*total\b`)
	amountDueRe   = regexp.MustCompile(`(?i)\bamount\s*due\b`)
	balanceDueRe  = regexp.MustCompile(`(?i)\bbalance\s*due\b`)
	taxWordRe     = regexp.MustCompile(`(?i)\btax\b`)
	salesTaxRe    = regexp.MustCompile(`(?i)\bsales\s*tax\b`)
	regionalTaxRe = regexp.MustCompile(`(?i)\b(hst|gst|pst|vat)\b`)

	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b([0-3]?\d)[/\-.]([0-3]?\d)[/\-.](\d{4}|\d{2})\b`),
		regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+([0-3]?\d),?\s+((?:19|20)\d{2})\b`),
		regexp.MustCompile(`\b((?:19|20)\d{2})[/\-.](\d{1,2})[/\-.](\d{1,2})\b`),
	}
)

func isMetadataLine(line string) bool {
	for _, re := range metadataPatterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

func cleanMerchantName(line string) string {
	s := merchantStripRe.ReplaceAllString(line, "")
	s = currencyGlyphRe.ReplaceAllString(s, "$")
	s = spaceRunRe.ReplaceAllString(s, " ")
	s = leadingNonLetterRe.ReplaceAllString(s, "")
	s = trailingSpecialRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func merchantConfidence(name string) int {
	confidence := 50
	if entitySuffixRe.MatchString(name) {
		confidence += 20
	}
	if digitRe.MatchString(name) {
		confidence -= 10
	}
	n := utf8.RuneCountInString(name)
	if n < 5 {
		confidence -= 10
	}
	if n > 30 {
		confidence -= 10
	}
	return clamp(confidence)
}

func (e *Engine) extractMerchant(lines []string) (Candidate[string], bool) {
	limit := min(e.cfg.MerchantScanLines, len(lines))
	for i := 0; i < limit; i++ {
		line := lines[i]
		if isMetadataLine(line) {
			e.emit(Event{Stage: StageMerchant, Message: "skipped metadata line", Line: i, Text: line})
			continue
		}

		name := cleanMerchantName(line)
		n := utf8.RuneCountInString(name)
		if n < 3 || n > 40 {
			continue
		}

		c := Candidate[string]{Value: name, Confidence: merchantConfidence(name), Line: i, Text: line}
		e.emit(Event{Stage: StageMerchant, Message: "merchant name", Line: i, Text: name, Confidence: c.Confidence})
		return c, true
	}
	return Candidate[string]{Line: -1}, false
}

// lineAmount is one keyword-anchored amount found on a line.
type lineAmount struct {
	value    float64
	keyStart int
}

// keywordAmounts returns every amount captured by re on line. The amount is
// taken from the last capture group; the keyword from the first. Numbers
// followed by a percent sign, spaces allowed, are rates and are skipped.
func keywordAmounts(re *regexp.Regexp, line string) []lineAmount {
	var out []lineAmount
	for _, m := range re.FindAllStringSubmatchIndex(line, -1) {
		n := len(m) / 2
		start, end := m[2*(n-1)], m[2*(n-1)+1]
		if start < 0 {
			continue
		}
		if followedByPercent(line, end) {
			continue
		}
		v, ok := parseAmount(line[start:end])
		if !ok {
			continue
		}
		out = append(out, lineAmount{value: v, keyStart: m[2]})
	}
	return out
}

// followedByPercent reports whether a "%" follows line[end:] after optional blanks.
func followedByPercent(line string, end int) bool {
	rest := strings.TrimLeft(line[end:], " \t")
	return strings.HasPrefix(rest, "%")
}

func totalConfidence(line string, amount float64) int {
	confidence := 40
	if totalWordRe.MatchString(line) {
		confidence += 30
	}
	if grandTotalRe.MatchString(line) {
		confidence += 40
	}
	if amountDueRe.MatchString(line) {
		confidence += 25
	}
	if balanceDueRe.MatchString(line) {
		confidence += 25
	}
	if amount >= 1 && amount <= 1000 {
		confidence += 20
	}
	if amount > 1000 {
		confidence -= 10
	}
	if strings.Contains(line, "$") {
		confidence += 10
	}
	return clamp(confidence)
}

func (e *Engine) extractTotal(lines []string) (Candidate[float64], bool) {
	best := Candidate[float64]{Line: -1}
	for i, line := range lines {
		for _, re := range totalPatterns {
			for _, a := range keywordAmounts(re, line) {
				// "Sub Total" carries the keyword too.
				if subtotalKeywordRe.MatchString(line[:a.keyStart]) {
					continue
				}
				if a.value <= 0 || a.value >= maxTotal {
					e.emit(Event{Stage: StageTotal, Message: "total out of range", Line: i, Text: line, Value: a.value})
					continue
				}
				confidence := totalConfidence(line, a.value)
				if confidence > best.Confidence {
					best = Candidate[float64]{Value: a.value, Confidence: confidence, Line: i, Text: line}
					e.emit(Event{Stage: StageTotal, Message: "total candidate", Line: i, Text: line, Value: a.value, Confidence: confidence})
				}
			}
		}
	}
	return best, best.Line >= 0
}

// extractSubtotal returns the first subtotal in line order that does not
// exceed total.
func (e *Engine) extractSubtotal(lines []string, total float64) (Candidate[float64], bool) {
	for i, line := range lines {
		for _, re := range subtotalPatterns {
			for _, a := range keywordAmounts(re, line) {
				if a.value > 0 && a.value <= total {
					e.emit(Event{Stage: StageSubtotal, Message: "subtotal", Line: i, Text: line, Value: a.value})
					return Candidate[float64]{Value: a.value, Line: i, Text: line}, true
				}
				e.emit(Event{Stage: StageSubtotal, Message: "subtotal rejected", Line: i, Text: line, Value: a.value})
			}
		}
	}
	return Candidate[float64]{Line: -1}, false
}

func taxConfidence(line string, tax, total float64) int {
	confidence := 40
	if taxWordRe.MatchString(line) {
		confidence += 30
	}
	if salesTaxRe.MatchString(line) {
		confidence += 35
	}
	if regionalTaxRe.MatchString(line) {
		confidence += 40
	}
	if total > tax {
		rate := tax / (total - tax) * 100
		if rate >= 3 && rate <= 20 {
			confidence += 20
		}
		if rate >= 5 && rate <= 15 {
			confidence += 10
		}
	}
	return clamp(confidence)
}

func (e *Engine) extractTax(lines []string, total float64) (Candidate[float64], bool) {
	best := Candidate[float64]{Line: -1}
	for i, line := range lines {
		for _, re := range taxPatterns {
			for _, a := range keywordAmounts(re, line) {
				if a.value <= 0 || a.value >= total {
					e.emit(Event{Stage: StageTax, Message: "tax rejected", Line: i, Text: line, Value: a.value})
					continue
				}
				confidence := taxConfidence(line, a.value, total)
				if confidence > best.Confidence {
					best = Candidate[float64]{Value: a.value, Confidence: confidence, Line: i, Text: line}
					e.emit(Event{Stage: StageTax, Message: "tax candidate", Line: i, Text: line, Value: a.value, Confidence: confidence})
				}
			}
		}
	}
	return best, best.Line >= 0
}

// extractDate returns the first date-shaped substring, verbatim.
func (e *Engine) extractDate(lines []string) (Candidate[string], bool) {
	for i, line := range lines {
		for _, re := range datePatterns {
			if d := re.FindString(line); d != "" {
				e.emit(Event{Stage: StageDate, Message: "date", Line: i, Text: d})
				return Candidate[string]{Value: d, Line: i, Text: line}, true
			}
		}
	}
	return Candidate[string]{Line: -1}, false
}

func clamp(v int) int {
	return max(0, min(100, v))
}
