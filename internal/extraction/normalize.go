package extraction

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// splitter returns the byte offsets at which a run-on line should be cut.
type splitter struct {
	name string
	cuts func(line string) []int
}

var (
	productCodeRe = regexp.MustCompile(`\s+\d{8,}\s+[A-Z]`)
	priceThenWord = regexp.MustCompile(`\d+\.\d{2}(\s+)[A-Za-z]`)
	priceWideGap  = regexp.MustCompile(`\d\.\d{2}(\s{3,})\w`)
	priceTokenRe  = regexp.MustCompile(`\$?\b\d+\.\d{2}\b`)
)

// lineSplitters run in order; each refines the segments kept so far.
var lineSplitters = []splitter{
	{
		// Product code followed by a product name starts a new line.
		name: "product-code",
		cuts: func(line string) []int {
			var cuts []int
			for _, m := range productCodeRe.FindAllStringIndex(line, -1) {
				cuts = append(cuts, m[0])
			}
			return cuts
		},
	},
	{
		name: "price-then-text",
		cuts: groupCuts(priceThenWord),
	},
	{
		name: "price-wide-gap",
		cuts: groupCuts(priceWideGap),
	},
}

// groupCuts cuts at the start of the first capture group of every match.
func groupCuts(re *regexp.Regexp) func(string) []int {
	return func(line string) []int {
		var cuts []int
		for _, m := range re.FindAllStringSubmatchIndex(line, -1) {
			cuts = append(cuts, m[2])
		}
		return cuts
	}
}

// NormalizeLines splits raw OCR text into trimmed, non-empty lines using
// the default configuration.
func NormalizeLines(raw string) []string {
	return defaultEngine.normalizeLines(raw)
}

func (e *Engine) normalizeLines(raw string) []string {
	text := norm.NFKC.String(raw)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := splitTrimmed(strings.Split(text, "\n"))
	if len(lines) != 1 || utf8.RuneCountInString(lines[0]) <= e.cfg.SingleLineThreshold {
		return lines
	}

	e.emit(Event{
		Stage:   StageNormalize,
		Message: "single run-on line detected",
		Line:    0,
		Text:    lines[0],
	})

	best := lines
	for _, sp := range lineSplitters {
		var next []string
		for _, segment := range best {
			next = append(next, cutAt(segment, sp.cuts(segment))...)
		}
		next = splitTrimmed(next)
		if len(next) > len(best) {
			e.emit(Event{
				Stage:   StageNormalize,
				Message: fmt.Sprintf("split by %s into %d lines", sp.name, len(next)),
				Line:    -1,
			})
			best = next
		}
	}

	if len(best) == 1 {
		if forced := forceSplitOnPrices(best[0]); len(forced) > 1 {
			e.emit(Event{
				Stage:   StageNormalize,
				Message: fmt.Sprintf("force split on prices into %d lines", len(forced)),
				Line:    -1,
			})
			best = forced
		}
	}

	return best
}

func splitTrimmed(parts []string) []string {
	lines := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			lines = append(lines, p)
		}
	}
	return lines
}

// cutAt splits s at the given ascending byte offsets.
func cutAt(s string, cuts []int) []string {
	if len(cuts) == 0 {
		return []string{s}
	}
	parts := make([]string, 0, len(cuts)+1)
	prev := 0
	for _, c := range cuts {
		if c <= prev || c >= len(s) {
			continue
		}
		parts = append(parts, s[prev:c])
		prev = c
	}
	return append(parts, s[prev:])
}

// forceSplitOnPrices builds segments of the form [price, text until the
// next price], keeping any text that precedes the first price.
func forceSplitOnPrices(line string) []string {
	matches := priceTokenRe.FindAllStringIndex(line, -1)
	if len(matches) == 0 {
		return []string{line}
	}

	var segments []string
	if lead := strings.TrimSpace(line[:matches[0][0]]); lead != "" {
		segments = append(segments, lead)
	}
	for i, m := range matches {
		end := len(line)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		if seg := strings.TrimSpace(line[m[0]:end]); seg != "" {
			segments = append(segments, seg)
		}
	}
	return segments
}
