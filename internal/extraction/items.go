package extraction

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	genericItemDescription = "Products/Services"
	currencySymbols        = "$£€¢"
)

var (
	itemExcludePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^\s*thank\s*you\b`),
		regexp.MustCompile(`(?i)^\s*visit\s*again\b`),
		regexp.MustCompile(`(?i)^\s*(https?://|www\.)`),
		regexp.MustCompile(`^\s*\(?\d{3}\)?[\s\-]?\d{3}[\s\-]?\d{4}\s*$`),
		regexp.MustCompile(`(?i)^\s*store\s*hours?\b`),
	}

	itemMoneyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\$\s*(\d[\d,]*\.\d{2})`),
		regexp.MustCompile(`\b(\d[\d,]*\.\d{2})\b`),
		regexp.MustCompile(`(\d+\.\d{2})\s*[A-Z<]`),
		regexp.MustCompile(`(\d+\.\d{2})\s*$`),
		// Whole dollars: "$12 ".
		regexp.MustCompile(`\$(\d[\d,]*)\s`),
	}

	contextSplitRe = regexp.MustCompile(`\d{12,}|<[A-Z]>|\s{3,}`)
	itemMarkerRe   = regexp.MustCompile(`<[A-Z]>`)
	leadingJunkRe  = regexp.MustCompile(`^[\d\s\-.*#@<>]+`)
	trailingJunkRe = regexp.MustCompile(`[\d\s\-.*#<>$]+$`)
	subtotalTailRe = regexp.MustCompile(`(?i)SUBTOTAL.*$`)
	mentionsTaxRe  = regexp.MustCompile(`(?i)tax`)
)

// itemScan carries what item extraction needs from the field extractors.
type itemScan struct {
	total     float64
	tax       float64
	totalLine int
	// reserved lines already supplied a field value.
	reserved map[int]bool
}

// priceToken is one money occurrence on a line. [start,end) covers the
// token including a leading currency symbol; [capStart,capEnd) covers the digits.
type priceToken struct {
	start, end       int
	capStart, capEnd int
}

// priceTokens collects money occurrences across all item patterns. Matches
// of different patterns over the same digits are one occurrence; the
// longest capture wins.
func priceTokens(line string) []priceToken {
	var tokens []priceToken
	for _, re := range itemMoneyPatterns {
		for _, m := range re.FindAllStringSubmatchIndex(line, -1) {
			cs, ce := m[2], m[3]
			merged := false
			for i := range tokens {
				t := &tokens[i]
				if cs < t.capEnd && t.capStart < ce {
					if ce-cs > t.capEnd-t.capStart {
						t.capStart, t.capEnd = cs, ce
					}
					merged = true
					break
				}
			}
			if !merged {
				tokens = append(tokens, priceToken{capStart: cs, capEnd: ce})
			}
		}
	}

	sort.Slice(tokens, func(i, j int) bool { return tokens[i].capStart < tokens[j].capStart })
	for i := range tokens {
		t := &tokens[i]
		t.start, t.end = t.capStart, t.capEnd
		j := t.capStart
		for j > 0 && line[j-1] == ' ' {
			j--
		}
		if r, size := utf8.DecodeLastRuneInString(line[:j]); strings.ContainsRune(currencySymbols, r) {
			t.start = j - size
		}
	}
	return tokens
}

func isExcludedItemLine(line string) bool {
	for _, re := range itemExcludePatterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

func cleanItemDescription(s string) string {
	s = itemMarkerRe.ReplaceAllString(s, " ")
	s = leadingJunkRe.ReplaceAllString(s, "")
	s = trailingJunkRe.ReplaceAllString(s, "")
	s = spaceRunRe.ReplaceAllString(s, " ")
	s = subtotalTailRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// contextDescription takes the text preceding a price on a line that holds
// several prices: at most 60 bytes, never reaching back past the previous price.
func contextDescription(line string, tok priceToken, floor int) string {
	from := max(floor, tok.start-60)
	for from < tok.start && !utf8.RuneStart(line[from]) {
		from++
	}
	context := strings.TrimSpace(line[from:tok.start])
	parts := contextSplitRe.Split(context, -1)
	return strings.TrimSpace(parts[len(parts)-1])
}

// rejectAmount returns the reason an amount cannot be an item, or "".
func rejectAmount(amount float64, line string, scan itemScan) string {
	switch {
	case amount <= 0 || amount > maxItem:
		return "amount out of range"
	case scan.total > 0 && sameAmount(amount, scan.total):
		return "amount equals total"
	case scan.tax > 0 && sameAmount(amount, scan.tax):
		return "amount equals tax"
	case amount < 1 && !mentionsTaxRe.MatchString(line):
		return "amount below a dollar"
	case amount >= 1000 && isWholeDollars(amount):
		return "whole number looks like a code"
	}
	return ""
}

// extractItems collects priced lines above the total line and reconciles
// them against total - tax. generic reports that the candidates were
// replaced by a single catch-all item.
func (e *Engine) extractItems(lines []string, scan itemScan) ([]Item, bool) {
	items := []Item{}

	for i, line := range lines {
		if scan.totalLine >= 0 && i >= scan.totalLine {
			break
		}
		if scan.reserved[i] {
			continue
		}
		if isExcludedItemLine(line) {
			e.emit(Event{Stage: StageItems, Message: "excluded line", Line: i, Text: line})
			continue
		}

		tokens := priceTokens(line)
		floor := 0
		for idx, tok := range tokens {
			prevEnd := floor
			floor = tok.end

			if followedByPercent(line, tok.capEnd) {
				continue
			}
			amount, ok := parseAmount(line[tok.capStart:tok.capEnd])
			if !ok {
				continue
			}
			if reason := rejectAmount(amount, line, scan); reason != "" {
				e.emit(Event{Stage: StageItems, Message: reason, Line: i, Text: line, Value: amount})
				continue
			}

			var desc string
			if len(tokens) > 1 {
				if context := contextDescription(line, tok, prevEnd); utf8.RuneCountInString(context) > 3 {
					desc = cleanItemDescription(context)
				}
				if utf8.RuneCountInString(desc) < 2 {
					desc = fmt.Sprintf("Item %d from line %d", idx+1, i)
				}
			} else {
				desc = cleanItemDescription(line[:tok.start] + " " + line[tok.end:])
			}
			if utf8.RuneCountInString(desc) < 2 {
				desc = fmt.Sprintf("Item %d-%d", i, idx)
			}

			if hasItem(items, amount, desc) {
				e.emit(Event{Stage: StageItems, Message: "duplicate item", Line: i, Text: desc, Value: amount})
				continue
			}
			items = append(items, Item{Description: desc, Amount: amount, Quantity: 1})
			e.emit(Event{Stage: StageItems, Message: "item", Line: i, Text: desc, Value: amount})
		}
	}

	return e.validateItems(items, scan.total, scan.tax)
}

func hasItem(items []Item, amount float64, desc string) bool {
	for _, it := range items {
		if sameAmount(it.Amount, amount) && strings.EqualFold(it.Description, desc) {
			return true
		}
	}
	return false
}

// validateItems keeps the candidates when they add up to total - tax.
// Otherwise it searches prefixes of the candidates sorted by amount for
// the closest sum, falling back to one generic item for the whole amount.
func (e *Engine) validateItems(items []Item, total, tax float64) ([]Item, bool) {
	expected := subtract(total, tax)
	if expected <= 0 || len(items) == 0 {
		return items, false
	}

	sum := sumItems(items)
	tolerance := max(expected*e.cfg.ItemTolerancePct, e.cfg.ItemToleranceMin)
	if math.Abs(sum-expected) <= tolerance {
		e.emit(Event{Stage: StageValidate, Message: "items reconcile with subtotal", Line: -1, Value: sum})
		return items, false
	}

	e.emit(Event{Stage: StageValidate, Message: fmt.Sprintf("items sum %.2f does not reconcile with %.2f", sum, expected), Line: -1, Value: sum})

	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return items[order[a]].Amount > items[order[b]].Amount })

	best, bestDiff := 0, math.Inf(1)
	limit := min(len(order), e.cfg.MaxCombination)
	prefix := make([]Item, 0, limit)
	for k := 1; k <= limit; k++ {
		prefix = append(prefix, items[order[k-1]])
		diff := math.Abs(sumItems(prefix) - expected)
		if diff < bestDiff && diff <= expected*e.cfg.MatchTolerancePct {
			best, bestDiff = k, diff
			e.emit(Event{Stage: StageValidate, Message: fmt.Sprintf("prefix of %d items matches", k), Line: -1, Value: diff})
		}
	}

	if best == 0 {
		e.emit(Event{Stage: StageValidate, Message: "no combination matches; using generic item", Line: -1, Value: expected})
		return []Item{{Description: genericItemDescription, Amount: expected, Quantity: 1}}, true
	}

	keep := append([]int(nil), order[:best]...)
	sort.Ints(keep)
	selected := make([]Item, 0, best)
	for _, i := range keep {
		selected = append(selected, items[i])
	}
	return selected, false
}
