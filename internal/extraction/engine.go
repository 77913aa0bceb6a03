// Package extraction turns OCR text from a receipt into a structured record
// of merchant, date, line items, subtotal, tax and total.
//
// Extraction never fails: every stage degrades to a zero or placeholder value
// and reports how sure it is through the Confidence scores.
package extraction

import "strings"

const (
	maxTotal    = 10000.0
	maxItem     = 9999.0
	maxFallback = 1000.0
)

// Config holds the tunable thresholds of the pipeline.
type Config struct {
	// ItemTolerancePct and ItemToleranceMin bound how far the item sum may
	// drift from total - tax before the combination search runs.
	ItemTolerancePct float64
	ItemToleranceMin float64
	// MatchTolerancePct is the largest relative difference a prefix of the
	// sorted items may have to be accepted by the combination search.
	MatchTolerancePct float64
	// MaxCombination is the longest prefix the combination search tries.
	MaxCombination int
	// MerchantScanLines is how many leading lines are searched for a merchant name.
	MerchantScanLines int
	// SingleLineThreshold is the length above which a lone line is treated
	// as a run-on OCR transcription and split.
	SingleLineThreshold int
}

// DefaultConfig returns the thresholds the engine ships with.
func DefaultConfig() Config {
	return Config{
		ItemTolerancePct:    0.10,
		ItemToleranceMin:    10,
		MatchTolerancePct:   0.05,
		MaxCombination:      6,
		MerchantScanLines:   8,
		SingleLineThreshold: 100,
	}
}

// Engine extracts receipts. The zero value is not usable; call New.
// An Engine is safe for concurrent use.
type Engine struct {
	cfg   Config
	trace TraceFunc
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig replaces the default thresholds. Non-positive fields keep their defaults.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		def := DefaultConfig()
		if cfg.ItemTolerancePct <= 0 {
			cfg.ItemTolerancePct = def.ItemTolerancePct
		}
		if cfg.ItemToleranceMin <= 0 {
			cfg.ItemToleranceMin = def.ItemToleranceMin
		}
		if cfg.MatchTolerancePct <= 0 {
			cfg.MatchTolerancePct = def.MatchTolerancePct
		}
		if cfg.MaxCombination <= 0 {
			cfg.MaxCombination = def.MaxCombination
		}
		if cfg.MerchantScanLines <= 0 {
			cfg.MerchantScanLines = def.MerchantScanLines
		}
		if cfg.SingleLineThreshold <= 0 {
			cfg.SingleLineThreshold = def.SingleLineThreshold
		}
		e.cfg = cfg
	}
}

// WithTrace installs a hook that receives a diagnostic event for every
// candidate considered by the pipeline.
func WithTrace(fn TraceFunc) Option {
	return func(e *Engine) {
		e.trace = fn
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the thresholds in use.
func (e *Engine) Config() Config {
	return e.cfg
}

var defaultEngine = New()

// Extract runs the default engine over rawText.
func Extract(rawText string) Receipt {
	return defaultEngine.Extract(rawText)
}

// Extract parses rawText into a Receipt. Empty or whitespace-only input
// yields the zero receipt.
func (e *Engine) Extract(rawText string) Receipt {
	if strings.TrimSpace(rawText) == "" {
		return emptyReceipt()
	}

	lines := e.normalizeLines(rawText)
	if len(lines) == 0 {
		return emptyReceipt()
	}

	r := emptyReceipt()
	reserved := map[int]bool{}

	if m, ok := e.extractMerchant(lines); ok {
		r.MerchantName = m.Value
		r.Confidence.MerchantName = m.Confidence
	}

	totalLine := -1
	if t, ok := e.extractTotal(lines); ok {
		r.Total = t.Value
		r.Confidence.Total = t.Confidence
		totalLine = t.Line
	}

	if s, ok := e.extractSubtotal(lines, r.Total); ok {
		r.Subtotal = s.Value
		reserved[s.Line] = true
	}

	if t, ok := e.extractTax(lines, r.Total); ok {
		r.Tax = t.Value
		r.Confidence.Tax = t.Confidence
	}

	if d, ok := e.extractDate(lines); ok {
		date := d.Value
		r.Date = &date
	}

	e.reconcile(&r)

	usedFallback := false
	fallbackLine := -1
	if r.Total == 0 {
		if f, ok := e.fallbackTotal(rawText, lines); ok {
			r.Total = f.Value
			r.Confidence.Total = f.Confidence
			fallbackLine = f.Line
			usedFallback = true
		}
	}

	items, generic := e.extractItems(lines, itemScan{
		total:     r.Total,
		tax:       r.Tax,
		totalLine: totalLine,
		reserved:  reserved,
	})
	r.Items = items
	switch {
	case len(items) == 0:
		r.Confidence.Items = 10
	case generic:
		r.Confidence.Items = 30
	default:
		r.Confidence.Items = 70
	}

	if usedFallback && len(r.Items) == 0 {
		if item, ok := e.fallbackItem(lines, r, fallbackLine); ok {
			r.Items = []Item{item}
			r.Confidence.Items = 20
		}
	}

	return r
}

func (e *Engine) emit(ev Event) {
	if e.trace != nil {
		e.trace(ev)
	}
}
