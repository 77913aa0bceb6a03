package extraction

import (
	"context"
	"log/slog"
)

// Stage names the pipeline step that produced a trace event.
type Stage string

const (
	StageNormalize Stage = "normalize"
	StageMerchant  Stage = "merchant"
	StageTotal     Stage = "total"
	StageSubtotal  Stage = "subtotal"
	StageTax       Stage = "tax"
	StageDate      Stage = "date"
	StageReconcile Stage = "reconcile"
	StageItems     Stage = "items"
	StageValidate  Stage = "validate"
	StageFallback  Stage = "fallback"
)

// Event describes one decision made during extraction: an accepted or
// rejected candidate, a derived value, or a fallback being taken.
// Line is -1 when the event is not tied to a normalized line.
type Event struct {
	Stage      Stage
	Message    string
	Line       int
	Text       string
	Value      float64
	Confidence int
}

// TraceFunc receives extraction events. It is called synchronously from
// the goroutine running Extract.
type TraceFunc func(Event)

// SlogTrace returns a TraceFunc that writes every event to logger at debug level.
func SlogTrace(logger *slog.Logger) TraceFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ev Event) {
		attrs := []slog.Attr{slog.String("stage", string(ev.Stage))}
		if ev.Line >= 0 {
			attrs = append(attrs, slog.Int("line", ev.Line))
		}
		if ev.Text != "" {
			attrs = append(attrs, slog.String("text", ev.Text))
		}
		if ev.Value != 0 {
			attrs = append(attrs, slog.Float64("value", ev.Value))
		}
		if ev.Confidence != 0 {
			attrs = append(attrs, slog.Int("confidence", ev.Confidence))
		}
		logger.LogAttrs(context.Background(), slog.LevelDebug, ev.Message, attrs...)
	}
}
