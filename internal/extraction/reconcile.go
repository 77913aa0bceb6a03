package extraction

// reconcile derives the subtotal and tax rate from the extracted total and
// tax. It runs once, before item extraction.
func (e *Engine) reconcile(r *Receipt) {
	if r.Total > 0 && r.Tax > 0 && r.Subtotal == 0 {
		r.Subtotal = subtract(r.Total, r.Tax)
		e.emit(Event{Stage: StageReconcile, Message: "subtotal derived from total - tax", Line: -1, Value: r.Subtotal})
	}

	// Left unrounded; consumers format it.
	if r.Tax > 0 && r.Subtotal > 0 {
		r.TaxRate = r.Tax / r.Subtotal * 100
		e.emit(Event{Stage: StageReconcile, Message: "tax rate derived", Line: -1, Value: r.TaxRate})
	}
}
