package receipt

import (
	"time"

	"github.com/zombor/snap2invoice/internal/extraction"
)

// Extraction is a stored run of the extraction engine over one receipt
type Extraction struct {
	ID           string                       `json:"id"`
	Source       string                       `json:"source"`
	Filename     string                       `json:"filename,omitempty"` // stored copy of the uploaded document
	ContentType  string                       `json:"content_type,omitempty"`
	Text         string                       `json:"text"`
	TextHash     string                       `json:"text_hash"`
	Receipt      extraction.Receipt           `json:"receipt"`
	InvoiceItems []extraction.InvoiceLineItem `json:"invoice_items"`
	Confidence   int                          `json:"confidence"`
	Plausible    bool                         `json:"plausible"`
	NeedsReview  bool                         `json:"needs_review"`
	CreatedAt    time.Time                    `json:"created_at"`
}

// reviewThreshold is the overall confidence below which an extraction is flagged
const reviewThreshold = 50

// needsReview flags receipts a person should look at before invoicing
func needsReview(r extraction.Receipt) bool {
	return !r.Plausible() ||
		r.MerchantName == "" ||
		r.Total == 0 ||
		r.OverallConfidence() < reviewThreshold
}
