package extraction

import "math"

// Item is a single purchased line on a receipt.
type Item struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Quantity    int     `json:"quantity"`
}

// Confidence holds a 0-100 score for each scored field.
type Confidence struct {
	MerchantName int `json:"merchantName"`
	Total        int `json:"total"`
	Tax          int `json:"tax"`
	Items        int `json:"items"`
}

// Receipt is the structured record extracted from one receipt's OCR text.
// Date is the verbatim matched substring and is nil when no date was found.
type Receipt struct {
	MerchantName string     `json:"merchantName"`
	Date         *string    `json:"date"`
	Items        []Item     `json:"items"`
	Subtotal     float64    `json:"subtotal"`
	Tax          float64    `json:"tax"`
	TaxRate      float64    `json:"taxRate"`
	Total        float64    `json:"total"`
	Confidence   Confidence `json:"confidence"`
}

// Candidate is a value found by one field extractor together with its
// score and the line it came from.
type Candidate[T any] struct {
	Value      T
	Confidence int
	Line       int
	Text       string
}

// emptyReceipt is the record returned when nothing could be extracted.
func emptyReceipt() Receipt {
	return Receipt{Items: []Item{}}
}

// OverallConfidence is the weighted mean of the non-zero field scores.
// Total carries twice the weight of the other fields.
func (r Receipt) OverallConfidence() int {
	weighted := []struct {
		score  int
		weight float64
	}{
		{r.Confidence.MerchantName, 0.2},
		{r.Confidence.Total, 0.4},
		{r.Confidence.Tax, 0.2},
		{r.Confidence.Items, 0.2},
	}

	var sum, weights float64
	for _, w := range weighted {
		if w.score > 0 {
			sum += float64(w.score) * w.weight
			weights += w.weight
		}
	}
	if weights == 0 {
		return 0
	}
	return int(math.Round(sum / weights))
}

// Plausible reports whether the numeric fields are mutually consistent
// enough to prefill an invoice without review.
func (r Receipt) Plausible() bool {
	if r.Total <= 0 || r.Total >= maxTotal {
		return false
	}
	if r.Tax < 0 || r.Tax > r.Total {
		return false
	}
	return r.Subtotal >= 0 && r.Subtotal <= r.Total
}
