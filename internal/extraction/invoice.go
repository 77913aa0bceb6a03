package extraction

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// InvoiceLineItem is one line of the invoice prefilled from a receipt.
type InvoiceLineItem struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	Rate        float64 `json:"rate"`
	Amount      float64 `json:"amount"`
}

// InvoiceItems projects a receipt's items onto invoice line items. A
// receipt with a total but no items yields one placeholder line for
// total - tax.
func InvoiceItems(r Receipt) []InvoiceLineItem {
	if len(r.Items) == 0 {
		if r.Total <= 0 {
			return []InvoiceLineItem{}
		}
		merchant := r.MerchantName
		if merchant == "" {
			merchant = "Merchant"
		}
		amount := subtract(r.Total, r.Tax)
		return []InvoiceLineItem{{
			ID:          "item-0",
			Description: "Services/Products from " + merchant,
			Quantity:    1,
			Rate:        amount,
			Amount:      amount,
		}}
	}

	out := make([]InvoiceLineItem, 0, len(r.Items))
	const quantity = 1
	for i, item := range r.Items {
		rate := decimal.NewFromFloat(item.Amount)
		out = append(out, InvoiceLineItem{
			ID:          fmt.Sprintf("item-%d", i),
			Description: item.Description,
			Quantity:    quantity,
			Rate:        rate.InexactFloat64(),
			Amount:      rate.Mul(decimal.NewFromInt(quantity)).Round(2).InexactFloat64(),
		})
	}
	return out
}
