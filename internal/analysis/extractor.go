package analysis

import (
	"context"
	"log/slog"
	"time"
)

// dateFormats are the transaction date layouts normalized to ISO form.
var dateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02-01-2006",
}

// normalizeDate converts known date layouts to YYYY-MM-DD. Unrecognized
// non-empty values pass through unchanged; only absence is fatal upstream.
func normalizeDate(raw string) string {
	for _, format := range dateFormats {
		if d, err := time.Parse(format, raw); err == nil {
			return d.Format("2006-01-02")
		}
	}
	return raw
}

// ExtractReceipt sends the receipt image to the model and returns a fully
// populated, coerced Receipt. vendorName, transactionDate and totalAmount
// are load-bearing: downstream aggregation, sorting and display all key off
// them, so their absence is an IncompleteExtractionError.
func (a *Analyzer) ExtractReceipt(ctx context.Context, image []byte, contentType string) (*Receipt, error) {
	raw, err := a.policy.Do(ctx, "Analyze Receipt", func(ctx context.Context) (string, error) {
		return a.client.GenerateFromImage(ctx, receiptExtractionPrompt, image, contentType)
	})
	if err != nil {
		return nil, err
	}

	parsed, err := decodeJSONObject(raw)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, field := range []string{"vendorName", "transactionDate", "totalAmount"} {
		if absent(parsed[field]) {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		slog.Error("Critical data missing from AI response", "missing", missing)
		return nil, &IncompleteExtractionError{Missing: missing}
	}

	receipt := &Receipt{
		VendorName:      toText(parsed["vendorName"], "Unknown Vendor"),
		TransactionDate: normalizeDate(toText(parsed["transactionDate"], "")),
		Items:           coerceItems(parsed["items"]),
		TotalAmount:     toNumber(parsed["totalAmount"], 0),
		Currency:        toText(parsed["currency"], a.fallbackCurrency),
	}
	if v, ok := parsed["subtotal"]; ok && v != nil {
		subtotal := toNumber(v, 0)
		receipt.Subtotal = &subtotal
	}
	if v, ok := parsed["taxAmount"]; ok && v != nil {
		tax := toNumber(v, 0)
		receipt.TaxAmount = &tax
	}
	if v, ok := parsed["paymentMethod"]; ok && !absent(v) {
		receipt.PaymentMethod = toText(v, "")
	}

	return receipt, nil
}

// coerceItems repairs the line item list: quantity defaults to 1, totalPrice
// to the coerced numeric value, unitPrice is carried only when present.
func coerceItems(v any) []ReceiptItem {
	raw, ok := v.([]any)
	if !ok {
		return []ReceiptItem{}
	}

	items := make([]ReceiptItem, 0, len(raw))
	for _, entry := range raw {
		fields, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		item := ReceiptItem{
			Description: toText(fields["description"], "Unknown Item"),
			Quantity:    toNumber(fields["quantity"], 1),
			TotalPrice:  toNumber(fields["totalPrice"], 0),
		}
		if up, ok := fields["unitPrice"]; ok && up != nil {
			unitPrice := toNumber(up, 0)
			item.UnitPrice = &unitPrice
		}
		items = append(items, item)
	}
	return items
}
