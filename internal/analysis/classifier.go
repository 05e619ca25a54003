package analysis

import (
	"context"
	"log/slog"
	"strings"

	"github.com/jlsanzbreton/smart-receipt-analyzer2/internal/category"
)

// ClassifyExpense assigns one category from the fixed set based on the
// vendor name and the concatenated item descriptions. The model is expected
// to reply with exactly one label as the entire response body. Whatever
// comes back is normalized onto the set (exact match, then case-insensitive,
// then "Other"), so classification always succeeds with some valid category
// once the call itself succeeds.
func (a *Analyzer) ClassifyExpense(ctx context.Context, vendorName, itemDescriptions string) (category.Category, error) {
	prompt := classificationPrompt(vendorName, itemDescriptions)

	raw, err := a.policy.Do(ctx, "Classify Expense", func(ctx context.Context) (string, error) {
		return a.client.GenerateText(ctx, prompt)
	})
	if err != nil {
		return "", err
	}

	label := strings.TrimSpace(raw)
	result := category.Normalize(label)
	if string(result) != label {
		slog.Warn("Model returned a category outside the defined list", "returned", label, "using", result)
	}
	return result, nil
}
