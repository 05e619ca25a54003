package analysis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jlsanzbreton/smart-receipt-analyzer2/internal/category"
)

const (
	// maxInsightRecords bounds how many expense records go into the prompt.
	maxInsightRecords = 50
	// maxInsightItems bounds how many insight entries come back out.
	maxInsightItems = 4
)

// Canned defaults for missing insight text. Insights are advisory, so a
// partially malformed response is repaired rather than rejected, unlike
// receipt extraction where missing core fields are fatal.
const (
	defaultObservation = "No specific observation provided."
	defaultSuggestion  = "No specific suggestion provided."
	defaultSaving      = "Not specified."
	defaultSummary     = "No overall summary provided by AI."
)

// SavingsInsights asks the model for aggregate savings insights over the
// given expense records (pre-serialized by the caller). At most the first 50
// records are sent; the response must contain an insights array and an
// overallSummary string or the request fails with
// InvalidInsightStructureError.
func (a *Analyzer) SavingsInsights(ctx context.Context, records []json.RawMessage) (*SavingsInsight, error) {
	sample := records
	if len(sample) > maxInsightRecords {
		sample = sample[:maxInsightRecords]
	}
	sampleJSON, err := json.MarshalIndent(sample, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling expense sample: %w", err)
	}
	prompt := insightsPrompt(string(sampleJSON), len(records)-len(sample))

	raw, err := a.policy.Do(ctx, "Get Savings Insights", func(ctx context.Context) (string, error) {
		return a.client.GenerateJSON(ctx, prompt)
	})
	if err != nil {
		return nil, err
	}

	parsed, err := decodeJSONObject(raw)
	if err != nil {
		return nil, err
	}

	entries, ok := parsed["insights"].([]any)
	if !ok {
		return nil, &InvalidInsightStructureError{Reason: "missing or non-array 'insights' field"}
	}
	summary, ok := parsed["overallSummary"].(string)
	if !ok {
		return nil, &InvalidInsightStructureError{Reason: "missing or non-string 'overallSummary' field"}
	}

	if len(entries) > maxInsightItems {
		entries = entries[:maxInsightItems]
	}
	items := make([]SavingsInsightItem, 0, len(entries))
	for _, entry := range entries {
		fields, _ := entry.(map[string]any)
		cat := category.Other
		if label, ok := fields["category"].(string); ok && category.IsValid(category.Category(label)) {
			cat = category.Category(label)
		}
		items = append(items, SavingsInsightItem{
			Category:        cat,
			Observation:     toText(fields["observation"], defaultObservation),
			Suggestion:      toText(fields["suggestion"], defaultSuggestion),
			PotentialSaving: toText(fields["potentialSaving"], defaultSaving),
		})
	}

	return &SavingsInsight{
		Insights:       items,
		OverallSummary: toText(summary, defaultSummary),
	}, nil
}
