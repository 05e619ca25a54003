package analysis

import (
	"fmt"

	"github.com/jlsanzbreton/smart-receipt-analyzer2/internal/category"
)

// receiptExtractionPrompt is the structured-extraction instruction sent with
// every receipt image. The field-by-field schema is part of the documented
// model contract.
const receiptExtractionPrompt = `Analyze this receipt image and extract information in JSON format.
The JSON schema MUST be strictly followed:
{
  "vendorName": "string",
  "transactionDate": "YYYY-MM-DD",
  "items": [
    {
      "description": "string",
      "quantity": "number (default to 1 if not specified but item exists)",
      "unitPrice": "number (optional, omit if not present)",
      "totalPrice": "number (mandatory for each item)"
    }
  ],
  "subtotal": "number (optional)",
  "taxAmount": "number (optional)",
  "totalAmount": "number (mandatory, critical)",
  "currency": "string (e.g., EUR, USD, GBP - use the symbol or code found)",
  "paymentMethod": "string (optional, e.g., Card, Cash, Visa)"
}
Important Rules:
1. All monetary values and quantities MUST be numbers, not strings.
2. Dates MUST be "YYYY-MM-DD". Try your best to find the date on the receipt.
3. If 'totalAmount' is not found, this is a critical failure; try your best.
4. 'vendorName' is critical.
5. For 'items': 'description' and 'totalPrice' are mandatory. If 'quantity' is not specified, assume 1. 'unitPrice' is optional.
6. Do not invent data. If a field is not on the receipt, omit optional fields or use sensible defaults for required fields if contextually appropriate (e.g. quantity 1).
7. Stick to the schema. No extra fields. Do not use "N/A" or placeholder text for numeric fields; extract the number or omit/default as per schema.
8. If no items are clearly identifiable, "items" array can be empty.
9. Extract 'currency' accurately.`

// classificationPrompt asks for exactly one category name as the entire
// response body, not JSON.
func classificationPrompt(vendorName, itemDescriptions string) string {
	if len(itemDescriptions) > 100 {
		itemDescriptions = itemDescriptions[:100]
	}
	categories := category.List()
	return fmt.Sprintf(`Given the vendor name %q and item descriptions (e.g., %q...), classify this expense into ONE of the following categories: %s.
Return ONLY the category name as a single string from the provided list. For example, if it's for food from a supermarket, return "Groceries". If it's a restaurant meal, return "Dining Out".
If uncertain, choose the most general applicable category from the list or "Other". Do not invent new categories.
The response must be exactly one of these category names: %s.`, vendorName, itemDescriptions, categories, categories)
}

// insightsPrompt asks for aggregate savings insights over a JSON sample of
// expenses. omitted is the number of records left out of the sample.
func insightsPrompt(expensesJSON string, omitted int) string {
	more := ""
	if omitted > 0 {
		more = fmt.Sprintf("\n(...and %d more expenses not shown to save space)", omitted)
	}
	categories := category.List()
	return fmt.Sprintf(`Analyze the following expenses (JSON format) and provide savings insights.
Expenses:
%s%s

Return a JSON object with two keys: "insights" and "overallSummary".
1. "overallSummary": A brief text (2-4 sentences) summarizing key spending patterns and overall potential for savings. Be encouraging.
2. "insights": An array of 2 to 4 objects, each representing a specific insight. Each insight object MUST have:
   - "category": A string, MUST be one of these exact category names: %s.
   - "observation": A string (1-2 sentences) describing a specific spending observation in this category (e.g., "Frequent small purchases in 'Shopping' add up.").
   - "suggestion": A string (1-2 sentences) offering a concrete, actionable savings suggestion (e.g., "Consider consolidating shopping trips or setting a weekly budget for non-essentials.").
   - "potentialSaving": A brief string describing potential savings (e.g., "Approx. 15-25/month", "Could reduce by 10-15%%", "Modest but consistent"). Avoid overly precise or speculative large numbers.

Focus on impactful categories or habits. Provide practical, realistic suggestions.
The entire response MUST be a single, valid JSON object. Ensure all text strings are well-formed.`, expensesJSON, more, categories)
}
