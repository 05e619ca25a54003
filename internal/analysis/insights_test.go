package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jlsanzbreton/smart-receipt-analyzer2/internal/category"
)

var _ = Describe("SavingsInsights", func() {
	var (
		client   *mockClient
		analyzer *Analyzer
		records  []json.RawMessage
		result   *SavingsInsight
		err      error
	)

	BeforeEach(func() {
		client = &mockClient{}
		analyzer = newTestAnalyzer(client)
		records = []json.RawMessage{
			json.RawMessage(`{"vendorName": "Mercadona", "totalAmount": 42.5, "category": "Groceries"}`),
			json.RawMessage(`{"vendorName": "Repsol", "totalAmount": 60, "category": "Transportation"}`),
		}
	})

	JustBeforeEach(func() {
		result, err = analyzer.SavingsInsights(context.Background(), records)
	})

	When("the response is well formed", func() {
		BeforeEach(func() {
			client.jsonResponse = `{
				"insights": [
					{"category": "Groceries", "observation": "Frequent small trips.", "suggestion": "Consolidate shopping.", "potentialSaving": "10-15%"},
					{"category": "Transportation", "observation": "Fuel spend is steady.", "suggestion": "Consider a loyalty card.", "potentialSaving": "~5 EUR/month"}
				],
				"overallSummary": "Spending is concentrated in groceries and fuel."
			}`
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("returns every insight entry", func() {
			Expect(result.Insights).To(HaveLen(2))
			Expect(result.Insights[0].Category).To(Equal(category.Category("Groceries")))
			Expect(result.Insights[0].Observation).To(Equal("Frequent small trips."))
			Expect(result.Insights[1].PotentialSaving).To(Equal("~5 EUR/month"))
		})

		It("returns the summary", func() {
			Expect(result.OverallSummary).To(Equal("Spending is concentrated in groceries and fuel."))
		})

		It("serializes the records into the prompt", func() {
			Expect(client.jsonPrompt).To(ContainSubstring("Mercadona"))
			Expect(client.jsonPrompt).To(ContainSubstring("Repsol"))
		})
	})

	When("the response has more than four insights", func() {
		BeforeEach(func() {
			entries := ""
			for i := range 6 {
				if i > 0 {
					entries += ","
				}
				entries += fmt.Sprintf(`{"category": "Other", "observation": "obs %d", "suggestion": "s", "potentialSaving": "p"}`, i)
			}
			client.jsonResponse = `{"insights": [` + entries + `], "overallSummary": "ok"}`
		})

		It("keeps only the first four", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Insights).To(HaveLen(4))
			Expect(result.Insights[3].Observation).To(Equal("obs 3"))
		})
	})

	When("insight entries are missing text fields", func() {
		BeforeEach(func() {
			client.jsonResponse = `{"insights": [{"category": "Groceries"}], "overallSummary": "ok"}`
		})

		It("fills the canned defaults", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Insights[0].Observation).To(Equal("No specific observation provided."))
			Expect(result.Insights[0].Suggestion).To(Equal("No specific suggestion provided."))
			Expect(result.Insights[0].PotentialSaving).To(Equal("Not specified."))
		})
	})

	When("an insight names an invalid category", func() {
		BeforeEach(func() {
			client.jsonResponse = `{"insights": [{"category": "Crypto", "observation": "o", "suggestion": "s", "potentialSaving": "p"}], "overallSummary": "ok"}`
		})

		It("replaces it with Other", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Insights[0].Category).To(Equal(category.Other))
		})
	})

	When("the insights field is missing", func() {
		BeforeEach(func() {
			client.jsonResponse = `{"overallSummary": "ok"}`
		})

		It("returns an InvalidInsightStructureError", func() {
			var structural *InvalidInsightStructureError
			Expect(errors.As(err, &structural)).To(BeTrue())
		})
	})

	When("overallSummary is not a string", func() {
		BeforeEach(func() {
			client.jsonResponse = `{"insights": [], "overallSummary": 7}`
		})

		It("returns an InvalidInsightStructureError", func() {
			var structural *InvalidInsightStructureError
			Expect(errors.As(err, &structural)).To(BeTrue())
		})
	})

	When("overallSummary is blank", func() {
		BeforeEach(func() {
			client.jsonResponse = `{"insights": [], "overallSummary": "   "}`
		})

		It("substitutes the canned summary", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.OverallSummary).To(Equal("No overall summary provided by AI."))
		})
	})

	When("more than 50 records are supplied", func() {
		BeforeEach(func() {
			records = nil
			for i := range 60 {
				records = append(records, json.RawMessage(fmt.Sprintf(`{"vendorName": "Vendor %d", "totalAmount": 1}`, i)))
			}
			client.jsonResponse = `{"insights": [], "overallSummary": "ok"}`
		})

		It("prompts with only the first 50", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(client.jsonPrompt).To(ContainSubstring("Vendor 49"))
			Expect(client.jsonPrompt).NotTo(ContainSubstring("Vendor 50"))
		})
	})

	When("the response is not valid JSON", func() {
		BeforeEach(func() {
			client.jsonResponse = "here are your insights:"
		})

		It("returns a MalformedResponseError", func() {
			var malformed *MalformedResponseError
			Expect(errors.As(err, &malformed)).To(BeTrue())
		})
	})

	When("the model call always fails", func() {
		BeforeEach(func() {
			client.jsonErr = errors.New("upstream unavailable")
		})

		It("returns a CallError after 3 attempts", func() {
			var callErr *CallError
			Expect(errors.As(err, &callErr)).To(BeTrue())
			Expect(callErr.Operation).To(Equal("Get Savings Insights"))
			Expect(client.jsonCalls).To(Equal(3))
		})
	})
})
