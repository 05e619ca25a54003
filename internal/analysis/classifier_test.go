package analysis

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jlsanzbreton/smart-receipt-analyzer2/internal/category"
)

var _ = Describe("ClassifyExpense", func() {
	var (
		client   *mockClient
		analyzer *Analyzer
		result   category.Category
		err      error
	)

	BeforeEach(func() {
		client = &mockClient{}
		analyzer = newTestAnalyzer(client)
	})

	JustBeforeEach(func() {
		result, err = analyzer.ClassifyExpense(context.Background(), "Mercadona", "Milk, Bread, Eggs")
	})

	When("the model returns an exact category", func() {
		BeforeEach(func() {
			client.textResponse = "Groceries"
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("returns that category", func() {
			Expect(result).To(Equal(category.Category("Groceries")))
		})

		It("includes the vendor in the prompt", func() {
			Expect(client.textPrompt).To(ContainSubstring("Mercadona"))
		})
	})

	When("the model returns the category in the wrong case", func() {
		BeforeEach(func() {
			client.textResponse = "groceries"
		})

		It("maps it onto the canonical label", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(category.Category("Groceries")))
		})
	})

	When("the model returns surrounding whitespace", func() {
		BeforeEach(func() {
			client.textResponse = "  Dining Out\n"
		})

		It("trims before matching", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(category.Category("Dining Out")))
		})
	})

	When("the model invents a category", func() {
		BeforeEach(func() {
			client.textResponse = "Cryptocurrency Purchases"
		})

		It("falls back to Other", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(category.Other))
		})
	})

	When("the model call always fails", func() {
		BeforeEach(func() {
			client.textErr = errors.New("upstream unavailable")
		})

		It("returns a CallError after 3 attempts", func() {
			var callErr *CallError
			Expect(errors.As(err, &callErr)).To(BeTrue())
			Expect(callErr.Operation).To(Equal("Classify Expense"))
			Expect(client.textCalls).To(Equal(3))
		})

		It("returns no category", func() {
			Expect(result).To(BeEmpty())
		})
	})
})
