package analysis

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("RetryPolicy", func() {
	var (
		policy   RetryPolicy
		attempts int
		result   string
		err      error
		op       func(context.Context) (string, error)
	)

	BeforeEach(func() {
		policy = RetryPolicy{MaxRetries: 2, Delay: 0}
		attempts = 0
	})

	JustBeforeEach(func() {
		result, err = policy.Do(context.Background(), "Test Operation", op)
	})

	When("the operation succeeds immediately", func() {
		BeforeEach(func() {
			op = func(context.Context) (string, error) {
				attempts++
				return "ok", nil
			}
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("returns the operation's result", func() {
			Expect(result).To(Equal("ok"))
		})

		It("runs the operation once", func() {
			Expect(attempts).To(Equal(1))
		})
	})

	When("the operation fails twice then succeeds", func() {
		BeforeEach(func() {
			op = func(context.Context) (string, error) {
				attempts++
				if attempts < 3 {
					return "", errors.New("transient failure")
				}
				return "recovered", nil
			}
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("returns the success value", func() {
			Expect(result).To(Equal("recovered"))
		})

		It("records exactly 3 attempts", func() {
			Expect(attempts).To(Equal(3))
		})
	})

	When("the operation always fails", func() {
		var cause error

		BeforeEach(func() {
			cause = errors.New("permanent failure")
			op = func(context.Context) (string, error) {
				attempts++
				return "", cause
			}
		})

		It("returns a CallError", func() {
			var callErr *CallError
			Expect(errors.As(err, &callErr)).To(BeTrue())
		})

		It("stops after exactly 3 attempts", func() {
			Expect(attempts).To(Equal(3))
		})

		It("carries the operation label and attempt count", func() {
			var callErr *CallError
			Expect(errors.As(err, &callErr)).To(BeTrue())
			Expect(callErr.Operation).To(Equal("Test Operation"))
			Expect(callErr.Attempts).To(Equal(3))
		})

		It("wraps the last underlying cause", func() {
			Expect(errors.Is(err, cause)).To(BeTrue())
		})
	})
})
