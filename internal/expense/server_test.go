package expense

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jlsanzbreton/smart-receipt-analyzer2/internal/analysis"
	"github.com/jlsanzbreton/smart-receipt-analyzer2/internal/category"
)

func multipartUpload(filename string, data []byte) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	Expect(err).NotTo(HaveOccurred())
	_, err = part.Write(data)
	Expect(err).NotTo(HaveOccurred())
	Expect(writer.Close()).To(Succeed())
	return body, writer.FormDataContentType()
}

var _ = Describe("Server", func() {
	var (
		db       *mockDB
		analyzer *mockAnalyzer
		storage  *mockStorage
		server   *Server
		recorder *httptest.ResponseRecorder
	)

	BeforeEach(func() {
		db = newMockDB()
		analyzer = &mockAnalyzer{}
		storage = newMockStorage()
		service := NewServiceWithDeps(db, analyzer, storage,
			&fixedIDGenerator{id: "test-id-123"},
			&fixedTimeSource{now: time.Date(2026, time.August, 20, 12, 0, 0, 0, time.UTC)},
		)
		server = NewServer(service, BasicAuth{})
		recorder = httptest.NewRecorder()
	})

	Describe("POST /api/expenses", func() {
		BeforeEach(func() {
			analyzer.receipt = &analysis.Receipt{
				VendorName:      "Mercadona",
				TransactionDate: "2026-08-14",
				TotalAmount:     42.5,
				Currency:        "EUR",
			}
			analyzer.classification = category.Category("Groceries")
		})

		It("returns 201 with the expense and breach list", func() {
			body, contentType := multipartUpload("receipt.jpg", []byte("image-data"))
			req := httptest.NewRequest(http.MethodPost, "/api/expenses", body)
			req.Header.Set("Content-Type", contentType)

			server.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusCreated))

			var response struct {
				Expense  *Expense `json:"expense"`
				Breaches []Breach `json:"breaches"`
			}
			Expect(json.Unmarshal(recorder.Body.Bytes(), &response)).To(Succeed())
			Expect(response.Expense.ID).To(Equal("test-id-123"))
			Expect(response.Expense.VendorName).To(Equal("Mercadona"))
			Expect(response.Breaches).To(BeEmpty())
		})

		It("returns 502 when the model is unreachable", func() {
			analyzer.extractErr = &analysis.CallError{Operation: "Analyze Receipt", Attempts: 3}

			body, contentType := multipartUpload("receipt.jpg", []byte("image-data"))
			req := httptest.NewRequest(http.MethodPost, "/api/expenses", body)
			req.Header.Set("Content-Type", contentType)

			server.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusBadGateway))
		})

		It("returns 400 when extraction is incomplete", func() {
			analyzer.extractErr = &analysis.IncompleteExtractionError{Missing: []string{"totalAmount"}}

			body, contentType := multipartUpload("receipt.jpg", []byte("image-data"))
			req := httptest.NewRequest(http.MethodPost, "/api/expenses", body)
			req.Header.Set("Content-Type", contentType)

			server.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("GET /api/expenses", func() {
		It("returns the stored expenses as JSON", func() {
			db.expenses["a"] = &Expense{ID: "a", Receipt: analysis.Receipt{VendorName: "Lidl", TransactionDate: "2026-08-10"}}

			req := httptest.NewRequest(http.MethodGet, "/api/expenses", nil)
			server.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusOK))

			var expenses []*Expense
			Expect(json.Unmarshal(recorder.Body.Bytes(), &expenses)).To(Succeed())
			Expect(expenses).To(HaveLen(1))
			Expect(expenses[0].VendorName).To(Equal("Lidl"))
		})
	})

	Describe("GET /api/expenses/{id}", func() {
		It("returns 404 for an unknown ID", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/expenses/missing", nil)
			server.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("DELETE /api/expenses/{id}", func() {
		It("returns 204 and removes the record", func() {
			db.expenses["a"] = &Expense{ID: "a"}

			req := httptest.NewRequest(http.MethodDelete, "/api/expenses/a", nil)
			server.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusNoContent))
			Expect(db.expenses).To(BeEmpty())
		})
	})

	Describe("PUT /api/thresholds", func() {
		It("saves and echoes the full threshold set", func() {
			payload, err := json.Marshal([]Threshold{
				{Category: category.Category("Groceries"), Amount: 250},
			})
			Expect(err).NotTo(HaveOccurred())

			req := httptest.NewRequest(http.MethodPut, "/api/thresholds", bytes.NewReader(payload))
			server.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusOK))

			var saved []Threshold
			Expect(json.Unmarshal(recorder.Body.Bytes(), &saved)).To(Succeed())
			Expect(saved).To(HaveLen(len(category.All())))
		})

		It("rejects a malformed body", func() {
			req := httptest.NewRequest(http.MethodPut, "/api/thresholds", bytes.NewReader([]byte("nope")))
			server.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("GET /api/insights", func() {
		It("returns the generated insight", func() {
			analyzer.insight = &analysis.SavingsInsight{
				Insights:       []analysis.SavingsInsightItem{},
				OverallSummary: "Nothing remarkable.",
			}

			req := httptest.NewRequest(http.MethodGet, "/api/insights", nil)
			server.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(recorder.Body.String()).To(ContainSubstring("Nothing remarkable."))
		})

		It("returns 502 when the response structure is invalid", func() {
			analyzer.insightsErr = &analysis.InvalidInsightStructureError{Reason: "missing insights"}

			req := httptest.NewRequest(http.MethodGet, "/api/insights", nil)
			server.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusBadGateway))
		})
	})

	Describe("authentication", func() {
		BeforeEach(func() {
			service := NewServiceWithDeps(db, analyzer, storage,
				&fixedIDGenerator{id: "test-id-123"},
				&fixedTimeSource{now: time.Now()},
			)
			server = NewServer(service, BasicAuth{Username: "user", Password: "secret"})
		})

		It("rejects requests without credentials", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/expenses", nil)
			server.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusUnauthorized))
		})

		It("accepts requests with the right credentials", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/expenses", nil)
			req.SetBasicAuth("user", "secret")
			server.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusOK))
		})
	})
})
