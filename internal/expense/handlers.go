package expense

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/jlsanzbreton/smart-receipt-analyzer2/internal/analysis"
)

// corsError writes an error response with CORS headers set.
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// setCORSHeaders sets CORS headers on a response.
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// jsonError writes a JSON error body with CORS headers set.
func jsonError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// handleListExpenses returns all expenses, newest first.
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.service.ListExpenses()
	if err != nil {
		slog.Error("Error listing expenses", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(expenses); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleUploadReceipt runs the extraction pipeline on an uploaded receipt
// image and returns the stored expense along with any threshold breaches it
// triggered.
func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	// 50MB cap to handle high-resolution phone photos.
	maxFormSize := int64(50 << 20)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		errorMsg := "Error parsing form"
		if err.Error() == "http: request body too large" {
			errorMsg = "File is too large. Maximum size is 50MB. Please compress or resize your image."
		}
		jsonError(w, errorMsg, http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		errorMsg := "No file provided"
		if err.Error() == "http: no such file" {
			errorMsg = "No file was selected. Please choose a file to upload."
		}
		jsonError(w, errorMsg, http.StatusBadRequest)
		return
	}
	defer f.Close()

	if header.Size > maxFormSize {
		jsonError(w, "File is too large. Maximum size is 50MB. Please compress or resize your image.", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		jsonError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		ext := strings.ToLower(filepath.Ext(header.Filename))
		switch ext {
		case ".jpg", ".jpeg":
			contentType = "image/jpeg"
		case ".png":
			contentType = "image/png"
		case ".pdf":
			contentType = "application/pdf"
		case ".heic":
			contentType = "image/heic"
		case ".heif":
			contentType = "image/heif"
		default:
			contentType = "application/octet-stream"
		}
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))

	expense, breaches, err := s.service.ProcessReceipt(r.Context(), header.Filename, data, contentType)
	if err != nil {
		slog.Error("Error processing receipt", "filename", header.Filename, "error", err)
		jsonError(w, err.Error(), uploadErrorStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	response := map[string]interface{}{
		"expense":  expense,
		"breaches": breaches,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// uploadErrorStatus maps pipeline failures to response codes: model-side
// failures are upstream problems, unusable receipts are the client's.
func uploadErrorStatus(err error) int {
	var callErr *analysis.CallError
	if errors.As(err, &callErr) {
		return http.StatusBadGateway
	}
	return http.StatusBadRequest
}

// handleGetExpense returns a single expense.
func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Expense ID required", http.StatusBadRequest)
		return
	}
	expense, err := s.service.GetExpense(id)
	if err != nil {
		corsError(w, "Expense not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(expense); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleGetExpenseImage returns the stored original image for an expense.
func (s *Server) handleGetExpenseImage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Expense ID required", http.StatusBadRequest)
		return
	}
	data, contentType, err := s.service.GetExpenseImage(id)
	if err != nil {
		corsError(w, "Image not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleDeleteExpense deletes an expense and its image.
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Expense ID required", http.StatusBadRequest)
		return
	}
	if err := s.service.DeleteExpense(id); err != nil {
		corsError(w, "Error deleting expense", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleGetThresholds returns the full per-category threshold set.
func (s *Server) handleGetThresholds(w http.ResponseWriter, r *http.Request) {
	thresholds, err := s.service.Thresholds()
	if err != nil {
		slog.Error("Error listing thresholds", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(thresholds); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleSaveThresholds replaces all threshold amounts at once.
func (s *Server) handleSaveThresholds(w http.ResponseWriter, r *http.Request) {
	var thresholds []Threshold
	if err := json.NewDecoder(r.Body).Decode(&thresholds); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.service.SaveThresholds(thresholds); err != nil {
		slog.Error("Error saving thresholds", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	saved, err := s.service.Thresholds()
	if err != nil {
		slog.Error("Error listing thresholds", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(saved); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleGetBreaches returns the current month's threshold breaches.
func (s *Server) handleGetBreaches(w http.ResponseWriter, r *http.Request) {
	breaches, err := s.service.CurrentBreaches()
	if err != nil {
		slog.Error("Error checking thresholds", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(breaches); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleGetInsights runs the savings analysis over all stored expenses.
func (s *Server) handleGetInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := s.service.SavingsInsights(r.Context())
	if err != nil {
		slog.Error("Error generating savings insights", "error", err)
		var structErr *analysis.InvalidInsightStructureError
		if errors.As(err, &structErr) {
			jsonError(w, structErr.Error(), http.StatusBadGateway)
			return
		}
		jsonError(w, "Error generating savings insights", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(insights); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}
