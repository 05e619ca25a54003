package expense

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jlsanzbreton/smart-receipt-analyzer2/internal/analysis"
	"github.com/jlsanzbreton/smart-receipt-analyzer2/internal/category"
)

// Analyzer is the model-backed pipeline the service depends on.
type Analyzer interface {
	// ExtractReceipt turns a receipt image into a validated receipt record.
	ExtractReceipt(ctx context.Context, image []byte, contentType string) (*analysis.Receipt, error)

	// ClassifyExpense assigns one category from the fixed set.
	ClassifyExpense(ctx context.Context, vendorName, itemDescriptions string) (category.Category, error)

	// SavingsInsights produces aggregate insights from serialized records.
	SavingsInsights(ctx context.Context, records []json.RawMessage) (*analysis.SavingsInsight, error)
}

// IDGenerator generates unique IDs for expenses.
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time.
type TimeSource interface {
	Now() time.Time
}

// uuidGenerator generates random UUID identifiers.
type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time.
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles expense operations.
type Service struct {
	db          DB
	analyzer    Analyzer
	storage     Storage
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source.
func NewService(db DB, analyzer Analyzer, storage Storage) *Service {
	return &Service{
		db:          db,
		analyzer:    analyzer,
		storage:     storage,
		idGenerator: &uuidGenerator{},
		timeSource:  &defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing.
func NewServiceWithDeps(db DB, analyzer Analyzer, storage Storage, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		analyzer:    analyzer,
		storage:     storage,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// sanitizeFilename cleans up a filename by removing special characters and
// truncating length.
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	reg := regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	base = reg.ReplaceAllString(base, "")

	reg = regexp.MustCompile(`\s+`)
	base = reg.ReplaceAllString(base, " ")

	base = strings.TrimSpace(base)

	maxLen := 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}

	if base == "" {
		base = "receipt"
	}

	return base + ext
}

// ProcessReceipt runs the full ingestion pipeline for one uploaded image:
// store the original, extract a receipt record, classify it, persist the
// expense, then recompute threshold breaches for the current month.
func (s *Service) ProcessReceipt(ctx context.Context, filename string, data []byte, contentType string) (*Expense, []Breach, error) {
	id := s.idGenerator.Generate()

	cleanFilename := sanitizeFilename(filename)

	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", id, cleanFilename), data)
	if err != nil {
		return nil, nil, fmt.Errorf("saving image: %w", err)
	}

	receipt, err := s.analyzer.ExtractReceipt(ctx, data, contentType)
	if err != nil {
		slog.Error("Failed to extract receipt",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		s.storage.Delete(savedPath)
		return nil, nil, fmt.Errorf("extracting receipt: %w", err)
	}

	descriptions := make([]string, 0, len(receipt.Items))
	for _, item := range receipt.Items {
		descriptions = append(descriptions, item.Description)
	}

	cat, err := s.analyzer.ClassifyExpense(ctx, receipt.VendorName, strings.Join(descriptions, ", "))
	if err != nil {
		slog.Error("Failed to classify expense", "vendor", receipt.VendorName, "error", err)
		s.storage.Delete(savedPath)
		return nil, nil, fmt.Errorf("classifying expense: %w", err)
	}

	expense := &Expense{
		Receipt:           *receipt,
		ID:                id,
		Category:          cat,
		OriginalImageName: filename,
		ImagePath:         savedPath,
		ImageContentType:  contentType,
	}

	if err := s.db.PutExpense(expense); err != nil {
		s.storage.Delete(savedPath)
		return nil, nil, fmt.Errorf("saving expense to database: %w", err)
	}

	breaches, err := s.CurrentBreaches()
	if err != nil {
		// The expense is saved; a failed breach recompute is not fatal.
		slog.Warn("Failed to check thresholds after adding expense", "error", err)
		breaches = []Breach{}
	}

	return expense, breaches, nil
}

// GetExpense retrieves an expense by ID.
func (s *Service) GetExpense(id string) (*Expense, error) {
	expense, err := s.db.GetExpense(id)
	if err != nil {
		return nil, fmt.Errorf("getting expense: %w", err)
	}
	return expense, nil
}

// ListExpenses returns all expenses, newest first.
func (s *Service) ListExpenses() ([]*Expense, error) {
	expenses, err := s.db.ListExpenses()
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	// Migrated legacy records may lack a date; default it so sorting and
	// the monthly window keep working.
	today := s.timeSource.Now().Format("2006-01-02")
	for _, expense := range expenses {
		if expense.TransactionDate == "" {
			expense.TransactionDate = today
		}
	}
	return expenses, nil
}

// DeleteExpense removes an expense and its stored image.
func (s *Service) DeleteExpense(id string) error {
	expense, err := s.db.GetExpense(id)
	if err != nil {
		return fmt.Errorf("getting expense for deletion: %w", err)
	}

	if expense.ImagePath != "" {
		if err := s.storage.Delete(expense.ImagePath); err != nil {
			slog.Warn("Failed to delete image file", "path", expense.ImagePath, "error", err)
		}
	}

	if err := s.db.DeleteExpense(id); err != nil {
		return fmt.Errorf("deleting expense from database: %w", err)
	}
	return nil
}

// GetExpenseImage retrieves the stored original image for an expense.
func (s *Service) GetExpenseImage(id string) ([]byte, string, error) {
	expense, err := s.db.GetExpense(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting expense: %w", err)
	}
	if expense.ImagePath == "" {
		return nil, "", fmt.Errorf("expense has no stored image: %s", id)
	}

	data, err := s.storage.Get(expense.ImagePath)
	if err != nil {
		return nil, "", fmt.Errorf("getting expense image: %w", err)
	}

	return data, expense.ImageContentType, nil
}

// SavingsInsights produces savings insights over all stored expenses.
func (s *Service) SavingsInsights(ctx context.Context) (*analysis.SavingsInsight, error) {
	expenses, err := s.db.ListExpenses()
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}

	records := make([]json.RawMessage, 0, len(expenses))
	for _, expense := range expenses {
		data, err := json.Marshal(expense)
		if err != nil {
			return nil, fmt.Errorf("marshaling expense %s: %w", expense.ID, err)
		}
		records = append(records, data)
	}

	return s.analyzer.SavingsInsights(ctx, records)
}
