package expense

import (
	"fmt"
	"log/slog"

	"github.com/jlsanzbreton/smart-receipt-analyzer2/internal/category"
)

// Thresholds returns one threshold per category. Stored values override the
// zero defaults; categories missing from the store still appear with amount
// 0 so callers always see the full set.
func (s *Service) Thresholds() ([]Threshold, error) {
	stored, err := s.db.ListThresholds()
	if err != nil {
		return nil, fmt.Errorf("listing thresholds: %w", err)
	}

	byCategory := make(map[category.Category]Threshold)
	for _, threshold := range stored {
		if category.IsValid(threshold.Category) {
			byCategory[threshold.Category] = threshold
		}
	}

	out := make([]Threshold, 0, len(category.All()))
	for _, cat := range category.All() {
		if threshold, ok := byCategory[cat]; ok {
			out = append(out, threshold)
		} else {
			out = append(out, Threshold{Category: cat, Amount: 0})
		}
	}
	return out, nil
}

// SaveThresholds replaces all category amounts together. Entries for unknown
// categories are dropped; categories not mentioned are reset to 0. Partial
// per-category updates are deliberately not supported.
func (s *Service) SaveThresholds(updated []Threshold) error {
	amounts := make(map[category.Category]float64)
	for _, threshold := range updated {
		if category.IsValid(threshold.Category) {
			amounts[threshold.Category] = threshold.Amount
		}
	}

	full := make([]Threshold, 0, len(category.All()))
	for _, cat := range category.All() {
		full = append(full, Threshold{Category: cat, Amount: amounts[cat]})
	}

	if err := s.db.PutThresholds(full); err != nil {
		return fmt.Errorf("saving thresholds: %w", err)
	}
	return nil
}

// SeedThresholds writes an amount-0 threshold for every category missing
// one. It runs on every startup, independent of migration, so the invariant
// that a threshold exists per category self-heals when categories are added.
func (s *Service) SeedThresholds() error {
	stored, err := s.db.ListThresholds()
	if err != nil {
		return fmt.Errorf("listing thresholds: %w", err)
	}

	existing := make(map[category.Category]bool, len(stored))
	for _, threshold := range stored {
		existing[threshold.Category] = true
	}

	missing := make([]Threshold, 0)
	for _, cat := range category.All() {
		if !existing[cat] {
			missing = append(missing, Threshold{Category: cat, Amount: 0})
		}
	}
	if len(missing) == 0 {
		return nil
	}

	if err := s.db.PutThresholds(missing); err != nil {
		return fmt.Errorf("seeding thresholds: %w", err)
	}
	slog.Info("Seeded missing default thresholds", "count", len(missing))
	return nil
}

// CurrentBreaches recomputes breaches for the current month from whatever
// state exists right now.
func (s *Service) CurrentBreaches() ([]Breach, error) {
	expenses, err := s.db.ListExpenses()
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	thresholds, err := s.Thresholds()
	if err != nil {
		return nil, err
	}
	return CheckBreaches(expenses, thresholds, s.timeSource.Now()), nil
}
