// Package migration moves legacy flat-storage records into the indexed
// store. The transfer runs at most once per installation, gated by a
// completion flag persisted outside the store so it survives store schema
// changes.
package migration

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jlsanzbreton/smart-receipt-analyzer2/internal/expense"
)

// Legacy flat-storage keys. Each holds a serialized array.
const (
	LegacyExpensesKey   = "smartAnalyzerExpenses"
	LegacyThresholdsKey = "smartAnalyzerThresholds"
)

// FlagStore persists the migration completion state. Keeping it behind an
// interface makes the migration a function of (flag, legacy data, store)
// rather than of ambient global state.
type FlagStore interface {
	// Done reports whether migration has completed.
	Done() (bool, error)

	// MarkDone records that migration has completed.
	MarkDone() error
}

// LegacyStore is the old string-keyed flat storage. Read-then-delete is the
// only pattern used against it.
type LegacyStore interface {
	// Get returns the raw value for key and whether it exists.
	Get(key string) ([]byte, bool, error)

	// Delete removes key.
	Delete(key string) error
}

// Error reports a failed migration. The completion flag is left unset so a
// future run retries the full transfer; the caller should warn that legacy
// data may be temporarily incomplete.
type Error struct {
	Stage string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("migrating legacy %s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Migrator performs the one-shot transfer of legacy records.
type Migrator struct {
	flags  FlagStore
	legacy LegacyStore
	db     expense.DB
}

// NewMigrator creates a new Migrator.
func NewMigrator(flags FlagStore, legacy LegacyStore, db expense.DB) *Migrator {
	return &Migrator{
		flags:  flags,
		legacy: legacy,
		db:     db,
	}
}

// Run migrates legacy expenses and thresholds into the store, removes the
// legacy keys and sets the completion flag. If the flag is already set the
// run is a no-op. Inserts are upserts keyed by id/category, so a retry after
// partial failure cannot create duplicates. Returns whether a transfer
// actually happened.
func (m *Migrator) Run() (bool, error) {
	done, err := m.flags.Done()
	if err != nil {
		return false, &Error{Stage: "flag", Err: err}
	}
	if done {
		slog.Info("Legacy migration already done, skipping")
		return false, nil
	}

	if err := m.migrateExpenses(); err != nil {
		return false, &Error{Stage: "expenses", Err: err}
	}
	if err := m.migrateThresholds(); err != nil {
		return false, &Error{Stage: "thresholds", Err: err}
	}

	if err := m.flags.MarkDone(); err != nil {
		return false, &Error{Stage: "flag", Err: err}
	}
	slog.Info("Legacy migration completed")
	return true, nil
}

func (m *Migrator) migrateExpenses() error {
	raw, ok, err := m.legacy.Get(LegacyExpensesKey)
	if err != nil {
		return err
	}
	if !ok {
		slog.Info("No legacy expenses to migrate")
		return nil
	}

	var expenses []*expense.Expense
	if err := json.Unmarshal(raw, &expenses); err != nil {
		return fmt.Errorf("unmarshaling legacy expenses: %w", err)
	}

	for _, exp := range expenses {
		if err := m.db.PutExpense(exp); err != nil {
			return fmt.Errorf("inserting expense %s: %w", exp.ID, err)
		}
	}
	slog.Info("Migrated legacy expenses", "count", len(expenses))

	return m.legacy.Delete(LegacyExpensesKey)
}

func (m *Migrator) migrateThresholds() error {
	raw, ok, err := m.legacy.Get(LegacyThresholdsKey)
	if err != nil {
		return err
	}
	if !ok {
		slog.Info("No legacy thresholds to migrate")
		return nil
	}

	var thresholds []expense.Threshold
	if err := json.Unmarshal(raw, &thresholds); err != nil {
		return fmt.Errorf("unmarshaling legacy thresholds: %w", err)
	}

	if len(thresholds) > 0 {
		if err := m.db.PutThresholds(thresholds); err != nil {
			return fmt.Errorf("inserting thresholds: %w", err)
		}
	}
	slog.Info("Migrated legacy thresholds", "count", len(thresholds))

	return m.legacy.Delete(LegacyThresholdsKey)
}
