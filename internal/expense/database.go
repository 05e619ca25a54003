package expense

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"
)

const (
	expenseBucketName   = "expenses"
	thresholdBucketName = "thresholds"
)

// DB defines the interface for store operations. Expenses are keyed by id,
// thresholds by category.
type DB interface {
	// PutExpense inserts or replaces an expense.
	PutExpense(expense *Expense) error

	// GetExpense retrieves an expense by ID.
	GetExpense(id string) (*Expense, error)

	// ListExpenses returns all expenses ordered by transaction date,
	// newest first.
	ListExpenses() ([]*Expense, error)

	// DeleteExpense removes an expense from the store.
	DeleteExpense(id string) error

	// ListThresholds returns all stored thresholds.
	ListThresholds() ([]Threshold, error)

	// PutThresholds inserts or replaces the given thresholds in one
	// transaction.
	PutThresholds(thresholds []Threshold) error

	// Close closes the store.
	Close() error
}

// BoltDB implements the DB interface using BoltDB.
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance.
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(expenseBucketName)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(thresholdBucketName)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// PutExpense inserts or replaces an expense.
func (b *BoltDB) PutExpense(expense *Expense) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(expenseBucketName))
		data, err := json.Marshal(expense)
		if err != nil {
			return fmt.Errorf("marshaling expense: %w", err)
		}
		return bucket.Put([]byte(expense.ID), data)
	})
}

// GetExpense retrieves an expense by ID.
func (b *BoltDB) GetExpense(id string) (*Expense, error) {
	var expense *Expense
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(expenseBucketName))
		data := bucket.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("expense not found: %s", id)
		}
		return json.Unmarshal(data, &expense)
	})
	if err != nil {
		return nil, err
	}
	return expense, nil
}

// ListExpenses returns all expenses ordered by transaction date descending.
func (b *BoltDB) ListExpenses() ([]*Expense, error) {
	expenses := make([]*Expense, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(expenseBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var expense Expense
			if err := json.Unmarshal(v, &expense); err != nil {
				return fmt.Errorf("unmarshaling expense: %w", err)
			}
			expenses = append(expenses, &expense)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	// ISO dates sort lexicographically; ID breaks ties for a stable order.
	sort.Slice(expenses, func(i, j int) bool {
		if expenses[i].TransactionDate != expenses[j].TransactionDate {
			return expenses[i].TransactionDate > expenses[j].TransactionDate
		}
		return expenses[i].ID > expenses[j].ID
	})
	return expenses, nil
}

// DeleteExpense removes an expense from the store.
func (b *BoltDB) DeleteExpense(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(expenseBucketName))
		return bucket.Delete([]byte(id))
	})
}

// ListThresholds returns all stored thresholds.
func (b *BoltDB) ListThresholds() ([]Threshold, error) {
	thresholds := make([]Threshold, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(thresholdBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var threshold Threshold
			if err := json.Unmarshal(v, &threshold); err != nil {
				return fmt.Errorf("unmarshaling threshold: %w", err)
			}
			thresholds = append(thresholds, threshold)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return thresholds, nil
}

// PutThresholds upserts the given thresholds, keyed by category, in a single
// transaction.
func (b *BoltDB) PutThresholds(thresholds []Threshold) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(thresholdBucketName))
		for _, threshold := range thresholds {
			data, err := json.Marshal(threshold)
			if err != nil {
				return fmt.Errorf("marshaling threshold: %w", err)
			}
			if err := bucket.Put([]byte(threshold.Category), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close closes the store.
func (b *BoltDB) Close() error {
	return b.db.Close()
}
