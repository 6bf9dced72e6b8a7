package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type Database struct {
	db *gorm.DB
}

// NewDatabase opens (or creates) the sqlite store and migrates the schema.
// The connection pool is capped at a single connection: sqlite allows one
// writer at a time, and the sync batches must never interleave.
func NewDatabase(dbPath string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&Account{}, &Transaction{}, &Goal{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &Database{db: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("failed to access connection pool: %w", err)
	}
	return sqlDB.Close()
}

func (d *Database) CreateAccount(ctx context.Context, a *Account) error {
	if err := d.db.WithContext(ctx).Create(a).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return &ConflictError{RecordID: a.Phone, Reason: "phone already registered"}
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (d *Database) FindAccountByPhone(ctx context.Context, phone string) (*Account, error) {
	var a Account
	if err := d.db.WithContext(ctx).Where("phone = ?", phone).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	return &a, nil
}

// ListTransactions returns the account's transactions, newest date first.
func (d *Database) ListTransactions(ctx context.Context, accountID uint) ([]Transaction, error) {
	var records []Transaction
	err := d.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("date DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return records, nil
}

func (d *Database) ListGoals(ctx context.Context, accountID uint) ([]Goal, error) {
	var records []Goal
	err := d.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("id").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	return records, nil
}

// SyncTransactions applies the batch as one atomic unit: records are
// upserted in order, and any conflict rolls the whole batch back.
func (d *Database) SyncTransactions(ctx context.Context, batch []Transaction) error {
	if len(batch) == 0 {
		return nil
	}
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range batch {
			if err := upsertTransaction(tx, &batch[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// SyncGoals is the goal counterpart of SyncTransactions.
func (d *Database) SyncGoals(ctx context.Context, batch []Goal) error {
	if len(batch) == 0 {
		return nil
	}
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range batch {
			if err := upsertGoal(tx, &batch[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// upsertTransaction inserts the record if its id is new and fully replaces
// the stored row otherwise. An id already owned by another account is a
// conflict, never a silent reassignment.
func upsertTransaction(tx *gorm.DB, rec *Transaction) error {
	var existing Transaction
	err := tx.Where("id = ?", rec.ID).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := tx.Create(rec).Error; err != nil {
			return conflictFrom(rec.ID, err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("failed to look up transaction %s: %w", rec.ID, err)
	}
	if existing.AccountID != rec.AccountID {
		return &ConflictError{RecordID: rec.ID, Reason: "id belongs to another account"}
	}
	if err := tx.Save(rec).Error; err != nil {
		return conflictFrom(rec.ID, err)
	}
	return nil
}

func upsertGoal(tx *gorm.DB, rec *Goal) error {
	var existing Goal
	err := tx.Where("id = ?", rec.ID).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := tx.Create(rec).Error; err != nil {
			return conflictFrom(rec.ID, err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("failed to look up goal %s: %w", rec.ID, err)
	}
	if existing.AccountID != rec.AccountID {
		return &ConflictError{RecordID: rec.ID, Reason: "id belongs to another account"}
	}
	if err := tx.Save(rec).Error; err != nil {
		return conflictFrom(rec.ID, err)
	}
	return nil
}
