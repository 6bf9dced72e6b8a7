package storage

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrConflict matches any ConflictError via errors.Is.
var ErrConflict = errors.New("storage conflict")

// ErrAccountNotFound is returned by account lookups that match no row.
var ErrAccountNotFound = errors.New("account not found")

// ConflictError reports a record that violated a uniqueness invariant:
// its id already exists under another account, or a unique column value
// (phone, mpesa_id) is already taken. The batch it arrived in is rolled
// back in full.
type ConflictError struct {
	RecordID string
	Reason   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("record %s: %s", e.RecordID, e.Reason)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// conflictFrom maps gorm's structured duplicate-key error to a ConflictError
// naming the offending record. Other errors pass through untouched.
func conflictFrom(recordID string, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &ConflictError{RecordID: recordID, Reason: "duplicate id or mpesa reference"}
	}
	return err
}
