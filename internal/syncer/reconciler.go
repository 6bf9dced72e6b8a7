// Package syncer implements the offline-first reconciliation protocol.
// Devices accumulate transactions and goals while disconnected and replay
// them in bulk; the reconciler applies each batch as an idempotent,
// all-or-nothing set of upserts owned by the authenticated account, so a
// client can safely retry a batch whose outcome it never learned.
package syncer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/NgigiN/savepesa/internal/storage"
)

// ErrMalformedBatch reports a sync payload whose collection field is absent
// or not a JSON array. Nothing is written when it is returned.
var ErrMalformedBatch = errors.New("malformed batch")

type Reconciler struct {
	db *storage.Database
}

func NewReconciler(db *storage.Database) *Reconciler {
	return &Reconciler{db: db}
}

// SyncTransactions reconciles a raw transaction batch for the account.
// Every record is stamped with accountID no matter what the client claimed,
// duplicate ids within the batch collapse to the last occurrence, and the
// batch commits or rolls back as one unit.
func (r *Reconciler) SyncTransactions(ctx context.Context, accountID uint, raw json.RawMessage) error {
	batch, err := decodeBatch[storage.Transaction](raw)
	if err != nil {
		return err
	}
	for i := range batch {
		batch[i].AccountID = accountID
	}
	batch = compact(batch, func(t storage.Transaction) string { return t.ID })
	return r.db.SyncTransactions(ctx, batch)
}

// SyncGoals reconciles a raw goal batch with the same guarantees as
// SyncTransactions.
func (r *Reconciler) SyncGoals(ctx context.Context, accountID uint, raw json.RawMessage) error {
	batch, err := decodeBatch[storage.Goal](raw)
	if err != nil {
		return err
	}
	for i := range batch {
		batch[i].AccountID = accountID
	}
	batch = compact(batch, func(g storage.Goal) string { return g.ID })
	return r.db.SyncGoals(ctx, batch)
}

// decodeBatch enforces the hard precondition that the payload is a JSON
// array. A missing field, null, or any other shape is rejected outright,
// before any storage interaction.
func decodeBatch[R any](raw json.RawMessage) ([]R, error) {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrMalformedBatch
	}
	var batch []R
	if err := json.Unmarshal(raw, &batch); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBatch, err)
	}
	return batch, nil
}

// compact collapses entries sharing an id to the last occurrence, so a batch
// that edits the same record twice applies last-write-wins. This matches how
// the store's upsert treats repeated ids; collapsing up front just avoids
// writing rows that the same batch would immediately overwrite.
func compact[R any](batch []R, id func(R) string) []R {
	seen := make(map[string]int, len(batch))
	out := batch[:0]
	for _, rec := range batch {
		key := id(rec)
		if at, ok := seen[key]; ok {
			out[at] = rec
			continue
		}
		seen[key] = len(out)
		out = append(out, rec)
	}
	return out
}
