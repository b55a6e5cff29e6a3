// Package storage persists a core.Ledger as a whole and moves it in and out
// of CSV.
package storage

import (
	"context"

	"budgetbuddy/internal/core"
)

// Store loads and saves the complete ledger. Save overwrites whatever was
// stored before.
type Store interface {
	Load(ctx context.Context) (*core.Ledger, error)
	Save(ctx context.Context, ledger *core.Ledger) error
	Close() error
}
