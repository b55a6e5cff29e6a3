package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"budgetbuddy/internal/core"
	"budgetbuddy/internal/log"
)

// JSONStore keeps the ledger in one indented JSON document.
type JSONStore struct {
	path string
}

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Path returns the file backing the store.
func (s *JSONStore) Path() string {
	return s.path
}

// Load returns an empty ledger when the file is missing or is not a ledger
// document. A record with a wrongly typed field or an invalid transaction is
// an error, so a later Save cannot overwrite data that failed to load.
func (s *JSONStore) Load(ctx context.Context) (*core.Ledger, error) {
	logger := log.FromContext(ctx)

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.DebugContext(ctx, "No ledger file yet, starting empty", log.FieldPath, s.path)
		return core.NewLedger(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	// A document that does not decode as {"transactions": [...]} reads as no
	// data. Once the shape is right, a bad record fails the load.
	var doc struct {
		Transactions []json.RawMessage `json:"transactions"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		logger.WarnContext(ctx, "Ledger file is not valid JSON, starting empty",
			log.FieldPath, s.path,
			log.FieldError, err)
		return core.NewLedger(), nil
	}

	snap := core.Snapshot{Transactions: make([]core.TransactionRecord, len(doc.Transactions))}
	for i, raw := range doc.Transactions {
		if err := json.Unmarshal(raw, &snap.Transactions[i]); err != nil {
			return nil, fmt.Errorf("load %s: record %d: %w", s.path, i, err)
		}
	}

	ledger, err := core.FromSnapshot(snap)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.path, err)
	}

	logger.DebugContext(ctx, "Ledger loaded from JSON",
		log.FieldPath, s.path,
		log.FieldCount, ledger.Len())
	return ledger, nil
}

// Save writes to a temporary file next to the target and renames it over.
func (s *JSONStore) Save(ctx context.Context, ledger *core.Ledger) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	data, err := json.MarshalIndent(ledger.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}

	log.FromContext(ctx).InfoContext(ctx, "Ledger saved to JSON",
		log.FieldPath, s.path,
		log.FieldCount, ledger.Len())
	return nil
}

func (s *JSONStore) Close() error {
	return nil
}
