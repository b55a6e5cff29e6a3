package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"budgetbuddy/internal/core"
	"budgetbuddy/internal/log"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the ledger in a single transactions table.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db, path: dbPath}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Load reads every row back through Ledger.Add, so a row that no longer
// validates fails the whole load.
func (s *SQLiteStore) Load(ctx context.Context) (*core.Ledger, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, tx_date, tx_type, category, amount, note FROM transactions ORDER BY tx_date, id`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var snap core.Snapshot
	for rows.Next() {
		var r core.TransactionRecord
		if err := rows.Scan(&r.ID, &r.Date, &r.Type, &r.Category, &r.Amount, &r.Note); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		snap.Transactions = append(snap.Transactions, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	ledger, err := core.FromSnapshot(snap)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.path, err)
	}

	log.FromContext(ctx).DebugContext(ctx, "Ledger loaded from SQLite",
		log.FieldPath, s.path,
		log.FieldCount, ledger.Len())
	return ledger, nil
}

// Save replaces the table contents in one SQL transaction.
func (s *SQLiteStore) Save(ctx context.Context, ledger *core.Ledger) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO transactions (id, tx_date, tx_type, category, amount, note) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	snap := ledger.Snapshot()
	for _, r := range snap.Transactions {
		if _, err := stmt.ExecContext(ctx, r.ID, r.Date, r.Type, r.Category, r.Amount, r.Note); err != nil {
			return fmt.Errorf("insert transaction %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	log.FromContext(ctx).InfoContext(ctx, "Ledger saved to SQLite",
		log.FieldPath, s.path,
		log.FieldCount, len(snap.Transactions))
	return nil
}
