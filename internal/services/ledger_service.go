package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"budgetbuddy/internal/amqp"
	"budgetbuddy/internal/cache"
	"budgetbuddy/internal/core"
	"budgetbuddy/internal/log"
	"budgetbuddy/internal/storage"
)

// EventPublisher announces committed ledger mutations.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, event *amqp.LedgerEvent) error
}

// Options configures a LedgerService. Zero values disable the optional parts.
type Options struct {
	Publisher EventPublisher
	CacheSize int
	CacheTTL  time.Duration
	Logger    *log.Logger
}

// LedgerService owns the session's ledger: it loads and saves it through a
// Store, keeps report results cached between mutations, and publishes change
// events when a publisher is configured.
type LedgerService struct {
	store     storage.Store
	publisher EventPublisher
	summaries cache.Cache[core.MonthlySummary]
	totals    cache.Cache[[]core.CategoryTotal]
	logger    *log.Logger

	ledger *core.Ledger
	dirty  bool
}

func NewLedgerService(store storage.Store, opts Options) *LedgerService {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}

	s := &LedgerService{
		store:     store,
		publisher: opts.Publisher,
		summaries: cache.Nop[core.MonthlySummary]{},
		totals:    cache.Nop[[]core.CategoryTotal]{},
		logger:    logger.WithComponent(log.ComponentLedger),
		ledger:    core.NewLedger(),
	}
	if opts.CacheSize > 0 {
		s.summaries = cache.NewLRUCache[core.MonthlySummary](opts.CacheSize, opts.CacheTTL)
		s.totals = cache.NewLRUCache[[]core.CategoryTotal](opts.CacheSize, opts.CacheTTL)
	}
	return s
}

// Load replaces the in-memory ledger with the stored one.
func (s *LedgerService) Load(ctx context.Context) error {
	ledger, err := s.store.Load(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load ledger", log.NewFields().
			WithOperation(log.OpLoad).
			WithError(err).
			ToSlice()...)
		return fmt.Errorf("load ledger: %w", err)
	}
	s.ledger = ledger
	s.dirty = false
	s.invalidate()
	s.logger.InfoContext(ctx, "Ledger loaded", log.FieldCount, ledger.Len())
	return nil
}

// Save persists the whole ledger.
func (s *LedgerService) Save(ctx context.Context) error {
	if err := s.store.Save(ctx, s.ledger); err != nil {
		s.logger.ErrorContext(ctx, "Failed to save ledger", log.NewFields().
			WithOperation(log.OpSave).
			WithError(err).
			ToSlice()...)
		return fmt.Errorf("save ledger: %w", err)
	}
	s.dirty = false
	return nil
}

// Dirty reports whether there are mutations not yet saved.
func (s *LedgerService) Dirty() bool {
	return s.dirty
}

func (s *LedgerService) Create(ctx context.Context, date, txType, category string, amount float64, note string) (core.Transaction, error) {
	tx, err := s.ledger.Create(date, txType, category, amount, note)
	if err != nil {
		s.logRejected(ctx, log.OpCreate, err)
		return core.Transaction{}, err
	}
	s.committed(ctx, log.OpCreate, amqp.EventCreated, tx)
	return tx, nil
}

func (s *LedgerService) Update(ctx context.Context, id string, patch core.TransactionPatch) (core.Transaction, error) {
	tx, err := s.ledger.Update(id, patch)
	if err != nil {
		s.logRejected(ctx, log.OpUpdate, err)
		return core.Transaction{}, err
	}
	s.committed(ctx, log.OpUpdate, amqp.EventUpdated, tx)
	return tx, nil
}

// Delete removes id and reports whether it existed.
func (s *LedgerService) Delete(ctx context.Context, id string) bool {
	tx, ok := s.ledger.Get(id)
	if !ok || !s.ledger.Delete(id) {
		return false
	}
	s.committed(ctx, log.OpDelete, amqp.EventDeleted, tx)
	return true
}

func (s *LedgerService) Get(id string) (core.Transaction, bool) {
	return s.ledger.Get(id)
}

func (s *LedgerService) List() []core.Transaction {
	return s.ledger.ListAll()
}

func (s *LedgerService) Filter(f core.Filter) ([]core.Transaction, error) {
	return s.ledger.Filter(f)
}

func (s *LedgerService) Categories() []string {
	return s.ledger.Categories()
}

// MonthlySummary returns the cached summary for month, computing it on a miss.
func (s *LedgerService) MonthlySummary(month string) (core.MonthlySummary, error) {
	if sum, ok := s.summaries.Get(month); ok {
		return sum, nil
	}
	sum, err := core.Summarize(s.ledger, month)
	if err != nil {
		return core.MonthlySummary{}, err
	}
	s.summaries.Set(month, sum)
	return sum, nil
}

// CategoryTotals returns per-category totals, cached per month and type.
func (s *LedgerService) CategoryTotals(month string, txType core.TxType) ([]core.CategoryTotal, error) {
	key := month + "|" + string(txType)
	if totals, ok := s.totals.Get(key); ok {
		return slices.Clone(totals), nil
	}
	totals, err := core.CategoryTotals(s.ledger, month, txType)
	if err != nil {
		return nil, err
	}
	s.totals.Set(key, totals)
	return slices.Clone(totals), nil
}

// TopCategories returns the n largest categories of txType in month.
func (s *LedgerService) TopCategories(month string, n int, txType core.TxType) ([]core.CategoryTotal, error) {
	if n <= 0 {
		return core.TopCategories(s.ledger, month, n, txType)
	}
	totals, err := s.CategoryTotals(month, txType)
	if err != nil {
		return nil, err
	}
	if len(totals) > n {
		totals = totals[:n]
	}
	return totals, nil
}

func (s *LedgerService) DailySpendTrend(month string) ([]core.DailyTotal, error) {
	return core.DailySpendTrend(s.ledger, month)
}

// ExportCSV writes the ledger to a CSV file.
func (s *LedgerService) ExportCSV(ctx context.Context, path string) error {
	if err := storage.ExportCSVFile(path, s.ledger); err != nil {
		return fmt.Errorf("export csv: %w", err)
	}
	s.logger.InfoContext(ctx, "Ledger exported",
		log.FieldOperation, log.OpExport,
		log.FieldPath, path,
		log.FieldCount, s.ledger.Len())
	return nil
}

// ImportCSV replaces the current ledger with the contents of a CSV file. On
// any error the current ledger is kept.
func (s *LedgerService) ImportCSV(ctx context.Context, path string) (int, error) {
	imported, err := storage.ImportCSVFile(path)
	if err != nil {
		s.logRejected(ctx, log.OpImport, err)
		return 0, fmt.Errorf("import csv: %w", err)
	}
	s.ledger = imported
	s.dirty = true
	s.invalidate()

	s.logger.InfoContext(ctx, "Ledger imported",
		log.FieldOperation, log.OpImport,
		log.FieldPath, path,
		log.FieldCount, imported.Len())
	s.publish(ctx, amqp.NewImportEvent(imported.Len()))
	return imported.Len(), nil
}

// Close releases the store and the publisher, if it holds resources.
func (s *LedgerService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %w", errors.Join(errs...))
	}
	return nil
}

func (s *LedgerService) committed(ctx context.Context, op string, event amqp.EventType, tx core.Transaction) {
	s.dirty = true
	s.invalidate()
	s.logger.DebugContext(ctx, "Ledger mutated", log.NewFields().
		WithOperation(op).
		WithTransaction(tx.ID, tx.Month(), tx.Type.String(), tx.Category, tx.Amount).
		ToSlice()...)
	s.publish(ctx, amqp.NewLedgerEvent(event, tx.ID, tx.Month()))
}

// publish never fails the caller: the mutation is already applied locally.
func (s *LedgerService) publish(ctx context.Context, event *amqp.LedgerEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishLedgerEvent(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish ledger event",
			log.FieldEvent, event.Type,
			log.FieldTransactionID, event.TransactionID,
			log.FieldError, err)
	}
}

func (s *LedgerService) logRejected(ctx context.Context, op string, err error) {
	kind := log.ErrorTypeInternal
	switch {
	case errors.Is(err, core.ErrValidation):
		kind = log.ErrorTypeValidation
	case errors.Is(err, core.ErrNotFound):
		kind = log.ErrorTypeNotFound
	default:
		var cerr *storage.CSVError
		if errors.As(err, &cerr) {
			kind = log.ErrorTypeConversion
		}
	}
	s.logger.DebugContext(ctx, "Ledger operation rejected", log.NewFields().
		WithOperation(op).
		WithErrorType(kind).
		WithError(err).
		ToSlice()...)
}

func (s *LedgerService) invalidate() {
	if n := s.summaries.Size() + s.totals.Size(); n > 0 {
		s.logger.Debug("Report cache cleared", log.FieldCount, n)
	}
	s.summaries.Clear()
	s.totals.Clear()
}
