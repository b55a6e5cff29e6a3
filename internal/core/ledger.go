package core

import (
	"cmp"
	"slices"
	"strings"
)

// Ledger holds the current set of transactions keyed by id. It is not safe
// for concurrent use.
type Ledger struct {
	txs map[string]Transaction
}

// Filter narrows ListAll. Empty fields match everything.
type Filter struct {
	Month    string // YYYY-MM
	Category string
	Type     string
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{txs: make(map[string]Transaction)}
}

// Create validates the inputs, assigns a fresh id and stores the result.
func (l *Ledger) Create(date, txType, category string, amount float64, note string) (Transaction, error) {
	id := newID()
	for l.has(id) {
		id = newID()
	}
	tx, err := newTransaction(id, date, txType, category, amount, note)
	if err != nil {
		return Transaction{}, err
	}
	l.txs[id] = tx
	return tx, nil
}

// Add stores an existing transaction, typically one read back from storage.
func (l *Ledger) Add(tx Transaction) error {
	id := strings.TrimSpace(tx.ID)
	if id == "" {
		return invalid("id", ErrEmptyID)
	}
	if l.has(id) {
		return invalid("id", ErrDuplicateID)
	}
	norm, err := newTransaction(id, tx.Date, string(tx.Type), tx.Category, tx.Amount, tx.Note)
	if err != nil {
		return err
	}
	l.txs[id] = norm
	return nil
}

// Get returns the transaction stored under id.
func (l *Ledger) Get(id string) (Transaction, bool) {
	tx, ok := l.txs[id]
	return tx, ok
}

// Update replaces the provided fields of the transaction under id. Nothing is
// written unless the merged value validates.
func (l *Ledger) Update(id string, p TransactionPatch) (Transaction, error) {
	cur, ok := l.txs[id]
	if !ok {
		return Transaction{}, &NotFoundError{ID: id}
	}
	next, err := newTransaction(
		cur.ID,
		p.Date.OrElse(cur.Date),
		p.Type.OrElse(string(cur.Type)),
		p.Category.OrElse(cur.Category),
		p.Amount.OrElse(cur.Amount),
		p.Note.OrElse(cur.Note),
	)
	if err != nil {
		return Transaction{}, err
	}
	l.txs[id] = next
	return next, nil
}

// Delete removes id and reports whether it was present.
func (l *Ledger) Delete(id string) bool {
	if !l.has(id) {
		return false
	}
	delete(l.txs, id)
	return true
}

// Len returns the number of stored transactions.
func (l *Ledger) Len() int {
	return len(l.txs)
}

// ListAll returns every transaction in canonical order.
func (l *Ledger) ListAll() []Transaction {
	out := make([]Transaction, 0, len(l.txs))
	for _, tx := range l.txs {
		out = append(out, tx)
	}
	slices.SortFunc(out, compareTransactions)
	return out
}

// Filter returns the transactions matching f in canonical order.
func (l *Ledger) Filter(f Filter) ([]Transaction, error) {
	if f.Month != "" {
		if err := ValidateMonth(f.Month); err != nil {
			return nil, err
		}
	}
	var txType TxType
	if strings.TrimSpace(f.Type) != "" {
		t, err := ParseTxType(f.Type)
		if err != nil {
			return nil, err
		}
		txType = t
	}
	category := strings.TrimSpace(f.Category)

	out := make([]Transaction, 0)
	for _, tx := range l.ListAll() {
		if f.Month != "" && tx.Month() != f.Month {
			continue
		}
		if category != "" && !strings.EqualFold(tx.Category, category) {
			continue
		}
		if txType != "" && tx.Type != txType {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

// Categories returns the distinct category names, compared case-insensitively,
// keeping the spelling that sorts first in canonical order.
func (l *Ledger) Categories() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, tx := range l.ListAll() {
		key := strings.ToLower(tx.Category)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tx.Category)
	}
	slices.SortFunc(out, compareFold)
	return out
}

func (l *Ledger) has(id string) bool {
	_, ok := l.txs[id]
	return ok
}

// compareTransactions orders by date, type, category, amount, then id.
func compareTransactions(a, b Transaction) int {
	return cmp.Or(
		strings.Compare(a.Date, b.Date),
		strings.Compare(string(a.Type), string(b.Type)),
		strings.Compare(a.Category, b.Category),
		cmp.Compare(a.Amount, b.Amount),
		strings.Compare(a.ID, b.ID),
	)
}

func compareFold(a, b string) int {
	return cmp.Or(
		strings.Compare(strings.ToLower(a), strings.ToLower(b)),
		strings.Compare(a, b),
	)
}
