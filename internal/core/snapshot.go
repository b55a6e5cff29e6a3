package core

import "fmt"

// Snapshot is the persisted form of a ledger.
type Snapshot struct {
	Transactions []TransactionRecord `json:"transactions"`
}

// TransactionRecord is the wire form of a Transaction.
type TransactionRecord struct {
	ID       string  `json:"id"`
	Date     string  `json:"tx_date"`
	Type     string  `json:"tx_type"`
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Note     string  `json:"note"`
}

// Record converts t to its wire form.
func (t Transaction) Record() TransactionRecord {
	return TransactionRecord{
		ID:       t.ID,
		Date:     t.Date,
		Type:     string(t.Type),
		Category: t.Category,
		Amount:   t.Amount,
		Note:     t.Note,
	}
}

// Transaction converts r back to a domain value without validating it.
func (r TransactionRecord) Transaction() Transaction {
	return Transaction{
		ID:       r.ID,
		Date:     r.Date,
		Type:     TxType(r.Type),
		Category: r.Category,
		Amount:   r.Amount,
		Note:     r.Note,
	}
}

// Snapshot returns every transaction in canonical order.
func (l *Ledger) Snapshot() Snapshot {
	txs := l.ListAll()
	s := Snapshot{Transactions: make([]TransactionRecord, len(txs))}
	for i, tx := range txs {
		s.Transactions[i] = tx.Record()
	}
	return s
}

// FromSnapshot rebuilds a ledger, validating every record through Add. The
// first bad record aborts the load.
func FromSnapshot(s Snapshot) (*Ledger, error) {
	l := NewLedger()
	for i, r := range s.Transactions {
		if err := l.Add(r.Transaction()); err != nil {
			return nil, fmt.Errorf("record %d (id %q): %w", i, r.ID, err)
		}
	}
	return l, nil
}
