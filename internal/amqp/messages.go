package amqp

import (
	"encoding/json"
	"time"
)

// EventType names what happened to the ledger.
type EventType string

const (
	EventCreated  EventType = "created"
	EventUpdated  EventType = "updated"
	EventDeleted  EventType = "deleted"
	EventImported EventType = "imported"
)

// LedgerEvent announces a committed ledger mutation. It carries ids, not
// amounts; consumers read the ledger for details.
type LedgerEvent struct {
	Type          EventType `json:"type"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Month         string    `json:"month,omitempty"`
	Count         int       `json:"count,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewLedgerEvent stamps an event for a single transaction.
func NewLedgerEvent(t EventType, transactionID, month string) *LedgerEvent {
	return &LedgerEvent{
		Type:          t,
		TransactionID: transactionID,
		Month:         month,
		Timestamp:     time.Now().UTC(),
	}
}

// NewImportEvent stamps an event for a bulk import of count transactions.
func NewImportEvent(count int) *LedgerEvent {
	return &LedgerEvent{
		Type:      EventImported,
		Count:     count,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON creates a message from JSON bytes
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
