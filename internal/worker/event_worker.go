package worker

import (
	"fmt"
	"maps"
	"sync"
	"time"

	"budgetbuddy/internal/amqp"
	"budgetbuddy/internal/log"
)

// Stats is a point-in-time view of the events an EventWorker has seen.
type Stats struct {
	Total   int
	ByType  map[amqp.EventType]int
	ByMonth map[string]int
	Last    time.Time
}

// EventWorker audits ledger change events consumed from AMQP. It logs each
// event and keeps running counts per event type and per month.
type EventWorker struct {
	logger *log.Logger

	mu      sync.Mutex
	total   int
	byType  map[amqp.EventType]int
	byMonth map[string]int
	last    time.Time
}

func NewEventWorker(logger *log.Logger) *EventWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &EventWorker{
		logger:  logger.WithComponent(log.ComponentAMQP),
		byType:  make(map[amqp.EventType]int),
		byMonth: make(map[string]int),
	}
}

// HandleLedgerEvent records a single event. Malformed events fail with
// amqp.ErrDiscard so they are not redelivered.
func (w *EventWorker) HandleLedgerEvent(event *amqp.LedgerEvent) error {
	switch event.Type {
	case amqp.EventCreated, amqp.EventUpdated, amqp.EventDeleted:
		if event.TransactionID == "" {
			return fmt.Errorf("%w: %s event without transaction id", amqp.ErrDiscard, event.Type)
		}
	case amqp.EventImported:
	default:
		return fmt.Errorf("%w: unknown event type %q", amqp.ErrDiscard, event.Type)
	}

	w.mu.Lock()
	w.total++
	w.byType[event.Type]++
	if event.Month != "" {
		w.byMonth[event.Month]++
	}
	if event.Timestamp.After(w.last) {
		w.last = event.Timestamp
	}
	w.mu.Unlock()

	w.logger.Info("Ledger event received",
		log.FieldEvent, string(event.Type),
		log.FieldTransactionID, event.TransactionID,
		log.FieldMonth, event.Month,
		log.FieldCount, event.Count)
	return nil
}

// Stats returns a copy of the current counters.
func (w *EventWorker) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Stats{
		Total:   w.total,
		ByType:  maps.Clone(w.byType),
		ByMonth: maps.Clone(w.byMonth),
		Last:    w.last,
	}
}

// LogStats writes the current counters at info level.
func (w *EventWorker) LogStats() {
	s := w.Stats()
	w.logger.Info("Ledger event stats",
		log.FieldCount, s.Total,
		"created", s.ByType[amqp.EventCreated],
		"updated", s.ByType[amqp.EventUpdated],
		"deleted", s.ByType[amqp.EventDeleted],
		"imported", s.ByType[amqp.EventImported],
		"months", len(s.ByMonth))
}
