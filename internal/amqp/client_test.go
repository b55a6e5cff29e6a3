package amqp

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publishCall struct {
	exchange, key string
	msg           amqp091.Publishing
}

type fakeChannel struct {
	declareErr error
	publishErr error
	published  []publishCall
	bound      [3]string
	deliveries chan amqp091.Delivery
	closed     bool
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error {
	return f.declareErr
}

func (f *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error) {
	return amqp091.Queue{Name: name}, nil
}

func (f *fakeChannel) QueueBind(name, key, exchange string, noWait bool, args amqp091.Table) error {
	f.bound = [3]string{name, key, exchange}
	return nil
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, publishCall{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp091.Table) (<-chan amqp091.Delivery, error) {
	return f.deliveries, nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

type fakeAcknowledger struct {
	acked, nacked, requeued int
}

func (a *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	a.acked++
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	a.nacked++
	if requeue {
		a.requeued++
	}
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func TestNewClient_SetupBindsQueue(t *testing.T) {
	ch := &fakeChannel{}
	c, err := newClientWithChannel(ch, "budgetbuddy", "ledger_events")
	require.NoError(t, err)
	assert.Equal(t, [3]string{"ledger_events", "ledger_events", "budgetbuddy"}, ch.bound)

	require.NoError(t, c.Close())
	assert.True(t, ch.closed)
}

func TestNewClient_SetupFailure(t *testing.T) {
	ch := &fakeChannel{declareErr: errors.New("access refused")}
	_, err := newClientWithChannel(ch, "budgetbuddy", "ledger_events")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declare exchange")
}

func TestClient_PublishLedgerEvent(t *testing.T) {
	ch := &fakeChannel{}
	c, err := newClientWithChannel(ch, "budgetbuddy", "ledger_events")
	require.NoError(t, err)

	event := NewLedgerEvent(EventCreated, "tx-1", "2026-01")
	require.NoError(t, c.PublishLedgerEvent(context.Background(), event))

	require.Len(t, ch.published, 1)
	call := ch.published[0]
	assert.Equal(t, "budgetbuddy", call.exchange)
	assert.Equal(t, "ledger_events", call.key)
	assert.Equal(t, "application/json", call.msg.ContentType)
	assert.Equal(t, amqp091.Persistent, call.msg.DeliveryMode)
	assert.Equal(t, "created", call.msg.Type)

	decoded, err := LedgerEventFromJSON(call.msg.Body)
	require.NoError(t, err)
	assert.Equal(t, "tx-1", decoded.TransactionID)
	assert.Equal(t, "2026-01", decoded.Month)
}

func TestClient_PublishLedgerEventError(t *testing.T) {
	ch := &fakeChannel{publishErr: errors.New("channel closed")}
	c, err := newClientWithChannel(ch, "budgetbuddy", "ledger_events")
	require.NoError(t, err)

	err = c.PublishLedgerEvent(context.Background(), NewImportEvent(3))
	assert.ErrorContains(t, err, "publish message")
}

func TestClient_ConsumeLedgerEvents(t *testing.T) {
	ch := &fakeChannel{deliveries: make(chan amqp091.Delivery, 4)}
	c, err := newClientWithChannel(ch, "budgetbuddy", "ledger_events")
	require.NoError(t, err)

	ack := &fakeAcknowledger{}
	good, _ := NewLedgerEvent(EventDeleted, "tx-9", "2026-02").ToJSON()
	poison, _ := NewLedgerEvent(EventCreated, "tx-poison", "2026-02").ToJSON()
	failing, _ := NewLedgerEvent(EventUpdated, "tx-fail", "2026-02").ToJSON()
	ch.deliveries <- amqp091.Delivery{Acknowledger: ack, Body: good}
	ch.deliveries <- amqp091.Delivery{Acknowledger: ack, Body: []byte("{garbage")}
	ch.deliveries <- amqp091.Delivery{Acknowledger: ack, Body: poison}
	ch.deliveries <- amqp091.Delivery{Acknowledger: ack, Body: failing}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var seen []string
	err = c.ConsumeLedgerEvents(ctx, func(e *LedgerEvent) error {
		seen = append(seen, e.TransactionID)
		if e.TransactionID == "tx-poison" {
			return fmt.Errorf("%w: bad payload", ErrDiscard)
		}
		if e.TransactionID == "tx-fail" {
			cancel()
			return errors.New("handler failed")
		}
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"tx-9", "tx-poison", "tx-fail"}, seen)
	assert.Equal(t, 1, ack.acked)
	assert.Equal(t, 3, ack.nacked)
	assert.Equal(t, 1, ack.requeued)
}

func TestLedgerEvent_JSON(t *testing.T) {
	event := NewImportEvent(12)
	data, err := event.ToJSON()
	require.NoError(t, err)
	assert.NotContains(t, string(data), "transaction_id")

	decoded, err := LedgerEventFromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, EventImported, decoded.Type)
	assert.Equal(t, 12, decoded.Count)
	assert.WithinDuration(t, event.Timestamp, decoded.Timestamp, time.Millisecond)
}

func TestLedgerEvent_InvalidJSON(t *testing.T) {
	_, err := LedgerEventFromJSON([]byte("not json"))
	assert.Error(t, err)
}
