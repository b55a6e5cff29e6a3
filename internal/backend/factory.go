package backend

import (
	"context"
	"fmt"

	"budgetbuddy/internal/amqp"
	"budgetbuddy/internal/log"
	"budgetbuddy/internal/services"
	"budgetbuddy/internal/storage"
)

// DialFunc connects an event publisher.
type DialFunc func(url, exchange, routingKey string) (services.EventPublisher, error)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
	dial   DialFunc
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) *DefaultFactory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
		dial:   dialAMQP,
	}
}

func dialAMQP(url, exchange, routingKey string) (services.EventPublisher, error) {
	client, err := amqp.NewClient(url, exchange, routingKey)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	store, err := f.createStore(config)
	if err != nil {
		return nil, err
	}

	svc := services.NewLedgerService(store, services.Options{
		Publisher: f.createPublisher(config),
		CacheSize: config.ReportCacheSize,
		CacheTTL:  config.ReportCacheTTL,
		Logger:    f.logger,
	})

	if err := svc.Load(ctx); err != nil {
		_ = svc.Close()
		return nil, err
	}

	return &BackendResult{
		Service: svc,
		Cleanup: svc.Close,
	}, nil
}

func (f *DefaultFactory) createStore(config Config) (storage.Store, error) {
	switch config.Type {
	case SQLiteBackend:
		store, err := storage.NewSQLiteStore(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", log.FieldPath, config.SQLiteDBPath)
		return store, nil
	case JSONBackend:
		f.logger.Info("Initialized JSON backend", log.FieldPath, config.JSONFile)
		return storage.NewJSONStore(config.JSONFile), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// createPublisher returns nil when events are disabled or the broker is
// unreachable; the ledger works without it.
func (f *DefaultFactory) createPublisher(config Config) services.EventPublisher {
	if config.AMQPURL == "" {
		return nil
	}
	pub, err := f.dial(config.AMQPURL, config.AMQPExchange, config.AMQPRoutingKey)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		return nil
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"routing_key", config.AMQPRoutingKey)
	return pub
}
