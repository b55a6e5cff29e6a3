package backend

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetbuddy/internal/amqp"
	"budgetbuddy/internal/config"
	"budgetbuddy/internal/services"
)

type stubPublisher struct {
	events []*amqp.LedgerEvent
}

func (p *stubPublisher) PublishLedgerEvent(_ context.Context, e *amqp.LedgerEvent) error {
	p.events = append(p.events, e)
	return nil
}

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "sheets"})
	assert.ErrorContains(t, err, "must be one of json, sqlite")

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:     "sqlite",
		SQLiteDBPath:    "/tmp/x.db",
		AMQPURL:         "amqp://localhost/",
		AMQPExchange:    "budgetbuddy",
		AMQPRoutingKey:  "ledger_events",
		ReportCacheSize: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, cfg.Type)
	assert.Equal(t, "/tmp/x.db", cfg.SQLiteDBPath)
	assert.Equal(t, 4, cfg.ReportCacheSize)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"json ok", Config{Type: JSONBackend, JSONFile: "a.json"}, false},
		{"sqlite ok", Config{Type: SQLiteBackend, SQLiteDBPath: "a.db"}, false},
		{"json without file", Config{Type: JSONBackend}, true},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"unknown type", Config{Type: "sheets"}, true},
		{"amqp without routing key", Config{Type: JSONBackend, JSONFile: "a.json", AMQPURL: "amqp://x/", AMQPExchange: "e"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			assert.Equal(t, tt.wantErr, err != nil, "Validate() error = %v", err)
		})
	}
}

func TestConfig_ValidateListsBackendTypes(t *testing.T) {
	err := Config{Type: "sheets"}.Validate()
	assert.ErrorContains(t, err, "invalid backend type: sheets (must be one of json, sqlite)")
}

func TestFactory_CreateBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	for _, cfg := range []Config{
		{Type: JSONBackend, JSONFile: filepath.Join(dir, "ledger.json")},
		{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "ledger.db"), ReportCacheSize: 8},
	} {
		t.Run(cfg.Type.String(), func(t *testing.T) {
			result, err := NewFactory(nil).CreateBackend(ctx, cfg)
			require.NoError(t, err)

			_, err = result.Service.Create(ctx, "2026-01-02", "expense", "Food", 10, "")
			require.NoError(t, err)
			require.NoError(t, result.Service.Save(ctx))
			require.NoError(t, result.Cleanup())

			reopened, err := NewFactory(nil).CreateBackend(ctx, cfg)
			require.NoError(t, err)
			defer reopened.Cleanup()
			assert.Len(t, reopened.Service.List(), 1)
		})
	}
}

func TestFactory_PublisherWiring(t *testing.T) {
	ctx := context.Background()
	base := Config{
		Type:           JSONBackend,
		JSONFile:       filepath.Join(t.TempDir(), "ledger.json"),
		AMQPURL:        "amqp://localhost/",
		AMQPExchange:   "budgetbuddy",
		AMQPRoutingKey: "ledger_events",
	}

	t.Run("connected", func(t *testing.T) {
		pub := &stubPublisher{}
		f := NewFactory(nil)
		f.dial = func(url, exchange, routingKey string) (services.EventPublisher, error) {
			assert.Equal(t, base.AMQPExchange, exchange)
			assert.Equal(t, base.AMQPRoutingKey, routingKey)
			return pub, nil
		}

		result, err := f.CreateBackend(ctx, base)
		require.NoError(t, err)
		_, err = result.Service.Create(ctx, "2026-01-02", "expense", "Food", 10, "")
		require.NoError(t, err)
		assert.Len(t, pub.events, 1)
	})

	t.Run("broker unreachable", func(t *testing.T) {
		f := NewFactory(nil)
		f.dial = func(string, string, string) (services.EventPublisher, error) {
			return nil, errors.New("connection refused")
		}

		result, err := f.CreateBackend(ctx, base)
		require.NoError(t, err)
		_, err = result.Service.Create(ctx, "2026-01-02", "expense", "Food", 10, "")
		assert.NoError(t, err)
	})
}
