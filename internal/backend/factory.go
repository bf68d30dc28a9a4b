package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"carteira/internal/adapters"
	"carteira/internal/amqp"
	"carteira/internal/docstore"
	"carteira/internal/docstore/memory"
	"carteira/internal/docstore/sqlite"
)

type closableStore interface {
	docstore.Store
	Close() error
}

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
	// dial is replaced in tests.
	dial func(url, exchange, queue string) (*amqp.Client, error)
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
		dial:   amqp.NewClient,
	}
}

// CreateBackend opens the configured store and, when a broker is
// configured, wraps it so every committed change is published.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		store closableStore
		err   error
	)
	switch config.Type {
	case SQLiteBackend:
		store, err = sqlite.New(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	case MemoryBackend:
		store = memory.New()
		f.logger.InfoContext(ctx, "Initialized memory backend")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	result := &BackendResult{Store: store, Cleanup: store.Close}
	if config.AMQPURL == "" {
		return result, nil
	}

	client, err := f.dial(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without change publishing", "error", err)
		return result, nil
	}
	f.logger.InfoContext(ctx, "Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)

	result.Store = adapters.NewPublishingStore(store, client)
	result.AMQP = client
	result.Cleanup = func() error {
		return errors.Join(client.Close(), store.Close())
	}
	return result, nil
}
