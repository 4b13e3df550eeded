package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"saoke/internal/amqp"
	"saoke/internal/fetch"
	"saoke/internal/storage"
	"saoke/internal/table"
	"saoke/internal/table/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var cleanups []func() error
	cleanup := func() error {
		var errs []error
		for i := len(cleanups) - 1; i >= 0; i-- {
			if err := cleanups[i](); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	index, err := f.createIndex(config)
	if err != nil {
		return nil, err
	}
	cleanups = append(cleanups, index.Close)

	transports := fetch.SchemeTransport{}
	httpTransport := fetch.NewHTTPTransport(config.FetchTimeout)
	transports["http"] = httpTransport
	transports["https"] = httpTransport
	if config.needsGCS() {
		gcs, err := fetch.NewGCSTransport(ctx, config.GCSAnonymous)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("failed to initialize Cloud Storage transport: %w", err)
		}
		transports["gs"] = gcs
		cleanups = append(cleanups, gcs.Close)
		f.logger.Info("Initialized Cloud Storage transport", "anonymous", config.GCSAnonymous)
	}

	result := &BackendResult{
		Backend: Backend{Index: index, Transport: transports},
		Cleanup: cleanup,
	}

	// AMQP is optional: a broker that cannot be reached only disables run events
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(ctx, config.AMQPURL, config.AMQPExchange, config.AMQPRoutingKey)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without run events", "error", err)
		} else {
			result.Backend.Publisher = client
			cleanups = append(cleanups, client.Close)
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"routing_key", config.AMQPRoutingKey)
		}
	}

	return result, nil
}

func (f *DefaultFactory) createIndex(config Config) (table.Index, error) {
	switch config.Index {
	case SQLiteIndex:
		idx, err := storage.NewRecordIndex()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite index: %w", err)
		}
		f.logger.Info("Initialized SQLite table index")
		return idx, nil
	case MemoryIndex:
		f.logger.Info("Initialized memory table index")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported table backend: %s", config.Index)
	}
}
