package backend

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"saoke/internal/config"
)

// Config holds configuration for backend creation
type Config struct {
	Index IndexType

	// Transfer
	SourceURL    string
	FetchTimeout time.Duration
	GCSAnonymous bool

	// AMQP (optional)
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	indexType := IndexType(appConfig.TableBackend)
	if !indexType.IsValid() {
		return Config{}, fmt.Errorf("invalid table backend in config: %s", appConfig.TableBackend)
	}

	return Config{
		Index:          indexType,
		SourceURL:      appConfig.SourceURL,
		FetchTimeout:   appConfig.FetchTimeout,
		GCSAnonymous:   appConfig.GCSAnonymous,
		AMQPURL:        appConfig.AMQPURL,
		AMQPExchange:   appConfig.AMQPExchange,
		AMQPRoutingKey: appConfig.AMQPRoutingKey,
	}, nil
}

func (c Config) Validate() error {
	if !c.Index.IsValid() {
		return fmt.Errorf("invalid table backend: %s", c.Index)
	}
	if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPRoutingKey == "") {
		return fmt.Errorf("AMQP exchange and routing key are required when AMQP URL is set")
	}
	return nil
}

// needsGCS reports whether the source lives in Cloud Storage.
func (c Config) needsGCS() bool {
	u, err := url.Parse(c.SourceURL)
	return err == nil && strings.EqualFold(u.Scheme, "gs")
}

// GetIndexTypeStrings returns all valid table backend names
func GetIndexTypeStrings() []string {
	return []string{MemoryIndex.String(), SQLiteIndex.String()}
}
