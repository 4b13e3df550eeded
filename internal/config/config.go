package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Source
	SourceURL       string
	ChunkSize       int
	FetchTimeout    time.Duration
	GCSAnonymous    bool
	RangesFile      string
	ReloadOnStart   bool
	RefreshInterval time.Duration

	// Table
	TableBackend   string
	PageSize       int
	QueryCacheSize int
	QueryCacheTTL  time.Duration

	// AMQP (optional)
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8081"),

		SourceURL:       getEnv("SOURCE_URL", ""),
		ChunkSize:       getEnvInt("CHUNK_SIZE", 64*1024),
		FetchTimeout:    getEnvDuration("FETCH_TIMEOUT", 0),
		GCSAnonymous:    getEnvBool("GCS_ANONYMOUS", false),
		RangesFile:      getEnv("HISTOGRAM_RANGES_FILE", ""),
		ReloadOnStart:   getEnvBool("LOAD_ON_START", true),
		RefreshInterval: getEnvDuration("REFRESH_INTERVAL", 0),

		TableBackend:   getEnv("TABLE_BACKEND", "memory"),
		PageSize:       getEnvInt("PAGE_SIZE", 25),
		QueryCacheSize: getEnvInt("QUERY_CACHE_SIZE", 128),
		QueryCacheTTL:  getEnvDuration("QUERY_CACHE_TTL", 5*time.Minute),

		AMQPURL:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "saoke"),
		AMQPRoutingKey: getEnv("AMQP_ROUTING_KEY", "run.completed"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate source
	if c.SourceURL == "" {
		errors = append(errors, "SOURCE_URL is required")
	} else if u, err := url.Parse(c.SourceURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid source URL '%s': %v", c.SourceURL, err))
	} else {
		switch u.Scheme {
		case "http", "https":
			if u.Host == "" {
				errors = append(errors, fmt.Sprintf("invalid source URL '%s': missing host", c.SourceURL))
			}
		case "gs":
			if u.Host == "" || strings.TrimPrefix(u.Path, "/") == "" {
				errors = append(errors, fmt.Sprintf("invalid source URL '%s': gs URLs need a bucket and an object", c.SourceURL))
			}
		default:
			errors = append(errors, fmt.Sprintf("invalid source URL scheme '%s': must be 'http', 'https' or 'gs'", u.Scheme))
		}
	}

	if c.ChunkSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid chunk size %d: must be at least 1", c.ChunkSize))
	}
	if c.FetchTimeout < 0 {
		errors = append(errors, fmt.Sprintf("invalid fetch timeout %v: must not be negative", c.FetchTimeout))
	}
	if c.RefreshInterval < 0 {
		errors = append(errors, fmt.Sprintf("invalid refresh interval %v: must not be negative", c.RefreshInterval))
	}

	if c.RangesFile != "" {
		if _, err := os.Stat(c.RangesFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("histogram ranges file does not exist: %s", c.RangesFile))
		}
	}

	// Validate table backend
	validBackends := []string{"memory", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.TableBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid table backend '%s': must be one of %v", c.TableBackend, validBackends))
	}

	if c.PageSize < 1 || c.PageSize > 1000 {
		errors = append(errors, fmt.Sprintf("invalid page size %d: must be between 1 and 1000", c.PageSize))
	}
	if c.QueryCacheSize < 0 {
		errors = append(errors, fmt.Sprintf("invalid query cache size %d: must not be negative", c.QueryCacheSize))
	}
	if c.QueryCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid query cache TTL %v: must be at least 1 second", c.QueryCacheTTL))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPRoutingKey == "" {
			errors = append(errors, "AMQP routing key cannot be empty when AMQP URL is provided")
		}
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
