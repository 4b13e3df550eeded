package backend

import (
	"context"

	"saoke/internal/fetch"
	"saoke/internal/ports"
	"saoke/internal/table"
)

// Backend bundles the adapters an ingestion run writes to and reads from.
type Backend struct {
	Index     table.Index
	Transport fetch.Transport
	// Publisher is nil when AMQP is not configured or unreachable.
	Publisher ports.RunPublisher
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance and optional cleanup function
type BackendResult struct {
	Backend Backend
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// IndexType names a table index implementation
type IndexType string

const (
	SQLiteIndex IndexType = "sqlite"
	MemoryIndex IndexType = "memory"
)

func (t IndexType) String() string {
	return string(t)
}

func (t IndexType) IsValid() bool {
	switch t {
	case SQLiteIndex, MemoryIndex:
		return true
	default:
		return false
	}
}
