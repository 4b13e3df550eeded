package ports

import (
	"context"

	"saoke/internal/core"
	"saoke/internal/fetch"
)

// Ports for outbound adapters of the ingestion pipeline.
type (
	// PayloadFetcher retrieves the transaction file.
	PayloadFetcher interface {
		Fetch(ctx context.Context, url string, onProgress fetch.ProgressFunc) (fetch.Payload, error)
	}

	// ProgressObserver receives every transfer observation of a run.
	ProgressObserver interface {
		ObserveProgress(runID string, p fetch.Progress)
	}

	// RunPublisher announces completed runs to other systems.
	RunPublisher interface {
		PublishRunCompleted(ctx context.Context, runID, source string, summary core.Summary, buckets []core.Bucket) error
	}
)
