// Package worker runs background jobs of the server process.
package worker

import (
	"context"
	"errors"
	"time"

	"saoke/internal/log"
	"saoke/internal/services"
)

// Reloader runs the pipeline and installs its result.
type Reloader interface {
	Reload(ctx context.Context) (*services.Result, bool, error)
}

// RefreshWorker reloads the source on a fixed interval.
type RefreshWorker struct {
	reloader Reloader
	interval time.Duration
	logger   *log.Logger
}

func NewRefreshWorker(reloader Reloader, interval time.Duration, logger *log.Logger) *RefreshWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &RefreshWorker{
		reloader: reloader,
		interval: interval,
		logger:   logger.WithComponent(log.ComponentIngest),
	}
}

// Run blocks until ctx is done. Failed reloads are logged and retried on
// the next tick; the previous run stays installed.
func (w *RefreshWorker) Run(ctx context.Context) error {
	if w.interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.InfoContext(ctx, "Refresh worker started", "interval", w.interval)
	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "Refresh worker stopped")
			return nil
		case <-ticker.C:
			res, shared, err := w.reloader.Reload(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				w.logger.WarnContext(ctx, "Scheduled reload failed",
					log.NewFields().WithError(err).WithOperation(log.OpReload).ToSlice()...)
				continue
			}
			w.logger.InfoContext(ctx, "Scheduled reload completed",
				log.FieldRunID, res.RunID,
				log.FieldRecords, res.Summary.Count,
				"shared", shared)
		}
	}
}
