// Package services orchestrates one ingestion run: transfer, parse,
// aggregate and hand-off of the results to the configured sinks.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"saoke/internal/aggregate"
	"saoke/internal/core"
	"saoke/internal/fetch"
	"saoke/internal/log"
	"saoke/internal/parser"
	"saoke/internal/ports"
	"saoke/internal/table"
)

// Result is everything produced by one successful run.
type Result struct {
	RunID       string
	Source      string
	ContentType string
	Bytes       int
	Records     []core.Record
	Summary     core.Summary
	Buckets     []core.Bucket
	ParseStats  parser.Stats
	StartedAt   time.Time
	Duration    time.Duration
}

// Ingestor runs the pipeline against one source.
type Ingestor struct {
	source    string
	fetcher   ports.PayloadFetcher
	ranges    []core.Range
	index     table.Index
	publisher ports.RunPublisher
	observers []ports.ProgressObserver
	logger    *log.Logger
	slog      *log.StructuredLogger
	now       func() time.Time
	newID     func() string
}

type Option func(*Ingestor)

// WithIndex installs the records of every run into x.
func WithIndex(x table.Index) Option {
	return func(in *Ingestor) { in.index = x }
}

func WithPublisher(p ports.RunPublisher) Option {
	return func(in *Ingestor) { in.publisher = p }
}

func WithObserver(o ports.ProgressObserver) Option {
	return func(in *Ingestor) { in.observers = append(in.observers, o) }
}

func WithLogger(l *log.Logger) Option {
	return func(in *Ingestor) { in.logger = l }
}

// NewIngestor creates an ingestor. Nil ranges select the default ones.
func NewIngestor(source string, fetcher ports.PayloadFetcher, ranges []core.Range, opts ...Option) *Ingestor {
	if ranges == nil {
		ranges = aggregate.DefaultRanges()
	}
	in := &Ingestor{
		source:  source,
		fetcher: fetcher,
		ranges:  ranges,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(in)
	}
	if in.logger == nil {
		in.logger = log.New(log.DefaultConfig())
	}
	in.logger = in.logger.WithComponent(log.ComponentIngest)
	in.slog = log.NewStructuredLogger(in.logger)
	return in
}

func (in *Ingestor) Source() string {
	return in.source
}

func (in *Ingestor) Ranges() []core.Range {
	return in.ranges
}

// Run executes one pass of the pipeline. A transfer failure is returned
// wrapped and leaves every sink untouched.
func (in *Ingestor) Run(ctx context.Context) (*Result, error) {
	res := &Result{
		RunID:     in.newID(),
		Source:    in.source,
		StartedAt: in.now(),
	}
	in.logger.InfoContext(ctx, "Ingestion run started", log.FieldRunID, res.RunID, log.FieldSource, in.source)

	payload, err := in.fetcher.Fetch(ctx, in.source, func(p fetch.Progress) {
		in.slog.LogProgress(ctx, res.RunID, p.Loaded, p.Total, p.Speed)
		for _, o := range in.observers {
			o.ObserveProgress(res.RunID, p)
		}
	})
	if err != nil {
		in.slog.LogError(ctx, "Ingestion run failed", err, log.ComponentIngest, log.OpFetch,
			log.NewFields().WithRun(res.RunID, in.source))
		return nil, fmt.Errorf("fetch %s: %w", in.source, err)
	}
	res.ContentType = payload.ContentType
	res.Bytes = len(payload.Data)

	res.Records, res.ParseStats = parser.ParseWithStats(payload.Text())
	if res.ParseStats.Malformed > 0 || res.ParseStats.InvalidAmounts > 0 {
		in.logger.WarnContext(ctx, "Irregular lines in payload",
			log.FieldRunID, res.RunID,
			"malformed", res.ParseStats.Malformed,
			"invalid_amounts", res.ParseStats.InvalidAmounts)
	}

	res.Summary = aggregate.Summarize(res.Records)
	res.Buckets = aggregate.Histogram(res.Records, in.ranges)

	if in.index != nil {
		if err := in.index.Load(ctx, res.Records); err != nil {
			return nil, fmt.Errorf("index records: %w", err)
		}
	}

	res.Duration = in.now().Sub(res.StartedAt)
	in.slog.LogRunCompleted(ctx, res.RunID, in.source, res.Summary.Count, res.Summary.Total, res.Duration.Milliseconds())

	if in.publisher != nil {
		if err := in.publisher.PublishRunCompleted(ctx, res.RunID, in.source, res.Summary, res.Buckets); err != nil {
			in.slog.LogError(ctx, "Failed to publish run completed", err, log.ComponentAMQP, log.OpPublish,
				log.NewFields().WithRun(res.RunID, in.source))
		}
	}

	return res, nil
}
