// Package fetch retrieves a payload over a byte-stream transport while
// reporting cumulative progress after every chunk.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"saoke/internal/core"
)

const (
	DefaultChunkSize = 64 * 1024

	// upper bound for buffer preallocation from a declared length
	maxPrealloc = 256 << 20
)

// Progress is one observation taken after a chunk has arrived. Total is -1
// when the transport did not declare a length.
type Progress struct {
	Loaded int64   `json:"loaded"`
	Total  int64   `json:"total"`
	Speed  float64 `json:"speed"` // bytes per second, averaged from the start
}

// TotalKnown reports whether the transport declared a length.
func (p Progress) TotalKnown() bool {
	return p.Total >= 0
}

// Percent returns the completed share in [0, 100], if the total is known.
func (p Progress) Percent() (float64, bool) {
	if p.Total <= 0 {
		return 0, false
	}
	return float64(p.Loaded) * 100 / float64(p.Total), true
}

func (p Progress) String() string {
	return fmt.Sprintf("%s/%s (%s/s)", core.FormatSize(float64(p.Loaded)), core.FormatSize(float64(p.Total)), core.FormatSize(p.Speed))
}

// ProgressFunc observes a transfer. It is called synchronously on the
// reading goroutine, so it must return quickly.
type ProgressFunc func(Progress)

// Payload is the assembled body and the declared content type.
type Payload struct {
	Data        []byte
	ContentType string
}

func (p Payload) Text() string {
	return string(p.Data)
}

type Fetcher struct {
	transport Transport
	chunkSize int
	now       func() time.Time
}

type Option func(*Fetcher)

// WithChunkSize bounds how many bytes one read may return.
func WithChunkSize(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.chunkSize = n
		}
	}
}

// WithClock replaces time.Now for speed computation.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) {
		if now != nil {
			f.now = now
		}
	}
}

func New(transport Transport, opts ...Option) *Fetcher {
	f := &Fetcher{
		transport: transport,
		chunkSize: DefaultChunkSize,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch opens url, reads it chunk by chunk and returns the assembled
// payload. onProgress may be nil.
//
// A non-success status yields *TransferError and a failed read yields
// *StreamReadError. No partial payload is returned on error.
func (f *Fetcher) Fetch(ctx context.Context, url string, onProgress ProgressFunc) (Payload, error) {
	resp, err := f.transport.Open(ctx, url)
	if err != nil {
		return Payload{}, fmt.Errorf("open transfer: %w", err)
	}
	if resp.Body != nil {
		defer resp.Body.Close()
	}
	if !resp.OK() {
		return Payload{}, &TransferError{URL: url, StatusCode: resp.StatusCode, Reason: resp.Reason}
	}
	if resp.Body == nil {
		return Payload{ContentType: resp.ContentType}, nil
	}

	total := resp.ContentLength
	if total < 0 {
		total = -1
	}
	var data bytes.Buffer
	if total > 0 {
		data.Grow(int(min(total, maxPrealloc)))
	}

	buf := make([]byte, f.chunkSize)
	var loaded int64
	start := f.now()
	for {
		if err := ctx.Err(); err != nil {
			return Payload{}, &StreamReadError{URL: url, Loaded: loaded, Err: err}
		}
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			data.Write(buf[:n])
			loaded += int64(n)
			if onProgress != nil {
				elapsed := float64(f.now().Sub(start).Milliseconds()+1) / 1000
				onProgress(Progress{Loaded: loaded, Total: total, Speed: float64(loaded) / elapsed})
			}
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return Payload{}, &StreamReadError{URL: url, Loaded: loaded, Err: rerr}
		}
	}

	return Payload{Data: data.Bytes(), ContentType: resp.ContentType}, nil
}
