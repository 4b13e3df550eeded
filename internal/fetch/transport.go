package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Response is the transport-neutral start of a transfer.
type Response struct {
	StatusCode    int
	Reason        string
	ContentLength int64 // -1 when not declared or unparseable
	ContentType   string
	Body          io.ReadCloser
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Transport opens a single transfer.
type Transport interface {
	Open(ctx context.Context, url string) (*Response, error)
}

// HTTPTransport issues one GET per transfer.
type HTTPTransport struct {
	Client    *http.Client
	UserAgent string
}

func NewHTTPTransport(timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{
		Client:    &http.Client{Timeout: timeout},
		UserAgent: "saoke/1.0",
	}
}

func (t *HTTPTransport) Open(ctx context.Context, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if t.UserAgent != "" {
		req.Header.Set("User-Agent", t.UserAgent)
	}
	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	length := ParseContentLength(resp.Header.Get("Content-Length"))
	if length < 0 && resp.ContentLength >= 0 && !resp.Uncompressed {
		length = resp.ContentLength
	}
	return &Response{
		StatusCode:    resp.StatusCode,
		Reason:        reasonPhrase(resp.StatusCode, resp.Status),
		ContentLength: length,
		ContentType:   resp.Header.Get("Content-Type"),
		Body:          resp.Body,
	}, nil
}

// ParseContentLength returns -1 for an absent or unparseable header.
func ParseContentLength(v string) int64 {
	v = strings.TrimSpace(v)
	if v == "" {
		return -1
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return -1
	}
	return n
}

// reasonPhrase strips the status code off "404 Not Found".
func reasonPhrase(code int, status string) string {
	reason := strings.TrimSpace(strings.TrimPrefix(status, strconv.Itoa(code)))
	if reason == "" {
		reason = http.StatusText(code)
	}
	return reason
}

// SchemeTransport routes a transfer by URL scheme.
type SchemeTransport map[string]Transport

func (m SchemeTransport) Open(ctx context.Context, rawURL string) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	t, ok := m[strings.ToLower(u.Scheme)]
	if !ok {
		return nil, fmt.Errorf("no transport for scheme %q", u.Scheme)
	}
	return t.Open(ctx, rawURL)
}
