package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GCSTransport reads gs://bucket/object sources from Cloud Storage.
type GCSTransport struct {
	client *storage.Client
}

// NewGCSTransport creates a storage client. Anonymous access works for
// public buckets without credentials.
func NewGCSTransport(ctx context.Context, anonymous bool) (*GCSTransport, error) {
	var opts []option.ClientOption
	if anonymous {
		opts = append(opts, option.WithoutAuthentication())
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSTransport{client: client}, nil
}

func (t *GCSTransport) Open(ctx context.Context, rawURL string) (*Response, error) {
	bucket, object, err := ParseGCSURL(rawURL)
	if err != nil {
		return nil, err
	}
	r, err := t.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		if code := gcsStatus(err); code != 0 {
			return &Response{StatusCode: code, Reason: http.StatusText(code), ContentLength: -1}, nil
		}
		return nil, fmt.Errorf("open GCS object reader: %w", err)
	}
	return &Response{
		StatusCode:    http.StatusOK,
		Reason:        http.StatusText(http.StatusOK),
		ContentLength: r.Attrs.Size,
		ContentType:   r.Attrs.ContentType,
		Body:          r,
	}, nil
}

func (t *GCSTransport) Close() error {
	return t.client.Close()
}

// ParseGCSURL splits gs://bucket/path/to/object.
func ParseGCSURL(rawURL string) (bucket, object string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "gs" {
		return "", "", fmt.Errorf("not a gs:// url: %s", rawURL)
	}
	object = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || object == "" {
		return "", "", fmt.Errorf("gs url must name a bucket and an object: %s", rawURL)
	}
	return u.Host, object, nil
}

// gcsStatus maps lookup failures to an HTTP status, 0 for anything else.
func gcsStatus(err error) int {
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return http.StatusNotFound
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code >= 400 {
		return apiErr.Code
	}
	return 0
}
