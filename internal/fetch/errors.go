package fetch

import "fmt"

// TransferError reports a non-success status on the initial response.
type TransferError struct {
	URL        string
	StatusCode int
	Reason     string
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer %s failed: %d - %s", e.URL, e.StatusCode, e.Reason)
}

// StreamReadError reports a failure while reading the body. Bytes read so
// far are discarded.
type StreamReadError struct {
	URL    string
	Loaded int64
	Err    error
}

func (e *StreamReadError) Error() string {
	return fmt.Sprintf("read %s after %d bytes: %v", e.URL, e.Loaded, e.Err)
}

func (e *StreamReadError) Unwrap() error {
	return e.Err
}
