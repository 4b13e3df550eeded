package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldQuery         = "query"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldDurationHuman = "duration_human"
	FieldUserAgent     = "user_agent"
	FieldSuccess       = "success"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldRunID         = "run_id"
	FieldSource        = "source"
	FieldLoaded        = "loaded_bytes"
	FieldTotal         = "total_bytes"
	FieldSpeed         = "speed_bps"
	FieldRecords       = "records"
	FieldAmountTotal   = "amount_total"
	FieldBackend       = "backend"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentIngest    = "ingest"
	ComponentFetch     = "fetch"
	ComponentParse     = "parse"
	ComponentAggregate = "aggregate"
	ComponentTable     = "table"
	ComponentAMQP      = "amqp"
	ComponentCache     = "cache"
	ComponentProgress  = "progress"
	ComponentTrace     = "trace"
	ComponentBackend   = "backend"
)

// Operations defines standard operation names
const (
	OpFetch     = "fetch"
	OpParse     = "parse"
	OpSummarize = "summarize"
	OpBucket    = "bucket"
	OpIndex     = "index"
	OpQuery     = "query"
	OpPublish   = "publish"
	OpReload    = "reload"
	OpShutdown  = "shutdown"
	OpStartup   = "startup"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeTransfer      = "transfer_error"
	ErrorTypeStream        = "stream_read_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithRequestID adds request ID field
func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithRun adds the run identity
func (f LogFields) WithRun(runID, source string) LogFields {
	f[FieldRunID] = runID
	f[FieldSource] = source
	return f
}

// WithProgress adds transfer progress fields; total is -1 when unknown
func (f LogFields) WithProgress(loaded, total int64, speed float64) LogFields {
	f[FieldLoaded] = loaded
	f[FieldTotal] = total
	f[FieldSpeed] = int64(speed)
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	f[FieldUserAgent] = userAgent
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
