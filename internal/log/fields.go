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
	FieldUserAgent     = "user_agent"
	FieldReferer       = "referer"
	FieldSuccess       = "success"
	FieldError         = "error"
	FieldErrorType     = "error_type"
	FieldOperation     = "operation"
	FieldSource        = "source"
	FieldRows          = "rows"
	FieldDuplicates    = "duplicates_dropped"
	FieldDateSource    = "date_source"
	FieldDateNulls     = "date_nulls"
	FieldSalesStrategy = "sales_strategy"
	FieldSalesSource   = "sales_source"
	FieldDefaulted     = "defaulted_values"
	FieldNotices       = "notices"
	FieldFilters       = "filters"
	FieldInstance      = "instance_id"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentPipeline  = "pipeline"
	ComponentSource    = "source"
	ComponentDataset   = "dataset"
	ComponentReport    = "report"
	ComponentAMQP      = "amqp"
	ComponentCache     = "cache"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentTrace     = "trace"
	ComponentBackend   = "backend"
)

// Operations defines standard operation names
const (
	OpLoad       = "load"
	OpPrepare    = "prepare"
	OpReport     = "report"
	OpFilters    = "filters"
	OpReload     = "reload"
	OpInvalidate = "invalidate"
	OpImport     = "import"
	OpValidate   = "validate"
	OpParse      = "parse"
	OpPublish    = "publish"
	OpConsume    = "consume"
	OpShutdown   = "shutdown"
	OpStartup    = "startup"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeNotFound      = "not_found_error"
	ErrorTypeUnreadable    = "unreadable_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeTimeout       = "timeout_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError adds the error message; nil errors add nothing.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithErrorType(t string) LogFields {
	f[FieldErrorType] = t
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

func (f LogFields) WithSource(identity string) LogFields {
	f[FieldSource] = identity
	return f
}

// WithPreparation adds the outcome of preparing a dataset.
func (f LogFields) WithPreparation(rows, duplicates int, dateSource string, dateNulls int, strategy, salesSource string, defaulted int) LogFields {
	f[FieldRows] = rows
	f[FieldDuplicates] = duplicates
	f[FieldDateSource] = dateSource
	f[FieldDateNulls] = dateNulls
	f[FieldSalesStrategy] = strategy
	f[FieldSalesSource] = salesSource
	f[FieldDefaulted] = defaulted
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent, referer string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	f[FieldUserAgent] = userAgent
	f[FieldReferer] = referer
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
	return f
}

// ToSlice converts LogFields to key/value pairs for slog.
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
