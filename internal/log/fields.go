package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldScope      = "scope"
	FieldProvider   = "provider"
	FieldTicker     = "ticker"
	FieldCurrency   = "currency"
	FieldAccount    = "account"
	FieldFund       = "fund"
	FieldCount      = "count"
	FieldWindow     = "window"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentStorage   = "storage"
	ComponentSplitwise = "splitwise"
	ComponentRates     = "rates"
	ComponentPrices    = "prices"
	ComponentInflation = "inflation"
	ComponentPortfolio = "portfolio"
	ComponentSheets    = "sheets"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentBackend   = "backend"
	ComponentCache     = "cache"
	ComponentTemplate  = "template"
)

// Operations defines standard operation names
const (
	OpRefresh  = "refresh"
	OpFetch    = "fetch"
	OpConvert  = "convert"
	OpReplay   = "replay"
	OpUpsert   = "upsert"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpMigrate  = "migrate"
	OpRender   = "render"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeUpstream      = "upstream_error"
	ErrorTypeTimeout       = "timeout_error"
	ErrorTypeInternal      = "internal_error"
)
