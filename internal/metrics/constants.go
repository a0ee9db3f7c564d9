package metrics

const (
	MetricNameHTTPRequestsTotal   = "referral_bot_http_requests_total"
	MetricNameHTTPRequestDuration = "referral_bot_http_request_duration_seconds"
	MetricNameLedgerOperations    = "referral_bot_ledger_operations_total"
	MetricNameCreditsGranted      = "referral_bot_credits_granted_total"
	MetricNameCreditsWithdrawn    = "referral_bot_credits_withdrawn_total"
	MetricNameAccountsTotal       = "referral_bot_accounts"
	MetricNameAccountsVerified    = "referral_bot_accounts_verified"
	MetricNameUpdatesHandled      = "referral_bot_updates_handled_total"
)

const (
	HelpTextHTTPRequestsTotal   = "Total number of HTTP requests served by the keep-alive server"
	HelpTextHTTPRequestDuration = "HTTP request latency in seconds"
	HelpTextLedgerOperations    = "Ledger operations by operation and outcome"
	HelpTextCreditsGranted      = "Credits added to balances, by kind"
	HelpTextCreditsWithdrawn    = "Credits removed from balances by withdrawals"
	HelpTextAccountsTotal       = "Number of known accounts"
	HelpTextAccountsVerified    = "Number of accounts marked as channel members"
	HelpTextUpdatesHandled      = "Telegram updates handled, by kind"
)

const (
	LabelMethod    = "method"
	LabelPath      = "path"
	LabelStatus    = "status"
	LabelOperation = "operation"
	LabelOutcome   = "outcome"
	LabelKind      = "kind"
)

// Outcome label values for ledger operations.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

var HTTPLatencyBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}
