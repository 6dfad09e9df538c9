package audithook

// Action constants for audit events.
const (
	// Ledger actions
	ActionTransactionAppended = "transaction.appended"
	ActionPaymentLocked       = "payment.locked"
	ActionPaymentCompleted    = "payment.completed"
	ActionPaymentCanceled     = "payment.canceled"

	// Order actions
	ActionOrderPlaced        = "order.placed"
	ActionOrderStatusChanged = "order.status_changed"
	ActionOrderFulfilled     = "order.fulfilled"
	ActionOrderFailed        = "order.failed"

	// Provider actions
	ActionProviderSync = "provider.sync"
	ActionSyncBatch    = "sync.batch_completed"
)

// Resource constants for audit events.
const (
	ResourceTransaction = "transaction"
	ResourceOrder       = "order"
	ResourceProvider    = "provider"
)

// Category constants for audit events.
const (
	CategoryLedger      = "ledger"
	CategoryOrder       = "order"
	CategoryPayment     = "payment"
	CategoryIntegration = "integration"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
