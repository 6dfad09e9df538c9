// Package audithook bridges engine lifecycle events to an audit trail
// backend.
//
// It defines a local Recorder interface so the package does not depend on
// any particular audit system. Callers inject a RecorderFunc adapter that
// bridges to their backend at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vendra/vendra/order"
	"github.com/vendra/vendra/plugin"
	"github.com/vendra/vendra/wallet"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                = (*Extension)(nil)
	_ plugin.OnTransactionAppended = (*Extension)(nil)
	_ plugin.OnPaymentLocked       = (*Extension)(nil)
	_ plugin.OnPaymentCompleted    = (*Extension)(nil)
	_ plugin.OnPaymentCanceled     = (*Extension)(nil)
	_ plugin.OnOrderPlaced         = (*Extension)(nil)
	_ plugin.OnOrderStatusChanged  = (*Extension)(nil)
	_ plugin.OnOrderFulfilled      = (*Extension)(nil)
	_ plugin.OnOrderFailed         = (*Extension)(nil)
	_ plugin.OnProviderSync        = (*Extension)(nil)
	_ plugin.OnSyncBatchCompleted  = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement. It is
// defined locally so the package stays backend-agnostic.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges engine lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Ledger hooks
// ──────────────────────────────────────────────────

// OnTransactionAppended implements plugin.OnTransactionAppended.
func (e *Extension) OnTransactionAppended(ctx context.Context, tx interface{}) error {
	entry, ok := tx.(*wallet.Transaction)
	if !ok {
		return nil
	}
	return e.record(ctx, ActionTransactionAppended, SeverityInfo, OutcomeSuccess,
		ResourceTransaction, entry.ID.String(), CategoryLedger, nil,
		"wallet_id", entry.WalletID.String(),
		"type", string(entry.Type),
		"amount", entry.Amount,
		"currency", entry.Currency,
	)
}

// OnPaymentLocked implements plugin.OnPaymentLocked.
func (e *Extension) OnPaymentLocked(ctx context.Context, orderID string, amount int64) error {
	return e.record(ctx, ActionPaymentLocked, SeverityInfo, OutcomeSuccess,
		ResourceOrder, orderID, CategoryPayment, nil,
		"amount", amount,
	)
}

// OnPaymentCompleted implements plugin.OnPaymentCompleted.
func (e *Extension) OnPaymentCompleted(ctx context.Context, orderID string, amount int64) error {
	return e.record(ctx, ActionPaymentCompleted, SeverityInfo, OutcomeSuccess,
		ResourceOrder, orderID, CategoryPayment, nil,
		"amount", amount,
	)
}

// OnPaymentCanceled implements plugin.OnPaymentCanceled.
func (e *Extension) OnPaymentCanceled(ctx context.Context, orderID string, amount int64) error {
	return e.record(ctx, ActionPaymentCanceled, SeverityWarning, OutcomeSuccess,
		ResourceOrder, orderID, CategoryPayment, nil,
		"amount", amount,
	)
}

// ──────────────────────────────────────────────────
// Order hooks
// ──────────────────────────────────────────────────

// OnOrderPlaced implements plugin.OnOrderPlaced.
func (e *Extension) OnOrderPlaced(ctx context.Context, ord interface{}) error {
	o, ok := ord.(*order.Order)
	if !ok {
		return nil
	}
	return e.record(ctx, ActionOrderPlaced, SeverityInfo, OutcomeSuccess,
		ResourceOrder, o.ID.String(), CategoryOrder, nil,
		"order_number", o.OrderNumber,
		"service_id", o.ServiceID.String(),
		"total", o.TotalAmount.Amount,
	)
}

// OnOrderStatusChanged implements plugin.OnOrderStatusChanged.
func (e *Extension) OnOrderStatusChanged(ctx context.Context, ord interface{}, from, to string) error {
	var resourceID string
	if o, ok := ord.(*order.Order); ok {
		resourceID = o.ID.String()
	}
	return e.record(ctx, ActionOrderStatusChanged, SeverityInfo, OutcomeSuccess,
		ResourceOrder, resourceID, CategoryOrder, nil,
		"from", from,
		"to", to,
	)
}

// OnOrderFulfilled implements plugin.OnOrderFulfilled.
func (e *Extension) OnOrderFulfilled(ctx context.Context, ord interface{}) error {
	o, ok := ord.(*order.Order)
	if !ok {
		return nil
	}
	return e.record(ctx, ActionOrderFulfilled, SeverityInfo, OutcomeSuccess,
		ResourceOrder, o.ID.String(), CategoryOrder, nil,
		"provider_order_id", o.ProviderOrderID,
	)
}

// OnOrderFailed implements plugin.OnOrderFailed.
func (e *Extension) OnOrderFailed(ctx context.Context, ord interface{}, failure error) error {
	var resourceID string
	if o, ok := ord.(*order.Order); ok {
		resourceID = o.ID.String()
	}
	return e.record(ctx, ActionOrderFailed, SeverityError, OutcomeFailure,
		ResourceOrder, resourceID, CategoryOrder, failure,
		"event", "order_failed",
	)
}

// ──────────────────────────────────────────────────
// Sync hooks
// ──────────────────────────────────────────────────

// OnProviderSync implements plugin.OnProviderSync.
func (e *Extension) OnProviderSync(ctx context.Context, providerName string, success bool, syncErr error) error {
	// Only audit failures to reduce noise.
	if success {
		return nil
	}
	return e.record(ctx, ActionProviderSync, SeverityWarning, OutcomeFailure,
		ResourceProvider, providerName, CategoryIntegration, syncErr,
		"provider", providerName,
	)
}

// OnSyncBatchCompleted implements plugin.OnSyncBatchCompleted.
func (e *Extension) OnSyncBatchCompleted(ctx context.Context, processed int, elapsed time.Duration) error {
	return e.record(ctx, ActionSyncBatch, SeverityInfo, OutcomeSuccess,
		ResourceProvider, "", CategoryIntegration, nil,
		"processed", processed,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audithook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
