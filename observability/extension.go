// Package observability provides a metrics extension that records engine
// lifecycle event counts through a pluggable MetricFactory. A Prometheus
// backed factory ships in this package.
package observability

import (
	"context"
	"time"

	"github.com/vendra/vendra/order"
	"github.com/vendra/vendra/plugin"
	"github.com/vendra/vendra/wallet"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                = (*MetricsExtension)(nil)
	_ plugin.OnInit                = (*MetricsExtension)(nil)
	_ plugin.OnTransactionAppended = (*MetricsExtension)(nil)
	_ plugin.OnPaymentLocked       = (*MetricsExtension)(nil)
	_ plugin.OnPaymentCompleted    = (*MetricsExtension)(nil)
	_ plugin.OnPaymentCanceled     = (*MetricsExtension)(nil)
	_ plugin.OnOrderPlaced         = (*MetricsExtension)(nil)
	_ plugin.OnOrderStatusChanged  = (*MetricsExtension)(nil)
	_ plugin.OnOrderFulfilled      = (*MetricsExtension)(nil)
	_ plugin.OnOrderFailed         = (*MetricsExtension)(nil)
	_ plugin.OnProviderSync        = (*MetricsExtension)(nil)
	_ plugin.OnSyncBatchCompleted  = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as an engine plugin to automatically track platform metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Ledger metrics
	TransactionsAppended Counter
	TransactionAmount    Histogram
	PaymentsLocked       Counter
	PaymentsCompleted    Counter
	PaymentsCanceled     Counter

	// Order metrics
	OrdersPlaced    Counter
	OrdersFulfilled Counter
	OrdersDelivered Counter
	OrdersFailed    Counter
	OrderTotal      Histogram

	// Provider metrics
	ProviderSyncSuccess Counter
	ProviderSyncFailure Counter
	SyncBatchSize       Histogram
	SyncBatchLatency    Histogram
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Ledger metrics
		TransactionsAppended: factory.Counter("vendra_transactions_appended_total"),
		TransactionAmount:    factory.Histogram("vendra_transaction_amount"),
		PaymentsLocked:       factory.Counter("vendra_payments_locked_total"),
		PaymentsCompleted:    factory.Counter("vendra_payments_completed_total"),
		PaymentsCanceled:     factory.Counter("vendra_payments_canceled_total"),

		// Order metrics
		OrdersPlaced:    factory.Counter("vendra_orders_placed_total"),
		OrdersFulfilled: factory.Counter("vendra_orders_fulfilled_total"),
		OrdersDelivered: factory.Counter("vendra_orders_delivered_total"),
		OrdersFailed:    factory.Counter("vendra_orders_failed_total"),
		OrderTotal:      factory.Histogram("vendra_order_total_amount"),

		// Provider metrics
		ProviderSyncSuccess: factory.Counter("vendra_provider_sync_success_total"),
		ProviderSyncFailure: factory.Counter("vendra_provider_sync_failure_total"),
		SyncBatchSize:       factory.Histogram("vendra_sync_batch_size"),
		SyncBatchLatency:    factory.Histogram("vendra_sync_batch_latency_ms"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	return nil
}

// ──────────────────────────────────────────────────
// Ledger hooks
// ──────────────────────────────────────────────────

// OnTransactionAppended implements plugin.OnTransactionAppended.
func (m *MetricsExtension) OnTransactionAppended(_ context.Context, tx interface{}) error {
	m.TransactionsAppended.Inc()
	if entry, ok := tx.(*wallet.Transaction); ok {
		m.TransactionAmount.Observe(float64(entry.Amount))
	}
	return nil
}

// OnPaymentLocked implements plugin.OnPaymentLocked.
func (m *MetricsExtension) OnPaymentLocked(_ context.Context, _ string, _ int64) error {
	m.PaymentsLocked.Inc()
	return nil
}

// OnPaymentCompleted implements plugin.OnPaymentCompleted.
func (m *MetricsExtension) OnPaymentCompleted(_ context.Context, _ string, _ int64) error {
	m.PaymentsCompleted.Inc()
	return nil
}

// OnPaymentCanceled implements plugin.OnPaymentCanceled.
func (m *MetricsExtension) OnPaymentCanceled(_ context.Context, _ string, _ int64) error {
	m.PaymentsCanceled.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Order hooks
// ──────────────────────────────────────────────────

// OnOrderPlaced implements plugin.OnOrderPlaced.
func (m *MetricsExtension) OnOrderPlaced(_ context.Context, ord interface{}) error {
	m.OrdersPlaced.Inc()
	if o, ok := ord.(*order.Order); ok {
		m.OrderTotal.Observe(float64(o.TotalAmount.Amount))
	}
	return nil
}

// OnOrderStatusChanged implements plugin.OnOrderStatusChanged.
func (m *MetricsExtension) OnOrderStatusChanged(_ context.Context, _ interface{}, _, to string) error {
	if to == string(order.StatusDelivered) {
		m.OrdersDelivered.Inc()
	}
	return nil
}

// OnOrderFulfilled implements plugin.OnOrderFulfilled.
func (m *MetricsExtension) OnOrderFulfilled(_ context.Context, _ interface{}) error {
	m.OrdersFulfilled.Inc()
	return nil
}

// OnOrderFailed implements plugin.OnOrderFailed.
func (m *MetricsExtension) OnOrderFailed(_ context.Context, _ interface{}, _ error) error {
	m.OrdersFailed.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Sync hooks
// ──────────────────────────────────────────────────

// OnProviderSync implements plugin.OnProviderSync.
func (m *MetricsExtension) OnProviderSync(_ context.Context, _ string, success bool, _ error) error {
	if success {
		m.ProviderSyncSuccess.Inc()
	} else {
		m.ProviderSyncFailure.Inc()
	}
	return nil
}

// OnSyncBatchCompleted implements plugin.OnSyncBatchCompleted.
func (m *MetricsExtension) OnSyncBatchCompleted(_ context.Context, processed int, elapsed time.Duration) error {
	m.SyncBatchSize.Observe(float64(processed))
	m.SyncBatchLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}
