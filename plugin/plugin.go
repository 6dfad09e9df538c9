// Package plugin provides an extensible hook system for Vendra.
// Plugins observe engine lifecycle events — ledger writes, order status
// changes, provider sync — without being able to mutate core state.
package plugin

import (
	"context"
	"time"

	"github.com/vendra/vendra/provider"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the engine is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Wallet ledger hooks
// ──────────────────────────────────────────────────

// OnTransactionAppended is called after a ledger entry is written.
type OnTransactionAppended interface {
	Plugin
	OnTransactionAppended(ctx context.Context, tx interface{}) error
}

// OnPaymentLocked is called when funds are locked for an order.
type OnPaymentLocked interface {
	Plugin
	OnPaymentLocked(ctx context.Context, orderID string, amount int64) error
}

// OnPaymentCompleted is called when locked funds are settled (unlock + debit).
type OnPaymentCompleted interface {
	Plugin
	OnPaymentCompleted(ctx context.Context, orderID string, amount int64) error
}

// OnPaymentCanceled is called when locked funds are released without a debit.
type OnPaymentCanceled interface {
	Plugin
	OnPaymentCanceled(ctx context.Context, orderID string, amount int64) error
}

// ──────────────────────────────────────────────────
// Order lifecycle hooks
// ──────────────────────────────────────────────────

// OnOrderPlaced is called when an order passes validation and pricing.
type OnOrderPlaced interface {
	Plugin
	OnOrderPlaced(ctx context.Context, order interface{}) error
}

// OnOrderStatusChanged is called after every accepted status transition.
type OnOrderStatusChanged interface {
	Plugin
	OnOrderStatusChanged(ctx context.Context, order interface{}, from, to string) error
}

// OnOrderFulfilled is called when a provider accepts an order.
type OnOrderFulfilled interface {
	Plugin
	OnOrderFulfilled(ctx context.Context, order interface{}) error
}

// OnOrderFailed is called when fulfillment fails.
type OnOrderFailed interface {
	Plugin
	OnOrderFailed(ctx context.Context, order interface{}, err error) error
}

// ──────────────────────────────────────────────────
// Provider sync hooks
// ──────────────────────────────────────────────────

// OnProviderSync is called after each provider status check.
type OnProviderSync interface {
	Plugin
	OnProviderSync(ctx context.Context, providerName string, success bool, err error) error
}

// OnSyncBatchCompleted is called after a sync batch finishes.
type OnSyncBatchCompleted interface {
	Plugin
	OnSyncBatchCompleted(ctx context.Context, processed int, elapsed time.Duration) error
}

// ──────────────────────────────────────────────────
// Provider variants
// ──────────────────────────────────────────────────

// ProviderPlugin contributes an additional provider variant to the
// engine's provider registry at startup.
type ProviderPlugin interface {
	Plugin
	ProviderType() string
	ProviderFactory() provider.Factory
}
