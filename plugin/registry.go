package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit                []OnInit
	onShutdown            []OnShutdown
	onTransactionAppended []OnTransactionAppended
	onPaymentLocked       []OnPaymentLocked
	onPaymentCompleted    []OnPaymentCompleted
	onPaymentCanceled     []OnPaymentCanceled
	onOrderPlaced         []OnOrderPlaced
	onOrderStatusChanged  []OnOrderStatusChanged
	onOrderFulfilled      []OnOrderFulfilled
	onOrderFailed         []OnOrderFailed
	onProviderSync        []OnProviderSync
	onSyncBatchCompleted  []OnSyncBatchCompleted
	providerPlugins       []ProviderPlugin
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnTransactionAppended); ok {
		r.onTransactionAppended = append(r.onTransactionAppended, v)
	}
	if v, ok := p.(OnPaymentLocked); ok {
		r.onPaymentLocked = append(r.onPaymentLocked, v)
	}
	if v, ok := p.(OnPaymentCompleted); ok {
		r.onPaymentCompleted = append(r.onPaymentCompleted, v)
	}
	if v, ok := p.(OnPaymentCanceled); ok {
		r.onPaymentCanceled = append(r.onPaymentCanceled, v)
	}
	if v, ok := p.(OnOrderPlaced); ok {
		r.onOrderPlaced = append(r.onOrderPlaced, v)
	}
	if v, ok := p.(OnOrderStatusChanged); ok {
		r.onOrderStatusChanged = append(r.onOrderStatusChanged, v)
	}
	if v, ok := p.(OnOrderFulfilled); ok {
		r.onOrderFulfilled = append(r.onOrderFulfilled, v)
	}
	if v, ok := p.(OnOrderFailed); ok {
		r.onOrderFailed = append(r.onOrderFailed, v)
	}
	if v, ok := p.(OnProviderSync); ok {
		r.onProviderSync = append(r.onProviderSync, v)
	}
	if v, ok := p.(OnSyncBatchCompleted); ok {
		r.onSyncBatchCompleted = append(r.onSyncBatchCompleted, v)
	}
	if v, ok := p.(ProviderPlugin); ok {
		r.providerPlugins = append(r.providerPlugins, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	// Check each interface
	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	// List all interfaces to check
	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnTransactionAppended)(nil)).Elem(), "OnTransactionAppended")
	checkInterface(reflect.TypeOf((*OnPaymentLocked)(nil)).Elem(), "OnPaymentLocked")
	checkInterface(reflect.TypeOf((*OnPaymentCompleted)(nil)).Elem(), "OnPaymentCompleted")
	checkInterface(reflect.TypeOf((*OnOrderPlaced)(nil)).Elem(), "OnOrderPlaced")
	checkInterface(reflect.TypeOf((*OnOrderStatusChanged)(nil)).Elem(), "OnOrderStatusChanged")
	checkInterface(reflect.TypeOf((*OnProviderSync)(nil)).Elem(), "OnProviderSync")
	checkInterface(reflect.TypeOf((*ProviderPlugin)(nil)).Elem(), "ProviderPlugin")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, engine)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitTransactionAppended emits a ledger entry appended event.
func (r *Registry) EmitTransactionAppended(ctx context.Context, tx interface{}) {
	r.mu.RLock()
	plugins := r.onTransactionAppended
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTransactionAppended(ctx, tx)
		}); err != nil {
			r.logger.Warn("plugin OnTransactionAppended failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPaymentLocked emits a payment locked event.
func (r *Registry) EmitPaymentLocked(ctx context.Context, orderID string, amount int64) {
	r.mu.RLock()
	plugins := r.onPaymentLocked
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPaymentLocked(ctx, orderID, amount)
		}); err != nil {
			r.logger.Warn("plugin OnPaymentLocked failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPaymentCompleted emits a payment completed event.
func (r *Registry) EmitPaymentCompleted(ctx context.Context, orderID string, amount int64) {
	r.mu.RLock()
	plugins := r.onPaymentCompleted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPaymentCompleted(ctx, orderID, amount)
		}); err != nil {
			r.logger.Warn("plugin OnPaymentCompleted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPaymentCanceled emits a payment canceled event.
func (r *Registry) EmitPaymentCanceled(ctx context.Context, orderID string, amount int64) {
	r.mu.RLock()
	plugins := r.onPaymentCanceled
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPaymentCanceled(ctx, orderID, amount)
		}); err != nil {
			r.logger.Warn("plugin OnPaymentCanceled failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitOrderPlaced emits an order placed event.
func (r *Registry) EmitOrderPlaced(ctx context.Context, ord interface{}) {
	r.mu.RLock()
	plugins := r.onOrderPlaced
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnOrderPlaced(ctx, ord)
		}); err != nil {
			r.logger.Warn("plugin OnOrderPlaced failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitOrderStatusChanged emits an order status changed event.
func (r *Registry) EmitOrderStatusChanged(ctx context.Context, ord interface{}, from, to string) {
	r.mu.RLock()
	plugins := r.onOrderStatusChanged
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnOrderStatusChanged(ctx, ord, from, to)
		}); err != nil {
			r.logger.Warn("plugin OnOrderStatusChanged failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitOrderFulfilled emits an order fulfilled event.
func (r *Registry) EmitOrderFulfilled(ctx context.Context, ord interface{}) {
	r.mu.RLock()
	plugins := r.onOrderFulfilled
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnOrderFulfilled(ctx, ord)
		}); err != nil {
			r.logger.Warn("plugin OnOrderFulfilled failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitOrderFailed emits an order failed event.
func (r *Registry) EmitOrderFailed(ctx context.Context, ord interface{}, failure error) {
	r.mu.RLock()
	plugins := r.onOrderFailed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnOrderFailed(ctx, ord, failure)
		}); err != nil {
			r.logger.Warn("plugin OnOrderFailed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitProviderSync emits a provider sync event.
func (r *Registry) EmitProviderSync(ctx context.Context, providerName string, success bool, syncErr error) {
	r.mu.RLock()
	plugins := r.onProviderSync
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnProviderSync(ctx, providerName, success, syncErr)
		}); err != nil {
			r.logger.Warn("plugin OnProviderSync failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitSyncBatchCompleted emits a sync batch completed event.
func (r *Registry) EmitSyncBatchCompleted(ctx context.Context, processed int, elapsed time.Duration) {
	r.mu.RLock()
	plugins := r.onSyncBatchCompleted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnSyncBatchCompleted(ctx, processed, elapsed)
		}); err != nil {
			r.logger.Warn("plugin OnSyncBatchCompleted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// GetProviderPlugins returns all registered provider variant plugins.
func (r *Registry) GetProviderPlugins() []ProviderPlugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]ProviderPlugin, len(r.providerPlugins))
	copy(result, r.providerPlugins)
	return result
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins must never block the order pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
