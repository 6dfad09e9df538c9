package vendra

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/vendra/vendra/id"
	"github.com/vendra/vendra/order"
	"github.com/vendra/vendra/plugin"
	"github.com/vendra/vendra/pricing"
	"github.com/vendra/vendra/provider"
	"github.com/vendra/vendra/service"
	"github.com/vendra/vendra/store"
	"github.com/vendra/vendra/types"
	"github.com/vendra/vendra/wallet"
)

const defaultSyncBatchSize = 50

// Engine is the transactional core of the reseller platform. It owns the
// wallet ledger, the order lifecycle, pricing, and provider dispatch,
// all against a pluggable Store.
type Engine struct {
	store     store.Store
	providers *provider.Registry
	plugins   *plugin.Registry
	logger    *slog.Logger

	machine     *order.Machine
	itemMachine *order.Machine

	// Background sync worker
	stopChan chan struct{}
	wg       sync.WaitGroup

	// Configuration
	syncInterval  time.Duration
	syncBatchSize int
	syncRate      rate.Limit
	now           func() time.Time
}

// New creates a new Engine instance.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:         s,
		providers:     provider.NewRegistry(),
		plugins:       plugin.NewRegistry(),
		logger:        slog.Default(),
		machine:       order.NewMachine(),
		itemMachine:   order.NewItemMachine(),
		stopChan:      make(chan struct{}),
		syncInterval:  time.Minute,
		syncBatchSize: defaultSyncBatchSize,
		syncRate:      rate.Limit(10),
		now:           time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithProvider registers an additional provider variant.
func WithProvider(typeName string, factory provider.Factory) Option {
	return func(e *Engine) {
		_ = e.providers.Register(typeName, factory) //nolint:errcheck // best-effort registration during init
	}
}

// WithSyncConfig configures the background provider sync worker.
// A zero interval disables it. rps caps the provider status checks per
// second across the whole batch.
func WithSyncConfig(interval time.Duration, batchSize int, rps float64) Option {
	return func(e *Engine) {
		e.syncInterval = interval
		e.syncBatchSize = batchSize
		e.syncRate = rate.Limit(rps)
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// Start migrates the store, initializes plugins, and begins the
// background sync worker.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.store.Migrate(ctx); err != nil {
		return err
	}

	// Provider variants contributed by plugins join the registry before
	// any order placement can reference them.
	for _, pp := range e.plugins.GetProviderPlugins() {
		if err := e.providers.Register(pp.ProviderType(), pp.ProviderFactory()); err != nil {
			e.logger.Warn("provider plugin registration failed",
				"plugin", pp.Name(),
				"type", pp.ProviderType(),
				"error", err,
			)
		}
	}

	e.plugins.EmitInit(ctx, e)

	if e.syncInterval > 0 {
		e.wg.Add(1)
		go e.syncWorker(ctx)
	}

	e.logger.Info("engine started",
		"sync_interval", e.syncInterval,
		"sync_batch_size", e.syncBatchSize,
	)

	return nil
}

// Stop shuts down the Engine.
func (e *Engine) Stop() error {
	close(e.stopChan)
	e.wg.Wait()

	ctx := context.Background()
	e.plugins.EmitShutdown(ctx)

	return e.store.Close()
}

// Plugins returns the plugin registry.
func (e *Engine) Plugins() *plugin.Registry {
	return e.plugins
}

// Providers returns the provider registry.
func (e *Engine) Providers() *provider.Registry {
	return e.providers
}

// ──────────────────────────────────────────────────
// Account Management
// ──────────────────────────────────────────────────

// CreateAccount creates a platform account. Root accounts (no parent)
// get a wallet of their own via CreateWallet; sub-accounts spend from
// their root ancestor's wallet.
func (e *Engine) CreateAccount(ctx context.Context, a *wallet.Account) error {
	if a.ID.IsNil() {
		a.ID = id.New(id.PrefixAccount)
	}
	if !a.Role.Valid() {
		return ErrInvalidInput
	}
	if !a.ParentID.IsNil() {
		if _, err := e.store.GetAccount(ctx, a.ParentID); err != nil {
			return err
		}
	}
	a.Entity = types.NewEntity()

	return e.store.CreateAccount(ctx, a)
}

// GetAccount retrieves an account by ID.
func (e *Engine) GetAccount(ctx context.Context, accountID id.ID) (*wallet.Account, error) {
	return e.store.GetAccount(ctx, accountID)
}

// UpdateAccount updates an account.
func (e *Engine) UpdateAccount(ctx context.Context, a *wallet.Account) error {
	a.Touch()
	return e.store.UpdateAccount(ctx, a)
}

// ──────────────────────────────────────────────────
// Service Management
// ──────────────────────────────────────────────────

// CreateService registers a sellable service.
func (e *Engine) CreateService(ctx context.Context, s *service.Service) error {
	if s.ID.IsNil() {
		s.ID = id.New(id.PrefixService)
	}
	if s.Name == "" || s.BaseCost.Amount < 0 {
		return ErrInvalidInput
	}
	s.Entity = types.NewEntity()

	return e.store.CreateService(ctx, s)
}

// GetService retrieves a service by ID.
func (e *Engine) GetService(ctx context.Context, serviceID id.ID) (*service.Service, error) {
	return e.store.GetService(ctx, serviceID)
}

// ListServices lists a tenant's services.
func (e *Engine) ListServices(ctx context.Context, tenantID string) ([]*service.Service, error) {
	return e.store.ListServices(ctx, tenantID)
}

// UpdateService updates a service definition.
func (e *Engine) UpdateService(ctx context.Context, s *service.Service) error {
	s.Touch()
	return e.store.UpdateService(ctx, s)
}

// ──────────────────────────────────────────────────
// Provider Management
// ──────────────────────────────────────────────────

// CreateProviderConfig stores a provider configuration after checking
// that its type is registered.
func (e *Engine) CreateProviderConfig(ctx context.Context, cfg *provider.Config) error {
	if cfg.ID.IsNil() {
		cfg.ID = id.New(id.PrefixProvider)
	}
	if _, err := e.providers.New(*cfg); err != nil {
		return err
	}
	cfg.Entity = types.NewEntity()

	return e.store.CreateProviderConfig(ctx, cfg)
}

// GetProviderConfig retrieves a provider configuration.
func (e *Engine) GetProviderConfig(ctx context.Context, providerID id.ID) (*provider.Config, error) {
	return e.store.GetProviderConfig(ctx, providerID)
}

// ListProviderConfigs lists a tenant's provider configurations.
func (e *Engine) ListProviderConfigs(ctx context.Context, tenantID string) ([]*provider.Config, error) {
	return e.store.ListProviderConfigs(ctx, tenantID)
}

// UpdateProviderConfig updates a provider configuration.
func (e *Engine) UpdateProviderConfig(ctx context.Context, cfg *provider.Config) error {
	cfg.Touch()
	return e.store.UpdateProviderConfig(ctx, cfg)
}

// providerFor instantiates the provider behind an order's config.
func (e *Engine) providerFor(ctx context.Context, providerID id.ID) (provider.Provider, *provider.Config, error) {
	cfg, err := e.store.GetProviderConfig(ctx, providerID)
	if err != nil {
		return nil, nil, err
	}
	if !cfg.Active {
		return nil, nil, ErrProviderInactive
	}

	p, err := e.providers.New(*cfg)
	if err != nil {
		return nil, nil, err
	}
	return p, cfg, nil
}

// ──────────────────────────────────────────────────
// Pricing Management
// ──────────────────────────────────────────────────

// CreatePricingRule validates and stores a pricing rule.
func (e *Engine) CreatePricingRule(ctx context.Context, r *pricing.Rule) error {
	if r.ID.IsNil() {
		r.ID = id.New(id.PrefixPricingRule)
	}
	if err := r.Validate(); err != nil {
		return err
	}
	if _, err := e.store.GetService(ctx, r.ServiceID); err != nil {
		return err
	}
	r.Entity = types.NewEntity()

	return e.store.CreatePricingRule(ctx, r)
}

// UpdatePricingRule validates and updates a pricing rule.
func (e *Engine) UpdatePricingRule(ctx context.Context, r *pricing.Rule) error {
	if err := r.Validate(); err != nil {
		return err
	}
	r.Touch()
	return e.store.UpdatePricingRule(ctx, r)
}

// DeletePricingRule removes a pricing rule.
func (e *Engine) DeletePricingRule(ctx context.Context, ruleID id.ID) error {
	return e.store.DeletePricingRule(ctx, ruleID)
}

// QuoteOrder prices a prospective order for the given role without
// creating anything.
func (e *Engine) QuoteOrder(ctx context.Context, serviceID id.ID, role types.Role, quantity int64) (pricing.Quote, error) {
	svc, err := e.store.GetService(ctx, serviceID)
	if err != nil {
		return pricing.Quote{}, err
	}

	rules, err := e.rulesFor(ctx, serviceID)
	if err != nil {
		return pricing.Quote{}, err
	}

	return pricing.Calculate(svc.BaseCost, rules, role, quantity)
}

// rulesFor loads a service's pricing rules as values.
func (e *Engine) rulesFor(ctx context.Context, serviceID id.ID) ([]pricing.Rule, error) {
	stored, err := e.store.ListPricingRules(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	rules := make([]pricing.Rule, len(stored))
	for i, r := range stored {
		rules[i] = *r
	}
	return rules, nil
}
