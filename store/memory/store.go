// Package memory provides an in-memory Store for tests and development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vendra/vendra"
	"github.com/vendra/vendra/id"
	"github.com/vendra/vendra/order"
	"github.com/vendra/vendra/pricing"
	"github.com/vendra/vendra/provider"
	"github.com/vendra/vendra/service"
	"github.com/vendra/vendra/wallet"
)

type Store struct {
	mu sync.RWMutex

	// Entity storage
	accounts  map[string]*wallet.Account
	wallets   map[string]*wallet.Wallet
	orders    map[string]*order.Order
	items     map[string][]*order.Item
	services  map[string]*service.Service
	providers map[string]*provider.Config
	rules     map[string]*pricing.Rule

	// Ledger storage. Entries are stored by value in insertion order and
	// never mutated after append.
	ledgers map[string][]wallet.Transaction
	txIndex map[string]wallet.Transaction

	// Per-wallet serialization guards for WithWallet
	guardMu sync.Mutex
	guards  map[string]*sync.Mutex

	closed bool
}

func New() *Store {
	return &Store{
		accounts:  make(map[string]*wallet.Account),
		wallets:   make(map[string]*wallet.Wallet),
		orders:    make(map[string]*order.Order),
		items:     make(map[string][]*order.Item),
		services:  make(map[string]*service.Service),
		providers: make(map[string]*provider.Config),
		rules:     make(map[string]*pricing.Rule),
		ledgers:   make(map[string][]wallet.Transaction),
		txIndex:   make(map[string]wallet.Transaction),
		guards:    make(map[string]*sync.Mutex),
	}
}

// Account methods

func (s *Store) CreateAccount(_ context.Context, a *wallet.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[a.ID.String()]; exists {
		return vendra.ErrAlreadyExists
	}
	s.accounts[a.ID.String()] = a
	return nil
}

func (s *Store) GetAccount(_ context.Context, accountID id.ID) (*wallet.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if a, ok := s.accounts[accountID.String()]; ok {
		return a, nil
	}
	return nil, vendra.ErrAccountNotFound
}

func (s *Store) UpdateAccount(_ context.Context, a *wallet.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[a.ID.String()]; !exists {
		return vendra.ErrAccountNotFound
	}
	s.accounts[a.ID.String()] = a
	return nil
}

// Wallet methods

func (s *Store) CreateWallet(_ context.Context, w *wallet.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.wallets[w.ID.String()]; exists {
		return vendra.ErrAlreadyExists
	}
	for _, existing := range s.wallets {
		if existing.OwnerID == w.OwnerID {
			return vendra.ErrWalletExists
		}
	}
	s.wallets[w.ID.String()] = w
	return nil
}

func (s *Store) GetWallet(_ context.Context, walletID id.ID) (*wallet.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if w, ok := s.wallets[walletID.String()]; ok {
		return w, nil
	}
	return nil, vendra.ErrWalletNotFound
}

func (s *Store) GetWalletByOwner(_ context.Context, ownerID id.ID) (*wallet.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, w := range s.wallets {
		if w.OwnerID == ownerID {
			return w, nil
		}
	}
	return nil, vendra.ErrWalletNotFound
}

func (s *Store) UpdateWallet(_ context.Context, w *wallet.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.wallets[w.ID.String()]; !exists {
		return vendra.ErrWalletNotFound
	}
	s.wallets[w.ID.String()] = w
	return nil
}

// Transaction methods

func (s *Store) AppendTransaction(_ context.Context, tx *wallet.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.txIndex[tx.ID.String()]; exists {
		return vendra.ErrAlreadyExists
	}
	if _, ok := s.wallets[tx.WalletID.String()]; !ok {
		return vendra.ErrWalletNotFound
	}
	s.ledgers[tx.WalletID.String()] = append(s.ledgers[tx.WalletID.String()], *tx)
	s.txIndex[tx.ID.String()] = *tx
	return nil
}

func (s *Store) GetTransaction(_ context.Context, txID id.ID) (*wallet.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if tx, ok := s.txIndex[txID.String()]; ok {
		return &tx, nil
	}
	return nil, vendra.ErrTransactionNotFound
}

func (s *Store) ListTransactions(_ context.Context, walletID id.ID, filter wallet.TxFilter) ([]wallet.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.wallets[walletID.String()]; !ok {
		return nil, vendra.ErrWalletNotFound
	}

	result := make([]wallet.Transaction, 0)
	for _, tx := range s.ledgers[walletID.String()] {
		if filter.Matches(&tx) {
			result = append(result, tx)
		}
	}

	// Apply limit/offset
	start := filter.Offset
	if start > len(result) {
		start = len(result)
	}
	end := start + filter.Limit
	if filter.Limit == 0 || end > len(result) {
		end = len(result)
	}

	return result[start:end], nil
}

// WithWallet serializes fn against all other WithWallet calls for the
// same wallet. Different wallets proceed in parallel.
func (s *Store) WithWallet(ctx context.Context, walletID id.ID, fn func(ctx context.Context) error) error {
	s.guardMu.Lock()
	guard, ok := s.guards[walletID.String()]
	if !ok {
		guard = &sync.Mutex{}
		s.guards[walletID.String()] = guard
	}
	s.guardMu.Unlock()

	guard.Lock()
	defer guard.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}

// Order methods

func (s *Store) CreateOrder(_ context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[o.ID.String()]; exists {
		return vendra.ErrAlreadyExists
	}
	s.orders[o.ID.String()] = o
	return nil
}

func (s *Store) GetOrder(_ context.Context, orderID id.ID) (*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if o, ok := s.orders[orderID.String()]; ok {
		return o, nil
	}
	return nil, vendra.ErrOrderNotFound
}

func (s *Store) GetOrderByNumber(_ context.Context, tenantID, orderNumber string) (*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, o := range s.orders {
		if o.TenantID == tenantID && o.OrderNumber == orderNumber {
			return o, nil
		}
	}
	return nil, vendra.ErrOrderNotFound
}

func (s *Store) ListOrders(_ context.Context, tenantID string, opts order.ListOpts) ([]*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*order.Order, 0)
	for _, o := range s.orders {
		if o.TenantID != tenantID {
			continue
		}
		if opts.Status != "" && o.Status != opts.Status {
			continue
		}
		if !opts.ServiceID.IsNil() && o.ServiceID != opts.ServiceID {
			continue
		}
		if !opts.UserID.IsNil() && o.UserID != opts.UserID {
			continue
		}
		result = append(result, o)
	}

	// Apply limit/offset
	start := opts.Offset
	if start > len(result) {
		start = len(result)
	}
	end := start + opts.Limit
	if opts.Limit == 0 || end > len(result) {
		end = len(result)
	}

	return result[start:end], nil
}

func (s *Store) ListOrdersByStatus(_ context.Context, status order.Status, limit, offset int) ([]*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*order.Order, 0)
	for _, o := range s.orders {
		if o.Status != status {
			continue
		}
		result = append(result, o)
	}

	// Map iteration is unordered; offset paging needs a stable order.
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID.String() < result[j].ID.String()
	})

	if offset > len(result) {
		offset = len(result)
	}
	end := offset + limit
	if limit <= 0 || end > len(result) {
		end = len(result)
	}
	return result[offset:end], nil
}

func (s *Store) UpdateOrder(_ context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[o.ID.String()]; !exists {
		return vendra.ErrOrderNotFound
	}
	s.orders[o.ID.String()] = o
	return nil
}

// Order item methods

func (s *Store) CreateOrderItems(_ context.Context, items []*order.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range items {
		key := item.OrderID.String()
		s.items[key] = append(s.items[key], item)
	}
	return nil
}

func (s *Store) ListOrderItems(_ context.Context, orderID id.ID) ([]*order.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*order.Item, len(s.items[orderID.String()]))
	copy(result, s.items[orderID.String()])
	return result, nil
}

func (s *Store) UpdateOrderItem(_ context.Context, item *order.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.items[item.OrderID.String()] {
		if existing.ID == item.ID {
			s.items[item.OrderID.String()][i] = item
			return nil
		}
	}
	return vendra.ErrOrderItemNotFound
}

// Service methods

func (s *Store) CreateService(_ context.Context, svc *service.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.services[svc.ID.String()]; exists {
		return vendra.ErrAlreadyExists
	}
	s.services[svc.ID.String()] = svc
	return nil
}

func (s *Store) GetService(_ context.Context, serviceID id.ID) (*service.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if svc, ok := s.services[serviceID.String()]; ok {
		return svc, nil
	}
	return nil, vendra.ErrServiceNotFound
}

func (s *Store) ListServices(_ context.Context, tenantID string) ([]*service.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*service.Service, 0)
	for _, svc := range s.services {
		if svc.TenantID == tenantID {
			result = append(result, svc)
		}
	}
	return result, nil
}

func (s *Store) UpdateService(_ context.Context, svc *service.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.services[svc.ID.String()]; !exists {
		return vendra.ErrServiceNotFound
	}
	s.services[svc.ID.String()] = svc
	return nil
}

// Provider config methods

func (s *Store) CreateProviderConfig(_ context.Context, cfg *provider.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.providers[cfg.ID.String()]; exists {
		return vendra.ErrAlreadyExists
	}
	s.providers[cfg.ID.String()] = cfg
	return nil
}

func (s *Store) GetProviderConfig(_ context.Context, providerID id.ID) (*provider.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if cfg, ok := s.providers[providerID.String()]; ok {
		return cfg, nil
	}
	return nil, vendra.ErrProviderNotFound
}

func (s *Store) ListProviderConfigs(_ context.Context, tenantID string) ([]*provider.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*provider.Config, 0)
	for _, cfg := range s.providers {
		if cfg.TenantID == tenantID {
			result = append(result, cfg)
		}
	}
	return result, nil
}

func (s *Store) UpdateProviderConfig(_ context.Context, cfg *provider.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.providers[cfg.ID.String()]; !exists {
		return vendra.ErrProviderNotFound
	}
	s.providers[cfg.ID.String()] = cfg
	return nil
}

func (s *Store) MarkProviderSynced(_ context.Context, providerID id.ID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, ok := s.providers[providerID.String()]
	if !ok {
		return vendra.ErrProviderNotFound
	}
	cfg.LastSyncAt = &at
	return nil
}

// Pricing rule methods

func (s *Store) CreatePricingRule(_ context.Context, r *pricing.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rules[r.ID.String()]; exists {
		return vendra.ErrAlreadyExists
	}
	s.rules[r.ID.String()] = r
	return nil
}

func (s *Store) GetPricingRule(_ context.Context, ruleID id.ID) (*pricing.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.rules[ruleID.String()]; ok {
		return r, nil
	}
	return nil, vendra.ErrNotFound
}

func (s *Store) ListPricingRules(_ context.Context, serviceID id.ID) ([]*pricing.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*pricing.Rule, 0)
	for _, r := range s.rules {
		if r.ServiceID == serviceID {
			result = append(result, r)
		}
	}
	return result, nil
}

func (s *Store) UpdatePricingRule(_ context.Context, r *pricing.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rules[r.ID.String()]; !exists {
		return vendra.ErrNotFound
	}
	s.rules[r.ID.String()] = r
	return nil
}

func (s *Store) DeletePricingRule(_ context.Context, ruleID id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rules[ruleID.String()]; !exists {
		return vendra.ErrNotFound
	}
	delete(s.rules, ruleID.String())
	return nil
}

// Core methods

func (s *Store) Migrate(_ context.Context) error {
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return vendra.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}
