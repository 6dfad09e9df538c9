// Package store defines the unified storage interface for all Vendra
// entities, plus the drivers that implement it (memory, postgres, mongo).
package store

import (
	"context"
	"time"

	"github.com/vendra/vendra/id"
	"github.com/vendra/vendra/order"
	"github.com/vendra/vendra/pricing"
	"github.com/vendra/vendra/provider"
	"github.com/vendra/vendra/service"
	"github.com/vendra/vendra/wallet"
)

// Store is the unified storage interface for all Vendra entities.
// Instead of embedding sub-interfaces, all methods are declared
// explicitly to avoid naming conflicts.
//
// Ledger entries are append-only: there is no update or delete method
// for transactions, and drivers must return them in insertion order.
type Store interface {
	// Account methods
	CreateAccount(ctx context.Context, a *wallet.Account) error
	GetAccount(ctx context.Context, accountID id.ID) (*wallet.Account, error)
	UpdateAccount(ctx context.Context, a *wallet.Account) error

	// Wallet methods
	CreateWallet(ctx context.Context, w *wallet.Wallet) error
	GetWallet(ctx context.Context, walletID id.ID) (*wallet.Wallet, error)
	GetWalletByOwner(ctx context.Context, ownerID id.ID) (*wallet.Wallet, error)
	UpdateWallet(ctx context.Context, w *wallet.Wallet) error

	// Transaction methods. AppendTransaction never overwrites; the
	// ledger only grows.
	AppendTransaction(ctx context.Context, tx *wallet.Transaction) error
	GetTransaction(ctx context.Context, txID id.ID) (*wallet.Transaction, error)
	ListTransactions(ctx context.Context, walletID id.ID, filter wallet.TxFilter) ([]wallet.Transaction, error)

	// WithWallet runs fn while holding the wallet's serialization guard.
	// All read-check-append sequences against a wallet's ledger must run
	// inside it.
	WithWallet(ctx context.Context, walletID id.ID, fn func(ctx context.Context) error) error

	// Order methods. ListOrdersByStatus pages in a stable creation-time
	// order across all tenants; limit/offset page the result.
	CreateOrder(ctx context.Context, o *order.Order) error
	GetOrder(ctx context.Context, orderID id.ID) (*order.Order, error)
	GetOrderByNumber(ctx context.Context, tenantID, orderNumber string) (*order.Order, error)
	ListOrders(ctx context.Context, tenantID string, opts order.ListOpts) ([]*order.Order, error)
	ListOrdersByStatus(ctx context.Context, status order.Status, limit, offset int) ([]*order.Order, error)
	UpdateOrder(ctx context.Context, o *order.Order) error

	// Order item methods (bulk orders)
	CreateOrderItems(ctx context.Context, items []*order.Item) error
	ListOrderItems(ctx context.Context, orderID id.ID) ([]*order.Item, error)
	UpdateOrderItem(ctx context.Context, item *order.Item) error

	// Service methods
	CreateService(ctx context.Context, s *service.Service) error
	GetService(ctx context.Context, serviceID id.ID) (*service.Service, error)
	ListServices(ctx context.Context, tenantID string) ([]*service.Service, error)
	UpdateService(ctx context.Context, s *service.Service) error

	// Provider config methods
	CreateProviderConfig(ctx context.Context, cfg *provider.Config) error
	GetProviderConfig(ctx context.Context, providerID id.ID) (*provider.Config, error)
	ListProviderConfigs(ctx context.Context, tenantID string) ([]*provider.Config, error)
	UpdateProviderConfig(ctx context.Context, cfg *provider.Config) error
	MarkProviderSynced(ctx context.Context, providerID id.ID, at time.Time) error

	// Pricing rule methods
	CreatePricingRule(ctx context.Context, r *pricing.Rule) error
	GetPricingRule(ctx context.Context, ruleID id.ID) (*pricing.Rule, error)
	ListPricingRules(ctx context.Context, serviceID id.ID) ([]*pricing.Rule, error)
	UpdatePricingRule(ctx context.Context, r *pricing.Rule) error
	DeletePricingRule(ctx context.Context, ruleID id.ID) error

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
