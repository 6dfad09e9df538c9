// Package postgres implements the store.Store interface on PostgreSQL
// using sqlx. Per-wallet serialization uses session-level advisory locks
// so read-check-append ledger sequences stay atomic across connections.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/vendra/vendra"
	"github.com/vendra/vendra/id"
	"github.com/vendra/vendra/order"
	"github.com/vendra/vendra/pricing"
	"github.com/vendra/vendra/provider"
	"github.com/vendra/vendra/service"
	"github.com/vendra/vendra/store"
	"github.com/vendra/vendra/wallet"
)

// Compile-time check.
var _ store.Store = (*Store)(nil)

// pq error code for unique_violation.
const codeUniqueViolation = "23505"

// Store is a PostgreSQL-backed store.
type Store struct {
	db *sqlx.DB
}

// New opens a connection pool against databaseURL and returns a Store.
// Call Migrate before first use.
func New(databaseURL string) (*Store, error) {
	db, err := sqlx.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing *sql.DB. The caller keeps ownership of the
// connection pool lifecycle when using this constructor in tests.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: sqlx.NewDb(db, "postgres")}
}

// Migrate applies all schema migrations in order. Every step is
// idempotent, so Migrate is safe to run at every startup.
func (s *Store) Migrate(ctx context.Context) error {
	for _, m := range migrations {
		if _, err := s.db.ExecContext(ctx, m.stmt); err != nil {
			return fmt.Errorf("postgres: migration %s: %w", m.name, err)
		}
	}
	return nil
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// isUniqueViolation reports whether err is a unique constraint failure.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == codeUniqueViolation
}

// ==================== Account methods ====================

func (s *Store) CreateAccount(ctx context.Context, a *wallet.Account) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO vendra_accounts (id, tenant_id, parent_id, role, name, created_at, updated_at)
		VALUES (:id, :tenant_id, :parent_id, :role, :name, :created_at, :updated_at)`,
		toAccountModel(a))
	if isUniqueViolation(err) {
		return vendra.ErrAlreadyExists
	}
	return err
}

func (s *Store) GetAccount(ctx context.Context, accountID id.ID) (*wallet.Account, error) {
	var m accountModel
	err := s.db.GetContext(ctx, &m,
		`SELECT * FROM vendra_accounts WHERE id = $1`, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, vendra.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return fromAccountModel(&m), nil
}

func (s *Store) UpdateAccount(ctx context.Context, a *wallet.Account) error {
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE vendra_accounts
		SET parent_id = :parent_id, role = :role, name = :name, updated_at = :updated_at
		WHERE id = :id`,
		toAccountModel(a))
	if err != nil {
		return err
	}
	return requireRow(res, vendra.ErrAccountNotFound)
}

// ==================== Wallet methods ====================

func (s *Store) CreateWallet(ctx context.Context, w *wallet.Wallet) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO vendra_wallets (id, tenant_id, owner_id, currency, active, created_at, updated_at)
		VALUES (:id, :tenant_id, :owner_id, :currency, :active, :created_at, :updated_at)`,
		toWalletModel(w))
	if isUniqueViolation(err) {
		return vendra.ErrWalletExists
	}
	return err
}

func (s *Store) GetWallet(ctx context.Context, walletID id.ID) (*wallet.Wallet, error) {
	var m walletModel
	err := s.db.GetContext(ctx, &m,
		`SELECT * FROM vendra_wallets WHERE id = $1`, walletID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, vendra.ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}
	return fromWalletModel(&m), nil
}

func (s *Store) GetWalletByOwner(ctx context.Context, ownerID id.ID) (*wallet.Wallet, error) {
	var m walletModel
	err := s.db.GetContext(ctx, &m,
		`SELECT * FROM vendra_wallets WHERE owner_id = $1`, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, vendra.ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}
	return fromWalletModel(&m), nil
}

func (s *Store) UpdateWallet(ctx context.Context, w *wallet.Wallet) error {
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE vendra_wallets
		SET currency = :currency, active = :active, updated_at = :updated_at
		WHERE id = :id`,
		toWalletModel(w))
	if err != nil {
		return err
	}
	return requireRow(res, vendra.ErrWalletNotFound)
}

// ==================== Transaction methods ====================

// AppendTransaction inserts a new ledger entry. The seq column assigns
// insertion order; entries are never updated or deleted afterwards.
func (s *Store) AppendTransaction(ctx context.Context, tx *wallet.Transaction) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO vendra_transactions
			(id, wallet_id, type, amount, currency, status, ref_type, ref_id,
			 parent_tx_id, description, created_at, completed_at)
		VALUES
			(:id, :wallet_id, :type, :amount, :currency, :status, :ref_type, :ref_id,
			 :parent_tx_id, :description, :created_at, :completed_at)`,
		toTransactionModel(tx))
	if isUniqueViolation(err) {
		return vendra.ErrAlreadyExists
	}
	return err
}

func (s *Store) GetTransaction(ctx context.Context, txID id.ID) (*wallet.Transaction, error) {
	var m transactionModel
	err := s.db.GetContext(ctx, &m,
		`SELECT * FROM vendra_transactions WHERE id = $1`, txID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, vendra.ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	tx := fromTransactionModel(&m)
	return &tx, nil
}

func (s *Store) ListTransactions(ctx context.Context, walletID id.ID, filter wallet.TxFilter) ([]wallet.Transaction, error) {
	query := `SELECT * FROM vendra_transactions WHERE wallet_id = $1`
	args := []any{walletID}

	if filter.Type != "" {
		args = append(args, string(filter.Type))
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Reference != "" {
		args = append(args, filter.Reference)
		query += fmt.Sprintf(" AND ref_id = $%d", len(args))
	}

	query += " ORDER BY seq"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	var models []transactionModel
	if err := s.db.SelectContext(ctx, &models, query, args...); err != nil {
		return nil, err
	}

	txs := make([]wallet.Transaction, 0, len(models))
	for i := range models {
		txs = append(txs, fromTransactionModel(&models[i]))
	}
	return txs, nil
}

// WithWallet serializes fn against concurrent wallet operations using a
// session-level advisory lock keyed by the wallet ID. The lock is held
// on a dedicated connection so fn may use the shared pool freely.
func (s *Store) WithWallet(ctx context.Context, walletID id.ID, fn func(ctx context.Context) error) error {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return fmt.Errorf("postgres: acquire conn: %w", err)
	}
	defer conn.Close() //nolint:errcheck // pooled connection

	key := lockKey(walletID)
	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, key); err != nil {
		return fmt.Errorf("postgres: advisory lock: %w", err)
	}
	// Unlock must run even when ctx was canceled mid-fn, otherwise the
	// wallet stays locked until the connection dies.
	defer conn.ExecContext(context.WithoutCancel(ctx), `SELECT pg_advisory_unlock($1)`, key) //nolint:errcheck

	return fn(ctx)
}

// lockKey hashes a wallet ID into the advisory lock keyspace.
func lockKey(walletID id.ID) int64 {
	h := fnv.New64a()
	h.Write([]byte(walletID.String())) //nolint:errcheck // fnv never fails
	return int64(h.Sum64())
}

// ==================== Order methods ====================

func (s *Store) CreateOrder(ctx context.Context, o *order.Order) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO vendra_orders
			(id, tenant_id, user_id, service_id, provider_id, order_number, status,
			 quantity, input_data, output_data, base_cost, markup, total_amount,
			 paid_amount, currency, provider_order_id, provider_status,
			 approved_by, approved_at, completed_at, created_at, updated_at)
		VALUES
			(:id, :tenant_id, :user_id, :service_id, :provider_id, :order_number, :status,
			 :quantity, :input_data, :output_data, :base_cost, :markup, :total_amount,
			 :paid_amount, :currency, :provider_order_id, :provider_status,
			 :approved_by, :approved_at, :completed_at, :created_at, :updated_at)`,
		toOrderModel(o))
	if isUniqueViolation(err) {
		return vendra.ErrAlreadyExists
	}
	return err
}

func (s *Store) GetOrder(ctx context.Context, orderID id.ID) (*order.Order, error) {
	var m orderModel
	err := s.db.GetContext(ctx, &m,
		`SELECT * FROM vendra_orders WHERE id = $1`, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, vendra.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return fromOrderModel(&m)
}

func (s *Store) GetOrderByNumber(ctx context.Context, tenantID, orderNumber string) (*order.Order, error) {
	var m orderModel
	err := s.db.GetContext(ctx, &m,
		`SELECT * FROM vendra_orders WHERE tenant_id = $1 AND order_number = $2`,
		tenantID, orderNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, vendra.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return fromOrderModel(&m)
}

func (s *Store) ListOrders(ctx context.Context, tenantID string, opts order.ListOpts) ([]*order.Order, error) {
	query := `SELECT * FROM vendra_orders WHERE tenant_id = $1`
	args := []any{tenantID}

	if opts.Status != "" {
		args = append(args, string(opts.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if !opts.ServiceID.IsNil() {
		args = append(args, opts.ServiceID)
		query += fmt.Sprintf(" AND service_id = $%d", len(args))
	}
	if !opts.UserID.IsNil() {
		args = append(args, opts.UserID)
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}

	query += " ORDER BY created_at DESC"
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	var models []orderModel
	if err := s.db.SelectContext(ctx, &models, query, args...); err != nil {
		return nil, err
	}
	return ordersFromModels(models)
}

func (s *Store) ListOrdersByStatus(ctx context.Context, status order.Status, limit, offset int) ([]*order.Order, error) {
	// The id tie-break keeps offset paging stable across equal timestamps.
	query := `SELECT * FROM vendra_orders WHERE status = $1 ORDER BY created_at, id`
	args := []any{string(status)}
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if offset > 0 {
		args = append(args, offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	var models []orderModel
	if err := s.db.SelectContext(ctx, &models, query, args...); err != nil {
		return nil, err
	}
	return ordersFromModels(models)
}

func ordersFromModels(models []orderModel) ([]*order.Order, error) {
	orders := make([]*order.Order, 0, len(models))
	for i := range models {
		o, err := fromOrderModel(&models[i])
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (s *Store) UpdateOrder(ctx context.Context, o *order.Order) error {
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE vendra_orders
		SET status = :status, output_data = :output_data, paid_amount = :paid_amount,
		    provider_order_id = :provider_order_id, provider_status = :provider_status,
		    approved_by = :approved_by, approved_at = :approved_at,
		    completed_at = :completed_at, updated_at = :updated_at
		WHERE id = :id`,
		toOrderModel(o))
	if err != nil {
		return err
	}
	return requireRow(res, vendra.ErrOrderNotFound)
}

// ==================== Order item methods ====================

func (s *Store) CreateOrderItems(ctx context.Context, items []*order.Item) error {
	if len(items) == 0 {
		return nil
	}

	models := make([]*orderItemModel, 0, len(items))
	for _, it := range items {
		models = append(models, toOrderItemModel(it))
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO vendra_order_items
			(id, order_id, idx, status, input_data, output_data, provider_order_id, created_at, updated_at)
		VALUES
			(:id, :order_id, :idx, :status, :input_data, :output_data, :provider_order_id, :created_at, :updated_at)`,
		models)
	return err
}

func (s *Store) ListOrderItems(ctx context.Context, orderID id.ID) ([]*order.Item, error) {
	var models []orderItemModel
	err := s.db.SelectContext(ctx, &models,
		`SELECT * FROM vendra_order_items WHERE order_id = $1 ORDER BY idx`, orderID)
	if err != nil {
		return nil, err
	}

	items := make([]*order.Item, 0, len(models))
	for i := range models {
		it, err := fromOrderItemModel(&models[i])
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

func (s *Store) UpdateOrderItem(ctx context.Context, item *order.Item) error {
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE vendra_order_items
		SET status = :status, output_data = :output_data,
		    provider_order_id = :provider_order_id, updated_at = :updated_at
		WHERE id = :id`,
		toOrderItemModel(item))
	if err != nil {
		return err
	}
	return requireRow(res, vendra.ErrOrderItemNotFound)
}

// ==================== Service methods ====================

func (s *Store) CreateService(ctx context.Context, svc *service.Service) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO vendra_services
			(id, tenant_id, name, input_schema, base_cost, currency, allowed_roles,
			 supports_bulk, requires_approval, active, created_at, updated_at)
		VALUES
			(:id, :tenant_id, :name, :input_schema, :base_cost, :currency, :allowed_roles,
			 :supports_bulk, :requires_approval, :active, :created_at, :updated_at)`,
		toServiceModel(svc))
	if isUniqueViolation(err) {
		return vendra.ErrAlreadyExists
	}
	return err
}

func (s *Store) GetService(ctx context.Context, serviceID id.ID) (*service.Service, error) {
	var m serviceModel
	err := s.db.GetContext(ctx, &m,
		`SELECT * FROM vendra_services WHERE id = $1`, serviceID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, vendra.ErrServiceNotFound
	}
	if err != nil {
		return nil, err
	}
	return fromServiceModel(&m)
}

func (s *Store) ListServices(ctx context.Context, tenantID string) ([]*service.Service, error) {
	var models []serviceModel
	err := s.db.SelectContext(ctx, &models,
		`SELECT * FROM vendra_services WHERE tenant_id = $1 ORDER BY created_at`, tenantID)
	if err != nil {
		return nil, err
	}

	services := make([]*service.Service, 0, len(models))
	for i := range models {
		svc, err := fromServiceModel(&models[i])
		if err != nil {
			return nil, err
		}
		services = append(services, svc)
	}
	return services, nil
}

func (s *Store) UpdateService(ctx context.Context, svc *service.Service) error {
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE vendra_services
		SET name = :name, input_schema = :input_schema, base_cost = :base_cost,
		    currency = :currency, allowed_roles = :allowed_roles,
		    supports_bulk = :supports_bulk, requires_approval = :requires_approval,
		    active = :active, updated_at = :updated_at
		WHERE id = :id`,
		toServiceModel(svc))
	if err != nil {
		return err
	}
	return requireRow(res, vendra.ErrServiceNotFound)
}

// ==================== Provider config methods ====================

func (s *Store) CreateProviderConfig(ctx context.Context, cfg *provider.Config) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO vendra_providers
			(id, tenant_id, name, type, endpoint, api_key, settings, status_mapping,
			 last_sync_at, active, created_at, updated_at)
		VALUES
			(:id, :tenant_id, :name, :type, :endpoint, :api_key, :settings, :status_mapping,
			 :last_sync_at, :active, :created_at, :updated_at)`,
		toProviderModel(cfg))
	if isUniqueViolation(err) {
		return vendra.ErrAlreadyExists
	}
	return err
}

func (s *Store) GetProviderConfig(ctx context.Context, providerID id.ID) (*provider.Config, error) {
	var m providerModel
	err := s.db.GetContext(ctx, &m,
		`SELECT * FROM vendra_providers WHERE id = $1`, providerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, vendra.ErrProviderNotFound
	}
	if err != nil {
		return nil, err
	}
	return fromProviderModel(&m)
}

func (s *Store) ListProviderConfigs(ctx context.Context, tenantID string) ([]*provider.Config, error) {
	var models []providerModel
	err := s.db.SelectContext(ctx, &models,
		`SELECT * FROM vendra_providers WHERE tenant_id = $1 ORDER BY created_at`, tenantID)
	if err != nil {
		return nil, err
	}

	configs := make([]*provider.Config, 0, len(models))
	for i := range models {
		cfg, err := fromProviderModel(&models[i])
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

func (s *Store) UpdateProviderConfig(ctx context.Context, cfg *provider.Config) error {
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE vendra_providers
		SET name = :name, type = :type, endpoint = :endpoint, api_key = :api_key,
		    settings = :settings, status_mapping = :status_mapping,
		    last_sync_at = :last_sync_at, active = :active, updated_at = :updated_at
		WHERE id = :id`,
		toProviderModel(cfg))
	if err != nil {
		return err
	}
	return requireRow(res, vendra.ErrProviderNotFound)
}

func (s *Store) MarkProviderSynced(ctx context.Context, providerID id.ID, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE vendra_providers SET last_sync_at = $1, updated_at = $1 WHERE id = $2`,
		at, providerID)
	if err != nil {
		return err
	}
	return requireRow(res, vendra.ErrProviderNotFound)
}

// ==================== Pricing rule methods ====================

func (s *Store) CreatePricingRule(ctx context.Context, r *pricing.Rule) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO vendra_pricing_rules
			(id, service_id, role, markup_type, markup_value, min_profit, max_profit,
			 tiers, created_at, updated_at)
		VALUES
			(:id, :service_id, :role, :markup_type, :markup_value, :min_profit, :max_profit,
			 :tiers, :created_at, :updated_at)`,
		toPricingRuleModel(r))
	if isUniqueViolation(err) {
		return vendra.ErrAlreadyExists
	}
	return err
}

func (s *Store) GetPricingRule(ctx context.Context, ruleID id.ID) (*pricing.Rule, error) {
	var m pricingRuleModel
	err := s.db.GetContext(ctx, &m,
		`SELECT * FROM vendra_pricing_rules WHERE id = $1`, ruleID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, vendra.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return fromPricingRuleModel(&m)
}

func (s *Store) ListPricingRules(ctx context.Context, serviceID id.ID) ([]*pricing.Rule, error) {
	var models []pricingRuleModel
	err := s.db.SelectContext(ctx, &models,
		`SELECT * FROM vendra_pricing_rules WHERE service_id = $1 ORDER BY created_at`, serviceID)
	if err != nil {
		return nil, err
	}

	rules := make([]*pricing.Rule, 0, len(models))
	for i := range models {
		r, err := fromPricingRuleModel(&models[i])
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func (s *Store) UpdatePricingRule(ctx context.Context, r *pricing.Rule) error {
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE vendra_pricing_rules
		SET role = :role, markup_type = :markup_type, markup_value = :markup_value,
		    min_profit = :min_profit, max_profit = :max_profit, tiers = :tiers,
		    updated_at = :updated_at
		WHERE id = :id`,
		toPricingRuleModel(r))
	if err != nil {
		return err
	}
	return requireRow(res, vendra.ErrNotFound)
}

func (s *Store) DeletePricingRule(ctx context.Context, ruleID id.ID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM vendra_pricing_rules WHERE id = $1`, ruleID)
	if err != nil {
		return err
	}
	return requireRow(res, vendra.ErrNotFound)
}

// ==================== Helpers ====================

// requireRow translates a zero-row update or delete into notFound.
func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
